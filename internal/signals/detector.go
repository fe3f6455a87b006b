package signals

import (
	"strings"

	"causal-insights-go/internal/types"
)

// Signal type names shared with the causal core and the renderer.
const (
	CustomerFrustration = "customer_frustration"
	AgentDelay          = "agent_delay"
	AgentDenial         = "agent_denial"
)

// Rule describes how one signal type is detected on a turn.
type Rule struct {
	Keywords     []string
	Speaker      string   // "customer", "agent", or "" for any
	MustContain  []string // all must be present in addition to a keyword hit
	MinWordCount int
}

type Detector struct {
	rules map[string]Rule
}

// NewDetector returns a detector with the default keyword rules.
func NewDetector() *Detector {
	return &Detector{rules: map[string]Rule{
		CustomerFrustration: {
			Speaker: "customer",
			Keywords: []string{
				"frustrated", "frustrating", "angry", "ridiculous", "unacceptable",
				"fed up", "waste of time", "third time", "every time", "useless",
				"terrible", "worst", "annoyed", "not happy",
			},
		},
		AgentDelay: {
			Speaker: "agent",
			Keywords: []string{
				"please hold", "bear with me", "give me a moment", "one moment",
				"still checking", "let me check", "it will take", "few more minutes",
				"please wait", "getting back to you",
			},
		},
		AgentDenial: {
			Speaker: "agent",
			Keywords: []string{
				"cannot", "can't", "not possible", "unable to", "not allowed",
				"against our policy", "we don't", "no refund",
			},
			MustContain:  []string{"sorry"},
			MinWordCount: 6,
		},
	}}
}

// DetectTurn returns the signal occurrences fired by a single turn.
func (d *Detector) DetectTurn(turn types.Turn) []types.SignalOccurrence {
	text := strings.ToLower(turn.Text)
	speaker := strings.ToLower(turn.Speaker)

	var out []types.SignalOccurrence
	for _, signalType := range orderedTypes {
		rule := d.rules[signalType]
		if rule.Speaker != "" && rule.Speaker != speaker {
			continue
		}
		if !containsAny(text, rule.Keywords) {
			continue
		}
		if !containsAll(text, rule.MustContain) {
			continue
		}
		if rule.MinWordCount > 0 && len(strings.Fields(text)) < rule.MinWordCount {
			continue
		}
		out = append(out, types.SignalOccurrence{
			SignalType: signalType,
			TurnIndex:  turn.Index,
			Speaker:    turn.Speaker,
			Confidence: d.Confidence(turn.Text, signalType),
			Text:       turn.Text,
		})
	}
	return out
}

// DetectTranscript runs detection over every turn, preserving turn order.
func (d *Detector) DetectTranscript(t types.Transcript) []types.SignalOccurrence {
	var out []types.SignalOccurrence
	for _, turn := range t.Turns {
		out = append(out, d.DetectTurn(turn)...)
	}
	return out
}

// Confidence scores a signal on a turn as the fraction of its keywords that
// matched, capped at 1.0. Crude, but monotone in evidence and stable.
func (d *Detector) Confidence(text, signalType string) float64 {
	rule, ok := d.rules[signalType]
	if !ok || len(rule.Keywords) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	matches := 0
	for _, kw := range rule.Keywords {
		if strings.Contains(lower, kw) {
			matches++
		}
	}
	// A single keyword hit is already a detection; floor the score so that
	// long keyword lists do not drown real hits below typical thresholds.
	score := float64(matches) / float64(len(rule.Keywords))
	if matches > 0 && score < 0.3 {
		score = 0.3
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// Types lists the signal types this detector knows, in detection order.
func (d *Detector) Types() []string {
	out := make([]string, len(orderedTypes))
	copy(out, orderedTypes)
	return out
}

// Detection order is fixed so occurrences within one turn are emitted
// deterministically.
var orderedTypes = []string{CustomerFrustration, AgentDelay, AgentDenial}

func containsAny(text string, kws []string) bool {
	for _, kw := range kws {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func containsAll(text string, kws []string) bool {
	for _, kw := range kws {
		if !strings.Contains(text, kw) {
			return false
		}
	}
	return true
}
