package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"causal-insights-go/internal/matcher"
	"causal-insights-go/internal/signals"
)

// Templates for chains the playbook knows by name. Keyed by chain key;
// unknown chains fall back to a generated sentence.
var templates = map[string]string{
	signals.CustomerFrustration: "The customer expressed frustration early in the conversation.",
	signals.AgentDelay:          "The agent's delayed responses were the main issue.",
	signals.AgentDenial:         "The customer faced a policy denial from the agent.",

	key(signals.CustomerFrustration, signals.AgentDelay):  "The customer was frustrated, and when the agent delayed responding, the situation escalated.",
	key(signals.CustomerFrustration, signals.AgentDenial): "The customer was frustrated to begin with. When the agent then denied their request, escalation followed.",
	key(signals.AgentDelay, signals.CustomerFrustration):  "The agent's initial delay caused customer frustration, which drove the escalation.",

	key(signals.CustomerFrustration, signals.AgentDelay, signals.AgentDenial): "Three factors compounded: the customer's frustration, the agent's delay, and then a denial of service.",
}

func key(types ...string) string { return strings.Join(types, "|") }

// Text renders an explanation as plain English: pattern sentence, confidence
// phrasing, supporting quotes and alternatives. No LLM involved.
func Text(exp matcher.Explanation) string {
	if !exp.HasChain() {
		return fmt.Sprintf("No explanatory chain was found for transcript %s: its signals have no corpus-supported pattern.", exp.TranscriptID)
	}

	var parts []string
	if tpl, ok := templates[exp.PrimaryChain.Key()]; ok {
		parts = append(parts, tpl)
	} else {
		parts = append(parts, genericSentence(exp))
	}
	parts = append(parts, fmt.Sprintf("Pattern: %s", exp.PrimaryChain.String()))
	parts = append(parts, confidenceSentence(exp))

	if len(exp.Evidence) > 0 {
		parts = append(parts, "Supporting evidence:")
		for i, sig := range exp.Evidence {
			if i >= 3 {
				break
			}
			parts = append(parts, fmt.Sprintf("  Turn %d (%s): %q", sig.TurnIndex, capitalize(sig.Speaker), truncateQuote(sig.Text, 80)))
		}
	}

	if len(exp.Alternatives) > 0 {
		parts = append(parts, "Alternative explanations:")
		for i, alt := range exp.Alternatives {
			if i >= 2 {
				break
			}
			parts = append(parts, fmt.Sprintf("  - %s (%.0f%%)", alt.Chain.String(), alt.Confidence*100))
		}
	}
	return strings.Join(parts, "\n")
}

// truncateQuote shortens a quote to max runes, never splitting a multi-byte
// character.
func truncateQuote(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func genericSentence(exp matcher.Explanation) string {
	sigTypes := exp.PrimaryChain.SignalTypes()
	readable := make([]string, len(sigTypes))
	for i, st := range sigTypes {
		readable[i] = strings.ReplaceAll(st, "_", " ")
	}
	if len(readable) == 1 {
		return fmt.Sprintf("The primary factor was %s.", readable[0])
	}
	return fmt.Sprintf("The sequence %s led to the outcome.", strings.Join(readable, ", then "))
}

func confidenceSentence(exp matcher.Explanation) string {
	c := exp.Confidence
	switch {
	case exp.LowConfidence:
		return fmt.Sprintf("Evidence is thin (%d similar cases); treat this explanation as tentative.", exp.Occurrences)
	case c >= 0.7:
		return fmt.Sprintf("This pattern escalates in %.0f%% of similar cases; it is quite common in the data.", c*100)
	case c >= 0.5:
		return fmt.Sprintf("This pattern escalates in about half of similar cases (%.0f%%).", c*100)
	case c >= 0.3:
		return fmt.Sprintf("This pattern appears in some similar cases (%.0f%%).", c*100)
	default:
		return "This pattern is less common, but fits this case."
	}
}
