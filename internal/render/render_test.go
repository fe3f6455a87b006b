package render

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"causal-insights-go/internal/chains"
	"causal-insights-go/internal/matcher"
	"causal-insights-go/internal/signals"
	"causal-insights-go/internal/types"
)

func explanation(t *testing.T, confidence float64, sigTypes ...string) matcher.Explanation {
	t.Helper()
	chain, err := chains.New(sigTypes, 0)
	require.NoError(t, err)
	return matcher.Explanation{
		TranscriptID: "T1",
		Outcome:      types.OutcomeEscalated,
		PrimaryChain: &chain,
		Confidence:   confidence,
		Occurrences:  40,
		Evidence: []types.SignalOccurrence{
			{SignalType: sigTypes[0], TurnIndex: 2, Speaker: "customer", Text: "I am fed up with waiting"},
		},
	}
}

func TestText_KnownPatternUsesTemplate(t *testing.T) {
	exp := explanation(t, 0.8, signals.CustomerFrustration, signals.AgentDelay)
	got := Text(exp)

	assert.Contains(t, got, "when the agent delayed responding")
	assert.Contains(t, got, "Pattern: customer_frustration → agent_delay")
	assert.Contains(t, got, "80% of similar cases")
	assert.Contains(t, got, `Turn 2 (Customer): "I am fed up with waiting"`)
}

func TestText_UnknownPatternFallsBack(t *testing.T) {
	exp := explanation(t, 0.4, "network_trouble", signals.AgentDenial)
	got := Text(exp)

	assert.Contains(t, got, "network trouble, then agent denial")
	assert.Contains(t, got, "some similar cases")
}

func TestText_NoChain(t *testing.T) {
	got := Text(matcher.Explanation{TranscriptID: "T9", Outcome: types.OutcomeResolved})
	assert.Contains(t, got, "No explanatory chain")
	assert.Contains(t, got, "T9")
}

func TestText_LowConfidenceWording(t *testing.T) {
	exp := explanation(t, 0.9, signals.CustomerFrustration)
	exp.LowConfidence = true
	exp.Occurrences = 2
	got := Text(exp)
	assert.Contains(t, got, "Evidence is thin")
	assert.Contains(t, got, "2 similar cases")
}

func TestText_AlternativesListed(t *testing.T) {
	exp := explanation(t, 0.7, signals.CustomerFrustration, signals.AgentDelay)
	altChain, err := chains.New([]string{signals.CustomerFrustration}, 0)
	require.NoError(t, err)
	exp.Alternatives = []matcher.RankedChain{{Chain: altChain, Confidence: 0.65}}

	got := Text(exp)
	assert.Contains(t, got, "Alternative explanations:")
	assert.Contains(t, got, "customer_frustration (65%)")
}

func TestText_LongQuotesTruncated(t *testing.T) {
	exp := explanation(t, 0.8, signals.CustomerFrustration)
	exp.Evidence[0].Text = strings.Repeat("very long complaint ", 20)
	got := Text(exp)
	assert.Contains(t, got, "...")
}

func TestTruncateQuote_RuneBoundaries(t *testing.T) {
	multibyte := strings.Repeat("très mécontent ", 10)
	got := truncateQuote(multibyte, 80)
	assert.True(t, utf8.ValidString(got), "truncation must not split a rune")
	assert.Equal(t, 83, utf8.RuneCountInString(got), "80 runes plus the ellipsis")
	assert.True(t, strings.HasSuffix(got, "..."))

	short := "déjà vu"
	assert.Equal(t, short, truncateQuote(short, 80))
}
