package signals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"causal-insights-go/internal/types"
)

func TestDetectTurn_CustomerFrustration(t *testing.T) {
	det := NewDetector()

	tests := []struct {
		name    string
		turn    types.Turn
		want    []string
		wantNot []string
	}{
		{
			name: "frustrated customer fires",
			turn: types.Turn{Index: 3, Speaker: "customer", Text: "This is ridiculous, I am fed up with waiting"},
			want: []string{CustomerFrustration},
		},
		{
			name:    "same words from agent do not fire",
			turn:    types.Turn{Index: 3, Speaker: "agent", Text: "This is ridiculous, I am fed up"},
			wantNot: []string{CustomerFrustration},
		},
		{
			name:    "calm customer fires nothing",
			turn:    types.Turn{Index: 1, Speaker: "customer", Text: "Hello, I would like to check my order status"},
			wantNot: []string{CustomerFrustration, AgentDelay, AgentDenial},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := det.DetectTurn(tt.turn)
			gotTypes := make([]string, len(got))
			for i, o := range got {
				gotTypes[i] = o.SignalType
			}
			for _, w := range tt.want {
				assert.Contains(t, gotTypes, w)
			}
			for _, w := range tt.wantNot {
				assert.NotContains(t, gotTypes, w)
			}
		})
	}
}

func TestDetectTurn_AgentDelay(t *testing.T) {
	det := NewDetector()
	got := det.DetectTurn(types.Turn{Index: 5, Speaker: "agent", Text: "Please hold, let me check with the billing team"})
	require.Len(t, got, 1)
	assert.Equal(t, AgentDelay, got[0].SignalType)
	assert.Equal(t, 5, got[0].TurnIndex)
	assert.Positive(t, got[0].Confidence)
}

func TestDetectTurn_AgentDenialFilters(t *testing.T) {
	det := NewDetector()

	// Denial needs a denial keyword, an apology, and enough words.
	fires := det.DetectTurn(types.Turn{Index: 7, Speaker: "agent",
		Text: "I am sorry but we cannot process a refund for this order"})
	require.Len(t, fires, 1)
	assert.Equal(t, AgentDenial, fires[0].SignalType)

	noApology := det.DetectTurn(types.Turn{Index: 7, Speaker: "agent",
		Text: "We cannot process a refund for this order at all"})
	assert.Empty(t, noApology)

	tooShort := det.DetectTurn(types.Turn{Index: 7, Speaker: "agent",
		Text: "Sorry, cannot do"})
	assert.Empty(t, tooShort)
}

func TestDetectTranscript_PreservesTurnOrder(t *testing.T) {
	det := NewDetector()
	transcript := types.Transcript{
		TranscriptID: "T1",
		Turns: []types.Turn{
			{Index: 1, Speaker: "customer", Text: "I am so frustrated with this"},
			{Index: 2, Speaker: "agent", Text: "Please hold while I look into it"},
			{Index: 3, Speaker: "agent", Text: "I am sorry but we are unable to change that for you"},
		},
	}
	got := det.DetectTranscript(transcript)
	require.Len(t, got, 3)
	assert.Equal(t, CustomerFrustration, got[0].SignalType)
	assert.Equal(t, AgentDelay, got[1].SignalType)
	assert.Equal(t, AgentDenial, got[2].SignalType)
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].TurnIndex, got[i].TurnIndex)
	}
}

func TestConfidence_FlooredAndCapped(t *testing.T) {
	det := NewDetector()

	single := det.Confidence("this is ridiculous", CustomerFrustration)
	assert.GreaterOrEqual(t, single, 0.3, "a real hit never scores below the floor")
	assert.LessOrEqual(t, single, 1.0)

	none := det.Confidence("everything is great", CustomerFrustration)
	assert.Zero(t, none)

	unknown := det.Confidence("anything", "no_such_signal")
	assert.Zero(t, unknown)
}

func TestTypes_Order(t *testing.T) {
	det := NewDetector()
	assert.Equal(t, []string{CustomerFrustration, AgentDelay, AgentDenial}, det.Types())
}
