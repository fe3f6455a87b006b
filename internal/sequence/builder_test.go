package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"causal-insights-go/internal/types"
)

func occ(signalType string, turn int, confidence float64) types.SignalOccurrence {
	return types.SignalOccurrence{SignalType: signalType, TurnIndex: turn, Confidence: confidence}
}

func TestBuild_OrdersByTurnIndex(t *testing.T) {
	detections := []types.SignalOccurrence{
		occ("agent_delay", 5, 0.9),
		occ("customer_frustration", 2, 0.8),
		occ("agent_denial", 8, 0.7),
	}
	seq := Build("T1", types.OutcomeEscalated, detections, 0.1)

	require.Len(t, seq.Signals, 3)
	for i := 1; i < len(seq.Signals); i++ {
		assert.LessOrEqual(t, seq.Signals[i-1].TurnIndex, seq.Signals[i].TurnIndex)
	}
	assert.Equal(t, []string{"customer_frustration", "agent_delay", "agent_denial"}, seq.SignalTypes())
}

func TestBuild_DropsBelowThreshold(t *testing.T) {
	detections := []types.SignalOccurrence{
		occ("customer_frustration", 2, 0.9),
		occ("agent_delay", 5, 0.05),
	}
	seq := Build("T1", types.OutcomeResolved, detections, 0.2)

	require.Len(t, seq.Signals, 1)
	assert.Equal(t, "customer_frustration", seq.Signals[0].SignalType)
}

func TestBuild_FirstOccurrencePerTypeWins(t *testing.T) {
	detections := []types.SignalOccurrence{
		occ("customer_frustration", 7, 0.99), // later, higher confidence
		occ("customer_frustration", 2, 0.40), // earlier wins
	}
	seq := Build("T1", types.OutcomeEscalated, detections, 0.1)

	require.Len(t, seq.Signals, 1)
	assert.Equal(t, 2, seq.Signals[0].TurnIndex)
	assert.Equal(t, 0.40, seq.Signals[0].Confidence)
}

func TestBuild_TieWithinTurnKeepsEmissionOrder(t *testing.T) {
	// Two detections of the same type on the same turn: the one emitted
	// first by the detector is retained.
	detections := []types.SignalOccurrence{
		{SignalType: "customer_frustration", TurnIndex: 3, Confidence: 0.5, Text: "first"},
		{SignalType: "customer_frustration", TurnIndex: 3, Confidence: 0.9, Text: "second"},
	}
	seq := Build("T1", types.OutcomeEscalated, detections, 0.1)

	require.Len(t, seq.Signals, 1)
	assert.Equal(t, "first", seq.Signals[0].Text)
}

func TestBuild_EmptyAndNilInput(t *testing.T) {
	seq := Build("T1", types.OutcomeUnknown, nil, 0.2)
	assert.True(t, seq.Empty())
	assert.Empty(t, seq.SignalTypes())
}

func TestBuild_Deterministic(t *testing.T) {
	detections := []types.SignalOccurrence{
		occ("agent_delay", 5, 0.9),
		occ("customer_frustration", 2, 0.8),
		occ("customer_frustration", 4, 0.95),
		occ("agent_denial", 8, 0.1),
	}
	a := Build("T1", types.OutcomeEscalated, detections, 0.2)
	b := Build("T1", types.OutcomeEscalated, detections, 0.2)
	assert.Equal(t, a, b)
}
