package sequence

import (
	"sort"

	"causal-insights-go/internal/types"
)

// TemporalSignalSequence is the ordered, per-type-deduplicated signal timeline
// of a single transcript. Signals are non-decreasing by turn index and each
// signal type appears at most once.
type TemporalSignalSequence struct {
	TranscriptID string                   `json:"transcript_id"`
	Outcome      types.Outcome            `json:"outcome"`
	Signals      []types.SignalOccurrence `json:"signals"`
}

// Build filters raw detections by minConfidence, orders them by turn index and
// keeps the first occurrence of each signal type. Ties within a turn keep the
// detector's emission order. Pure: same input, same output.
func Build(transcriptID string, outcome types.Outcome, detections []types.SignalOccurrence, minConfidence float64) TemporalSignalSequence {
	seq := TemporalSignalSequence{TranscriptID: transcriptID, Outcome: outcome}

	kept := make([]types.SignalOccurrence, 0, len(detections))
	for _, d := range detections {
		if d.Confidence < minConfidence {
			continue
		}
		kept = append(kept, d)
	}
	// Stable sort preserves within-turn emission order.
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].TurnIndex < kept[j].TurnIndex
	})

	seen := make(map[string]bool, len(kept))
	for _, d := range kept {
		if seen[d.SignalType] {
			continue
		}
		seen[d.SignalType] = true
		seq.Signals = append(seq.Signals, d)
	}
	return seq
}

// SignalTypes returns the sequence's signal types in temporal order.
func (s TemporalSignalSequence) SignalTypes() []string {
	out := make([]string, len(s.Signals))
	for i, sig := range s.Signals {
		out[i] = sig.SignalType
	}
	return out
}

// Empty reports whether the transcript produced no retained signals.
func (s TemporalSignalSequence) Empty() bool {
	return len(s.Signals) == 0
}
