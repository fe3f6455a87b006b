package dataset

import (
	"causal-insights-go/internal/signals"
	"causal-insights-go/internal/types"
)

type CorpusSummary struct {
	TotalTranscripts int            `json:"total_transcripts"`
	EscalatedCount   int            `json:"escalated_count"`
	ResolvedCount    int            `json:"resolved_count"`
	UnknownCount     int            `json:"unknown_count"`
	EscalationRate   float64        `json:"escalation_rate"`
	SignalCounts     map[string]int `json:"signal_counts"`
	ByCity           map[string]int `json:"by_city,omitempty"`
}

// Summarize produces the corpus overview served by /api/stats.
func Summarize(corpus []types.Transcript) CorpusSummary {
	det := signals.NewDetector()
	s := CorpusSummary{
		SignalCounts: map[string]int{},
		ByCity:       map[string]int{},
	}
	for _, t := range corpus {
		s.TotalTranscripts++
		switch t.Outcome {
		case types.OutcomeEscalated:
			s.EscalatedCount++
		case types.OutcomeResolved:
			s.ResolvedCount++
		default:
			s.UnknownCount++
		}
		if t.City != "" {
			s.ByCity[t.City]++
		}
		for _, occ := range det.DetectTranscript(t) {
			s.SignalCounts[occ.SignalType]++
		}
	}
	if s.TotalTranscripts > 0 {
		s.EscalationRate = float64(s.EscalatedCount) / float64(s.TotalTranscripts)
	}
	if len(s.ByCity) == 0 {
		s.ByCity = nil
	}
	return s
}
