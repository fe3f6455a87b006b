package stats

import (
	"errors"
	"time"

	"causal-insights-go/internal/chains"
)

var (
	// ErrNotReady means no statistics snapshot has been published yet.
	ErrNotReady = errors.New("chain statistics not ready")
	// ErrInsufficientEvidence means the chain sits below the minimum-evidence
	// threshold and the caller opted out of the weak-evidence fallback.
	ErrInsufficientEvidence = errors.New("insufficient evidence for chain")
)

// Interval is a two-sided confidence interval, clamped to [0,1].
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Width is the interval's span; narrower means better-evidenced.
func (iv Interval) Width() float64 { return iv.Upper - iv.Lower }

// ChainStatistics is the corpus-wide record for one chain.
type ChainStatistics struct {
	Chain              chains.Chain `json:"chain"`
	Occurrences        int          `json:"occurrences"`
	EscalatedCount     int          `json:"escalated_count"`
	ResolvedCount      int          `json:"resolved_count"`
	Confidence         float64      `json:"confidence"`
	ConfidenceInterval Interval     `json:"confidence_interval"`
	MinSampleWarning   bool         `json:"min_sample_warning"`
	ExampleIDs         []string     `json:"example_transcript_ids"`
}

// Snapshot is the frozen output of one corpus aggregation pass. It is never
// mutated after Compute returns, so any number of concurrent queries may read
// it without locking.
type Snapshot struct {
	builtAt    time.Time
	corpusSize int
	cfg        Config
	byKey      map[string]ChainStatistics
	keys       []string // sorted, for deterministic iteration
}

func (s *Snapshot) BuiltAt() time.Time { return s.builtAt }
func (s *Snapshot) CorpusSize() int    { return s.corpusSize }
func (s *Snapshot) Len() int           { return len(s.keys) }
func (s *Snapshot) MinEvidence() int   { return s.cfg.MinEvidence }

// Lookup returns the statistics for a chain, if the corpus ever produced it.
func (s *Snapshot) Lookup(c chains.Chain) (ChainStatistics, bool) {
	st, ok := s.byKey[c.Key()]
	return st, ok
}

// Require is the strict form of Lookup: chains under the minimum-evidence
// threshold yield ErrInsufficientEvidence instead of weak statistics.
func (s *Snapshot) Require(c chains.Chain) (ChainStatistics, error) {
	st, ok := s.byKey[c.Key()]
	if !ok {
		return ChainStatistics{}, ErrInsufficientEvidence
	}
	if st.MinSampleWarning {
		return st, ErrInsufficientEvidence
	}
	return st, nil
}

// All returns every chain's statistics in stable key order.
func (s *Snapshot) All() []ChainStatistics {
	out := make([]ChainStatistics, 0, len(s.keys))
	for _, key := range s.keys {
		out = append(out, s.byKey[key])
	}
	return out
}
