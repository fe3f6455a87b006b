package matcher

import (
	"sort"

	"causal-insights-go/internal/chains"
	"causal-insights-go/internal/sequence"
	"causal-insights-go/internal/stats"
	"causal-insights-go/internal/types"
)

// Config holds the ranking tunables. Zero fields select the defaults.
type Config struct {
	// MaxChainLength bounds candidate enumeration; must match the aggregation
	// config or candidates will miss the snapshot. Non-positive selects the
	// default.
	MaxChainLength int
	// Epsilon is the confidence band within which two chains count as tied
	// and the longer, more specific one wins. Zero selects the default; a
	// negative value requires exact equality for a tie.
	Epsilon float64
	// MaxAlternatives caps the ranked alternatives on an explanation.
	// Non-positive selects the default.
	MaxAlternatives int
}

func DefaultConfig() Config {
	return Config{
		MaxChainLength:  chains.DefaultMaxLength,
		Epsilon:         0.01,
		MaxAlternatives: 3,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxChainLength <= 0 {
		c.MaxChainLength = d.MaxChainLength
	}
	if c.Epsilon == 0 {
		c.Epsilon = d.Epsilon
	} else if c.Epsilon < 0 {
		c.Epsilon = 0
	}
	if c.MaxAlternatives <= 0 {
		c.MaxAlternatives = d.MaxAlternatives
	}
	return c
}

// RankedChain is one candidate with the corpus statistics backing it.
type RankedChain struct {
	Chain              chains.Chain   `json:"chain"`
	Confidence         float64        `json:"confidence"`
	Occurrences        int            `json:"occurrences"`
	ConfidenceInterval stats.Interval `json:"confidence_interval"`
}

// Explanation is the per-query result: the single best-supported chain for a
// transcript plus ranked alternatives and the transcript's own evidence.
// Built fresh per query, never mutated afterwards.
type Explanation struct {
	TranscriptID       string                   `json:"transcript_id"`
	Outcome            types.Outcome            `json:"outcome"`
	PrimaryChain       *chains.Chain            `json:"primary_chain"`
	Confidence         float64                  `json:"confidence"`
	ConfidenceInterval stats.Interval           `json:"confidence_interval"`
	Occurrences        int                      `json:"occurrences"`
	LowConfidence      bool                     `json:"low_confidence"`
	Alternatives       []RankedChain            `json:"alternatives"`
	Evidence           []types.SignalOccurrence `json:"evidence"`
}

// HasChain reports whether any explanatory chain was found.
func (e Explanation) HasChain() bool { return e.PrimaryChain != nil }

// Explain selects the best-supported chain for one transcript's sequence
// against a frozen statistics snapshot.
//
// Candidates are the sequence's enumerated chains intersected with the
// snapshot. Chains under the minimum-evidence threshold are skipped unless no
// qualified candidate remains, in which case the best weak chain is used and
// the explanation is marked low-confidence. A transcript with no signals, or
// none with corpus support, yields an explanation with no primary chain
// rather than an error.
func Explain(seq sequence.TemporalSignalSequence, snap *stats.Snapshot, cfg Config) (Explanation, error) {
	if snap == nil {
		return Explanation{}, stats.ErrNotReady
	}
	cfg = cfg.withDefaults()

	exp := Explanation{
		TranscriptID: seq.TranscriptID,
		Outcome:      seq.Outcome,
	}
	if seq.Empty() {
		return exp, nil
	}

	var qualified, weak []RankedChain
	for _, chain := range chains.Enumerate(seq.SignalTypes(), cfg.MaxChainLength) {
		st, ok := snap.Lookup(chain)
		if !ok {
			continue
		}
		rc := RankedChain{
			Chain:              chain,
			Confidence:         st.Confidence,
			Occurrences:        st.Occurrences,
			ConfidenceInterval: st.ConfidenceInterval,
		}
		if st.MinSampleWarning {
			weak = append(weak, rc)
		} else {
			qualified = append(qualified, rc)
		}
	}

	ranked := qualified
	if len(ranked) == 0 {
		if len(weak) == 0 {
			return exp, nil
		}
		// No chain meets the evidence bar; fall back to the best-evidenced
		// weak chain and say so.
		ranked = weak
		exp.LowConfidence = true
		sortByEvidence(ranked)
	} else {
		sortByConfidence(ranked, cfg.Epsilon)
	}

	primary := ranked[0]
	exp.PrimaryChain = &primary.Chain
	exp.Confidence = primary.Confidence
	exp.ConfidenceInterval = primary.ConfidenceInterval
	exp.Occurrences = primary.Occurrences

	rest := ranked[1:]
	if len(rest) > cfg.MaxAlternatives {
		rest = rest[:cfg.MaxAlternatives]
	}
	exp.Alternatives = append([]RankedChain(nil), rest...)

	// Evidence: the transcript's own occurrences of the primary chain's
	// signal types, already in turn order.
	for _, sig := range seq.Signals {
		if primary.Chain.Contains(sig.SignalType) {
			exp.Evidence = append(exp.Evidence, sig)
		}
	}
	return exp, nil
}

// sortByConfidence ranks by confidence descending; within epsilon of the
// band leader, longer chains first, then more occurrences, then lexical
// chain order.
//
// A pairwise epsilon comparison is not transitive, so the epsilon handling
// runs in two passes: a strict sort first, then tie-breaking inside bands
// anchored at each band's highest confidence. The result is independent of
// the candidates' input order.
func sortByConfidence(ranked []RankedChain, epsilon float64) {
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.Chain.Len() != b.Chain.Len() {
			return a.Chain.Len() > b.Chain.Len()
		}
		if a.Occurrences != b.Occurrences {
			return a.Occurrences > b.Occurrences
		}
		return a.Chain.Less(b.Chain)
	})
	if epsilon <= 0 {
		return
	}
	for lo := 0; lo < len(ranked); {
		hi := lo + 1
		for hi < len(ranked) && ranked[lo].Confidence-ranked[hi].Confidence <= epsilon {
			hi++
		}
		band := ranked[lo:hi]
		sort.SliceStable(band, func(i, j int) bool {
			a, b := band[i], band[j]
			if a.Chain.Len() != b.Chain.Len() {
				return a.Chain.Len() > b.Chain.Len()
			}
			if a.Occurrences != b.Occurrences {
				return a.Occurrences > b.Occurrences
			}
			return a.Chain.Less(b.Chain)
		})
		lo = hi
	}
}

// sortByEvidence ranks the weak-evidence fallback set: occurrences first,
// so the least-unreliable chain wins.
func sortByEvidence(ranked []RankedChain) {
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Occurrences != b.Occurrences {
			return a.Occurrences > b.Occurrences
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return a.Chain.Less(b.Chain)
	})
}
