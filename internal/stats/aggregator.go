package stats

import (
	"context"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"causal-insights-go/internal/chains"
	"causal-insights-go/internal/logger"
	"causal-insights-go/internal/sequence"
	"causal-insights-go/internal/types"
)

// Config holds the aggregation tunables. Zero fields select the defaults.
type Config struct {
	// MinSignalConfidence drops detections below this score before sequencing.
	// Zero selects the default; a negative value disables the floor and keeps
	// every detection.
	MinSignalConfidence float64
	// MaxChainLength bounds candidate chains (signals per chain). Non-positive
	// selects the default.
	MaxChainLength int
	// MinEvidence is the occurrence count below which a chain is flagged
	// statistically unreliable. Non-positive selects the default.
	MinEvidence int
	// MaxExamples bounds the example transcript ids stored per chain.
	// Non-positive selects the default.
	MaxExamples int
}

// DefaultConfig mirrors the tuning the corpus was validated with.
func DefaultConfig() Config {
	return Config{
		MinSignalConfidence: 0.2,
		MaxChainLength:      chains.DefaultMaxLength,
		MinEvidence:         5,
		MaxExamples:         10,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MinSignalConfidence == 0 {
		c.MinSignalConfidence = d.MinSignalConfidence
	} else if c.MinSignalConfidence < 0 {
		c.MinSignalConfidence = 0
	}
	if c.MaxChainLength <= 0 {
		c.MaxChainLength = d.MaxChainLength
	}
	if c.MinEvidence <= 0 {
		c.MinEvidence = d.MinEvidence
	}
	if c.MaxExamples <= 0 {
		c.MaxExamples = d.MaxExamples
	}
	return c
}

// TranscriptSignals is one corpus entry: a transcript's raw detections plus
// its terminal outcome.
type TranscriptSignals struct {
	TranscriptID string
	Outcome      types.Outcome
	Detections   []types.SignalOccurrence
}

// per-shard accumulator; merged by addition, so shard boundaries never
// affect the totals.
type counts struct {
	chain      chains.Chain
	occur      int
	escalated  int
	resolved   int
	exampleIDs []string
}

// Compute scans the corpus once and returns the immutable statistics
// snapshot. It is deterministic and idempotent: an unchanged corpus yields
// identical statistics regardless of shard scheduling, because shard results
// are merged in corpus order.
func Compute(ctx context.Context, corpus []TranscriptSignals, cfg Config) (*Snapshot, error) {
	cfg = cfg.withDefaults()
	log := logger.ForComponent("stats.aggregator")
	start := time.Now()

	shards := runtime.NumCPU()
	if shards > len(corpus) {
		shards = len(corpus)
	}
	if shards < 1 {
		shards = 1
	}

	partials := make([]map[string]*counts, shards)
	g, ctx := errgroup.WithContext(ctx)
	chunk := (len(corpus) + shards - 1) / shards
	for s := 0; s < shards; s++ {
		lo := s * chunk
		hi := lo + chunk
		if hi > len(corpus) {
			hi = len(corpus)
		}
		g.Go(func() error {
			local := make(map[string]*counts)
			for _, entry := range corpus[lo:hi] {
				if err := ctx.Err(); err != nil {
					return err
				}
				tally(local, entry, cfg)
			}
			partials[s] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[string]*counts)
	for _, local := range partials {
		for key, c := range local {
			m, ok := merged[key]
			if !ok {
				merged[key] = c
				continue
			}
			m.occur += c.occur
			m.escalated += c.escalated
			m.resolved += c.resolved
			m.exampleIDs = append(m.exampleIDs, c.exampleIDs...)
		}
	}

	byKey := make(map[string]ChainStatistics, len(merged))
	keys := make([]string, 0, len(merged))
	for key, c := range merged {
		confidence := float64(c.escalated) / float64(c.occur)
		examples := c.exampleIDs
		if len(examples) > cfg.MaxExamples {
			examples = examples[:cfg.MaxExamples]
		}
		byKey[key] = ChainStatistics{
			Chain:              c.chain,
			Occurrences:        c.occur,
			EscalatedCount:     c.escalated,
			ResolvedCount:      c.resolved,
			Confidence:         confidence,
			ConfidenceInterval: WilsonInterval(c.escalated, c.occur),
			MinSampleWarning:   c.occur < cfg.MinEvidence,
			ExampleIDs:         examples,
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	snap := &Snapshot{
		builtAt:    time.Now().UTC(),
		corpusSize: len(corpus),
		cfg:        cfg,
		byKey:      byKey,
		keys:       keys,
	}
	log.WithFields(map[string]interface{}{
		"transcripts": len(corpus),
		"chains":      len(keys),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("chain statistics computed")
	return snap, nil
}

// tally records one transcript's candidate chains into a shard accumulator.
func tally(local map[string]*counts, entry TranscriptSignals, cfg Config) {
	seq := sequence.Build(entry.TranscriptID, entry.Outcome, entry.Detections, cfg.MinSignalConfidence)
	if seq.Empty() {
		return
	}
	for _, chain := range chains.Enumerate(seq.SignalTypes(), cfg.MaxChainLength) {
		key := chain.Key()
		c, ok := local[key]
		if !ok {
			c = &counts{chain: chain}
			local[key] = c
		}
		c.occur++
		if entry.Outcome == types.OutcomeEscalated {
			c.escalated++
		} else {
			c.resolved++
		}
		if len(c.exampleIDs) < cfg.MaxExamples {
			c.exampleIDs = append(c.exampleIDs, entry.TranscriptID)
		}
	}
}
