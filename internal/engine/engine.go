package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"causal-insights-go/internal/chains"
	"causal-insights-go/internal/logger"
	"causal-insights-go/internal/matcher"
	"causal-insights-go/internal/metrics"
	"causal-insights-go/internal/sequence"
	"causal-insights-go/internal/signals"
	"causal-insights-go/internal/stats"
	"causal-insights-go/internal/types"
)

// ErrNotFound is returned when a query names a transcript the corpus does not
// contain.
var ErrNotFound = errors.New("transcript not found")

// Config combines the aggregation and matching tunables.
type Config struct {
	Stats   stats.Config
	Matcher matcher.Config
}

func DefaultConfig() Config {
	return Config{Stats: stats.DefaultConfig(), Matcher: matcher.DefaultConfig()}
}

// Engine routes queries: it resolves transcript ids, runs signal detection,
// and hands pure values to the causal core. The core itself never touches
// storage; all state the engine owns (the corpus index, the snapshot store)
// is immutable or swapped atomically, so queries need no locking.
type Engine struct {
	log         *logrus.Entry
	cfg         Config
	detector    *signals.Detector
	transcripts map[string]types.Transcript
	order       []string // corpus order, for deterministic aggregation
	store       *stats.Store
}

func New(corpus []types.Transcript, cfg Config) *Engine {
	byID := make(map[string]types.Transcript, len(corpus))
	order := make([]string, 0, len(corpus))
	for _, t := range corpus {
		if _, dup := byID[t.TranscriptID]; dup {
			continue
		}
		byID[t.TranscriptID] = t
		order = append(order, t.TranscriptID)
	}
	return &Engine{
		log:         logger.ForComponent("engine"),
		cfg:         cfg,
		detector:    signals.NewDetector(),
		transcripts: byID,
		order:       order,
		store:       stats.NewStore(),
	}
}

// Refresh rebuilds chain statistics from the full corpus and atomically
// replaces the published snapshot.
func (e *Engine) Refresh(ctx context.Context) (*stats.Snapshot, error) {
	corpus := make([]stats.TranscriptSignals, 0, len(e.order))
	for _, id := range e.order {
		t := e.transcripts[id]
		corpus = append(corpus, stats.TranscriptSignals{
			TranscriptID: t.TranscriptID,
			Outcome:      t.Outcome,
			Detections:   e.detector.DetectTranscript(t),
		})
	}
	snap, err := stats.Compute(ctx, corpus, e.cfg.Stats)
	if err != nil {
		return nil, fmt.Errorf("compute statistics: %w", err)
	}
	e.store.Publish(snap)
	metrics.ObserveCorpusBuild(snap.CorpusSize(), snap.Len())
	e.log.WithField("chains", snap.Len()).Info("statistics snapshot published")
	return snap, nil
}

// Snapshot returns the current statistics snapshot, or ErrNotReady before the
// first Refresh completes.
func (e *Engine) Snapshot() (*stats.Snapshot, error) {
	return e.store.Current()
}

// Sequence builds the temporal signal sequence for one transcript.
func (e *Engine) Sequence(transcriptID string) (sequence.TemporalSignalSequence, error) {
	t, ok := e.transcripts[transcriptID]
	if !ok {
		return sequence.TemporalSignalSequence{}, fmt.Errorf("%w: %s", ErrNotFound, transcriptID)
	}
	detections := e.detector.DetectTranscript(t)
	return sequence.Build(t.TranscriptID, t.Outcome, detections, e.cfg.Stats.MinSignalConfidence), nil
}

// Explain answers "why did this transcript end the way it did" with the best
// corpus-supported chain.
func (e *Engine) Explain(transcriptID string) (matcher.Explanation, error) {
	seq, err := e.Sequence(transcriptID)
	if err != nil {
		return matcher.Explanation{}, err
	}
	snap, err := e.store.Current()
	if err != nil {
		return matcher.Explanation{}, err
	}
	exp, err := matcher.Explain(seq, snap, e.cfg.Matcher)
	if err != nil {
		return matcher.Explanation{}, err
	}
	metrics.ObserveExplain(exp.HasChain(), exp.LowConfidence)
	return exp, nil
}

// Similar lists other transcripts sharing the reference's primary chain,
// drawn from the snapshot's stored examples.
func (e *Engine) Similar(transcriptID string, topK int) ([]string, error) {
	exp, err := e.Explain(transcriptID)
	if err != nil {
		return nil, err
	}
	if !exp.HasChain() {
		return nil, nil
	}
	snap, err := e.store.Current()
	if err != nil {
		return nil, err
	}
	st, ok := snap.Lookup(*exp.PrimaryChain)
	if !ok {
		return nil, nil
	}
	var out []string
	for _, id := range st.ExampleIDs {
		if id == transcriptID {
			continue
		}
		out = append(out, id)
		if topK > 0 && len(out) >= topK {
			break
		}
	}
	return out, nil
}

// ChainStats returns corpus statistics for an explicit chain. With allowWeak
// false, chains under the minimum-evidence threshold return
// stats.ErrInsufficientEvidence.
func (e *Engine) ChainStats(signalTypes []string, allowWeak bool) (stats.ChainStatistics, error) {
	chain, err := chains.New(signalTypes, e.cfg.Stats.MaxChainLength)
	if err != nil {
		return stats.ChainStatistics{}, err
	}
	snap, err := e.store.Current()
	if err != nil {
		return stats.ChainStatistics{}, err
	}
	if allowWeak {
		st, ok := snap.Lookup(chain)
		if !ok {
			return stats.ChainStatistics{}, stats.ErrInsufficientEvidence
		}
		return st, nil
	}
	return snap.Require(chain)
}

// Transcript resolves a transcript by id.
func (e *Engine) Transcript(transcriptID string) (types.Transcript, error) {
	t, ok := e.transcripts[transcriptID]
	if !ok {
		return types.Transcript{}, fmt.Errorf("%w: %s", ErrNotFound, transcriptID)
	}
	return t, nil
}

// HasTranscript reports whether the corpus contains the id.
func (e *Engine) HasTranscript(transcriptID string) bool {
	_, ok := e.transcripts[transcriptID]
	return ok
}

// CorpusSize is the number of transcripts loaded.
func (e *Engine) CorpusSize() int { return len(e.order) }
