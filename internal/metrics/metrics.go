package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry     *prometheus.Registry
	registryOnce sync.Once

	// Query metrics
	ExplainTotal   *prometheus.CounterVec
	QueryTotal     *prometheus.CounterVec
	RequestLatency *prometheus.HistogramVec

	// Corpus metrics
	CorpusBuildsTotal prometheus.Counter
	CorpusTranscripts prometheus.Gauge
	ChainsTracked     prometheus.Gauge
)

func initRegistry() {
	registry = prometheus.NewRegistry()

	ExplainTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "causal_explain_total",
		Help: "Explanations produced, by whether a chain was found and its reliability",
	}, []string{"has_chain", "low_confidence"})

	QueryTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "causal_query_total",
		Help: "Natural-language queries handled, by response type",
	}, []string{"response_type"})

	RequestLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "causal_http_request_seconds",
		Help:    "HTTP handler latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"handler"})

	CorpusBuildsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "causal_corpus_builds_total",
		Help: "Statistics snapshot rebuilds completed",
	})

	CorpusTranscripts = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "causal_corpus_transcripts",
		Help: "Transcripts in the last aggregated corpus",
	})

	ChainsTracked = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "causal_chains_tracked",
		Help: "Distinct chains in the current statistics snapshot",
	})

	registry.MustRegister(
		ExplainTotal, QueryTotal, RequestLatency,
		CorpusBuildsTotal, CorpusTranscripts, ChainsTracked,
	)
}

func ensure() {
	registryOnce.Do(initRegistry)
}

// Handler serves the metrics endpoint from the package registry.
func Handler() http.Handler {
	ensure()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// ObserveExplain records one explanation result.
func ObserveExplain(hasChain, lowConfidence bool) {
	ensure()
	ExplainTotal.WithLabelValues(strconv.FormatBool(hasChain), strconv.FormatBool(lowConfidence)).Inc()
}

// ObserveQuery records one parsed natural-language query.
func ObserveQuery(responseType string) {
	ensure()
	QueryTotal.WithLabelValues(responseType).Inc()
}

// ObserveCorpusBuild records a completed snapshot rebuild.
func ObserveCorpusBuild(transcripts, chainCount int) {
	ensure()
	CorpusBuildsTotal.Inc()
	CorpusTranscripts.Set(float64(transcripts))
	ChainsTracked.Set(float64(chainCount))
}

// TimeHandler observes handler latency; call via defer.
func TimeHandler(handler string, start time.Time) {
	ensure()
	RequestLatency.WithLabelValues(handler).Observe(time.Since(start).Seconds())
}
