package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"causal-insights-go/internal/chains"
	"causal-insights-go/internal/dataset"
	"causal-insights-go/internal/engine"
	"causal-insights-go/internal/logger"
	"causal-insights-go/internal/matcher"
	"causal-insights-go/internal/metrics"
	"causal-insights-go/internal/render"
	"causal-insights-go/internal/session"
	"causal-insights-go/internal/stats"
)

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "causal-insights-go").Info("starting service")

	cfg := configFromEnv()

	// resolve and load the corpus
	location := envOr("DATASET_URL", envOr("DATASET_PATH", "Data_Voice_Hackathon_Master.xlsx"))
	log.WithField("dataset", location).Info("loading corpus")
	path, err := dataset.Fetch(location, os.TempDir())
	if err != nil {
		log.WithError(err).Fatal("failed to fetch corpus")
	}
	corpus, err := dataset.Load(path)
	if err != nil {
		log.WithError(err).Fatal("failed to load corpus")
	}
	summary := dataset.Summarize(corpus)
	log.WithField("total_transcripts", summary.TotalTranscripts).Info("corpus loaded")

	eng := engine.New(corpus, cfg)
	if _, err := eng.Refresh(context.Background()); err != nil {
		log.WithError(err).Fatal("initial statistics build failed")
	}

	sessions := session.NewStore()

	mux := http.NewServeMux()

	// health
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	})
	mux.Handle("/metrics", metrics.Handler())

	// corpus overview + snapshot freshness
	mux.HandleFunc("GET /api/stats", func(w http.ResponseWriter, r *http.Request) {
		defer metrics.TimeHandler("stats", time.Now())
		resp := map[string]interface{}{"corpus": summary}
		if snap, err := eng.Snapshot(); err == nil {
			resp["snapshot"] = map[string]interface{}{
				"built_at":     snap.BuiltAt(),
				"chains":       snap.Len(),
				"transcripts":  snap.CorpusSize(),
				"min_evidence": snap.MinEvidence(),
			}
		}
		writeJSON(w, http.StatusOK, resp)
	})

	// all chain statistics, or one chain via ?chain=a|b
	mux.HandleFunc("GET /api/chain-stats", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "chain-stats")
		defer metrics.TimeHandler("chain_stats", time.Now())
		if key := r.URL.Query().Get("chain"); key != "" {
			chain, err := chains.ParseKey(key, cfg.Stats.MaxChainLength)
			if err != nil {
				writeError(w, reqLog, err)
				return
			}
			allowWeak := r.URL.Query().Get("allow_weak") == "true"
			st, err := eng.ChainStats(chain.SignalTypes(), allowWeak)
			if err != nil {
				writeError(w, reqLog, err)
				return
			}
			writeJSON(w, http.StatusOK, st)
			return
		}
		snap, err := eng.Snapshot()
		if err != nil {
			writeError(w, reqLog, err)
			return
		}
		writeJSON(w, http.StatusOK, snap.All())
	})

	// explain one transcript
	mux.HandleFunc("GET /api/explain/{id}", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "explain")
		defer metrics.TimeHandler("explain", time.Now())
		id := r.PathValue("id")
		exp, err := eng.Explain(id)
		if err != nil {
			writeError(w, reqLog, err)
			return
		}
		resp := explainResponse(exp)
		writeJSON(w, http.StatusOK, resp)
	})

	// similar cases by shared primary chain
	mux.HandleFunc("GET /api/similar/{id}", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "similar")
		defer metrics.TimeHandler("similar", time.Now())
		id := r.PathValue("id")
		topK := 5
		if t := r.URL.Query().Get("top_k"); t != "" {
			if v, err := strconv.Atoi(t); err == nil && v > 0 {
				topK = v
			}
		}
		similar, err := eng.Similar(id, topK)
		if err != nil {
			writeError(w, reqLog, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"reference_transcript": id,
			"similar_cases":        similar,
			"count":                len(similar),
		})
	})

	// rebuild the statistics snapshot (atomic swap, readers unaffected)
	mux.HandleFunc("POST /api/refresh", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "refresh")
		defer metrics.TimeHandler("refresh", time.Now())
		snap, err := eng.Refresh(r.Context())
		if err != nil {
			writeError(w, reqLog, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"built_at": snap.BuiltAt(),
			"chains":   snap.Len(),
		})
	})

	// session inspection
	mux.HandleFunc("GET /api/session/{id}", func(w http.ResponseWriter, r *http.Request) {
		ctx, ok := sessions.Get(r.PathValue("id"))
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		writeJSON(w, http.StatusOK, ctx)
	})

	// natural-language query routing
	mux.HandleFunc("POST /api/query", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "query")
		defer metrics.TimeHandler("query", time.Now())
		var req struct {
			SessionID string `json:"session_id"`
			Question  string `json:"question"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing question"})
			return
		}
		sess := sessions.GetOrCreate(req.SessionID)
		resp, responseType, transcriptID := answerQuestion(eng, sess, req.Question)
		sessions.Record(sess.SessionID, req.Question, responseType, transcriptID)
		metrics.ObserveQuery(responseType)
		resp["session_id"] = sess.SessionID
		reqLog.WithField("response_type", responseType).Info("query answered")
		writeJSON(w, http.StatusOK, resp)
	})

	addr := fmt.Sprintf(":%s", envOr("PORT", "8080"))
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}

// answerQuestion routes a natural-language question to the engine. Supported:
// "why did <id> escalate?", "explain <id>", "similar to <id>". Follow-ups
// with no id reuse the session's current transcript.
func answerQuestion(eng *engine.Engine, sess session.Context, question string) (map[string]interface{}, string, string) {
	lower := strings.ToLower(question)
	id := extractTranscriptID(eng, question)
	if id == "" {
		id = sess.CurrentTranscriptID
	}

	if strings.Contains(lower, "similar") {
		if id == "" {
			return map[string]interface{}{"error": "no transcript in question or session"}, "error", ""
		}
		similar, err := eng.Similar(id, 5)
		if err != nil {
			return map[string]interface{}{"error": err.Error()}, "error", ""
		}
		return map[string]interface{}{
			"type":                 "similar_cases",
			"reference_transcript": id,
			"similar_cases":        similar,
			"count":                len(similar),
		}, "similar_cases", id
	}

	if strings.Contains(lower, "why") || strings.Contains(lower, "explain") || strings.Contains(lower, "what caused") {
		if id == "" {
			return map[string]interface{}{"error": "no transcript in question or session"}, "error", ""
		}
		exp, err := eng.Explain(id)
		if err != nil {
			return map[string]interface{}{"error": err.Error()}, "error", ""
		}
		resp := explainResponse(exp)
		resp["type"] = "explanation"
		return resp, "explanation", id
	}

	return map[string]interface{}{"error": "could not parse question", "question": question}, "error", ""
}

// extractTranscriptID finds a word in the question that names a known
// transcript.
func extractTranscriptID(eng *engine.Engine, question string) string {
	for _, word := range strings.Fields(question) {
		word = strings.Trim(word, ".,?!\"'")
		if word != "" && eng.HasTranscript(word) {
			return word
		}
	}
	return ""
}

func explainResponse(exp matcher.Explanation) map[string]interface{} {
	return map[string]interface{}{
		"explanation":      exp,
		"explanation_text": render.Text(exp),
	}
}

// writeError maps engine error kinds onto HTTP statuses.
func writeError(w http.ResponseWriter, log interface{ Warn(...interface{}) }, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, stats.ErrNotReady):
		status = http.StatusServiceUnavailable
	case errors.Is(err, stats.ErrInsufficientEvidence):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, chains.ErrInvalidChain):
		status = http.StatusBadRequest
	}
	log.Warn(err.Error())
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// configFromEnv reads the causal tunables; unset values keep defaults.
func configFromEnv() engine.Config {
	cfg := engine.DefaultConfig()
	if v, err := strconv.ParseFloat(envOr("MIN_SIGNAL_CONFIDENCE", ""), 64); err == nil && v > 0 {
		cfg.Stats.MinSignalConfidence = v
	}
	if v, err := strconv.Atoi(envOr("MAX_CHAIN_LENGTH", "")); err == nil && v > 0 {
		cfg.Stats.MaxChainLength = v
		cfg.Matcher.MaxChainLength = v
	}
	if v, err := strconv.Atoi(envOr("MIN_EVIDENCE", "")); err == nil && v > 0 {
		cfg.Stats.MinEvidence = v
	}
	if v, err := strconv.Atoi(envOr("MAX_ALTERNATIVES", "")); err == nil && v > 0 {
		cfg.Matcher.MaxAlternatives = v
	}
	return cfg
}
