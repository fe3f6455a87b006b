package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// maxHistory bounds the per-session query log.
const maxHistory = 10

// Record is one query and its response type, kept for follow-up questions.
type Record struct {
	QueryID      string    `json:"query_id"`
	Timestamp    time.Time `json:"timestamp"`
	Question     string    `json:"question"`
	ResponseType string    `json:"response_type"`
	TranscriptID string    `json:"transcript_id,omitempty"`
}

// Context is the mutable per-session state. It lives entirely outside the
// causal core, which stays stateless between calls.
type Context struct {
	SessionID           string   `json:"session_id"`
	CurrentTranscriptID string   `json:"current_transcript_id,omitempty"`
	History             []Record `json:"history"`
}

// clone deep-copies the context so callers never share History with the
// store's live state.
func (c *Context) clone() Context {
	cp := *c
	cp.History = append([]Record(nil), c.History...)
	return cp
}

// Store holds session contexts keyed by session id. Accessors return copies
// taken under the lock; all mutation goes through Record.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Context
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Context)}
}

// GetOrCreate returns a copy of the session for id, creating it if needed.
// An empty id allocates a fresh session.
func (s *Store) GetOrCreate(id string) Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		id = uuid.New().String()[:8]
	}
	ctx, ok := s.sessions[id]
	if !ok {
		ctx = &Context{SessionID: id}
		s.sessions[id] = ctx
	}
	return ctx.clone()
}

// Get returns a copy of an existing session.
func (s *Store) Get(id string) (Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, ok := s.sessions[id]
	if !ok {
		return Context{}, false
	}
	return ctx.clone(), true
}

// CurrentTranscript returns the transcript the session last referenced, or
// empty when the session is unknown.
func (s *Store) CurrentTranscript(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx, ok := s.sessions[id]; ok {
		return ctx.CurrentTranscriptID
	}
	return ""
}

// Record appends a query to the session, tracking the referenced transcript
// and trimming history past the cap.
func (s *Store) Record(sessionID, question, responseType, transcriptID string) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, ok := s.sessions[sessionID]
	if !ok {
		ctx = &Context{SessionID: sessionID}
		s.sessions[sessionID] = ctx
	}
	rec := Record{
		QueryID:      uuid.New().String()[:8],
		Timestamp:    time.Now().UTC(),
		Question:     question,
		ResponseType: responseType,
		TranscriptID: transcriptID,
	}
	ctx.History = append(ctx.History, rec)
	if len(ctx.History) > maxHistory {
		ctx.History = ctx.History[len(ctx.History)-maxHistory:]
	}
	if transcriptID != "" {
		ctx.CurrentTranscriptID = transcriptID
	}
	return rec
}
