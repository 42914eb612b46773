// Package session keeps per-session study state in memory. Sessions are
// keyed by an opaque ID, carry the transcript and every derived artifact,
// and expire after a sliding TTL of inactivity.
package session

import (
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/studysense/studysense/server/pipeline"
)

// DefaultTTL is the sliding inactivity window before a session is evicted.
const DefaultTTL = 240 * time.Minute

// Session is the state attached to one study session. Any access goes
// through the Store; callers receive copies.
type Session struct {
	ID              string
	Transcript      string
	Summary         *pipeline.StructuredSummary
	RetrievalChunks []string
	MCQs            []pipeline.MCQItem
	ChatHistory     []pipeline.ChatMessage
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Store is an in-memory TTL session store. Expired sessions are evicted
// lazily on access rather than by a background sweeper.
type Store struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*Session
	now      func() time.Time
}

// NewStore creates a store with the given TTL; a non-positive value
// selects DefaultTTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		ttl:      ttl,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Ensure returns sessionID if a live session exists under it, creating
// one otherwise. An empty sessionID mints a fresh ID.
func (s *Store) Ensure(sessionID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLocked(sessionID)
}

func (s *Store) ensureLocked(sessionID string) string {
	s.evictExpiredLocked()
	if sessionID == "" {
		sessionID = shortuuid.New()
	}
	if existing, ok := s.sessions[sessionID]; ok {
		existing.UpdatedAt = s.now()
		return sessionID
	}
	now := s.now()
	s.sessions[sessionID] = &Session{
		ID:        sessionID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return sessionID
}

// Get returns a copy of the session, or false when it does not exist or
// has expired. A hit refreshes the TTL.
func (s *Store) Get(sessionID string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpiredLocked()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return Session{}, false
	}
	sess.UpdatedAt = s.now()
	return s.copyLocked(sess), true
}

// copyLocked snapshots a session so callers cannot mutate shared state.
func (s *Store) copyLocked(sess *Session) Session {
	copied := *sess
	copied.RetrievalChunks = append([]string(nil), sess.RetrievalChunks...)
	copied.MCQs = append([]pipeline.MCQItem(nil), sess.MCQs...)
	copied.ChatHistory = append([]pipeline.ChatMessage(nil), sess.ChatHistory...)
	if sess.Summary != nil {
		summary := *sess.Summary
		copied.Summary = &summary
	}
	return copied
}

// SetTranscript stores the normalized transcript, creating the session if
// needed.
func (s *Store) SetTranscript(sessionID, transcript string) {
	s.update(sessionID, func(sess *Session) {
		sess.Transcript = transcript
	})
}

// SetSummary stores the structured summary.
func (s *Store) SetSummary(sessionID string, summary pipeline.StructuredSummary) {
	s.update(sessionID, func(sess *Session) {
		sess.Summary = &summary
	})
}

// Summary returns the stored summary, or false when the session or its
// summary is absent.
func (s *Store) Summary(sessionID string) (pipeline.StructuredSummary, bool) {
	sess, ok := s.Get(sessionID)
	if !ok || sess.Summary == nil {
		return pipeline.StructuredSummary{}, false
	}
	return *sess.Summary, true
}

// SetRetrievalChunks stores the retrieval chunk set.
func (s *Store) SetRetrievalChunks(sessionID string, chunks []string) {
	s.update(sessionID, func(sess *Session) {
		sess.RetrievalChunks = append([]string(nil), chunks...)
	})
}

// RetrievalChunks returns the stored chunk set, empty when absent.
func (s *Store) RetrievalChunks(sessionID string) []string {
	sess, ok := s.Get(sessionID)
	if !ok {
		return nil
	}
	return sess.RetrievalChunks
}

// SetMCQs stores the generated question set.
func (s *Store) SetMCQs(sessionID string, mcqs []pipeline.MCQItem) {
	s.update(sessionID, func(sess *Session) {
		sess.MCQs = append([]pipeline.MCQItem(nil), mcqs...)
	})
}

// MCQs returns the stored question set, empty when absent.
func (s *Store) MCQs(sessionID string) []pipeline.MCQItem {
	sess, ok := s.Get(sessionID)
	if !ok {
		return nil
	}
	return sess.MCQs
}

// AppendChat appends one turn to the session's chat history.
func (s *Store) AppendChat(sessionID, role, content string) {
	s.update(sessionID, func(sess *Session) {
		sess.ChatHistory = append(sess.ChatHistory, pipeline.ChatMessage{Role: role, Content: content})
	})
}

func (s *Store) update(sessionID string, mutate func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sid := s.ensureLocked(sessionID)
	sess := s.sessions[sid]
	mutate(sess)
	sess.UpdatedAt = s.now()
}

func (s *Store) evictExpiredLocked() {
	now := s.now()
	for sid, sess := range s.sessions {
		if now.Sub(sess.UpdatedAt) > s.ttl {
			delete(s.sessions, sid)
		}
	}
}
