package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/shineum/reply-composer/internal/email"
	"github.com/shineum/reply-composer/internal/parser"
)

// Store is an in-memory registry of sessions.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     []Option
}

// NewStore creates a Store whose new sessions are built with opts.
func NewStore(opts ...Option) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		opts:     opts,
	}
}

// Create registers a session under a fresh random id.
func (st *Store) Create() *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	id := uuid.NewString()
	s := New(id, st.opts...)
	st.sessions[id] = s
	return s
}

// Get looks up a session by id.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

// GetOrCreate returns the session named id, creating it if needed.
func (st *Store) GetOrCreate(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	if s, ok := st.sessions[id]; ok {
		return s
	}
	s := New(id, st.opts...)
	st.sessions[id] = s
	return s
}

// Delete drops a session and reports whether it existed.
func (st *Store) Delete(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return false
	}
	delete(st.sessions, id)
	return true
}

// Len returns the number of sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Ingest loads a received message into the sessions named by the local
// part of each envelope recipient and runs an extraction pass on each.
func (st *Store) Ingest(_ context.Context, env email.Envelope, msg *email.Email) error {
	if len(env.RcptTo) == 0 {
		return fmt.Errorf("message has no envelope recipients")
	}

	doc := parser.BodyText(msg)
	for _, rcpt := range env.RcptTo {
		name := SessionName(rcpt)
		if name == "" {
			slog.Warn("skipping recipient without local part", "rcpt", rcpt)
			continue
		}
		s := st.GetOrCreate(name)
		s.SetSource(doc)
		found := s.Parse()

		slog.Info("source document received",
			"session", name,
			"from", env.MailFrom,
			"subject", msg.Subject,
			"addresses", len(found),
		)
	}
	return nil
}

// SessionName maps an intake recipient address to a session name: its
// lowercased local part.
func SessionName(rcpt string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(rcpt), "@")
	return strings.ToLower(local)
}
