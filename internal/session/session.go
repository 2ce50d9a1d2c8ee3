// Package session keeps the per-user working state: the pasted source
// document, the reply template, the extracted address list and the
// generated body for each address.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/shineum/reply-composer/internal/compose"
	"github.com/shineum/reply-composer/internal/email"
)

var (
	// ErrUnknownAddress is returned for an address outside the current
	// extraction result.
	ErrUnknownAddress = errors.New("address not in extracted set")

	// ErrNotGenerated is returned when a draft is requested before its body
	// was generated.
	ErrNotGenerated = errors.New("reply not generated")
)

// Session is the state of one user. All methods are safe for concurrent
// use; each runs to completion before the next one starts.
type Session struct {
	id string

	mu        sync.Mutex
	source    string
	template  string
	addresses []string
	bodies    map[string]string
	generated map[string]bool
	render    compose.RenderFunc
	updatedAt time.Time
}

// Option configures a new Session.
type Option func(*Session)

// WithTemplate sets the initial template.
func WithTemplate(tmpl string) Option {
	return func(s *Session) {
		s.template = tmpl
	}
}

// WithReplaceAll switches the renderer to replace every token occurrence.
func WithReplaceAll(replaceAll bool) Option {
	return func(s *Session) {
		s.render = compose.Renderer(replaceAll)
	}
}

// New creates an empty session.
func New(id string, opts ...Option) *Session {
	s := &Session{
		id:        id,
		addresses: []string{},
		bodies:    map[string]string{},
		generated: map[string]bool{},
		render:    compose.Render,
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// SetSource replaces the source document. The extracted set is left as is
// until the next Parse.
func (s *Session) SetSource(doc string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = doc
	s.touch()
}

// Source returns the current source document.
func (s *Session) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// SetTemplate replaces the template. Already generated bodies are kept.
func (s *Session) SetTemplate(tmpl string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.template = tmpl
	s.touch()
}

// Template returns the current template.
func (s *Session) Template() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.template
}

// Parse runs an extraction pass over the source document, replacing the
// address list and resetting every body to empty.
func (s *Session) Parse() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.addresses = compose.Extract(s.source)
	s.bodies = make(map[string]string, len(s.addresses))
	s.generated = make(map[string]bool, len(s.addresses))
	for _, addr := range s.addresses {
		s.bodies[addr] = ""
	}
	s.touch()
	return cloneStrings(s.addresses)
}

// Generate renders and stores the reply body for address.
func (s *Session) Generate(address string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bodies[address]; !ok {
		return "", ErrUnknownAddress
	}
	body := s.render(s.template, address, compose.LocateContext(s.source, address))
	s.bodies[address] = body
	s.generated[address] = true
	s.touch()
	return body, nil
}

// Remove discards address from the address list and its body. It reports
// whether the address was present.
func (s *Session) Remove(address string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bodies[address]; !ok {
		return false
	}
	delete(s.bodies, address)
	delete(s.generated, address)
	kept := s.addresses[:0]
	for _, a := range s.addresses {
		if a != address {
			kept = append(kept, a)
		}
	}
	s.addresses = kept
	s.touch()
	return true
}

// Addresses returns the current extracted set in order.
func (s *Session) Addresses() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneStrings(s.addresses)
}

// Body returns the stored body for address and whether the address is known.
func (s *Session) Body(address string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.bodies[address]
	return body, ok
}

// Draft returns the generated reply for address. A body that rendered to
// the empty string still counts as generated.
func (s *Session) Draft(address string) (email.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	body, ok := s.bodies[address]
	if !ok {
		return email.Draft{}, ErrUnknownAddress
	}
	if !s.generated[address] {
		return email.Draft{}, ErrNotGenerated
	}
	return email.Draft{Recipient: address, Body: body}, nil
}

// UpdatedAt returns the time of the last mutation.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// Entry is one address with its generated body.
type Entry struct {
	Address   string `json:"address"`
	Body      string `json:"body"`
	Generated bool   `json:"generated"`
}

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Template  string    `json:"template"`
	Entries   []Entry   `json:"addresses"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot copies the session state under a single lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]Entry, 0, len(s.addresses))
	for _, addr := range s.addresses {
		entries = append(entries, Entry{Address: addr, Body: s.bodies[addr], Generated: s.generated[addr]})
	}
	return Snapshot{
		ID:        s.id,
		Source:    s.source,
		Template:  s.template,
		Entries:   entries,
		UpdatedAt: s.updatedAt,
	}
}

// touch records a mutation. The caller must hold s.mu.
func (s *Session) touch() {
	s.updatedAt = time.Now()
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
