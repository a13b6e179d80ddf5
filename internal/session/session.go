// Package session keeps one page per visitor in memory and unmounts pages
// that have been idle too long.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/okbk/onepage/internal/page"
)

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

type entry struct {
	page     *page.Page
	lastSeen time.Time
}

// Store maps session ids to pages.
type Store struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*entry
	factory func() *page.Page
	ttl     time.Duration
	now     func() time.Time
}

// NewStore returns a store that builds mounted pages with factory and
// evicts them after ttl without activity.
func NewStore(ttl time.Duration, factory func() *page.Page) *Store {
	return &Store{
		entries: make(map[uuid.UUID]*entry),
		factory: factory,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Create starts a new session.
func (s *Store) Create() (uuid.UUID, *page.Page) {
	id := uuid.New()
	p := s.factory()

	s.mu.Lock()
	s.entries[id] = &entry{page: p, lastSeen: s.now()}
	s.mu.Unlock()
	return id, p
}

// Get returns the page for id and marks it as seen.
func (s *Store) Get(id uuid.UUID) (*page.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.lastSeen = s.now()
	return e.page, nil
}

// Lookup parses a raw session id and returns its page.
func (s *Store) Lookup(raw string) (uuid.UUID, *page.Page, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, nil, ErrNotFound
	}
	p, err := s.Get(id)
	if err != nil {
		return uuid.Nil, nil, err
	}
	return id, p, nil
}

// Release removes the page for a raw session id and unmounts it. It reports
// whether a live page was released.
func (s *Store) Release(raw string) bool {
	id, err := uuid.Parse(raw)
	if err != nil {
		return false
	}

	s.mu.Lock()
	e, ok := s.entries[id]
	delete(s.entries, id)
	s.mu.Unlock()

	if !ok {
		return false
	}
	e.page.Unmount()
	return true
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep unmounts and removes pages idle for longer than the ttl. It returns
// the number of evicted sessions.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var evicted []*page.Page
	for id, e := range s.entries {
		if e.lastSeen.Before(cutoff) {
			evicted = append(evicted, e.page)
			delete(s.entries, id)
		}
	}
	s.mu.Unlock()

	for _, p := range evicted {
		p.Unmount()
	}
	return len(evicted)
}

// Close unmounts every page and empties the store.
func (s *Store) Close() {
	s.mu.Lock()
	entries := s.entries
	s.entries = make(map[uuid.UUID]*entry)
	s.mu.Unlock()

	for _, e := range entries {
		e.page.Unmount()
	}
}

// Run sweeps every interval until ctx is done, then closes the store.
func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Close()
			return nil
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.Debug("evicted idle sessions", "count", n, "remaining", s.Len())
			}
		}
	}
}
