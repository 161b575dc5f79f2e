package session

import (
	"slices"
	"sync"

	"github.com/pkg/errors"

	"github.com/lixenwraith/gamatch/persistence"
)

var (
	// ErrNotFound is returned for unknown session ids
	ErrNotFound = errors.New("session not found")

	// ErrLimit is returned when the registry is full
	ErrLimit = errors.New("session limit reached")
)

// Registry holds live sessions up to a fixed limit
type Registry struct {
	sessions    map[string]*Session
	order       []string // ids in creation order
	limit       int
	persistence *persistence.Manager
	mu          sync.RWMutex
}

// NewRegistry creates a registry; reports may be nil to disable SaveAll
func NewRegistry(limit int, reports *persistence.Manager) *Registry {
	return &Registry{
		sessions:    make(map[string]*Session),
		limit:       limit,
		persistence: reports,
	}
}

// Create starts a session and registers it
func (r *Registry) Create(opts Options) (*Session, error) {
	if r.full() {
		return nil, errors.Wrapf(ErrLimit, "limit %d", r.limit)
	}

	// Template extraction and initial evaluation run outside the lock
	s, err := New(opts)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.limit > 0 && len(r.sessions) >= r.limit {
		return nil, errors.Wrapf(ErrLimit, "limit %d", r.limit)
	}
	r.sessions[s.ID()] = s
	r.order = append(r.order, s.ID())
	return s, nil
}

func (r *Registry) full() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.limit > 0 && len(r.sessions) >= r.limit
}

// Get returns a session by id
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok {
		return nil, errors.Wrap(ErrNotFound, id)
	}
	return s, nil
}

// Remove drops a session
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return errors.Wrap(ErrNotFound, id)
	}
	delete(r.sessions, id)
	r.order = slices.DeleteFunc(r.order, func(v string) bool { return v == id })
	return nil
}

// List returns sessions in creation order
func (r *Registry) List() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.sessions[id])
	}
	return out
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// SaveAll writes a report per session, named by session id
func (r *Registry) SaveAll() error {
	if r.persistence == nil {
		return nil
	}

	var lastErr error
	for _, s := range r.List() {
		if err := r.persistence.Save(s.ID(), s.Report(true)); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
