package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for unknown session ids.
var ErrSessionNotFound = errors.New("session not found")

// Registry tracks the open sessions of the service.
type Registry struct {
	deps  Deps
	cfg   Config
	newID func() string
	seeds *seedSource

	mu       sync.Mutex
	sessions map[string]*Game
}

// NewRegistry creates a Registry that builds sessions from deps and cfg.
func NewRegistry(deps Deps, cfg Config) *Registry {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	r := &Registry{
		deps:     deps,
		cfg:      cfg,
		newID:    uuid.NewString,
		sessions: make(map[string]*Game),
	}
	if deps.Rand != nil {
		r.seeds = &seedSource{src: deps.Rand}
	}
	return r
}

// seedSource hands each session its own generator seeded from a shared one.
type seedSource struct {
	mu  sync.Mutex
	src rand.Source
}

func (s *seedSource) next() rand.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return rand.NewPCG(s.src.Uint64(), s.src.Uint64())
}

// Create opens and starts a session. A non-zero width and height are
// applied before Start so the viewport wait returns at once.
func (r *Registry) Create(ctx context.Context, opts Options, width, height int) (*Game, error) {
	deps := r.deps
	if r.seeds != nil {
		deps.Rand = r.seeds.next()
	}
	g, err := New(r.newID(), deps, r.cfg, opts)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	g.SetViewport(width, height)
	if err := g.Start(ctx); err != nil {
		g.Close()
		return nil, fmt.Errorf("start session: %w", err)
	}

	r.mu.Lock()
	r.sessions[g.ID()] = g
	r.mu.Unlock()

	r.deps.Metrics.ActiveSessions.Inc()
	r.deps.Logger.Info("session created", "session_id", g.ID(), "admin", opts.Admin)
	return g, nil
}

// Get returns the session with the given id.
func (r *Registry) Get(id string) (*Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrSessionNotFound)
	}
	return g, nil
}

// Delete closes and forgets a session.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	g, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrSessionNotFound)
	}

	g.Close()
	r.deps.Metrics.ActiveSessions.Dec()
	r.deps.Logger.Info("session deleted", "session_id", id)
	return nil
}

// IDs returns the open session ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close closes every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Game)
	r.mu.Unlock()

	for _, g := range sessions {
		g.Close()
		r.deps.Metrics.ActiveSessions.Dec()
	}
}

// CheckReadiness reports whether sessions can be created.
func (r *Registry) CheckReadiness(_ context.Context) error {
	if r.deps.Catalog == nil || r.deps.Catalog.Len() == 0 {
		return errors.New("location catalog not loaded")
	}
	return nil
}
