package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/speedtype/internal/engine"
)

// ErrSessionNotFound is returned for unknown session ids.
var ErrSessionNotFound = errors.New("session not found")

// RunnerFactory builds an idle runner for a new session.
type RunnerFactory func() *engine.Runner

type managedRunner struct {
	runner   *engine.Runner
	lastSeen time.Time
}

// Manager owns one runner per HTTP session.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*managedRunner
	factory  RunnerFactory
	now      func() time.Time
}

// NewManager creates an empty manager.
func NewManager(factory RunnerFactory) *Manager {
	return &Manager{
		sessions: make(map[string]*managedRunner),
		factory:  factory,
		now:      time.Now,
	}
}

// Create starts a new session and returns its id and first snapshot.
func (m *Manager) Create() (string, engine.Snapshot) {
	id := uuid.New().String()
	r := m.factory()
	m.mu.Lock()
	m.sessions[id] = &managedRunner{runner: r, lastSeen: m.now()}
	m.mu.Unlock()
	return id, r.Start()
}

// Get returns the runner for id and marks it as recently used.
func (m *Manager) Get(id string) (*engine.Runner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mr, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	mr.lastSeen = m.now()
	return mr.runner, nil
}

// Remove stops and forgets a session.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	mr, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	mr.runner.Close()
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes sessions not used since cutoff and returns how many were removed.
func (m *Manager) Sweep(cutoff time.Time) int {
	m.mu.Lock()
	var stale []*engine.Runner
	for id, mr := range m.sessions {
		if mr.lastSeen.Before(cutoff) {
			stale = append(stale, mr.runner)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()
	for _, r := range stale {
		r.Close()
	}
	return len(stale)
}

// RunJanitor sweeps idle sessions every interval until ctx is done.
func (m *Manager) RunJanitor(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(m.now().Add(-ttl))
		}
	}
}

// Close stops every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*managedRunner)
	m.mu.Unlock()
	for _, mr := range sessions {
		mr.runner.Close()
	}
}
