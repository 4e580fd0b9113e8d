package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ManagerConfig tunes concurrency caps and garbage collection.
type ManagerConfig struct {
	MaxConcurrentPerType int           // default 4
	LogBufferSize        int           // default 200
	GCInterval           time.Duration // default 5m
	GCAfter              time.Duration // terminal workers older than this are reaped; default 1h
}

// DefaultManagerConfig returns the spec's defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{MaxConcurrentPerType: 4, LogBufferSize: 200, GCInterval: 5 * time.Minute, GCAfter: time.Hour}
}

// Manager spawns and tracks Workers, enforcing a max-concurrency cap per
// worker type (spec §4.7) and periodically garbage-collecting terminal
// workers past GCAfter.
type Manager struct {
	cfg ManagerConfig
	log zerolog.Logger

	mu      sync.Mutex
	workers map[string]*Worker
	active  map[string]int // type -> running count
}

// NewManager creates a Manager.
func NewManager(cfg ManagerConfig, log zerolog.Logger) *Manager {
	return &Manager{
		cfg:     cfg,
		log:     log.With().Str("component", "worker_manager").Logger(),
		workers: make(map[string]*Worker),
		active:  make(map[string]int),
	}
}

// Spawn starts fn as a new background worker of workerType, returning its
// id, or an error if the per-type concurrency cap is already reached.
func (m *Manager) Spawn(parent context.Context, workerType string, metadata map[string]string, fn Func) (string, error) {
	m.mu.Lock()
	if m.active[workerType] >= m.cfg.MaxConcurrentPerType {
		m.mu.Unlock()
		return "", fmt.Errorf("worker type %q at max concurrency (%d)", workerType, m.cfg.MaxConcurrentPerType)
	}
	m.active[workerType]++
	w := newWorker(workerType, metadata, m.cfg.LogBufferSize)
	ctx, cancel := context.WithCancel(parent)
	w.cancel = cancel
	m.workers[w.ID] = w
	m.mu.Unlock()

	go func() {
		w.run(ctx, fn, m.log)
		m.mu.Lock()
		m.active[workerType]--
		m.mu.Unlock()
	}()

	return w.ID, nil
}

// Get returns a tracked worker by id.
func (m *Manager) Get(id string) (*Worker, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workers[id]
	return w, ok
}

// List returns every tracked worker.
func (m *Manager) List() []*Worker {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Worker, 0, len(m.workers))
	for _, w := range m.workers {
		out = append(out, w)
	}
	return out
}

// GC removes terminal workers whose end time is older than GCAfter. Returns
// the number reaped. Intended for periodic invocation by a BackgroundService.
func (m *Manager) GC() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-m.cfg.GCAfter)
	reaped := 0
	for id, w := range m.workers {
		status, _, _ := w.Snapshot()
		if status != StatusCompleted && status != StatusFailed && status != StatusCancelled {
			continue
		}
		w.mu.RLock()
		end := w.endedAt
		w.mu.RUnlock()
		if end != nil && end.Before(cutoff) {
			delete(m.workers, id)
			reaped++
		}
	}
	return reaped
}

// CancelAll requests cancellation of every tracked worker, for shutdown.
func (m *Manager) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.workers {
		w.Cancel()
	}
}
