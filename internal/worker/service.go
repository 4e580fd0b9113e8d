package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// ServiceStatus is a BackgroundService's lifecycle state (spec §4.7).
type ServiceStatus string

const (
	ServiceStatusPending  ServiceStatus = "pending"
	ServiceStatusStarting ServiceStatus = "starting"
	ServiceStatusReady    ServiceStatus = "ready"
	ServiceStatusError    ServiceStatus = "error"
	ServiceStatusStopped  ServiceStatus = "stopped"
)

// BackgroundService is a long-running collaborator the composition root
// starts and stops as a unit (spec §4.7): the search result-cache sweeper,
// the monitoring scheduler, the download poller, the orphan-queue cleaner,
// and the worker manager's own GC loop are each one.
type BackgroundService interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type serviceEntry struct {
	svc    BackgroundService
	status ServiceStatus
	err    error
}

// ServiceManager starts and stops a fixed, ordered list of
// BackgroundServices — start in registration order, stop in reverse, so
// later services (which may depend on earlier ones) never outlive their
// dependencies (spec §4.7, §5).
type ServiceManager struct {
	log zerolog.Logger

	mu       sync.Mutex
	entries  []*serviceEntry
}

// NewServiceManager creates an empty ServiceManager.
func NewServiceManager(log zerolog.Logger) *ServiceManager {
	return &ServiceManager{log: log.With().Str("component", "service_manager").Logger()}
}

// Register adds svc to the end of the start order.
func (m *ServiceManager) Register(svc BackgroundService) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, &serviceEntry{svc: svc, status: ServiceStatusPending})
}

// StartAll starts every registered service in order, aborting and rolling
// back (stopping everything already started) on the first failure.
func (m *ServiceManager) StartAll(ctx context.Context) error {
	m.mu.Lock()
	entries := append([]*serviceEntry(nil), m.entries...)
	m.mu.Unlock()

	for i, e := range entries {
		e.status = ServiceStatusStarting
		m.log.Info().Str("service", e.svc.Name()).Msg("starting background service")

		if err := e.svc.Start(ctx); err != nil {
			e.status = ServiceStatusError
			e.err = err
			m.log.Error().Err(err).Str("service", e.svc.Name()).Msg("background service failed to start")
			m.stopRange(ctx, entries[:i])
			return fmt.Errorf("start %s: %w", e.svc.Name(), err)
		}
		e.status = ServiceStatusReady
	}
	return nil
}

// StopAll stops every registered service in reverse start order.
func (m *ServiceManager) StopAll(ctx context.Context) {
	m.mu.Lock()
	entries := append([]*serviceEntry(nil), m.entries...)
	m.mu.Unlock()
	m.stopRange(ctx, entries)
}

func (m *ServiceManager) stopRange(ctx context.Context, entries []*serviceEntry) {
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.status != ServiceStatusReady {
			continue
		}
		if err := e.svc.Stop(ctx); err != nil {
			m.log.Warn().Err(err).Str("service", e.svc.Name()).Msg("background service stop error")
		}
		e.status = ServiceStatusStopped
	}
}

// Statuses returns each registered service's name and current status, for
// a health endpoint or diagnostics command.
func (m *ServiceManager) Statuses() map[string]ServiceStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]ServiceStatus, len(m.entries))
	for _, e := range m.entries {
		out[e.svc.Name()] = e.status
	}
	return out
}
