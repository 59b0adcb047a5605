package system

import (
	"context"
	"fmt"
	"sync"

	"github.com/jarvisfi/jarvisfi/pkg/logger"
)

// Manager sequences service startup and teardown. Services start in
// registration order and stop in reverse. A failed start aborts the sequence
// and rolls back everything already started; a failed stop is logged and the
// remaining teardown continues.
type Manager struct {
	log *logger.Logger

	mu       sync.Mutex
	services []Service
	names    map[string]bool
	started  int
	running  bool
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return NewManagerWithLogger(nil)
}

// NewManagerWithLogger creates a manager using the provided logger.
func NewManagerWithLogger(log *logger.Logger) *Manager {
	if log == nil {
		log = logger.NewDefault("system")
	}
	return &Manager{
		log:   log,
		names: make(map[string]bool),
	}
}

// Register adds a service to the startup sequence. Must be called before
// Start; duplicate names are rejected.
func (m *Manager) Register(svc Service) error {
	if svc == nil {
		return fmt.Errorf("service is nil")
	}
	name := svc.Name()
	if name == "" {
		return fmt.Errorf("service name is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("cannot register %s: manager already started", name)
	}
	if m.names[name] {
		return fmt.Errorf("service %s already registered", name)
	}
	m.names[name] = true
	m.services = append(m.services, svc)
	return nil
}

// Start starts all registered services in order. On the first failure the
// services started so far are stopped in reverse order and the failure is
// returned.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = true
	services := m.services
	m.mu.Unlock()

	for i, svc := range services {
		if err := svc.Start(ctx); err != nil {
			m.log.WithError(err).WithField("service", svc.Name()).Error("service start failed")
			m.rollback(ctx, i)
			m.mu.Lock()
			m.running = false
			m.mu.Unlock()
			return fmt.Errorf("start %s: %w", svc.Name(), err)
		}
		m.log.WithField("service", svc.Name()).Info("service started")
		m.mu.Lock()
		m.started = i + 1
		m.mu.Unlock()
	}
	return nil
}

// Stop stops started services in reverse order. Teardown failures are logged
// and skipped; the first error is returned after all services have been
// attempted.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	started := m.started
	services := m.services
	m.running = false
	m.started = 0
	m.mu.Unlock()

	var firstErr error
	for i := started - 1; i >= 0; i-- {
		svc := services[i]
		if err := svc.Stop(ctx); err != nil {
			m.log.WithError(err).WithField("service", svc.Name()).Warn("service stop failed")
			if firstErr == nil {
				firstErr = fmt.Errorf("stop %s: %w", svc.Name(), err)
			}
			continue
		}
		m.log.WithField("service", svc.Name()).Info("service stopped")
	}
	return firstErr
}

// rollback stops services[0:count] in reverse order after a failed start.
func (m *Manager) rollback(ctx context.Context, count int) {
	for i := count - 1; i >= 0; i-- {
		svc := m.services[i]
		if err := svc.Stop(ctx); err != nil {
			m.log.WithError(err).WithField("service", svc.Name()).Warn("rollback stop failed")
		}
	}
}
