// Package hotreload watches the config file and re-applies the settings
// that can change without a restart.
package hotreload

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Manager wires a watcher to a coordinator.
type Manager struct {
	watcher     *Watcher
	coordinator *Coordinator
	logger      *zap.Logger

	mu      sync.Mutex
	started bool
}

// NewManager creates a manager that reloads after debounce of quiet.
func NewManager(debounce time.Duration, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	watcher, err := NewWatcher(logger)
	if err != nil {
		return nil, err
	}

	coordinator := NewCoordinator(watcher, logger)
	if debounce > 0 {
		coordinator.SetDebounceTime(debounce)
	}

	return &Manager{
		watcher:     watcher,
		coordinator: coordinator,
		logger:      logger,
	}, nil
}

// WatchFile reloads whenever the file at path changes.
func (m *Manager) WatchFile(path string) error {
	return m.watcher.WatchFile(path)
}

// RegisterReloadable registers a reloadable component
func (m *Manager) RegisterReloadable(reloadable Reloadable) error {
	return m.coordinator.Register(reloadable)
}

// Reloads reports the outcome of each reload burst.
func (m *Manager) Reloads() <-chan error {
	return m.coordinator.Reloads()
}

// Start starts the hot reload system
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return nil
	}
	if err := m.coordinator.Start(); err != nil {
		return fmt.Errorf("failed to start hot reload: %w", err)
	}
	m.started = true
	return nil
}

// Run starts the manager and stops it when ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	m.Stop()
	return nil
}

// Stop stops the hot reload system and releases the watcher.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		m.watcher.Stop()
		return
	}
	m.coordinator.Stop()
	m.started = false
}

// IsRunning returns whether the hot reload system is running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}
