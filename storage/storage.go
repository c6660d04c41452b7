// Package storage implements the durable-history sink: transformed records are
// fanned out to every enabled backend, each best-effort.
package storage

import (
	"context"
	"sync"

	"github.com/eddielth/sensor-gate/logger"
	"github.com/eddielth/sensor-gate/transformer"
)

// Backend represents a storage backend
type Backend interface {
	// Store persists a record
	Store(ctx context.Context, deviceID string, record *transformer.Record) error
	// Close releases the backend's resources
	Close() error
}

// Manager fans records out to multiple storage backends
type Manager struct {
	backends []Backend
	mutex    sync.RWMutex
}

// NewManager creates a new storage manager
func NewManager(backends []Backend) *Manager {
	return &Manager{
		backends: backends,
	}
}

// Store persists a record to every backend. A failing backend is logged and
// skipped; it never blocks the others.
func (m *Manager) Store(ctx context.Context, deviceID string, record *transformer.Record) error {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, backend := range m.backends {
		if err := backend.Store(ctx, deviceID, record); err != nil {
			logger.Error("failed to store record: %v", err)
		}
	}

	return nil
}

// Close closes all backends
func (m *Manager) Close() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, backend := range m.backends {
		if err := backend.Close(); err != nil {
			logger.Error("failed to close storage backend: %v", err)
		}
	}
}

// AddBackend adds a backend to the manager
func (m *Manager) AddBackend(backend Backend) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.backends = append(m.backends, backend)
}
