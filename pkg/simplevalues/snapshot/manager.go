package snapshot

import (
	"log/slog"
	"sync/atomic"
)

// Manager holds the current snapshot. Readers take Current() once per
// request; Advance swaps in a fresh snapshot without disturbing requests
// still holding the previous one.
type Manager struct {
	source  EntitySource
	logger  *slog.Logger
	current atomic.Pointer[Snapshot]
}

// NewManager creates a manager with an initial snapshot over source
func NewManager(source EntitySource, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{source: source, logger: logger}
	m.current.Store(New(source))
	return m
}

// Current returns the snapshot new reads should use
func (m *Manager) Current() *Snapshot {
	return m.current.Load()
}

// Advance replaces the current snapshot, typically after a publish.
// Values cached on the previous snapshot are not carried over.
func (m *Manager) Advance() *Snapshot {
	next := New(m.source)
	prev := m.current.Swap(next)
	m.logger.Debug("Snapshot advanced", "previous", prev.ID().String(), "current", next.ID().String())
	return next
}
