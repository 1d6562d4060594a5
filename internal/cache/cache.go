// Package cache is the keyed aggregate cache between query handlers and
// the ledger. Entries are gated by the owning user's ledger version: a
// value computed at version N is served only while the user's ledger is
// still at version N. There is no TTL; staleness is version-driven only,
// which gives read-after-write consistency for a single user.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// VersionSource reports the current ledger version for a user. Implemented
// by the ledger.
type VersionSource interface {
	Version(userID int64) uint64
}

type entry struct {
	value             any
	computedAtVersion uint64
}

// Manager owns cache entries but never originates data: on a miss it runs
// the caller's compute function and stores the result under the full
// parameter key. Concurrent misses for the same key are collapsed into a
// single computation.
type Manager struct {
	versions VersionSource

	mu      sync.RWMutex
	entries map[string]entry
	group   singleflight.Group
}

func NewManager(versions VersionSource) *Manager {
	return &Manager{
		versions: versions,
		entries:  make(map[string]entry),
	}
}

// GetValue returns the cached value for key if it was computed at the
// user's current ledger version; otherwise it runs compute, stores the
// result and returns it.
func (m *Manager) GetValue(ctx context.Context, key Key, compute func(ctx context.Context) (any, error)) (any, error) {
	encoded := key.Encode()

	if v, ok := m.lookup(encoded, key.UserID); ok {
		return v, nil
	}

	v, err, _ := m.group.Do(encoded, func() (any, error) {
		// Re-check under the flight: another caller may have filled the
		// entry while we waited.
		if v, ok := m.lookup(encoded, key.UserID); ok {
			return v, nil
		}

		// Capture the version before computing. If a write lands while
		// compute runs, the stored entry is already outdated and the next
		// read recomputes.
		version := m.versions.Version(key.UserID)
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.entries[encoded] = entry{value: v, computedAtVersion: version}
		m.mu.Unlock()
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (m *Manager) lookup(encoded string, userID int64) (any, bool) {
	current := m.versions.Version(userID)
	m.mu.RLock()
	e, ok := m.entries[encoded]
	m.mu.RUnlock()
	if ok && e.computedAtVersion == current {
		return e.value, true
	}
	return nil, false
}

// Invalidate removes every entry for the given user and metrics, across
// all parameter variants. Removal, not marking: a later read recomputes.
func (m *Manager) Invalidate(ctx context.Context, userID int64, metrics ...string) error {
	_ = ctx

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, metric := range metrics {
		prefix := metricPrefix(userID, metric)
		for k := range m.entries {
			if strings.HasPrefix(k, prefix) {
				delete(m.entries, k)
			}
		}
	}
	return nil
}

// Size returns the current number of cached entries.
func (m *Manager) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Get is the typed wrapper around Manager.GetValue used by the analytics
// engine.
func Get[T any](ctx context.Context, m *Manager, key Key, compute func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	v, err := m.GetValue(ctx, key, func(ctx context.Context) (any, error) {
		return compute(ctx)
	})
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache entry for %s holds %T", key.Metric, v)
	}
	return typed, nil
}
