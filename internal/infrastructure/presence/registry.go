// Package presence tracks which users currently hold a live connection to
// this instance.
package presence

import (
	"sync"

	"github.com/gigflow/marketplace/internal/core/ports"
	"github.com/gigflow/marketplace/internal/pkg/metrics"
)

// Registry maps a user id to the most recently registered connection for
// that user. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]ports.Conn
}

var _ ports.PresenceRegistry = (*Registry)(nil)

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]ports.Conn)}
}

// Register inserts or overwrites the connection for userID. A replaced
// connection stays open; it is simply no longer reachable by lookup.
func (r *Registry) Register(userID string, conn ports.Conn) {
	r.mu.Lock()
	r.conns[userID] = conn
	n := len(r.conns)
	r.mu.Unlock()
	metrics.PresenceOnline.Set(float64(n))
}

// Unregister removes the entry that points at conn. A stale connection that
// was already replaced by a newer one removes nothing.
func (r *Registry) Unregister(conn ports.Conn) (string, bool) {
	r.mu.Lock()
	defer func() {
		n := len(r.conns)
		r.mu.Unlock()
		metrics.PresenceOnline.Set(float64(n))
	}()

	for userID, c := range r.conns {
		if c.ID() == conn.ID() {
			delete(r.conns, userID)
			return userID, true
		}
	}
	return "", false
}

// Lookup returns the live connection for userID, if any.
func (r *Registry) Lookup(userID string) (ports.Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[userID]
	return c, ok
}

// Len reports the number of users online.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Close disconnects every registered connection and empties the registry.
func (r *Registry) Close() {
	r.mu.Lock()
	conns := r.conns
	r.conns = make(map[string]ports.Conn)
	r.mu.Unlock()
	metrics.PresenceOnline.Set(0)

	for _, c := range conns {
		_ = c.Close()
	}
}
