package registry

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ErrDuplicateID is returned by Add when the id is already registered.
// With clock-plus-uuid ids this should never happen; a caller that sees
// it must treat its own registration as failed rather than share a record.
var ErrDuplicateID = errors.New("connection id already registered")

// record holds the live state for one connection. The transport handle is
// exclusively owned by the connection's handler loop and is never exposed
// through snapshots.
type record struct {
	conn         *websocket.Conn
	connectedAt  time.Time
	lastActivity time.Time
	messageCount int64
}

// Stats is a point-in-time copy of one record's public fields.
type Stats struct {
	ID           string
	ConnectedAt  time.Time
	LastActivity time.Time
	MessageCount int64
}

// Registry is the concurrency-safe store of all live connection records.
// One coarse lock guards both the map structure and every record's
// mutable fields, so no operation ever observes a half-applied mutation.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*record
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		conns: make(map[string]*record),
	}
}

// NewConnID generates a connection id from the current clock plus a
// per-connection discriminator, unique within the process lifetime.
func NewConnID() string {
	return fmt.Sprintf("conn_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// Add registers a new connection. The record's connected-at timestamp is
// fixed here and never changes afterwards.
func (r *Registry) Add(id string, conn *websocket.Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}

	now := time.Now()
	r.conns[id] = &record{
		conn:         conn,
		connectedAt:  now,
		lastActivity: now,
	}
	return nil
}

// Remove deletes a connection record. Removing an absent id is a no-op,
// so cleanup paths can call it unconditionally.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
}

// Touch records one successfully received inbound message: it increments
// the message count and refreshes the activity timestamp, returning the
// updated stats. It reports false when the id is absent, which happens
// when the connection was torn down mid-flight.
func (r *Registry) Touch(id string) (Stats, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.conns[id]
	if !ok {
		return Stats{}, false
	}

	rec.messageCount++
	rec.lastActivity = time.Now()
	return statsOf(id, rec), true
}

// Get returns the current stats for one connection.
func (r *Registry) Get(id string) (Stats, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.conns[id]
	if !ok {
		return Stats{}, false
	}
	return statsOf(id, rec), true
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Snapshot returns a point-in-time copy of every record's public fields.
// Transport handles are deliberately not part of the result.
func (r *Registry) Snapshot() []Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Stats, 0, len(r.conns))
	for id, rec := range r.conns {
		result = append(result, statsOf(id, rec))
	}
	return result
}

func statsOf(id string, rec *record) Stats {
	return Stats{
		ID:           id,
		ConnectedAt:  rec.connectedAt,
		LastActivity: rec.lastActivity,
		MessageCount: rec.messageCount,
	}
}
