// Package registry implements the Connection Registry.
//
// The registry:
//   - Tracks every live WebSocket connection by id
//   - Owns each connection's session counters (message count, activity times)
//   - Serializes all structural and per-record mutation behind one lock
//   - Exposes handle-free snapshots for the status surface
//
// Only a connection's own handler loop mutates its record, always through
// registry methods. A record exists in the registry exactly while its
// handler loop is between registration and cleanup.
package registry
