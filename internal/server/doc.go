// Package server implements the WebSocket message server core.
//
// The server:
//   - Upgrades HTTP requests and runs one handler loop per connection
//   - Decodes each inbound JSON message once into a tagged envelope
//   - Computes replies through a pure, registry-free dispatcher
//   - Sends through a wrapper that reports failure instead of erroring
//   - Guarantees registry cleanup on every exit path of a handler loop
//
// A connection closes only when its own loop sees EOF, a read error, or a
// failed send. No read or write deadlines are imposed; a silent client may
// hold its connection open indefinitely.
package server
