// Package session drives per-request web sessions over a pluggable Handler.
package session

// Handler persists session payloads. It mirrors the six save handler
// callbacks of a classic session runtime: a nil error stands for success.
type Handler interface {
	// Open reports whether the backing storage is usable
	Open() error

	// Close releases the backing storage
	Close() error

	// Read returns the payload stored for id.
	// An unknown id yields an empty payload and a nil error.
	Read(id string) ([]byte, error)

	// Write replaces the payload stored for id and refreshes its activity time
	Write(id string, payload []byte) error

	// Destroy removes id. Removing an unknown id is not an error.
	Destroy(id string) error

	// GC removes sessions idle for maxLifetime seconds or longer
	GC(maxLifetime int) error
}
