package stream

import (
	"errors"
	"fmt"

	"github.com/hikarij/voxcapture/internal/audio"
)

// ErrInvalidHandle is returned for handles that are stale (the stream was
// closed and the slot reused) or were never issued.
var ErrInvalidHandle = errors.New("invalid or stale stream handle")

// Error reports a stream operation failure
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("stream %s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// OverflowError reports an input overrun: the hardware produced data faster
// than it was consumed. The chunk read alongside it is still valid, and the
// condition is temporary.
type OverflowError struct{}

func (e *OverflowError) Error() string {
	return "input overflowed"
}

// Temporary marks the overflow as recoverable; collectors keep reading
func (e *OverflowError) Temporary() bool {
	return true
}

// IsTemporary reports whether an error is a recoverable stream condition
func IsTemporary(err error) bool {
	var t interface{ Temporary() bool }
	return errors.As(err, &t) && t.Temporary()
}

// Handle references an open stream by slot index and generation. A handle
// goes stale as soon as its stream is closed; reusing it is an error, not a
// use-after-close on whatever stream got the slot next.
type Handle struct {
	index      uint32
	generation uint32
}

// Valid reports whether the handle was ever issued by a registry
func (h Handle) Valid() bool {
	return h.generation != 0
}

// String returns a debug representation of the handle
func (h Handle) String() string {
	return fmt.Sprintf("stream(%d.%d)", h.index, h.generation)
}

// Manager opens and drives hardware audio streams. Creating, starting,
// stopping and closing are separate steps; a stream must be stopped before
// it is closed.
type Manager interface {
	// Create opens a stream for the given configuration without starting it
	Create(config audio.RecorderConfiguration) (Handle, error)

	// Start begins capture on an open stream
	Start(h Handle) error

	// Stop halts capture; the stream stays open and can be closed
	Stop(h Handle) error

	// Close releases the stream and invalidates the handle
	Close(h Handle) error

	// Read blocks until one chunk of samples is available. The read is
	// bounded by the chunk duration, so callers polling a stop flag
	// between reads observe it within a predictable interval.
	Read(h Handle) ([]int16, error)

	// Info returns stream metadata for diagnostics
	Info(h Handle) (map[string]any, error)

	// CloseAll sweeps every open stream, stopping and closing each one.
	// Individual failures are collected, not fatal: the sweep keeps going
	// so one wedged stream cannot leak the rest.
	CloseAll() []error
}
