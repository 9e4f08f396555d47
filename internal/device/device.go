package device

import (
	"fmt"
	"time"

	"github.com/hikarij/voxcapture/internal/audio"
)

// Error reports a device enumeration, lookup or test failure. Device
// errors are never fatal to the application: callers degrade to an empty
// device list or a "no device" result instead of crashing.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("device %s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// TestResult reports whether a device could actually open and move data
type TestResult struct {
	DeviceWorking    bool
	InputTestPassed  bool
	OutputTestPassed bool
	Latency          time.Duration
	Err              error
}

// Manager enumerates and validates audio devices. Implementations talk to
// one audio backend; the rest of the core depends only on this interface.
type Manager interface {
	// EnumerateDevices returns a fresh snapshot of all devices. The
	// snapshot is not cached: devices come and go between calls.
	EnumerateDevices() ([]audio.DeviceInfo, error)

	// DefaultDevice resolves the system default device of the given kind
	DefaultDevice(kind audio.DeviceType) (audio.DeviceInfo, error)

	// DeviceInfo returns the snapshot for one device index
	DeviceInfo(index int) (audio.DeviceInfo, error)

	// TestDevice opens a short-lived stream on the device purely to
	// validate capability. The stream is always closed, even on error.
	TestDevice(dev audio.DeviceInfo, config audio.RecorderConfiguration, duration time.Duration) TestResult

	// HasInputDevice reports whether at least one capture device exists
	HasInputDevice() bool

	// Close releases the backend
	Close() error
}
