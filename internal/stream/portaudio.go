package stream

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/hikarij/voxcapture/internal/audio"
	"github.com/hikarij/voxcapture/internal/logger"
)

// paStream is the per-slot state of one open PortAudio stream
type paStream struct {
	stream  *portaudio.Stream
	buf     []int16
	config  audio.RecorderConfiguration
	started bool
}

// PortAudioManager implements Manager on top of PortAudio blocking streams.
// The stream registry is owned by this manager and only mutated under its
// lock; concurrent start/stop requests are serialized, never interleaved.
type PortAudioManager struct {
	mu      sync.Mutex
	streams registry[*paStream]
	log     *logger.Logger
}

// NewPortAudioManager creates a stream manager. PortAudio itself must
// already be initialized (the device manager owns that lifecycle).
func NewPortAudioManager(log *logger.Logger) *PortAudioManager {
	return &PortAudioManager{log: log}
}

// Create opens a blocking input stream for the configuration
func (m *PortAudioManager) Create(config audio.RecorderConfiguration) (Handle, error) {
	if err := config.Validate(); err != nil {
		return Handle{}, &Error{Op: "create", Err: err}
	}

	var target *portaudio.DeviceInfo
	var err error

	if config.DeviceID == -1 {
		target, err = portaudio.DefaultInputDevice()
		if err != nil {
			return Handle{}, &Error{Op: "create", Err: fmt.Errorf("no default input device: %w", err)}
		}
	} else {
		devices, err := portaudio.Devices()
		if err != nil {
			return Handle{}, &Error{Op: "create", Err: err}
		}
		if config.DeviceID < 0 || config.DeviceID >= len(devices) {
			return Handle{}, &Error{Op: "create", Err: fmt.Errorf("invalid device ID: %d", config.DeviceID)}
		}
		target = devices[config.DeviceID]
	}

	if target.MaxInputChannels < config.Channels {
		return Handle{}, &Error{Op: "create", Err: fmt.Errorf(
			"device %q has no input channels (output-only device)", target.Name)}
	}

	params := portaudio.HighLatencyParameters(target, nil)
	params.Input.Channels = config.Channels
	params.SampleRate = float64(config.SampleRate)
	params.FramesPerBuffer = config.ChunkSize

	buf := make([]int16, config.ChunkSize*config.Channels)
	s, err := portaudio.OpenStream(params, &buf)
	if err != nil {
		return Handle{}, &Error{Op: "create", Err: err}
	}

	m.mu.Lock()
	handle := m.streams.add(&paStream{stream: s, buf: buf, config: config})
	m.mu.Unlock()

	if m.log != nil {
		m.log.Debug("opened %s on device %q (%d Hz, %d ch)", handle, target.Name, config.SampleRate, config.Channels)
	}

	return handle, nil
}

// Start begins capture on an open stream
func (m *PortAudioManager) Start(h Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ps, ok := m.streams.get(h)
	if !ok {
		return &Error{Op: "start", Err: ErrInvalidHandle}
	}
	if ps.started {
		return &Error{Op: "start", Err: fmt.Errorf("%s already started", h)}
	}

	if err := ps.stream.Start(); err != nil {
		return &Error{Op: "start", Err: err}
	}
	ps.started = true
	return nil
}

// Stop halts capture. Stopping an already stopped stream is a no-op so
// that teardown paths stay idempotent.
func (m *PortAudioManager) Stop(h Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopLocked(h)
}

func (m *PortAudioManager) stopLocked(h Handle) error {
	ps, ok := m.streams.get(h)
	if !ok {
		return &Error{Op: "stop", Err: ErrInvalidHandle}
	}
	if !ps.started {
		return nil
	}

	if err := ps.stream.Stop(); err != nil {
		return &Error{Op: "stop", Err: err}
	}
	ps.started = false
	return nil
}

// Close releases the stream and invalidates the handle. A still-started
// stream is stopped first; a stop failure is logged as a warning and the
// close proceeds so the hardware handle is not leaked.
func (m *PortAudioManager) Close(h Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeLocked(h)
}

func (m *PortAudioManager) closeLocked(h Handle) error {
	ps, ok := m.streams.get(h)
	if !ok {
		return &Error{Op: "close", Err: ErrInvalidHandle}
	}

	if ps.started {
		if err := ps.stream.Stop(); err != nil && m.log != nil {
			m.log.Warn("failed to stop %s before close: %v", h, err)
		}
		ps.started = false
	}

	m.streams.remove(h)

	if err := ps.stream.Close(); err != nil {
		return &Error{Op: "close", Err: err}
	}
	return nil
}

// Read blocks until one chunk is available and returns a copy of it. An
// input overflow still yields the chunk, tagged with a temporary error.
func (m *PortAudioManager) Read(h Handle) ([]int16, error) {
	m.mu.Lock()
	ps, ok := m.streams.get(h)
	m.mu.Unlock()

	if !ok {
		return nil, &Error{Op: "read", Err: ErrInvalidHandle}
	}

	// The blocking read returns after one chunk, so its latency is bounded
	// by the chunk duration of the configuration.
	err := ps.stream.Read()
	if err != nil && err != portaudio.InputOverflowed {
		return nil, &Error{Op: "read", Err: err}
	}

	chunk := make([]int16, len(ps.buf))
	copy(chunk, ps.buf)

	if err == portaudio.InputOverflowed {
		return chunk, &Error{Op: "read", Err: &OverflowError{}}
	}
	return chunk, nil
}

// Info returns stream metadata for diagnostics
func (m *PortAudioManager) Info(h Handle) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ps, ok := m.streams.get(h)
	if !ok {
		return nil, &Error{Op: "info", Err: ErrInvalidHandle}
	}

	info := map[string]any{
		"sample_rate": ps.config.SampleRate,
		"channels":    ps.config.Channels,
		"chunk_size":  ps.config.ChunkSize,
		"started":     ps.started,
	}
	if si := ps.stream.Info(); si != nil {
		info["input_latency"] = si.InputLatency
	}
	return info, nil
}

// CloseAll stops and closes every open stream. Failures are collected and
// the sweep continues; one broken stream must not strand the others.
func (m *PortAudioManager) CloseAll() []error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, h := range m.streams.handles() {
		if err := m.stopLocked(h); err != nil {
			if m.log != nil {
				m.log.Warn("cleanup: failed to stop %s: %v", h, err)
			}
			errs = append(errs, err)
		}
		if err := m.closeLocked(h); err != nil {
			if m.log != nil {
				m.log.Warn("cleanup: failed to close %s: %v", h, err)
			}
			errs = append(errs, err)
		}
	}
	return errs
}

// ActiveCount returns the number of open streams
func (m *PortAudioManager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.streams.count()
}
