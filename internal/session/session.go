package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hikarij/voxcapture/internal/audio"
)

// State represents the lifecycle state of a recording
type State int

const (
	// Idle means no recording is in progress
	Idle State = iota
	// Preparing means the session is setting up device and stream
	Preparing
	// Recording means audio data is being captured
	Recording
	// Paused means capture is temporarily suspended
	Paused
	// Processing means the recording is being validated and finalized
	Processing
	// Completed means the recording finished and passed validation
	Completed
	// Failed means the recording was aborted by a rule violation or error
	Failed
	// Cancelled means the recording was abandoned by the caller
	Cancelled
	// Stopped means a recorder entity has stopped and awaits consumption
	Stopped
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Preparing:
		return "Preparing"
	case Recording:
		return "Recording"
	case Paused:
		return "Paused"
	case Processing:
		return "Processing"
	case Completed:
		return "Completed"
	case Failed:
		return "Failed"
	case Cancelled:
		return "Cancelled"
	case Stopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// minDataBytes is the smallest buffer a completed recording may carry
const minDataBytes = 1024

// AudioSession is the aggregate root for one recording attempt. It owns the
// lifecycle state machine, enforces size and duration rules, and buffers
// domain events for the orchestrator to drain. A session serves exactly one
// recording; it is discarded afterwards, never reset or pooled.
type AudioSession struct {
	mu sync.Mutex

	id      string
	format  audio.RecorderConfiguration
	quality audio.Quality
	clock   Clock

	state            State
	startedAt        time.Time
	completedAt      time.Time
	recordedDataSize int
	minimumDuration  time.Duration
	maximumDuration  time.Duration
	errorMessage     string

	events []Event
}

// Option configures a new session
type Option func(*AudioSession)

// WithMinimumDuration overrides the default 0.5s minimum recording length
func WithMinimumDuration(d time.Duration) Option {
	return func(s *AudioSession) { s.minimumDuration = d }
}

// WithMaximumDuration overrides the default 300s maximum recording length
func WithMaximumDuration(d time.Duration) Option {
	return func(s *AudioSession) { s.maximumDuration = d }
}

// NewAudioSession creates an idle session for one recording attempt
func NewAudioSession(format audio.RecorderConfiguration, quality audio.Quality, clock Clock, opts ...Option) *AudioSession {
	s := &AudioSession{
		id:              uuid.NewString(),
		format:          format,
		quality:         quality,
		clock:           clock,
		state:           Idle,
		minimumDuration: 500 * time.Millisecond,
		maximumDuration: 300 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session identifier
func (s *AudioSession) ID() string {
	return s.id
}

// State returns the current lifecycle state
func (s *AudioSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Format returns the capture configuration this session was created with
func (s *AudioSession) Format() audio.RecorderConfiguration {
	return s.format
}

// StartRecording moves the session from Idle through Preparing into
// Recording. Starting from any other state is an invalid transition.
func (s *AudioSession) StartRecording() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Idle {
		return &InvalidStateTransitionError{Op: "start recording", From: s.state}
	}

	now, err := s.clock.Now()
	if err != nil {
		s.failLocked(fmt.Sprintf("time source failed: %v", err), "TIME_SOURCE_ERROR")
		return &TimeSourceError{Err: err}
	}

	s.state = Preparing
	s.startedAt = now
	s.recordedDataSize = 0
	s.errorMessage = ""
	s.state = Recording

	s.events = append(s.events, RecordingStarted{
		ID:         s.id,
		Format:     s.format,
		OccurredAt: now,
	})

	return nil
}

// AddAudioData accumulates captured bytes. Only legal while Recording.
// Exceeding the size ceiling implied by the maximum duration forces the
// session into Failed.
func (s *AudioSession) AddAudioData(sizeBytes int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Recording {
		return &InvalidStateTransitionError{Op: "add audio data", From: s.state}
	}

	s.recordedDataSize += sizeBytes

	maxBytes := int(s.maximumDuration.Seconds() * float64(s.format.BytesPerSecond()))
	if s.recordedDataSize > maxBytes {
		s.failLocked("recording exceeded maximum duration", "RECORDING_OVERSIZE")
		return nil
	}

	s.events = append(s.events, AudioCaptured{
		ID:         s.id,
		ChunkBytes: sizeBytes,
		TotalBytes: s.recordedDataSize,
	})

	return nil
}

// StopRecording moves the session through Processing into Completed, or
// into Failed when the recording is shorter than the minimum duration or
// carries less than the minimum amount of data. The returned
// ValidationError describes soft failures; callers decide whether to
// surface them as warnings.
func (s *AudioSession) StopRecording() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Recording {
		return &InvalidStateTransitionError{Op: "stop recording", From: s.state}
	}

	s.state = Processing

	now, err := s.clock.Now()
	if err != nil {
		s.failLocked(fmt.Sprintf("time source failed: %v", err), "TIME_SOURCE_ERROR")
		return &TimeSourceError{Err: err}
	}

	measured := now.Sub(s.startedAt)

	if measured < s.minimumDuration {
		reason := fmt.Sprintf("recording too short: %.2fs (minimum %.2fs)",
			measured.Seconds(), s.minimumDuration.Seconds())
		s.failLocked(reason, "RECORDING_TOO_SHORT")
		return &ValidationError{
			Reason:   reason,
			TooShort: true,
			Measured: measured,
			Minimum:  s.minimumDuration,
		}
	}

	if s.recordedDataSize < minDataBytes {
		reason := fmt.Sprintf("insufficient audio data: %d bytes, duration %.2fs (minimum %.2fs)",
			s.recordedDataSize, measured.Seconds(), s.minimumDuration.Seconds())
		s.failLocked(reason, "INSUFFICIENT_DATA")
		return &ValidationError{
			Reason:   reason,
			TooShort: true,
			Measured: measured,
			Minimum:  s.minimumDuration,
		}
	}

	s.completedAt = now
	s.state = Completed

	s.events = append(s.events, RecordingStopped{
		ID:        s.id,
		Duration:  measured,
		DataBytes: s.recordedDataSize,
	})

	return nil
}

// FailSession forces a non-terminal session into Failed. Calling it on an
// already finished session does nothing; the first failure wins.
func (s *AudioSession) FailSession(message, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isFinishedLocked() {
		return
	}
	s.failLocked(message, code)
}

// failLocked must be called with s.mu held
func (s *AudioSession) failLocked(message, code string) {
	s.state = Failed
	s.errorMessage = message
	if now, err := s.clock.Now(); err == nil {
		s.completedAt = now
	}

	s.events = append(s.events, SessionFailed{
		ID:        s.id,
		Message:   message,
		ErrorCode: code,
	})
}

// CancelSession abandons a session in any non-terminal state. Cancelling a
// Completed or Failed session is an invalid transition.
func (s *AudioSession) CancelSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Completed || s.state == Failed {
		return &InvalidStateTransitionError{Op: "cancel session", From: s.state}
	}

	s.state = Cancelled
	if now, err := s.clock.Now(); err == nil {
		s.completedAt = now
	}

	return nil
}

// Duration returns the elapsed recording time: completion time minus start
// for finished sessions, current time minus start for active ones.
func (s *AudioSession) Duration() (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.startedAt.IsZero() {
		return 0, nil
	}

	end := s.completedAt
	if end.IsZero() {
		now, err := s.clock.Now()
		if err != nil {
			return 0, &TimeSourceError{Err: err}
		}
		end = now
	}

	return end.Sub(s.startedAt), nil
}

// RecordedDataSize returns the bytes accumulated so far
func (s *AudioSession) RecordedDataSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordedDataSize
}

// ErrorMessage returns the failure reason, if any
func (s *AudioSession) ErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errorMessage
}

// MinimumDuration returns the configured minimum recording length
func (s *AudioSession) MinimumDuration() time.Duration {
	return s.minimumDuration
}

// IsActive reports whether the session is currently recording
func (s *AudioSession) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Recording
}

// IsFinished reports whether the session reached a terminal state
func (s *AudioSession) IsFinished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isFinishedLocked()
}

func (s *AudioSession) isFinishedLocked() bool {
	return s.state == Completed || s.state == Failed || s.state == Cancelled
}

// DrainEvents returns the buffered domain events and clears the buffer.
// The caller is responsible for dispatching them.
func (s *AudioSession) DrainEvents() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := s.events
	s.events = nil
	return events
}
