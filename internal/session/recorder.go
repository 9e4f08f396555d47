package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hikarij/voxcapture/internal/audio"
)

// AudioRecorder is the simpler recording entity used by the default use
// cases. It tracks identity, state and timing but enforces no size rules;
// the AudioSession aggregate is the strict one. A recorder serves one
// recording attempt: after its data is consumed the caller resets it to
// Idle or, more commonly, discards it.
type AudioRecorder struct {
	mu sync.Mutex

	recordingID     string
	state           State
	configuration   *audio.RecorderConfiguration
	minimumDuration time.Duration
	clock           Clock

	startTime time.Time
	stopTime  time.Time
}

// NewAudioRecorder creates an idle recorder with a generated recording id
func NewAudioRecorder(clock Clock) *AudioRecorder {
	return &AudioRecorder{
		recordingID:     uuid.NewString(),
		state:           Idle,
		minimumDuration: 500 * time.Millisecond,
		clock:           clock,
	}
}

// RecordingID returns the opaque recording identifier
func (r *AudioRecorder) RecordingID() string {
	return r.recordingID
}

// State returns the current recording state
func (r *AudioRecorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Configure attaches a capture configuration to the recorder
func (r *AudioRecorder) Configure(config audio.RecorderConfiguration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Idle {
		return &InvalidStateTransitionError{Op: "configure", From: r.state}
	}

	r.configuration = &config
	return nil
}

// Configuration returns the attached configuration, or nil
func (r *AudioRecorder) Configuration() *audio.RecorderConfiguration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.configuration
}

// StartRecording moves the recorder from Idle to Recording
func (r *AudioRecorder) StartRecording() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Idle {
		return &InvalidStateTransitionError{Op: "start recording", From: r.state}
	}

	now, err := r.clock.Now()
	if err != nil {
		return &TimeSourceError{Err: err}
	}

	r.state = Recording
	r.startTime = now
	r.stopTime = time.Time{}
	return nil
}

// StopRecording moves the recorder from Recording or Paused to Stopped
func (r *AudioRecorder) StopRecording() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Recording && r.state != Paused {
		return &InvalidStateTransitionError{Op: "stop recording", From: r.state}
	}

	now, err := r.clock.Now()
	if err != nil {
		return &TimeSourceError{Err: err}
	}

	r.state = Stopped
	r.stopTime = now
	return nil
}

// PauseRecording suspends an active recording
func (r *AudioRecorder) PauseRecording() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Recording {
		return &InvalidStateTransitionError{Op: "pause recording", From: r.state}
	}

	r.state = Paused
	return nil
}

// ResumeRecording resumes a paused recording
func (r *AudioRecorder) ResumeRecording() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Paused {
		return &InvalidStateTransitionError{Op: "resume recording", From: r.state}
	}

	r.state = Recording
	return nil
}

// Reset returns a stopped recorder to Idle after its data was consumed.
// There is no implicit reuse: callers reset explicitly or discard the
// recorder and create a fresh one.
func (r *AudioRecorder) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Stopped {
		return &InvalidStateTransitionError{Op: "reset", From: r.state}
	}

	r.state = Idle
	return nil
}

// StartTime returns when the current or last recording started
func (r *AudioRecorder) StartTime() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.startTime
}

// MinimumDuration returns the minimum recording length rule
func (r *AudioRecorder) MinimumDuration() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.minimumDuration
}

// SetMinimumDuration changes the minimum recording length rule
func (r *AudioRecorder) SetMinimumDuration(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.minimumDuration = d
}

// RecordingDuration returns the elapsed time of the current or finished
// recording. Zero when the recorder never started.
func (r *AudioRecorder) RecordingDuration() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.durationLocked()
}

func (r *AudioRecorder) durationLocked() time.Duration {
	if r.startTime.IsZero() {
		return 0
	}
	if !r.stopTime.IsZero() {
		return r.stopTime.Sub(r.startTime)
	}
	if now, err := r.clock.Now(); err == nil {
		return now.Sub(r.startTime)
	}
	return 0
}

// WasRecordingSuccessful reports whether the last recording finished, was
// consumed (the recorder is Idle again) and met the minimum duration.
func (r *AudioRecorder) WasRecordingSuccessful() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state == Idle && !r.startTime.IsZero() && r.durationLocked() >= r.minimumDuration
}
