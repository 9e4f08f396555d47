package session

import (
	"time"

	"github.com/hikarij/voxcapture/internal/audio"
)

// Event is a domain event recorded by the session. Events accumulate in an
// internal buffer; the orchestrator drains and dispatches them after each
// operation. The aggregate never publishes anything itself.
type Event interface {
	EventName() string
	SessionID() string
}

// RecordingStarted fires when a session enters the Recording state
type RecordingStarted struct {
	ID         string
	Format     audio.RecorderConfiguration
	OccurredAt time.Time
}

// EventName returns the event name
func (e RecordingStarted) EventName() string { return "recording_started" }

// SessionID returns the owning session id
func (e RecordingStarted) SessionID() string { return e.ID }

// AudioCaptured fires for every chunk of data added while recording
type AudioCaptured struct {
	ID         string
	ChunkBytes int
	TotalBytes int
}

// EventName returns the event name
func (e AudioCaptured) EventName() string { return "audio_captured" }

// SessionID returns the owning session id
func (e AudioCaptured) SessionID() string { return e.ID }

// RecordingStopped fires when a session completes successfully
type RecordingStopped struct {
	ID        string
	Duration  time.Duration
	DataBytes int
}

// EventName returns the event name
func (e RecordingStopped) EventName() string { return "recording_stopped" }

// SessionID returns the owning session id
func (e RecordingStopped) SessionID() string { return e.ID }

// SessionFailed fires when a session transitions to Failed
type SessionFailed struct {
	ID        string
	Message   string
	ErrorCode string
}

// EventName returns the event name
func (e SessionFailed) EventName() string { return "session_failed" }

// SessionID returns the owning session id
func (e SessionFailed) SessionID() string { return e.ID }
