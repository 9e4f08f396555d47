// Package recording coordinates devices, streams, the collector, and the
// session state machine into the push-to-talk capture lifecycle.
package recording

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hikarij/voxcapture/internal/audio"
	"github.com/hikarij/voxcapture/internal/collector"
	"github.com/hikarij/voxcapture/internal/device"
	"github.com/hikarij/voxcapture/internal/logger"
	"github.com/hikarij/voxcapture/internal/session"
	"github.com/hikarij/voxcapture/internal/stream"
	"github.com/hikarij/voxcapture/internal/vad"
)

// State represents the current manager state
type State int

const (
	// Idle means not recording
	Idle State = iota
	// Recording means capture is in progress
	Recording
	// Paused means capture is suspended but the attempt is still open
	Paused
	// Processing means a stop is being finalized
	Processing
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Recording:
		return "Recording"
	case Paused:
		return "Paused"
	case Processing:
		return "Processing"
	default:
		return "Unknown"
	}
}

// Dispatcher receives session events as they are drained. Called from the
// manager's operation goroutine and from the collector's consumer
// goroutine, so implementations must be safe for concurrent use.
type Dispatcher func(events []session.Event)

// Config holds configuration for the recording manager
type Config struct {
	Format          audio.RecorderConfiguration
	Quality         audio.Quality
	MinimumDuration time.Duration
	MaximumDuration time.Duration

	// VADEnabled turns on calibration and speech detection of the
	// captured buffer at stop time.
	VADEnabled         bool
	VAD                vad.Configuration
	MinSegmentDuration time.Duration
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Format:             audio.DefaultRecorderConfiguration(),
		Quality:            audio.QualityStandard,
		MinimumDuration:    500 * time.Millisecond,
		MaximumDuration:    300 * time.Second,
		VAD:                vad.DefaultConfiguration(),
		MinSegmentDuration: 500 * time.Millisecond,
	}
}

// Result is the outcome of one completed capture attempt
type Result struct {
	SessionID string
	Data      audio.Data
	Duration  time.Duration

	// TooShort marks a capture rejected at stop time for being under the
	// minimum. Measured and Minimum carry the comparison; Data is empty.
	TooShort bool
	Measured time.Duration
	Minimum  time.Duration

	// DroppedChunks counts chunks lost to queue pressure during capture
	DroppedChunks int

	Calibration *vad.CalibrationResult
	Detections  []vad.Detection
}

// Manager owns the per-attempt lifecycle. Each attempt gets a fresh
// session/recorder pair; nothing is pooled across attempts.
type Manager struct {
	devices  device.Manager
	streams  stream.Manager
	config   Config
	clock    session.Clock
	log      *logger.Logger
	dispatch Dispatcher

	mu       sync.Mutex
	state    State
	sess     *session.AudioSession
	recorder *session.AudioRecorder
	handle   stream.Handle
	coll     *collector.Collector
	last     *Result
}

// New creates a recording manager. A nil clock means the system clock;
// a nil dispatcher discards events.
func New(devices device.Manager, streams stream.Manager, config Config, clock session.Clock, dispatch Dispatcher, log *logger.Logger) (*Manager, error) {
	if err := config.Format.Validate(); err != nil {
		return nil, fmt.Errorf("invalid audio format: %w", err)
	}
	if config.MinimumDuration <= 0 {
		config.MinimumDuration = 500 * time.Millisecond
	}
	if config.MaximumDuration <= 0 {
		config.MaximumDuration = 300 * time.Second
	}
	if clock == nil {
		clock = session.SystemClock{}
	}
	return &Manager{
		devices:  devices,
		streams:  streams,
		config:   config,
		clock:    clock,
		dispatch: dispatch,
		log:      log,
		state:    Idle,
	}, nil
}

// GetState returns the current manager state
func (m *Manager) GetState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SessionID returns the id of the active session, or "" when idle
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return ""
	}
	return m.sess.ID()
}

// Result returns the outcome of the most recent completed attempt
func (m *Manager) Result() (Result, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return Result{}, false
	}
	return *m.last, true
}

// Start opens a capture stream and begins collecting audio
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Idle {
		return fmt.Errorf("already recording or processing (current state: %s)", m.state)
	}

	if !m.devices.HasInputDevice() {
		return fmt.Errorf("no input device available")
	}

	handle, err := m.streams.Create(m.config.Format)
	if err != nil {
		return fmt.Errorf("failed to create capture stream: %w", err)
	}

	sess := session.NewAudioSession(m.config.Format, m.config.Quality, m.clock,
		session.WithMinimumDuration(m.config.MinimumDuration),
		session.WithMaximumDuration(m.config.MaximumDuration))
	recorder := session.NewAudioRecorder(m.clock)
	recorder.SetMinimumDuration(m.config.MinimumDuration)
	if err := recorder.Configure(m.config.Format); err != nil {
		m.closeStreamLocked(handle)
		return fmt.Errorf("failed to configure recorder: %w", err)
	}

	if err := sess.StartRecording(); err != nil {
		m.closeStreamLocked(handle)
		m.emit(sess)
		return fmt.Errorf("failed to start session: %w", err)
	}
	if err := recorder.StartRecording(); err != nil {
		sess.FailSession(err.Error(), "RECORDER_START_FAILED")
		m.closeStreamLocked(handle)
		m.emit(sess)
		return fmt.Errorf("failed to start recorder: %w", err)
	}

	if err := m.streams.Start(handle); err != nil {
		sess.FailSession(err.Error(), "STREAM_START_FAILED")
		m.closeStreamLocked(handle)
		m.emit(sess)
		return fmt.Errorf("failed to start capture stream: %w", err)
	}

	// The collector callbacks touch only the session's own lock, never
	// the manager's, so they cannot deadlock against Stop.
	bytesPerSample := m.config.Format.BitDepth / 8
	coll := collector.New(collector.StreamSource(m.streams, handle), collector.Config{
		OnChunk: func(chunk []int16) {
			if err := sess.AddAudioData(len(chunk) * bytesPerSample); err != nil {
				if m.log != nil {
					m.log.Debug("chunk rejected by session: %v", err)
				}
			}
			m.emit(sess)
		},
		OnError: func(err error) {
			if stream.IsTemporary(err) {
				if m.log != nil {
					m.log.Warn("capture stream overflow: %v", err)
				}
				return
			}
			if m.log != nil {
				m.log.Error("capture stream failed: %v", err)
			}
			sess.FailSession(err.Error(), "STREAM_READ_FAILED")
			m.emit(sess)
		},
	}, m.log)
	coll.Start()

	m.sess = sess
	m.recorder = recorder
	m.handle = handle
	m.coll = coll
	m.state = Recording

	if m.log != nil {
		m.log.Info("recording started: session %s on %s", sess.ID(), handle)
	}
	m.emit(sess)
	return nil
}

// Stop finalizes the current attempt and returns its result. Stopping an
// idle manager returns the previous result again, so hotkey release
// races stay harmless.
func (m *Manager) Stop() (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Idle {
		if m.last != nil {
			return *m.last, nil
		}
		return Result{}, fmt.Errorf("not recording (current state: %s)", m.state)
	}
	if m.state == Processing {
		return Result{}, fmt.Errorf("stop already in progress")
	}

	m.state = Processing
	sess, recorder, coll, handle := m.sess, m.recorder, m.coll, m.handle
	m.sess, m.recorder, m.coll = nil, nil, nil
	m.handle = stream.Handle{}

	coll.Stop()

	// Stream teardown failures are warnings. The buffered audio is
	// already in hand; losing the hardware handle must not lose it.
	if err := m.streams.Stop(handle); err != nil && m.log != nil {
		m.log.Warn("failed to stop capture stream: %v", err)
	}
	if err := m.streams.Close(handle); err != nil && m.log != nil {
		m.log.Warn("failed to close capture stream: %v", err)
	}

	if err := recorder.StopRecording(); err != nil && m.log != nil {
		m.log.Warn("recorder stop: %v", err)
	}
	startTime := recorder.StartTime()

	stopErr := sess.StopRecording()
	m.emit(sess)
	m.state = Idle

	if stopErr != nil {
		result, err := m.resolveStopError(sess, stopErr)
		if err != nil {
			return Result{}, err
		}
		result.DroppedChunks = coll.Dropped()
		m.last = &result
		return result, nil
	}

	duration, err := sess.Duration()
	if err != nil {
		return Result{}, fmt.Errorf("failed to measure recording: %w", err)
	}

	result := Result{
		SessionID:     sess.ID(),
		Data:          buildData(coll.Chunks(), m.config.Format),
		Duration:      duration,
		DroppedChunks: coll.Dropped(),
	}

	if m.config.VADEnabled {
		m.analyzeSpeech(&result, coll.Chunks(), startTime)
	}

	if m.log != nil {
		m.log.Info("recording completed: session %s, %d bytes, %.2fs",
			result.SessionID, result.Data.Size(), duration.Seconds())
	}
	m.last = &result
	return result, nil
}

// resolveStopError turns a session stop failure into a soft result where
// the failure is a duration/size rejection. The device list is re-queried
// at stop time: a too-short capture with no microphone attached is the
// expected outcome of a hotkey tap on a mic-less machine and is reported
// as a quiet empty success rather than an error.
func (m *Manager) resolveStopError(sess *session.AudioSession, stopErr error) (Result, error) {
	var verr *session.ValidationError
	if !errors.As(stopErr, &verr) || !verr.TooShort {
		return Result{}, fmt.Errorf("failed to stop session: %w", stopErr)
	}

	if !m.devices.HasInputDevice() {
		if m.log != nil {
			m.log.Info("discarding capture: no input device present (session %s)", sess.ID())
		}
		return Result{SessionID: sess.ID()}, nil
	}

	if m.log != nil {
		m.log.Info("recording too short: session %s, %.2fs < %.2fs",
			sess.ID(), verr.Measured.Seconds(), verr.Minimum.Seconds())
	}
	return Result{
		SessionID: sess.ID(),
		TooShort:  true,
		Measured:  verr.Measured,
		Minimum:   verr.Minimum,
	}, nil
}

// Pause suspends capture without closing the attempt. The collector is
// stopped before the stream: a blocking read on a stopped stream fails
// with a non-temporary error, which would kill the session.
func (m *Manager) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Recording {
		return fmt.Errorf("not recording (current state: %s)", m.state)
	}
	if err := m.recorder.PauseRecording(); err != nil {
		return fmt.Errorf("failed to pause: %w", err)
	}
	m.coll.Stop()
	if err := m.streams.Stop(m.handle); err != nil && m.log != nil {
		m.log.Warn("failed to pause capture stream: %v", err)
	}
	m.state = Paused
	return nil
}

// Resume continues a paused attempt: stream first, then the collector, so
// the loop only ever reads an active stream.
func (m *Manager) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Paused {
		return fmt.Errorf("not paused (current state: %s)", m.state)
	}
	if err := m.streams.Start(m.handle); err != nil {
		return fmt.Errorf("failed to resume capture stream: %w", err)
	}
	m.coll.Start()
	if err := m.recorder.ResumeRecording(); err != nil {
		return fmt.Errorf("failed to resume: %w", err)
	}
	m.state = Recording
	return nil
}

// Close aborts any active attempt and releases stream resources
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.coll != nil {
		m.coll.Stop()
		m.coll = nil
	}
	if m.sess != nil {
		if err := m.sess.CancelSession(); err != nil && m.log != nil {
			m.log.Debug("cancel on close: %v", err)
		}
		m.emit(m.sess)
		m.sess = nil
	}
	m.recorder = nil
	m.handle = stream.Handle{}
	m.state = Idle

	for _, err := range m.streams.CloseAll() {
		if m.log != nil {
			m.log.Warn("stream cleanup: %v", err)
		}
	}
	return nil
}

// analyzeSpeech runs calibration and detection over the captured chunks
func (m *Manager) analyzeSpeech(result *Result, chunks [][]int16, start time.Time) {
	if len(chunks) == 0 {
		return
	}

	normalized := make([][]float64, len(chunks))
	for i, chunk := range chunks {
		normalized[i] = audio.Normalize(chunk)
	}

	calibrator := vad.NewCalibrator(m.log)
	calib := calibrator.Calibrate(normalized, m.config.VAD)
	result.Calibration = &calib

	detectCfg := m.config.VAD
	detectCfg.Threshold = calib.OptimalThreshold
	detector := vad.NewDetector(detectCfg)

	detections := detector.DetectChunks(normalized, m.config.Format.ChunkDuration(), start)
	smoother := vad.NewSmoother(m.log)
	detections = smoother.ApplySmoothing(detections, detectCfg)
	result.Detections = smoother.FilterShortSegments(detections, m.config.MinSegmentDuration)

	if m.log != nil {
		speech := 0
		for _, d := range result.Detections {
			if d.Activity == vad.Speech {
				speech++
			}
		}
		m.log.Debug("speech analysis: threshold %.4f, %d/%d speech frames",
			calib.OptimalThreshold, speech, len(result.Detections))
	}
}

func (m *Manager) closeStreamLocked(h stream.Handle) {
	if err := m.streams.Close(h); err != nil && m.log != nil {
		m.log.Warn("failed to close capture stream: %v", err)
	}
}

// emit drains the session's event buffer into the dispatcher
func (m *Manager) emit(sess *session.AudioSession) {
	if m.dispatch == nil || sess == nil {
		return
	}
	if events := sess.DrainEvents(); len(events) > 0 {
		m.dispatch(events)
	}
}

func buildData(chunks [][]int16, format audio.RecorderConfiguration) audio.Data {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	samples := make([]int16, 0, total)
	for _, c := range chunks {
		samples = append(samples, c...)
	}
	return audio.Data{PCM: audio.SamplesToBytes(samples), Config: format}
}
