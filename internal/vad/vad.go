package vad

import "time"

// Activity classifies a frame as speech or silence
type Activity int

const (
	// Silence means no voice activity was detected in the frame
	Silence Activity = iota
	// Speech means voice activity was detected in the frame
	Speech
)

// String returns the string representation of the activity
func (a Activity) String() string {
	if a == Speech {
		return "speech"
	}
	return "silence"
}

// DefaultFrameDuration is the wall-clock length assumed per detection frame
// when filtering short segments.
const DefaultFrameDuration = 10 * time.Millisecond

// Configuration holds the framing and threshold parameters for detection
// and calibration.
type Configuration struct {
	FrameSize int
	HopSize   int
	Threshold float64
	// SmoothingWindow is the moving-average width for ApplySmoothing;
	// zero means the default.
	SmoothingWindow int
}

// DefaultConfiguration returns the default VAD parameters: 1024-sample
// frames with 50% overlap.
func DefaultConfiguration() Configuration {
	return Configuration{
		FrameSize:       1024,
		HopSize:         512,
		Threshold:       0.01,
		SmoothingWindow: defaultSmoothingWindow,
	}
}

// Detection is one per-frame VAD classification
type Detection struct {
	Activity      Activity
	Confidence    float64 // [0, 1]
	Timestamp     time.Time
	Duration      time.Duration
	ChunkID       int
	RawScore      float64
	SmoothedScore float64
}

// CalibrationResult reports the threshold derived from a calibration pass.
// Method records how the result was produced, both for successful runs
// ("rms_percentile") and degraded ones ("error:<kind>").
type CalibrationResult struct {
	OptimalThreshold float64
	NoiseLevel       float64
	SpeechLevel      float64
	Confidence       float64
	SamplesProcessed int
	Method           string
}
