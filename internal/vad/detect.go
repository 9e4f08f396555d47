package vad

import (
	"math"
	"time"

	"github.com/hikarij/voxcapture/internal/audio"
)

// Detector classifies audio chunks as speech or silence by comparing their
// RMS energy against a threshold (typically one produced by the Calibrator).
type Detector struct {
	config Configuration
}

// NewDetector creates a detector using the given configuration
func NewDetector(config Configuration) *Detector {
	return &Detector{config: config}
}

// Threshold returns the detection threshold in use
func (d *Detector) Threshold() float64 {
	return d.config.Threshold
}

// DetectChunks produces one raw detection per chunk. Confidence scales with
// the distance between the chunk's RMS energy and the threshold.
func (d *Detector) DetectChunks(chunks [][]float64, frameDuration time.Duration, start time.Time) []Detection {
	detections := make([]Detection, 0, len(chunks))

	for i, chunk := range chunks {
		rms := audio.RMS(chunk)
		isSpeech := rms >= d.config.Threshold

		var confidence float64
		if isSpeech {
			confidence = math.Min(1.0, 0.5+(rms-d.config.Threshold)*10)
		} else {
			confidence = math.Max(0.0, 0.5-(d.config.Threshold-rms)*10)
		}

		activity := Silence
		if isSpeech {
			activity = Speech
		}

		detections = append(detections, Detection{
			Activity:   activity,
			Confidence: confidence,
			Timestamp:  start.Add(time.Duration(i) * frameDuration),
			Duration:   frameDuration,
			ChunkID:    i,
			RawScore:   confidence,
		})
	}

	return detections
}
