package vad

import (
	"time"

	"github.com/hikarij/voxcapture/internal/logger"
)

// defaultSmoothingWindow is the centered moving-average width applied to
// confidences when the configuration does not set one.
const defaultSmoothingWindow = 3

// Smoother post-processes raw per-frame detections: a centered moving
// average over confidences, and removal of speech runs too short to be real
// utterances. Both operations are total over the detection list; if anything
// goes wrong internally the original list is returned unmodified.
type Smoother struct {
	log *logger.Logger
}

// NewSmoother creates a smoother. The logger may be nil.
func NewSmoother(log *logger.Logger) *Smoother {
	return &Smoother{log: log}
}

// ApplySmoothing returns a new detection list with SmoothedScore set to the
// centered moving average of confidence and RawScore carrying the original
// confidence.
func (s *Smoother) ApplySmoothing(detections []Detection, config Configuration) (out []Detection) {
	defer func() {
		if r := recover(); r != nil {
			if s.log != nil {
				s.log.Warn("VAD smoothing failed, returning detections unmodified: %v", r)
			}
			out = detections
		}
	}()

	if len(detections) == 0 {
		return detections
	}

	window := config.SmoothingWindow
	if window <= 0 {
		window = defaultSmoothingWindow
	}

	out = make([]Detection, len(detections))
	half := window / 2

	for i, det := range detections {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi > len(detections)-1 {
			hi = len(detections) - 1
		}

		var sum float64
		for j := lo; j <= hi; j++ {
			sum += detections[j].Confidence
		}

		smoothed := det
		smoothed.RawScore = det.Confidence
		smoothed.SmoothedScore = sum / float64(hi-lo+1)
		out[i] = smoothed
	}

	return out
}

// FilterShortSegments drops consecutive speech runs whose total duration is
// below minDuration. Silence detections always pass through. Run duration
// is the run length times the per-frame duration (the detection's own
// Duration when set, DefaultFrameDuration otherwise).
func (s *Smoother) FilterShortSegments(detections []Detection, minDuration time.Duration) (out []Detection) {
	defer func() {
		if r := recover(); r != nil {
			if s.log != nil {
				s.log.Warn("VAD segment filtering failed, returning detections unmodified: %v", r)
			}
			out = detections
		}
	}()

	if len(detections) == 0 {
		return detections
	}

	out = make([]Detection, 0, len(detections))
	var run []Detection

	flushRun := func() {
		if len(run) == 0 {
			return
		}
		if runDuration(run) >= minDuration {
			out = append(out, run...)
		}
		run = run[:0]
	}

	for _, det := range detections {
		if det.Activity == Speech {
			run = append(run, det)
			continue
		}
		flushRun()
		out = append(out, det)
	}
	flushRun()

	return out
}

func runDuration(run []Detection) time.Duration {
	var total time.Duration
	for _, det := range run {
		if det.Duration > 0 {
			total += det.Duration
		} else {
			total += DefaultFrameDuration
		}
	}
	return total
}
