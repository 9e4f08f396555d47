package vad

import (
	"fmt"
	"sort"

	"github.com/hikarij/voxcapture/internal/audio"
	"github.com/hikarij/voxcapture/internal/logger"
)

const speechPercentile = 95.0

// Calibrator derives a detection threshold from recorded audio by comparing
// the overall noise floor against the loudest frames. Calibration is an
// enhancement step: it never fails a recording, it only degrades to a
// neutral default threshold.
type Calibrator struct {
	log *logger.Logger
}

// NewCalibrator creates a calibrator. The logger may be nil.
func NewCalibrator(log *logger.Logger) *Calibrator {
	return &Calibrator{log: log}
}

// Calibrate computes noise and speech RMS levels from the given chunks of
// normalized samples and derives a threshold between them. Empty input and
// internal failures produce a tagged degraded result instead of an error.
func (c *Calibrator) Calibrate(chunks [][]float64, config Configuration) (result CalibrationResult) {
	defer func() {
		if r := recover(); r != nil {
			if c.log != nil {
				c.log.Warn("VAD calibration failed, using neutral threshold: %v", r)
			}
			result = degradedResult(fmt.Sprintf("error:%v", r))
		}
	}()

	if config.FrameSize <= 0 || config.HopSize <= 0 {
		return degradedResult("error:invalid_config")
	}

	samples := flatten(chunks)
	if len(samples) == 0 {
		return CalibrationResult{
			OptimalThreshold: 0.5,
			NoiseLevel:       0.0,
			SpeechLevel:      0.0,
			Confidence:       0.0,
			SamplesProcessed: 0,
			Method:           "rms_percentile",
		}
	}

	noiseLevel := audio.RMS(samples)

	var frameRMS []float64
	for i := 0; i+config.FrameSize <= len(samples); i += config.HopSize {
		frameRMS = append(frameRMS, audio.RMS(samples[i:i+config.FrameSize]))
	}

	speechLevel := noiseLevel
	if len(frameRMS) > 0 {
		speechLevel = percentile(frameRMS, speechPercentile)
	}

	threshold := noiseLevel + 0.3*(speechLevel-noiseLevel)
	threshold = clamp(threshold, 0.0, 1.0)

	confidence := 0.5
	if speechLevel > noiseLevel {
		confidence = 1.0
	}

	if c.log != nil {
		c.log.Debug("VAD calibration: noise=%.6f speech=%.6f threshold=%.6f", noiseLevel, speechLevel, threshold)
	}

	return CalibrationResult{
		OptimalThreshold: threshold,
		NoiseLevel:       noiseLevel,
		SpeechLevel:      speechLevel,
		Confidence:       confidence,
		SamplesProcessed: len(samples),
		Method:           "rms_percentile",
	}
}

// AnalyzeNoiseLevel returns the RMS energy of the entire buffer
func (c *Calibrator) AnalyzeNoiseLevel(chunks [][]float64) float64 {
	return audio.RMS(flatten(chunks))
}

// AnalyzeSpeechLevel returns the 95th-percentile frame RMS using default framing
func (c *Calibrator) AnalyzeSpeechLevel(chunks [][]float64) float64 {
	config := DefaultConfiguration()
	samples := flatten(chunks)

	var frameRMS []float64
	for i := 0; i+config.FrameSize <= len(samples); i += config.HopSize {
		frameRMS = append(frameRMS, audio.RMS(samples[i:i+config.FrameSize]))
	}

	if len(frameRMS) == 0 {
		return 0.0
	}
	return percentile(frameRMS, speechPercentile)
}

func degradedResult(method string) CalibrationResult {
	return CalibrationResult{
		OptimalThreshold: 0.5,
		NoiseLevel:       0.0,
		SpeechLevel:      0.0,
		Confidence:       0.0,
		SamplesProcessed: 0,
		Method:           method,
	}
}

func flatten(chunks [][]float64) []float64 {
	total := 0
	for _, chunk := range chunks {
		total += len(chunk)
	}
	out := make([]float64, 0, total)
	for _, chunk := range chunks {
		out = append(out, chunk...)
	}
	return out
}

// percentile computes the p-th percentile with linear interpolation
func percentile(values []float64, p float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := p / 100.0 * float64(len(sorted)-1)
	lower := int(rank)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
