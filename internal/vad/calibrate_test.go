package vad

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalibrate_EmptyInput(t *testing.T) {
	c := NewCalibrator(nil)

	result := c.Calibrate(nil, DefaultConfiguration())

	assert.Equal(t, 0.5, result.OptimalThreshold)
	assert.Equal(t, 0, result.SamplesProcessed)
	assert.Equal(t, 0.0, result.NoiseLevel)
	assert.Equal(t, 0.0, result.SpeechLevel)
	assert.Equal(t, "rms_percentile", result.Method)
}

func TestCalibrate_AllSilence(t *testing.T) {
	c := NewCalibrator(nil)

	// Two seconds of constant zero samples
	chunks := [][]float64{
		make([]float64, 16000),
		make([]float64, 16000),
	}

	result := c.Calibrate(chunks, DefaultConfiguration())

	assert.Equal(t, 0.0, result.NoiseLevel)
	assert.Equal(t, 0.0, result.SpeechLevel)
	assert.Equal(t, 0.5, result.Confidence, "no separation between noise and speech is ambiguous")
	assert.Equal(t, 0.0, result.OptimalThreshold)
	assert.Equal(t, 32000, result.SamplesProcessed)
	assert.Equal(t, "rms_percentile", result.Method)
}

func TestCalibrate_SpeechAboveNoise(t *testing.T) {
	c := NewCalibrator(nil)

	// Mostly quiet buffer with a loud burst: the 95th-percentile frame RMS
	// should sit well above the overall noise floor.
	quiet := make([]float64, 14336)
	for i := range quiet {
		quiet[i] = 0.01
	}
	loud := make([]float64, 2048)
	for i := range loud {
		loud[i] = 0.8
	}

	result := c.Calibrate([][]float64{quiet, loud}, DefaultConfiguration())

	assert.Equal(t, 1.0, result.Confidence)
	assert.Greater(t, result.SpeechLevel, result.NoiseLevel)
	assert.Greater(t, result.OptimalThreshold, result.NoiseLevel)
	assert.Less(t, result.OptimalThreshold, result.SpeechLevel)
	assert.Equal(t, 16384, result.SamplesProcessed)
}

func TestCalibrate_ThresholdClamped(t *testing.T) {
	c := NewCalibrator(nil)

	// Threshold formula output stays inside [0, 1] even for hot signals
	hot := make([]float64, 8192)
	for i := range hot {
		hot[i] = 1.0
	}

	result := c.Calibrate([][]float64{hot}, DefaultConfiguration())

	assert.GreaterOrEqual(t, result.OptimalThreshold, 0.0)
	assert.LessOrEqual(t, result.OptimalThreshold, 1.0)
}

func TestCalibrate_InvalidConfig(t *testing.T) {
	c := NewCalibrator(nil)

	chunks := [][]float64{make([]float64, 2048)}
	result := c.Calibrate(chunks, Configuration{FrameSize: 1024, HopSize: 0})

	assert.Equal(t, 0.5, result.OptimalThreshold)
	assert.Equal(t, "error:invalid_config", result.Method)
}

func TestCalibrate_BufferShorterThanFrame(t *testing.T) {
	c := NewCalibrator(nil)

	// No frame fits: speech level falls back to the noise level
	short := make([]float64, 100)
	for i := range short {
		short[i] = 0.2
	}

	result := c.Calibrate([][]float64{short}, DefaultConfiguration())

	assert.InDelta(t, result.NoiseLevel, result.SpeechLevel, 1e-9)
	assert.Equal(t, 0.5, result.Confidence)
}

func TestAnalyzeNoiseLevel_Empty(t *testing.T) {
	c := NewCalibrator(nil)

	assert.Equal(t, 0.0, c.AnalyzeNoiseLevel(nil))
	assert.Equal(t, 0.0, c.AnalyzeSpeechLevel(nil))
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		p      float64
		want   float64
	}{
		{"single value", []float64{0.4}, 95, 0.4},
		{"max at 100", []float64{0.1, 0.2, 0.3}, 100, 0.3},
		{"median", []float64{0.1, 0.2, 0.3}, 50, 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, percentile(tt.values, tt.p), 1e-9)
		})
	}
}
