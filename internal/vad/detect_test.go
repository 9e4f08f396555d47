package vad

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDetectChunks(t *testing.T) {
	d := NewDetector(Configuration{FrameSize: 1024, HopSize: 512, Threshold: 0.1})

	loud := make([]float64, 256)
	for i := range loud {
		loud[i] = 0.5
	}
	quiet := make([]float64, 256)

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	out := d.DetectChunks([][]float64{quiet, loud}, 16*time.Millisecond, start)

	assert.Len(t, out, 2)

	assert.Equal(t, Silence, out[0].Activity)
	assert.Equal(t, Speech, out[1].Activity)

	assert.Equal(t, 0, out[0].ChunkID)
	assert.Equal(t, 1, out[1].ChunkID)

	assert.Equal(t, start, out[0].Timestamp)
	assert.Equal(t, start.Add(16*time.Millisecond), out[1].Timestamp)

	// Confidence scales with distance from the threshold
	assert.Greater(t, out[1].Confidence, 0.5)
	assert.Less(t, out[0].Confidence, 0.5)
	assert.Equal(t, out[1].Confidence, out[1].RawScore)
}

func TestDetectChunks_ConfidenceBounds(t *testing.T) {
	d := NewDetector(Configuration{Threshold: 0.01})

	hot := make([]float64, 128)
	for i := range hot {
		hot[i] = 1.0
	}

	out := d.DetectChunks([][]float64{hot}, DefaultFrameDuration, time.Now())

	assert.Len(t, out, 1)
	assert.LessOrEqual(t, out[0].Confidence, 1.0)
	assert.GreaterOrEqual(t, out[0].Confidence, 0.0)
}

func TestDetectChunks_Empty(t *testing.T) {
	d := NewDetector(DefaultConfiguration())

	out := d.DetectChunks(nil, DefaultFrameDuration, time.Now())
	assert.Empty(t, out)
}
