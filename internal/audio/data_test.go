package audio

import (
	"math"
	"testing"
	"time"
)

func TestSamplesToBytes_RoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 12345}

	data := SamplesToBytes(samples)
	if len(data) != len(samples)*2 {
		t.Fatalf("Expected %d bytes, got %d", len(samples)*2, len(data))
	}

	back := BytesToSamples(data)
	if len(back) != len(samples) {
		t.Fatalf("Expected %d samples, got %d", len(samples), len(back))
	}

	for i := range samples {
		if back[i] != samples[i] {
			t.Errorf("Sample %d: expected %d, got %d", i, samples[i], back[i])
		}
	}
}

func TestBytesToSamples_OddLength(t *testing.T) {
	// Trailing odd byte must be ignored, not panic
	samples := BytesToSamples([]byte{0x01, 0x02, 0x03})
	if len(samples) != 1 {
		t.Errorf("Expected 1 sample, got %d", len(samples))
	}
}

func TestData_Duration(t *testing.T) {
	config := RecorderConfiguration{
		SampleRate: 16000,
		Channels:   1,
		BitDepth:   16,
		Format:     FormatPCM16,
	}

	// One second of audio at 32000 bytes/s
	d := Data{PCM: make([]byte, 32000), Config: config}

	if got := d.Duration(); got != time.Second {
		t.Errorf("Expected 1s duration, got %v", got)
	}

	if got := d.SampleCount(); got != 16000 {
		t.Errorf("Expected 16000 samples, got %d", got)
	}
}

func TestRMS_Silence(t *testing.T) {
	silence := make([]float64, 1024)

	if got := RMS(silence); got != 0 {
		t.Errorf("Expected RMS 0 for silence, got %f", got)
	}
}

func TestRMS_Empty(t *testing.T) {
	if got := RMS(nil); got != 0 {
		t.Errorf("Expected RMS 0 for empty input, got %f", got)
	}
}

func TestRMS_ConstantSignal(t *testing.T) {
	samples := make([]float64, 100)
	for i := range samples {
		samples[i] = 0.5
	}

	if got := RMS(samples); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Expected RMS 0.5, got %f", got)
	}
}

func TestRMSInt16_MatchesNormalized(t *testing.T) {
	samples := []int16{100, -200, 3000, -4000, 16384}

	want := RMS(Normalize(samples))
	got := RMSInt16(samples)

	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Expected %f, got %f", want, got)
	}
}
