package audio

import (
	"math"
	"time"
)

// Data is a finished PCM buffer together with the configuration it was
// captured under. This is the in-memory handoff format of the capture core;
// no file format is implied (callers may WAV-encode it if they need one).
type Data struct {
	PCM    []byte
	Config RecorderConfiguration
}

// Size returns the buffer size in bytes
func (d Data) Size() int {
	return len(d.PCM)
}

// SampleCount returns the number of samples in the buffer
func (d Data) SampleCount() int {
	bytesPerSample := d.Config.BitDepth / 8
	if bytesPerSample == 0 {
		return 0
	}
	return len(d.PCM) / bytesPerSample
}

// Duration returns the playback duration of the buffer
func (d Data) Duration() time.Duration {
	bps := d.Config.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	return time.Duration(float64(len(d.PCM)) / float64(bps) * float64(time.Second))
}

// Samples decodes the buffer as 16-bit little-endian PCM
func (d Data) Samples() []int16 {
	return BytesToSamples(d.PCM)
}

// SamplesToBytes converts int16 samples to little-endian PCM bytes
func SamplesToBytes(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, sample := range samples {
		data[i*2] = byte(sample)
		data[i*2+1] = byte(sample >> 8)
	}
	return data
}

// BytesToSamples converts little-endian PCM bytes to int16 samples.
// A trailing odd byte is ignored.
func BytesToSamples(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
	return samples
}

// Normalize converts int16 samples to float64 values in [-1, 1]
func Normalize(samples []int16) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(s) / 32768.0
	}
	return out
}

// RMS computes the root-mean-square energy of normalized samples
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// RMSInt16 computes the RMS energy of int16 samples normalized to [0, 1]
func RMSInt16(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		n := float64(s) / 32768.0
		sum += n * n
	}
	return math.Sqrt(sum / float64(len(samples)))
}
