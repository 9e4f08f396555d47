package audio

import (
	"fmt"
	"time"
)

// SampleFormat identifies the PCM encoding of captured samples
type SampleFormat int

const (
	// FormatUnknown means the format has not been set
	FormatUnknown SampleFormat = iota
	// FormatPCM16 is 16-bit signed little-endian PCM
	FormatPCM16
	// FormatPCM24 is 24-bit signed little-endian PCM
	FormatPCM24
	// FormatFloat32 is 32-bit IEEE float PCM
	FormatFloat32
)

// String returns the string representation of the sample format
func (f SampleFormat) String() string {
	switch f {
	case FormatPCM16:
		return "pcm16"
	case FormatPCM24:
		return "pcm24"
	case FormatFloat32:
		return "float32"
	default:
		return "unknown"
	}
}

// Quality selects the capture quality preset
type Quality int

const (
	// QualityLow trades fidelity for smaller buffers
	QualityLow Quality = iota
	// QualityStandard is the default speech-capture preset
	QualityStandard
	// QualityHigh keeps full fidelity at the cost of memory
	QualityHigh
)

// String returns the string representation of the quality preset
func (q Quality) String() string {
	switch q {
	case QualityLow:
		return "low"
	case QualityStandard:
		return "standard"
	case QualityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// RecorderConfiguration describes one recording attempt. It is treated as
// immutable once constructed; callers build a new value for each attempt.
type RecorderConfiguration struct {
	SampleRate  int
	Channels    int
	BitDepth    int
	Format      SampleFormat
	DeviceID    int // -1 means use the system default input device
	ChunkSize   int // samples per read from the hardware stream
	BufferSize  int // chunk queue capacity
	MaxDuration time.Duration
}

// DefaultRecorderConfiguration returns the default capture configuration.
// Sample rate: 16kHz mono 16-bit (speech recognition standard)
func DefaultRecorderConfiguration() RecorderConfiguration {
	return RecorderConfiguration{
		SampleRate:  16000,
		Channels:    1,
		BitDepth:    16,
		Format:      FormatPCM16,
		DeviceID:    -1,
		ChunkSize:   1024,
		BufferSize:  64,
		MaxDuration: 300 * time.Second,
	}
}

// IsValid reports whether the configuration carries everything needed to
// open a stream: sample rate, channel count, bit depth and format.
func (c RecorderConfiguration) IsValid() bool {
	return c.SampleRate > 0 && c.Channels > 0 && c.BitDepth > 0 && c.Format != FormatUnknown
}

// Validate returns a descriptive error for the first invalid field
func (c RecorderConfiguration) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("invalid channel count: %d", c.Channels)
	}
	if c.BitDepth <= 0 || c.BitDepth%8 != 0 {
		return fmt.Errorf("invalid bit depth: %d", c.BitDepth)
	}
	if c.Format == FormatUnknown {
		return fmt.Errorf("sample format not set")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("invalid chunk size: %d", c.ChunkSize)
	}
	if c.MaxDuration <= 0 {
		return fmt.Errorf("invalid max duration: %v", c.MaxDuration)
	}
	return nil
}

// BytesPerSecond returns the raw PCM data rate for this configuration
func (c RecorderConfiguration) BytesPerSecond() int {
	return c.SampleRate * c.Channels * (c.BitDepth / 8)
}

// MaxFileSizeBytes returns the size ceiling implied by MaxDuration
func (c RecorderConfiguration) MaxFileSizeBytes() int {
	return int(float64(c.BytesPerSecond()) * c.MaxDuration.Seconds())
}

// ChunkDuration returns the wall-clock time covered by one chunk read
func (c RecorderConfiguration) ChunkDuration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(c.ChunkSize) / float64(c.SampleRate) * float64(time.Second))
}

// DeviceType distinguishes capture and playback devices
type DeviceType int

const (
	// DeviceInput is a capture (microphone) device
	DeviceInput DeviceType = iota
	// DeviceOutput is a playback device
	DeviceOutput
)

// String returns the string representation of the device type
func (t DeviceType) String() string {
	if t == DeviceOutput {
		return "output"
	}
	return "input"
}

// DeviceInfo is a read-only snapshot of one audio device. Snapshots are
// refreshed on every enumeration call; devices can be plugged or unplugged
// between calls, so a snapshot must not be cached across recordings.
type DeviceInfo struct {
	Index                int
	Name                 string
	Type                 DeviceType
	MaxInputChannels     int
	MaxOutputChannels    int
	DefaultSampleRate    float64
	SupportedSampleRates []int
	IsDefault            bool
}

// SupportsSampleRate reports whether the device advertises the given rate
func (d DeviceInfo) SupportsSampleRate(rate int) bool {
	for _, r := range d.SupportedSampleRates {
		if r == rate {
			return true
		}
	}
	return false
}
