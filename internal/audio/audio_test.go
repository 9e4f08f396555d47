package audio

import (
	"testing"
	"time"
)

func TestDefaultRecorderConfiguration(t *testing.T) {
	config := DefaultRecorderConfiguration()

	if config.SampleRate != 16000 {
		t.Errorf("Expected sample rate 16000, got %d", config.SampleRate)
	}

	if config.Channels != 1 {
		t.Errorf("Expected 1 channel, got %d", config.Channels)
	}

	if config.BitDepth != 16 {
		t.Errorf("Expected bit depth 16, got %d", config.BitDepth)
	}

	if config.DeviceID != -1 {
		t.Errorf("Expected default device ID -1, got %d", config.DeviceID)
	}

	if config.MaxDuration != 300*time.Second {
		t.Errorf("Expected max duration 300s, got %v", config.MaxDuration)
	}
}

func TestRecorderConfiguration_BytesPerSecond(t *testing.T) {
	config := RecorderConfiguration{
		SampleRate: 16000,
		Channels:   1,
		BitDepth:   16,
		Format:     FormatPCM16,
	}

	if got := config.BytesPerSecond(); got != 32000 {
		t.Errorf("Expected 32000 bytes per second, got %d", got)
	}
}

func TestRecorderConfiguration_MaxFileSizeBytes(t *testing.T) {
	config := RecorderConfiguration{
		SampleRate:  16000,
		Channels:    1,
		BitDepth:    16,
		Format:      FormatPCM16,
		MaxDuration: 300 * time.Second,
	}

	if got := config.MaxFileSizeBytes(); got != 9600000 {
		t.Errorf("Expected max file size 9600000, got %d", got)
	}
}

func TestRecorderConfiguration_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		config RecorderConfiguration
		want   bool
	}{
		{
			name:   "complete configuration",
			config: DefaultRecorderConfiguration(),
			want:   true,
		},
		{
			name: "missing sample rate",
			config: RecorderConfiguration{
				Channels: 1,
				BitDepth: 16,
				Format:   FormatPCM16,
			},
			want: false,
		},
		{
			name: "missing channels",
			config: RecorderConfiguration{
				SampleRate: 16000,
				BitDepth:   16,
				Format:     FormatPCM16,
			},
			want: false,
		},
		{
			name: "missing bit depth",
			config: RecorderConfiguration{
				SampleRate: 16000,
				Channels:   1,
				Format:     FormatPCM16,
			},
			want: false,
		},
		{
			name: "missing format",
			config: RecorderConfiguration{
				SampleRate: 16000,
				Channels:   1,
				BitDepth:   16,
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.config.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecorderConfiguration_Validate(t *testing.T) {
	config := DefaultRecorderConfiguration()
	if err := config.Validate(); err != nil {
		t.Errorf("Expected valid default configuration, got %v", err)
	}

	config.SampleRate = 0
	if err := config.Validate(); err == nil {
		t.Error("Expected error for zero sample rate")
	}
}

func TestRecorderConfiguration_ChunkDuration(t *testing.T) {
	config := RecorderConfiguration{
		SampleRate: 16000,
		ChunkSize:  1024,
	}

	want := time.Duration(float64(1024) / 16000.0 * float64(time.Second))
	if got := config.ChunkDuration(); got != want {
		t.Errorf("Expected chunk duration %v, got %v", want, got)
	}
}

func TestDeviceInfo_SupportsSampleRate(t *testing.T) {
	dev := DeviceInfo{
		SupportedSampleRates: []int{16000, 44100, 48000},
	}

	if !dev.SupportsSampleRate(16000) {
		t.Error("Expected 16000 to be supported")
	}

	if dev.SupportsSampleRate(22050) {
		t.Error("Expected 22050 to be unsupported")
	}
}

func TestSampleFormat_String(t *testing.T) {
	tests := []struct {
		format   SampleFormat
		expected string
	}{
		{FormatPCM16, "pcm16"},
		{FormatPCM24, "pcm24"},
		{FormatFloat32, "float32"},
		{FormatUnknown, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.format.String(); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}
