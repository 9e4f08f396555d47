package device

import (
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/hikarij/voxcapture/internal/audio"
	"github.com/hikarij/voxcapture/internal/logger"
)

// standardRates are the sample rates probed during enumeration
var standardRates = []int{8000, 16000, 22050, 32000, 44100, 48000}

// PortAudioManager implements Manager on top of PortAudio
type PortAudioManager struct {
	log *logger.Logger
}

// NewPortAudioManager initializes PortAudio and returns a device manager.
// Close must be called to terminate the backend.
func NewPortAudioManager(log *logger.Logger) (*PortAudioManager, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, &Error{Op: "initialize", Err: err}
	}
	return &PortAudioManager{log: log}, nil
}

// EnumerateDevices returns snapshots for every device PortAudio reports
func (m *PortAudioManager) EnumerateDevices() ([]audio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, &Error{Op: "enumerate", Err: err}
	}

	defaultInput, err := portaudio.DefaultInputDevice()
	if err != nil {
		// No default input is not fatal; nothing gets the default flag
		defaultInput = nil
	}

	result := make([]audio.DeviceInfo, 0, len(devices))
	for i, dev := range devices {
		result = append(result, m.snapshot(i, dev, defaultInput))
	}

	return result, nil
}

// DefaultDevice resolves the system default input or output device
func (m *PortAudioManager) DefaultDevice(kind audio.DeviceType) (audio.DeviceInfo, error) {
	var dev *portaudio.DeviceInfo
	var err error

	if kind == audio.DeviceInput {
		dev, err = portaudio.DefaultInputDevice()
	} else {
		dev, err = portaudio.DefaultOutputDevice()
	}
	if err != nil {
		return audio.DeviceInfo{}, &Error{Op: "default device", Err: err}
	}

	index, err := m.indexOf(dev)
	if err != nil {
		return audio.DeviceInfo{}, err
	}

	info := m.snapshot(index, dev, dev)
	return info, nil
}

// DeviceInfo returns the snapshot for one device index
func (m *PortAudioManager) DeviceInfo(index int) (audio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return audio.DeviceInfo{}, &Error{Op: "enumerate", Err: err}
	}

	if index < 0 || index >= len(devices) {
		return audio.DeviceInfo{}, &Error{Op: "lookup", Err: fmt.Errorf("invalid device index: %d", index)}
	}

	defaultInput, err := portaudio.DefaultInputDevice()
	if err != nil {
		defaultInput = nil
	}

	return m.snapshot(index, devices[index], defaultInput), nil
}

// TestDevice opens a short-lived input stream on the device to validate it
// can actually capture. The stream is closed on every exit path.
func (m *PortAudioManager) TestDevice(dev audio.DeviceInfo, config audio.RecorderConfiguration, duration time.Duration) TestResult {
	devices, err := portaudio.Devices()
	if err != nil || dev.Index < 0 || dev.Index >= len(devices) {
		return TestResult{Err: &Error{Op: "test", Err: fmt.Errorf("device %d not available", dev.Index)}}
	}
	target := devices[dev.Index]

	if target.MaxInputChannels < config.Channels {
		return TestResult{Err: &Error{Op: "test", Err: fmt.Errorf(
			"device %q has %d input channels, need %d", target.Name, target.MaxInputChannels, config.Channels)}}
	}

	params := portaudio.HighLatencyParameters(target, nil)
	params.Input.Channels = config.Channels
	params.SampleRate = float64(config.SampleRate)
	params.FramesPerBuffer = config.ChunkSize

	buf := make([]int16, config.ChunkSize*config.Channels)
	stream, err := portaudio.OpenStream(params, &buf)
	if err != nil {
		return TestResult{Err: &Error{Op: "test open", Err: err}}
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return TestResult{Err: &Error{Op: "test start", Err: err}}
	}
	defer stream.Stop()

	deadline := time.Now().Add(duration)
	reads := 0
	for time.Now().Before(deadline) {
		if err := stream.Read(); err != nil && err != portaudio.InputOverflowed {
			return TestResult{
				DeviceWorking:   false,
				InputTestPassed: false,
				Err:             &Error{Op: "test read", Err: err},
			}
		}
		reads++
	}

	latency := time.Duration(stream.Info().InputLatency)

	if m.log != nil {
		m.log.Debug("device test passed: %q (%d reads, latency %v)", target.Name, reads, latency)
	}

	return TestResult{
		DeviceWorking:   true,
		InputTestPassed: true,
		Latency:         latency,
	}
}

// HasInputDevice reports whether any capture device is present. Device
// errors count as "no device": the caller must degrade, not crash.
func (m *PortAudioManager) HasInputDevice() bool {
	devices, err := portaudio.Devices()
	if err != nil {
		return false
	}
	for _, dev := range devices {
		if dev.MaxInputChannels > 0 {
			return true
		}
	}
	return false
}

// Close terminates the PortAudio backend
func (m *PortAudioManager) Close() error {
	if err := portaudio.Terminate(); err != nil {
		return &Error{Op: "terminate", Err: err}
	}
	return nil
}

// snapshot builds a DeviceInfo from a PortAudio device record
func (m *PortAudioManager) snapshot(index int, dev, defaultInput *portaudio.DeviceInfo) audio.DeviceInfo {
	kind := audio.DeviceOutput
	if dev.MaxInputChannels > 0 {
		kind = audio.DeviceInput
	}

	return audio.DeviceInfo{
		Index:                index,
		Name:                 dev.Name,
		Type:                 kind,
		MaxInputChannels:     dev.MaxInputChannels,
		MaxOutputChannels:    dev.MaxOutputChannels,
		DefaultSampleRate:    dev.DefaultSampleRate,
		SupportedSampleRates: m.probeRates(dev),
		IsDefault:            defaultInput != nil && dev.Name == defaultInput.Name,
	}
}

// probeRates checks which standard sample rates the device accepts
func (m *PortAudioManager) probeRates(dev *portaudio.DeviceInfo) []int {
	if dev.MaxInputChannels <= 0 {
		return nil
	}

	var rates []int
	for _, rate := range standardRates {
		params := portaudio.HighLatencyParameters(dev, nil)
		params.Input.Channels = 1
		params.SampleRate = float64(rate)

		var probe []int16
		if err := portaudio.IsFormatSupported(params, &probe); err == nil {
			rates = append(rates, rate)
		}
	}
	return rates
}

// indexOf finds the enumeration index of a device record
func (m *PortAudioManager) indexOf(target *portaudio.DeviceInfo) (int, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return 0, &Error{Op: "enumerate", Err: err}
	}
	for i, dev := range devices {
		if dev.Name == target.Name {
			return i, nil
		}
	}
	return 0, &Error{Op: "lookup", Err: fmt.Errorf("device %q not found", target.Name)}
}
