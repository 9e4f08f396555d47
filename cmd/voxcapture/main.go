package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hikarij/voxcapture/internal/audio"
	"github.com/hikarij/voxcapture/internal/config"
	"github.com/hikarij/voxcapture/internal/device"
	"github.com/hikarij/voxcapture/internal/hotkey"
	"github.com/hikarij/voxcapture/internal/logger"
	"github.com/hikarij/voxcapture/internal/recording"
	"github.com/hikarij/voxcapture/internal/session"
	"github.com/hikarij/voxcapture/internal/stream"
	"github.com/hikarij/voxcapture/internal/vad"
)

const version = "0.1.0"

// deviceScanInterval is how often the watcher re-checks input devices
const deviceScanInterval = 5 * time.Second

// App holds all application state
type App struct {
	logger    *logger.Logger
	config    *config.Config
	devices   *device.PortAudioManager
	streams   *stream.PortAudioManager
	recorder  *recording.Manager
	hotkeyMgr *hotkey.Manager
	outputDir string
}

func init() {
	// The hotkey event loop must stay on the main thread on some platforms
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", config.GetConfigPath(), "path to config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	listDevices := flag.Bool("devices", false, "list capture devices and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("voxcapture %s\n", version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logDir, err := config.ExpandPath(cfg.Logging.Dir)
	if err != nil {
		log.Fatalf("failed to resolve log directory: %v", err)
	}
	lg, err := logger.New(logger.Config{
		LogDir:        logDir,
		Level:         logger.ParseLevel(cfg.Logging.Level),
		RetentionDays: cfg.Logging.RetentionDays,
	})
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer lg.Close()

	lg.Info("voxcapture v%s starting", version)

	app := &App{logger: lg, config: cfg}

	if *listDevices {
		if err := app.printDevices(); err != nil {
			lg.Error("device listing failed: %v", err)
			os.Exit(1)
		}
		return
	}

	if err := app.run(); err != nil {
		lg.Error("fatal: %v", err)
		os.Exit(1)
	}
	lg.Info("voxcapture stopped")
}

func (a *App) printDevices() error {
	devices, err := device.NewPortAudioManager(a.logger)
	if err != nil {
		return err
	}
	defer devices.Close()

	infos, err := devices.EnumerateDevices()
	if err != nil {
		return err
	}
	for _, info := range infos {
		marker := " "
		if info.IsDefault {
			marker = "*"
		}
		fmt.Printf("%s [%d] %s (in:%d out:%d, %.0f Hz)\n",
			marker, info.Index, info.Name, info.MaxInputChannels, info.MaxOutputChannels, info.DefaultSampleRate)
	}
	return nil
}

func (a *App) run() error {
	outputDir, err := config.ExpandPath(a.config.Recording.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to resolve output directory: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	a.outputDir = outputDir

	a.devices, err = device.NewPortAudioManager(a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize audio subsystem: %w", err)
	}
	defer a.devices.Close()

	if !a.devices.HasInputDevice() {
		a.logger.Warn("no input device detected at startup")
	}

	a.streams = stream.NewPortAudioManager(a.logger)
	defer func() {
		for _, err := range a.streams.CloseAll() {
			a.logger.Warn("stream cleanup: %v", err)
		}
	}()

	a.recorder, err = recording.New(a.devices, a.streams, a.recordingConfig(), nil, a.dispatchEvents, a.logger)
	if err != nil {
		return err
	}
	defer a.recorder.Close()

	mods, key, err := hotkey.ParseBinding(a.config.Hotkey.Binding)
	if err != nil {
		return fmt.Errorf("invalid hotkey binding: %w", err)
	}
	mode, err := hotkey.ParseMode(a.config.Hotkey.Mode)
	if err != nil {
		return fmt.Errorf("invalid hotkey mode: %w", err)
	}

	a.hotkeyMgr = hotkey.New()
	if err := a.hotkeyMgr.Register(hotkey.Config{Modifiers: mods, Key: key, Mode: mode}); err != nil {
		return fmt.Errorf("failed to register hotkey: %w", err)
	}
	defer a.hotkeyMgr.Close()

	a.logger.Info("push-to-talk ready: %s (%s mode), output %s",
		a.config.Hotkey.Binding, a.config.Hotkey.Mode, a.outputDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.eventLoop(ctx)
	})
	g.Go(func() error {
		return a.watchDevices(ctx)
	})
	return g.Wait()
}

func (a *App) recordingConfig() recording.Config {
	cfg := recording.DefaultConfig()
	cfg.Format = audio.RecorderConfiguration{
		SampleRate:  a.config.Audio.SampleRate,
		Channels:    a.config.Audio.Channels,
		BitDepth:    a.config.Audio.BitDepth,
		Format:      audio.FormatPCM16,
		DeviceID:    a.config.Audio.DeviceID,
		ChunkSize:   a.config.Audio.ChunkSize,
		BufferSize:  a.config.Audio.BufferSize,
		MaxDuration: time.Duration(a.config.Recording.MaxSeconds * float64(time.Second)),
	}
	cfg.MinimumDuration = time.Duration(a.config.Recording.MinSeconds * float64(time.Second))
	cfg.MaximumDuration = time.Duration(a.config.Recording.MaxSeconds * float64(time.Second))
	cfg.VADEnabled = a.config.VAD.Enabled
	cfg.VAD = vad.Configuration{
		FrameSize:       a.config.VAD.FrameSize,
		HopSize:         a.config.VAD.HopSize,
		SmoothingWindow: a.config.VAD.SmoothingWindow,
	}
	cfg.MinSegmentDuration = time.Duration(a.config.VAD.MinSegmentSeconds * float64(time.Second))
	return cfg
}

// watchDevices polls input device presence and logs transitions, so a
// microphone unplugged between captures shows up in the log before the
// next attempt fails.
func (a *App) watchDevices(ctx context.Context) error {
	ticker := time.NewTicker(deviceScanInterval)
	defer ticker.Stop()

	present := a.devices.HasInputDevice()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			now := a.devices.HasInputDevice()
			if now == present {
				continue
			}
			present = now
			if now {
				a.logger.Info("input device available")
			} else {
				a.logger.Warn("input device lost")
			}
		}
	}
}

// eventLoop translates hotkey events into capture start/stop
func (a *App) eventLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-a.hotkeyMgr.Events():
			if !ok {
				return nil
			}
			switch event.Type {
			case hotkey.Pressed:
				if err := a.recorder.Start(); err != nil {
					a.logger.Error("failed to start recording: %v", err)
				}
			case hotkey.Released:
				result, err := a.recorder.Stop()
				if err != nil {
					a.logger.Error("failed to stop recording: %v", err)
					continue
				}
				a.handleResult(result)
			}
		}
	}
}

func (a *App) handleResult(result recording.Result) {
	if result.TooShort {
		a.logger.Info("capture discarded: %.2fs is under the %.2fs minimum",
			result.Measured.Seconds(), result.Minimum.Seconds())
		return
	}
	if result.Data.Size() == 0 {
		return
	}

	name := fmt.Sprintf("capture-%s.wav", time.Now().Format("20060102-150405"))
	path := filepath.Join(a.outputDir, name)

	encoded, err := audio.EncodeWAV(result.Data)
	if err != nil {
		a.logger.Error("failed to encode capture: %v", err)
		return
	}
	if err := os.WriteFile(path, encoded, 0644); err != nil {
		a.logger.Error("failed to write %s: %v", path, err)
		return
	}
	a.logger.Info("saved %s (%.2fs, %d bytes)", path, result.Duration.Seconds(), result.Data.Size())

	if result.Calibration != nil {
		a.logger.Info("speech threshold %.4f (noise %.4f, speech %.4f, confidence %.1f)",
			result.Calibration.OptimalThreshold, result.Calibration.NoiseLevel,
			result.Calibration.SpeechLevel, result.Calibration.Confidence)
	}
	for _, segment := range speechSegments(result.Detections) {
		a.logger.Info("speech segment: %s for %s", segment.start.Format("15:04:05.000"), segment.duration)
	}
	if result.DroppedChunks > 0 {
		a.logger.Warn("%d chunks dropped during capture", result.DroppedChunks)
	}
}

// dispatchEvents logs session events as they are drained
func (a *App) dispatchEvents(events []session.Event) {
	for _, e := range events {
		switch ev := e.(type) {
		case session.SessionFailed:
			a.logger.Warn("session %s failed: %s (%s)", ev.ID, ev.Message, ev.ErrorCode)
		default:
			a.logger.Debug("session event: %s (%s)", e.EventName(), e.SessionID())
		}
	}
}

type segment struct {
	start    time.Time
	duration time.Duration
}

// speechSegments merges consecutive speech detections into segments
func speechSegments(detections []vad.Detection) []segment {
	var out []segment
	var current *segment
	for _, d := range detections {
		if d.Activity != vad.Speech {
			current = nil
			continue
		}
		frame := d.Duration
		if frame <= 0 {
			frame = vad.DefaultFrameDuration
		}
		if current == nil {
			out = append(out, segment{start: d.Timestamp, duration: frame})
			current = &out[len(out)-1]
			continue
		}
		current.duration += frame
	}
	return out
}
