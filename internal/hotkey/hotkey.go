// Package hotkey provides the global push-to-talk trigger.
package hotkey

import (
	"fmt"
	"strings"
	"sync"

	"golang.design/x/hotkey"
)

// TriggerMode defines how the hotkey drives capture
type TriggerMode int

const (
	// PressToHold mode: capture while the key is held down
	PressToHold TriggerMode = iota
	// Toggle mode: first press starts, second press stops
	Toggle
)

// EventType represents the type of hotkey event
type EventType int

const (
	// Pressed indicates capture should start
	Pressed EventType = iota
	// Released indicates capture should stop
	Released
)

// Event represents a hotkey event
type Event struct {
	Type EventType
}

// Config holds hotkey configuration
type Config struct {
	Modifiers []hotkey.Modifier
	Key       hotkey.Key
	Mode      TriggerMode
}

// DefaultConfig returns the default binding: Ctrl+Shift+Space, press-to-hold
func DefaultConfig() Config {
	return Config{
		Modifiers: []hotkey.Modifier{hotkey.ModCtrl, hotkey.ModShift},
		Key:       hotkey.KeySpace,
		Mode:      PressToHold,
	}
}

// Manager manages global hotkey registration and events
type Manager struct {
	hk        *hotkey.Hotkey
	config    Config
	eventChan chan Event
	stopChan  chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	running   bool
}

// New creates a new hotkey manager with the default binding
func New() *Manager {
	return &Manager{
		config:    DefaultConfig(),
		eventChan: make(chan Event, 10),
		stopChan:  make(chan struct{}),
	}
}

// Register registers the hotkey with the system
func (m *Manager) Register(config Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("hotkey is already running, call Close() first")
	}

	m.config = config

	// Recreate channels (they may have been closed by a previous Close())
	m.stopChan = make(chan struct{})
	m.eventChan = make(chan Event, 10)

	hk := hotkey.New(m.config.Modifiers, m.config.Key)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("failed to register hotkey: %w", err)
	}

	m.hk = hk
	m.running = true

	m.wg.Add(1)
	go m.listen()

	return nil
}

// RegisterDefault registers the default binding
func (m *Manager) RegisterDefault() error {
	return m.Register(m.config)
}

// listen monitors hotkey events and translates them to trigger events
func (m *Manager) listen() {
	defer m.wg.Done()

	toggleState := false

	for {
		select {
		case <-m.hk.Keydown():
			switch m.config.Mode {
			case PressToHold:
				m.eventChan <- Event{Type: Pressed}
			case Toggle:
				if !toggleState {
					m.eventChan <- Event{Type: Pressed}
					toggleState = true
				} else {
					m.eventChan <- Event{Type: Released}
					toggleState = false
				}
			}

		case <-m.hk.Keyup():
			if m.config.Mode == PressToHold {
				m.eventChan <- Event{Type: Released}
			}

		case <-m.stopChan:
			return
		}
	}
}

// Events returns the event channel for receiving trigger events
func (m *Manager) Events() <-chan Event {
	return m.eventChan
}

// Close unregisters the hotkey and stops listening
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}

	var unregisterErr error

	close(m.stopChan)
	m.wg.Wait()

	// Continue past an unregister failure so cleanup always completes
	// and a later Register() is possible.
	if m.hk != nil {
		if err := m.hk.Unregister(); err != nil {
			unregisterErr = fmt.Errorf("failed to unregister hotkey: %w", err)
		}
	}

	if m.eventChan != nil {
		close(m.eventChan)
		m.eventChan = nil
	}

	m.running = false

	return unregisterErr
}

// IsRunning returns whether the hotkey is currently registered and running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// GetConfig returns a copy of the current hotkey configuration
func (m *Manager) GetConfig() Config {
	m.mu.Lock()
	defer m.mu.Unlock()

	configCopy := m.config
	if m.config.Modifiers != nil {
		configCopy.Modifiers = make([]hotkey.Modifier, len(m.config.Modifiers))
		copy(configCopy.Modifiers, m.config.Modifiers)
	}
	return configCopy
}

// ParseBinding converts a textual binding like "ctrl+shift+space" into a
// modifier list and key. The last token is the key; everything before it
// must be a modifier.
func ParseBinding(binding string) ([]hotkey.Modifier, hotkey.Key, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(binding)), "+")
	if len(parts) == 0 || parts[0] == "" {
		return nil, 0, fmt.Errorf("empty hotkey binding")
	}

	var mods []hotkey.Modifier
	for _, part := range parts[:len(parts)-1] {
		mod, ok := modifierNames[part]
		if !ok {
			return nil, 0, fmt.Errorf("unknown modifier: %q", part)
		}
		mods = append(mods, mod)
	}

	keyName := parts[len(parts)-1]
	key, ok := keyNames[keyName]
	if !ok {
		return nil, 0, fmt.Errorf("unknown key: %q", keyName)
	}
	if len(mods) == 0 {
		return nil, 0, fmt.Errorf("binding %q needs at least one modifier", binding)
	}
	return mods, key, nil
}

// ParseMode converts a textual mode name
func ParseMode(mode string) (TriggerMode, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "hold", "press_to_hold":
		return PressToHold, nil
	case "toggle":
		return Toggle, nil
	default:
		return PressToHold, fmt.Errorf("unknown trigger mode: %q", mode)
	}
}

var modifierNames = map[string]hotkey.Modifier{
	"ctrl":  hotkey.ModCtrl,
	"shift": hotkey.ModShift,
}

var keyNames = map[string]hotkey.Key{
	"space":  hotkey.KeySpace,
	"return": hotkey.KeyReturn,
	"escape": hotkey.KeyEscape,
	"tab":    hotkey.KeyTab,
	"a":      hotkey.KeyA,
	"b":      hotkey.KeyB,
	"c":      hotkey.KeyC,
	"d":      hotkey.KeyD,
	"e":      hotkey.KeyE,
	"f":      hotkey.KeyF,
	"g":      hotkey.KeyG,
	"h":      hotkey.KeyH,
	"i":      hotkey.KeyI,
	"j":      hotkey.KeyJ,
	"k":      hotkey.KeyK,
	"l":      hotkey.KeyL,
	"m":      hotkey.KeyM,
	"n":      hotkey.KeyN,
	"o":      hotkey.KeyO,
	"p":      hotkey.KeyP,
	"q":      hotkey.KeyQ,
	"r":      hotkey.KeyR,
	"s":      hotkey.KeyS,
	"t":      hotkey.KeyT,
	"u":      hotkey.KeyU,
	"v":      hotkey.KeyV,
	"w":      hotkey.KeyW,
	"x":      hotkey.KeyX,
	"y":      hotkey.KeyY,
	"z":      hotkey.KeyZ,
	"0":      hotkey.Key0,
	"1":      hotkey.Key1,
	"2":      hotkey.Key2,
	"3":      hotkey.Key3,
	"4":      hotkey.Key4,
	"5":      hotkey.Key5,
	"6":      hotkey.Key6,
	"7":      hotkey.Key7,
	"8":      hotkey.Key8,
	"9":      hotkey.Key9,
	"f1":     hotkey.KeyF1,
	"f2":     hotkey.KeyF2,
	"f3":     hotkey.KeyF3,
	"f4":     hotkey.KeyF4,
	"f5":     hotkey.KeyF5,
	"f6":     hotkey.KeyF6,
	"f7":     hotkey.KeyF7,
	"f8":     hotkey.KeyF8,
	"f9":     hotkey.KeyF9,
	"f10":    hotkey.KeyF10,
	"f11":    hotkey.KeyF11,
	"f12":    hotkey.KeyF12,
}
