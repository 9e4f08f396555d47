package hotkey

import (
	"testing"
	"time"

	"golang.design/x/hotkey"
)

func TestNew(t *testing.T) {
	m := New()
	if m == nil {
		t.Fatal("New() returned nil")
	}

	config := m.GetConfig()
	if len(config.Modifiers) != 2 {
		t.Errorf("Expected 2 modifiers, got %d", len(config.Modifiers))
	}

	if config.Key != hotkey.KeySpace {
		t.Errorf("Expected KeySpace, got %v", config.Key)
	}

	if config.Mode != PressToHold {
		t.Errorf("Expected PressToHold mode, got %v", config.Mode)
	}
}

func TestParseBinding(t *testing.T) {
	tests := []struct {
		name      string
		binding   string
		wantMods  int
		wantKey   hotkey.Key
		expectErr bool
	}{
		{
			name:     "ctrl+shift+space",
			binding:  "ctrl+shift+space",
			wantMods: 2,
			wantKey:  hotkey.KeySpace,
		},
		{
			name:     "single modifier",
			binding:  "ctrl+r",
			wantMods: 1,
			wantKey:  hotkey.KeyR,
		},
		{
			name:     "uppercase and spaces",
			binding:  " Ctrl+Shift+F5 ",
			wantMods: 2,
			wantKey:  hotkey.KeyF5,
		},
		{
			name:      "no modifier",
			binding:   "space",
			expectErr: true,
		},
		{
			name:      "unknown modifier",
			binding:   "hyper+space",
			expectErr: true,
		},
		{
			name:      "unknown key",
			binding:   "ctrl+banana",
			expectErr: true,
		},
		{
			name:      "empty",
			binding:   "",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mods, key, err := ParseBinding(tt.binding)
			if tt.expectErr {
				if err == nil {
					t.Fatalf("Expected error for %q, got none", tt.binding)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseBinding(%q) returned error: %v", tt.binding, err)
			}
			if len(mods) != tt.wantMods {
				t.Errorf("Expected %d modifiers, got %d", tt.wantMods, len(mods))
			}
			if key != tt.wantKey {
				t.Errorf("Expected key %v, got %v", tt.wantKey, key)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input     string
		want      TriggerMode
		expectErr bool
	}{
		{"hold", PressToHold, false},
		{"press_to_hold", PressToHold, false},
		{"toggle", Toggle, false},
		{"Toggle", Toggle, false},
		{"", PressToHold, false},
		{"sticky", PressToHold, true},
	}

	for _, tt := range tests {
		mode, err := ParseMode(tt.input)
		if tt.expectErr {
			if err == nil {
				t.Errorf("ParseMode(%q): expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMode(%q) returned error: %v", tt.input, err)
			continue
		}
		if mode != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.input, mode, tt.want)
		}
	}
}

func TestManagerLifecycle(t *testing.T) {
	m := New()

	if m.IsRunning() {
		t.Error("Manager should not be running initially")
	}

	// Close should be safe on non-running manager
	if err := m.Close(); err != nil {
		t.Errorf("Close() on non-running manager returned error: %v", err)
	}

	// Note: We cannot test actual registration here because it requires
	// proper permissions and may conflict with the test environment.
	// Integration tests should be run separately.
}

func TestEventChannel(t *testing.T) {
	m := New()

	eventChan := m.Events()
	if eventChan == nil {
		t.Fatal("Events() returned nil channel")
	}

	select {
	case <-eventChan:
		t.Error("Events channel should be empty initially")
	case <-time.After(10 * time.Millisecond):
		// Expected: timeout
	}
}

func TestGetConfigCopiesModifiers(t *testing.T) {
	m := New()

	config := m.GetConfig()
	if len(config.Modifiers) == 0 {
		t.Fatal("Expected default modifiers")
	}

	// Mutating the copy must not reach the manager.
	config.Modifiers[0] = hotkey.Modifier(0xFF)
	fresh := m.GetConfig()
	if fresh.Modifiers[0] == hotkey.Modifier(0xFF) {
		t.Error("GetConfig() leaked internal modifier slice")
	}
}
