package input

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/veandco/go-sdl2/sdl"
)

func TestInputCodeMarshalRoundTrip(t *testing.T) {
	tests := []struct {
		text string
		code *Code // nil for unmarshal errors
	}{
		{"", &Code{Type: UnsetController}},
		{"key W", &Code{Type: Keyboard, Scancode: sdl.SCANCODE_W}},
		{"key Up", &Code{Type: Keyboard, Scancode: sdl.SCANCODE_UP}},
		{"key Return", &Code{Type: Keyboard, Scancode: sdl.SCANCODE_RETURN}},
		{"joybtn a 030000004c050000cc0900", &Code{Type: ControllerButton, CtrlButton: sdl.CONTROLLER_BUTTON_A, CtrlGUID: "030000004c050000cc0900"}},
		{"joybtn x 030000004c050000cc0900", &Code{Type: ControllerButton, CtrlButton: sdl.CONTROLLER_BUTTON_X, CtrlGUID: "030000004c050000cc0900"}},
		{"joyaxis righttrigger+ 030000004c050000cc1212", &Code{Type: ControllerAxis, CtrlAxis: sdl.CONTROLLER_AXIS_TRIGGERRIGHT, CtrlAxisDir: 1, CtrlGUID: "030000004c050000cc1212"}},
		{"joyaxis lefttrigger- 123400004c050000cc1212", &Code{Type: ControllerAxis, CtrlAxis: sdl.CONTROLLER_AXIS_TRIGGERLEFT, CtrlAxisDir: -1, CtrlGUID: "123400004c050000cc1212"}},

		// unmarshal errors
		{"key   ", nil},
		{"joybtn foobar+ someguid", nil},
		{"foocode Return", nil},
		{"joybtn a", nil},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			var code Code
			if err := code.UnmarshalText([]byte(tt.text)); err != nil {
				if tt.code != nil {
					t.Fatalf("UnmarshalText(%q) error: %v", tt.text, err)
				} else {
					t.Log("UnmarshalText error:", err)
					return
				}
			}

			if diff := cmp.Diff(*tt.code, code); diff != "" {
				t.Fatalf("UnmarshalText(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}

			text, err := code.MarshalText()
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.text, string(text)); diff != "" {
				t.Fatalf("MarshalText mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConfigInitPresetBounds(t *testing.T) {
	var cfg Config
	cfg.Pad.Preset = numPresets + 3
	cfg.Init()
	if cfg.Pad.Preset != 0 {
		t.Fatalf("out-of-range preset index = %d, want 0", cfg.Pad.Preset)
	}
	if cfg.Pad.preset == nil {
		t.Fatal("preset pointer not set")
	}
	// An empty preset is replaced by the default keyboard binding.
	if cfg.Presets[0].Buttons[BtnStart].Scancode != sdl.SCANCODE_RETURN {
		t.Error("default preset not installed")
	}
}

func TestLoadStateWithoutControllerManager(t *testing.T) {
	// Controller-bound presets must not crash when no controller manager
	// exists (headless run, or before the frontend plugged one in).
	saved := Gamectrls
	Gamectrls = nil
	defer func() { Gamectrls = saved }()

	var cfg Config
	cfg.Pad.Preset = 0
	cfg.Presets[0] = Preset{Buttons: [ButtonCount]Code{
		BtnA: {Type: ControllerButton, CtrlButton: sdl.CONTROLLER_BUTTON_A, CtrlGUID: "030000004c050000cc0900"},
		BtnB: {Type: ControllerAxis, CtrlAxis: sdl.CONTROLLER_AXIS_TRIGGERLEFT, CtrlAxisDir: 1, CtrlGUID: "030000004c050000cc0900"},
	}}
	cfg.Init()

	p := &Provider{cfg: cfg}
	if got := p.LoadState(); got != 0 {
		t.Fatalf("LoadState() = %08b, want 0 with no controllers attached", got)
	}
}

func TestButtonString(t *testing.T) {
	want := []string{"A", "B", "Select", "Start", "Up", "Down", "Left", "Right"}
	for b := BtnA; b < ButtonCount; b++ {
		if b.String() != want[b] {
			t.Errorf("Button(%d).String() = %q, want %q", b, b.String(), want[b])
		}
	}
}
