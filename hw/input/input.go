package input

import "github.com/veandco/go-sdl2/sdl"

// A Button identifies one of the 8 pad buttons. The value is the bit
// position in the PAD register.
type Button byte

const (
	BtnA Button = iota
	BtnB
	BtnSelect
	BtnStart
	BtnUp
	BtnDown
	BtnLeft
	BtnRight

	ButtonCount
)

func (b Button) String() string {
	var buttonNames = [ButtonCount]string{
		"A", "B",
		"Select", "Start",
		"Up", "Down", "Left", "Right",
	}
	return buttonNames[b]
}

// Preset holds the binding of each pad button to a host input.
type Preset struct {
	Buttons [ButtonCount]Code `toml:"buttons"`
}

const numPresets = 8

type Config struct {
	Pad     PadConfig          `toml:"pad"`
	Presets [numPresets]Preset `toml:"presets"`
}

func (cfg *Config) Init() {
	if cfg.Pad.Preset >= numPresets {
		cfg.Pad.Preset = 0
	}
	empty := Preset{}
	if cfg.Presets[cfg.Pad.Preset] == empty {
		cfg.Presets[cfg.Pad.Preset] = DefaultPreset()
	}
	cfg.Pad.preset = &cfg.Presets[cfg.Pad.Preset]
}

type PadConfig struct {
	Preset uint `toml:"preset"`

	preset *Preset
}

// DefaultPreset is the out-of-the-box keyboard binding.
func DefaultPreset() Preset {
	key := func(sc sdl.Scancode) Code {
		return Code{Type: Keyboard, Scancode: sc}
	}
	return Preset{Buttons: [ButtonCount]Code{
		BtnA:      key(sdl.SCANCODE_X),
		BtnB:      key(sdl.SCANCODE_Z),
		BtnSelect: key(sdl.SCANCODE_RSHIFT),
		BtnStart:  key(sdl.SCANCODE_RETURN),
		BtnUp:     key(sdl.SCANCODE_UP),
		BtnDown:   key(sdl.SCANCODE_DOWN),
		BtnLeft:   key(sdl.SCANCODE_LEFT),
		BtnRight:  key(sdl.SCANCODE_RIGHT),
	}}
}

// Provider polls the host keyboard and game controllers and packs the pad
// state into the PAD register format.
type Provider struct {
	keystate []uint8
	cfg      Config
}

func NewProvider(cfg Config) *Provider {
	var keystate []uint8
	sdl.Do(func() { keystate = sdl.GetKeyboardState() })
	return &Provider{keystate: keystate, cfg: cfg}
}

// LoadState returns the current button mask, one bit per Button.
func (p *Provider) LoadState() uint8 {
	preset := p.cfg.Pad.preset
	if preset == nil {
		return 0
	}

	state := uint8(0)
	for i, code := range preset.Buttons {
		pressed := uint8(0)
		switch code.Type {
		case Keyboard:
			pressed = p.keystate[code.Scancode]
		case ControllerButton:
			ctrl := Gamectrls.getByGUID(code.CtrlGUID)
			if ctrl != nil {
				pressed = ctrl.Button(code.CtrlButton)
			}
		case ControllerAxis:
			ctrl := Gamectrls.getByGUID(code.CtrlGUID)
			if ctrl != nil {
				if ctrl.Axis(code.CtrlAxis) >= JoyAxisThreshold {
					pressed = 1
				}
			}
		}
		state |= pressed << i
	}
	return state
}
