package input

import (
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
)

// Capture waits for the next key or joystick button press and returns a
// Code identifying it, or the zero Code if the user pressed Escape.
func Capture(padbtn string) (Code, error) {
	var code Code

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_GAMECONTROLLER); err != nil {
		return code, fmt.Errorf("failed to initialize SDL: %s", err)
	}

	win, err := sdl.CreateWindow(
		"Press key or button for: "+padbtn,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		400,
		120,
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		return code, fmt.Errorf("failed to create window: %s", err)
	}
	defer win.Destroy()

	renderer, err := sdl.CreateRenderer(win, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		return code, fmt.Errorf("failed to create renderer: %s", err)
	}
	defer renderer.Destroy()

	gamectrls := NewGameControllers()
	defer gamectrls.Close()

	// Drain the events queue before starting. This removes previous events
	// which could have been generated during the release of a joystick
	// trigger for example.
	drainEvents(200 * time.Millisecond)

pollLoop:
	for {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case sdl.QuitEvent:
				break pollLoop

			case sdl.KeyboardEvent:
				if e.State == sdl.PRESSED {
					if e.Keysym.Scancode != sdl.SCANCODE_ESCAPE {
						code.Type = Keyboard
						code.Scancode = e.Keysym.Scancode
					}
					break pollLoop
				}

			case sdl.ControllerDeviceEvent:
				gamectrls.UpdateDevices(e)

			case sdl.ControllerButtonEvent:
				if e.Type == sdl.CONTROLLERBUTTONDOWN {
					code.Type = ControllerButton
					code.CtrlButton = e.Button
					code.CtrlGUID = gamectrls.GetGUID(e.Which)
					break pollLoop
				}

			case sdl.ControllerAxisEvent:
				if e.Value < -JoyAxisThreshold || e.Value > JoyAxisThreshold {
					code.Type = ControllerAxis
					code.CtrlAxis = e.Axis
					code.CtrlAxisDir = axissign(e.Value)
					code.CtrlGUID = gamectrls.GetGUID(e.Which)
					break pollLoop
				}
			}
		}

		renderer.SetDrawColor(0, 0, 0, 255)
		renderer.Clear()
		renderer.Present()
		sdl.Delay(16)
	}

	return code, nil
}

// Drain the events queue before starting. Some joystick axes are noisy, so
// wait just long enough to swallow 'actual' events, like those generated
// when releasing a joystick trigger.
func drainEvents(maxwait time.Duration) {
	deadline := time.Now().Add(maxwait)
	for {
		if event := sdl.PollEvent(); event == nil {
			break
		}
		if time.Now().After(deadline) {
			break
		}
	}
}
