package emu

import (
	"fmt"
	"image"
	"sync/atomic"
	"time"

	"halcyon/cart"
	"halcyon/emu/log"
	"halcyon/hw"
	"halcyon/hw/input"
)

type Output interface {
	BeginFrame() hw.Frame
	EndFrame(hw.Frame)
	Poll() bool
	Close()
	Screenshot() *image.RGBA
}

type Emulator struct {
	Console *Console
	out     Output

	// These are accessed concurrently by the emulator loop and the RPC
	// control server.
	quit    atomic.Bool
	paused  atomic.Bool
	reset   atomic.Bool
	restart atomic.Bool

	sav *batterySave
	wav *wavRecorder
}

// Launch starts the hardware subsystems, shows the window, sets up the
// video and audio streams and plugs controllers. It doesn't start the
// emulation loop, call Run() for that.
func Launch(rom *cart.Rom, romPath string, cfg Config) (*Emulator, error) {
	console, err := PowerUp(rom, nil)
	if err != nil {
		return nil, fmt.Errorf("power up failed: %s", err)
	}

	out := hw.NewOutput(hw.OutputConfig{
		Title:          "Halcyon - " + rom.Title(),
		Width:          hw.ScreenWidth,
		Height:         hw.ScreenHeight,
		ScaleFactor:    cfg.Video.ScaleFactor,
		NumBackBuffers: 2,
		DisableVSync:   cfg.Video.DisableVSync,
		Monitor:        cfg.Video.Monitor,
		Shader:         cfg.Video.Shader,
	})
	if err := out.EnableVideo(true); err != nil {
		return nil, err
	}

	sink := func([]int16) {}
	if cfg.Audio.DisableAudio {
		log.ModEmu.WarnZ("Audio disabled").End()
	} else {
		if err := out.EnableAudio(true); err != nil {
			return nil, err
		}
		sink = out.AudioSink()
		log.ModEmu.InfoZ("Audio enabled").End()
	}

	e := &Emulator{
		Console: console,
		out:     out,
	}

	if cfg.WavOut != "" {
		rec, err := newWavRecorder(cfg.WavOut, hw.AudioSampleRate)
		if err != nil {
			return nil, fmt.Errorf("wav recording: %s", err)
		}
		e.wav = rec
		inner := sink
		sink = func(samples []int16) {
			rec.write(samples)
			inner(samples)
		}
	}
	console.APU.Mixer.Sink = sink

	inprov := input.NewProvider(cfg.Input)
	console.Pad.SetDevice(inprov)

	if rom.HasBattery() {
		e.sav = newBatterySave(romPath, console.Bus.SRAM)
		e.sav.load()
	}

	if cfg.TraceOut != nil {
		console.CPU.SetTraceOutput(cfg.TraceOut)
	}

	return e, nil
}

func (e *Emulator) RunOneFrame() {
	frame := e.out.BeginFrame()
	e.Console.RunOneFrame(frame)
	e.out.EndFrame(frame)
}

func (e *Emulator) loop() {
	for e.out.Poll() {
		// Handle pause.
		if e.isPaused() {
			// Don't burn cpu while paused.
			time.Sleep(100 * time.Millisecond)
		} else {
			e.RunOneFrame()
		}
		if e.shouldStop() {
			break
		}
		e.handleReset()
	}

	e.out.Close()
}

// RaiseWindow raises the emulator window above others and sets the input
// focus.
func (e *Emulator) RaiseWindow() {
	if hwout, ok := e.out.(*hw.Output); ok {
		hwout.FocusWindow()
	}
}

func (e *Emulator) Run() {
	e.loop()
	log.ModEmu.InfoZ("Emulation loop exited").End()

	if e.sav != nil {
		e.sav.save()
	}
	if e.wav != nil {
		if err := e.wav.close(); err != nil {
			log.ModEmu.WarnZ("Failed to finalize wav recording").Error("err", err).End()
		}
	}
}

// SetPause, Stop, Reset and Restart allow to control the emulator loop in
// a concurrent-safe way.

func (e *Emulator) SetPause(pause bool) { e.paused.CompareAndSwap(!pause, pause) }
func (e *Emulator) Reset()              { e.reset.Store(true) }
func (e *Emulator) Restart()            { e.restart.Store(true) }
func (e *Emulator) Stop()               { e.quit.Store(true) }

func (e *Emulator) isPaused() bool {
	return e.paused.Load()
}

func (e *Emulator) shouldStop() bool {
	return e.quit.Load()
}

func (e *Emulator) handleReset() {
	if e.reset.CompareAndSwap(true, false) {
		log.ModEmu.InfoZ("Performing soft reset").End()
		e.Console.Reset(true)
	} else if e.restart.CompareAndSwap(true, false) {
		log.ModEmu.InfoZ("Performing hard reset").End()
		e.Console.Reset(false)
	}
}
