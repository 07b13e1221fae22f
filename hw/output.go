package hw

import (
	"image"
	"image/png"
	"os"
	"sync"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/veandco/go-sdl2/sdl"

	"halcyon/emu/log"
	"halcyon/hw/input"
)

type OutputConfig struct {
	Title          string
	Width          int
	Height         int
	ScaleFactor    int
	NumBackBuffers int

	DisableVSync bool
	Monitor      int32
	Shader       string
}

// Frame is one video frame worth of output, handed to the console to fill
// between BeginFrame and EndFrame.
type Frame struct {
	Video []byte // RGBA, Width*Height*4
}

// Output drives the video window and the audio playback device. Both are
// optional: a fully disabled output discards frames, which is what the
// test harnesses use.
type Output struct {
	cfg OutputConfig

	framebufidx int
	framebuf    [][]byte

	win   *window
	audio *audioDevice

	mu        sync.Mutex
	lastFrame []byte
}

func NewOutput(cfg OutputConfig) *Output {
	if cfg.NumBackBuffers == 0 {
		cfg.NumBackBuffers = 2
	}
	vb := make([][]byte, cfg.NumBackBuffers)
	for i := range vb {
		vb[i] = make([]byte, cfg.Width*cfg.Height*4)
	}
	return &Output{
		framebuf: vb,
		cfg:      cfg,
	}
}

func (o *Output) EnableVideo(enable bool) error {
	if !enable {
		if o.win != nil {
			o.win.Close()
			o.win = nil
		}
		return nil
	}
	win, err := newWindow(windowConfig{
		title:        o.cfg.Title,
		texw:         o.cfg.Width,
		texh:         o.cfg.Height,
		scale:        o.cfg.ScaleFactor,
		monitor:      o.cfg.Monitor,
		shader:       o.cfg.Shader,
		disableVSync: o.cfg.DisableVSync,
	})
	if err != nil {
		return err
	}
	o.win = win

	// Poll dispatches controller hotplug events to the shared manager, so
	// it must exist before the first event pump.
	sdl.Do(func() {
		if input.Gamectrls == nil {
			input.Gamectrls = input.NewGameControllers()
		}
	})
	return nil
}

func (o *Output) EnableAudio(enable bool) error {
	if !enable {
		if o.audio != nil {
			o.audio.close()
			o.audio = nil
		}
		return nil
	}
	ad, err := openAudioDevice()
	if err != nil {
		return err
	}
	o.audio = ad
	return nil
}

// AudioSink returns the consumer for mixed sample frames, to be plugged
// into the sound mixer. Safe to call before EnableAudio.
func (o *Output) AudioSink() func([]int16) {
	return func(samples []int16) {
		if o.audio != nil {
			o.audio.queue(samples)
		}
	}
}

func (o *Output) BeginFrame() Frame {
	o.framebufidx++
	if o.framebufidx == o.cfg.NumBackBuffers {
		o.framebufidx = 0
	}
	return Frame{Video: o.framebuf[o.framebufidx]}
}

func (o *Output) EndFrame(frame Frame) {
	o.mu.Lock()
	o.lastFrame = frame.Video
	o.mu.Unlock()

	if o.win == nil {
		return
	}
	sdl.Do(func() {
		o.win.blit(frame.Video)
	})
}

// Poll pumps the SDL event loop. It reports false when the user asked to
// quit, either by closing the window or pressing Escape.
func (o *Output) Poll() bool {
	if o.win == nil {
		return true
	}
	running := true
	sdl.Do(func() {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case sdl.QuitEvent:
				running = false
			case sdl.KeyboardEvent:
				if e.Keysym.Sym == sdl.K_ESCAPE {
					running = false
				}
			case sdl.WindowEvent:
				if e.Event == sdl.WINDOWEVENT_RESIZED {
					gl.Viewport(0, 0, e.Data1, e.Data2)
				}
			case sdl.ControllerDeviceEvent:
				input.Gamectrls.UpdateDevices(e)
			}
		}
	})
	return running
}

// Screenshot returns a copy of the last presented frame, or nil when no
// frame was output yet.
func (o *Output) Screenshot() *image.RGBA {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.lastFrame == nil {
		return nil
	}
	img := image.NewRGBA(image.Rect(0, 0, o.cfg.Width, o.cfg.Height))
	copy(img.Pix, o.lastFrame)
	return img
}

// FocusWindow raises the window above the others and gives it input focus.
func (o *Output) FocusWindow() {
	if o.win == nil {
		return
	}
	sdl.Do(func() {
		o.win.Raise()
	})
}

func (o *Output) Close() {
	if o.audio != nil {
		o.audio.close()
		o.audio = nil
	}
	if o.win != nil {
		if err := o.win.Close(); err != nil {
			log.ModEmu.WarnZ("error closing window").Error("err", err).End()
		}
		o.win = nil
	}
}

func SaveAsPNG(img *image.RGBA, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
