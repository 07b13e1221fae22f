package hw

import (
	"fmt"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"halcyon/emu/log"
)

const (
	AudioSampleRate = 48000
	AudioFormat     = sdl.AUDIO_S16LSB
	AudioChannels   = 2
	AudioBufferSize = 2048 // TODO: adjust based on latency.
)

// audioDevice wraps the SDL playback device. Interleaved stereo int16
// samples are pushed with queue, typically once per emulated frame.
type audioDevice struct {
	id   sdl.AudioDeviceID
	spec sdl.AudioSpec
}

func openAudioDevice() (*audioDevice, error) {
	type result struct {
		ad  *audioDevice
		err error
	}
	errc := make(chan result, 1)
	sdl.Do(func() {
		ad, err := _openAudioDevice()
		errc <- result{ad, err}
	})
	res := <-errc
	return res.ad, res.err
}

func _openAudioDevice() (*audioDevice, error) {
	if err := sdl.InitSubSystem(sdl.INIT_AUDIO); err != nil {
		return nil, fmt.Errorf("failed to initialize SDL audio: %s", err)
	}

	want := sdl.AudioSpec{
		Freq:     AudioSampleRate,
		Format:   AudioFormat,
		Channels: AudioChannels,
		Samples:  AudioBufferSize,
	}
	ad := &audioDevice{}
	id, err := sdl.OpenAudioDevice("", false, &want, &ad.spec, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio device: %s", err)
	}
	ad.id = id

	sdl.PauseAudioDevice(id, false)
	log.ModSound.InfoZ("audio device opened").
		Int32("freq", ad.spec.Freq).
		Uint8("channels", ad.spec.Channels).
		End()
	return ad, nil
}

// queue pushes interleaved stereo samples to the playback queue.
func (ad *audioDevice) queue(samples []int16) {
	if len(samples) == 0 {
		return
	}
	buf := unsafe.Slice((*byte)(unsafe.Pointer(&samples[0])), len(samples)*2)
	if err := sdl.QueueAudio(ad.id, buf); err != nil {
		log.ModSound.DebugZ("failed to queue audio buffer").Error("err", err).End()
	}
}

// queued reports the number of bytes waiting in the playback queue.
func (ad *audioDevice) queued() uint32 {
	return sdl.GetQueuedAudioSize(ad.id)
}

func (ad *audioDevice) close() {
	sdl.Do(func() {
		sdl.CloseAudioDevice(ad.id)
	})
}
