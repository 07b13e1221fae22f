package emu

import (
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavRecorder writes the mixed audio stream to a wav file, interleaved
// stereo 16-bit like the playback queue.
type wavRecorder struct {
	f   *os.File
	enc *wav.Encoder
	buf audio.IntBuffer
}

func newWavRecorder(path string, sampleRate int) (*wavRecorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &wavRecorder{
		f:   f,
		enc: wav.NewEncoder(f, sampleRate, 16, 2, 1),
		buf: audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: 2,
				SampleRate:  sampleRate,
			},
			SourceBitDepth: 16,
		},
	}, nil
}

func (r *wavRecorder) write(samples []int16) {
	if cap(r.buf.Data) < len(samples) {
		r.buf.Data = make([]int, len(samples))
	}
	r.buf.Data = r.buf.Data[:len(samples)]
	for i, s := range samples {
		r.buf.Data[i] = int(s)
	}
	if err := r.enc.Write(&r.buf); err != nil {
		// A failed write is not fatal to the emulation, drop the chunk.
		return
	}
}

func (r *wavRecorder) close() error {
	if err := r.enc.Close(); err != nil {
		r.f.Close()
		return err
	}
	return r.f.Close()
}
