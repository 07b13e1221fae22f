package apu

import (
	"github.com/arl/blip"

	"halcyon/emu/log"
	"halcyon/hw/hwio"
)

const MaxSampleRate = 96000
const maxSamplesPerFrame = MaxSampleRate / 59 * 2 // stereo pairs, one frame

// outputScale stretches the mixer's /128 fixed-point range over the int16
// host sample range.
const outputScale = 8

// Mixer implements the final stage: per-channel stereo gains, the echo
// delay line and master volumes, feeding band-limited delta buffers that
// resample the 32768 Hz stream to the host rate.
type Mixer struct {
	MVOLL   hwio.Reg8 `hwio:"offset=0x0,reset=0x80"`
	MVOLR   hwio.Reg8 `hwio:"offset=0x1,reset=0x80"`
	CH1VOLL hwio.Reg8 `hwio:"offset=0x2,reset=0x80"`
	CH1VOLR hwio.Reg8 `hwio:"offset=0x3,reset=0x80"`
	CH2VOLL hwio.Reg8 `hwio:"offset=0x4,reset=0x80"`
	CH2VOLR hwio.Reg8 `hwio:"offset=0x5,reset=0x80"`
	CH3VOLL hwio.Reg8 `hwio:"offset=0x6,reset=0x80"`
	CH3VOLR hwio.Reg8 `hwio:"offset=0x7,reset=0x80"`
	CH4VOLL hwio.Reg8 `hwio:"offset=0x8,reset=0x80"`
	CH4VOLR hwio.Reg8 `hwio:"offset=0x9,reset=0x80"`
	EFB     hwio.Reg8 `hwio:"offset=0xA"` // signed feedback, /128
	EWET    hwio.Reg8 `hwio:"offset=0xB"` // signed wet mix, /128

	// echo is the CPU-addressable 1024-byte delay region, 512 little
	// endian int16 slots. The write cursor trails the read cursor by one.
	echo []byte
	pos  int

	bufL, bufR   *blip.Buffer
	prevL, prevR int16
	outbuf       [maxSamplesPerFrame * 2]int16

	// Sink receives each frame's interleaved stereo samples.
	Sink func([]int16)

	sampleRate int
}

func NewMixer(echo []byte) *Mixer {
	m := &Mixer{
		echo: echo,
		bufL: blip.NewBuffer(maxSamplesPerFrame),
		bufR: blip.NewBuffer(maxSamplesPerFrame),
	}
	hwio.MustInitRegs(m)
	m.SetSampleRate(48000)
	return m
}

func (m *Mixer) SetSampleRate(rate int) {
	m.sampleRate = rate
	m.bufL.SetRates(ClockRate, float64(rate))
	m.bufR.SetRates(ClockRate, float64(rate))
}

func (m *Mixer) SampleRate() int { return m.sampleRate }

func (m *Mixer) Reset() {
	m.pos = 0
	m.prevL, m.prevR = 0, 0
	m.bufL.Clear()
	m.bufR.Clear()
}

func (m *Mixer) gains(ch Channel) (l, r int32) {
	switch ch {
	case Pulse1:
		return int32(m.CH1VOLL.Value), int32(m.CH1VOLR.Value)
	case Pulse2:
		return int32(m.CH2VOLL.Value), int32(m.CH2VOLR.Value)
	case Wave:
		return int32(m.CH3VOLL.Value), int32(m.CH3VOLR.Value)
	default:
		return int32(m.CH4VOLL.Value), int32(m.CH4VOLR.Value)
	}
}

// mix runs the DSP step for one sample tick. stamp is the master cycle
// offset within the current frame.
func (m *Mixer) mix(stamp uint64, chOut [4]int32, send [4]bool) {
	var dry int32
	for i, v := range chOut {
		if send[i] {
			dry += v
		}
	}

	echoOut := int32(int16(uint16(m.echo[2*m.pos]) | uint16(m.echo[2*m.pos+1])<<8))
	wr := (m.pos + 511) & 511
	fed := sat16(dry + echoOut*int32(int8(m.EFB.Value))/128)
	m.echo[2*wr] = uint8(fed)
	m.echo[2*wr+1] = uint8(uint16(fed) >> 8)
	m.pos = (m.pos + 1) & 511

	var left, right int32
	for i, v := range chOut {
		gl, gr := m.gains(Channel(i))
		left += v * gl / 128
		right += v * gr / 128
	}
	wet := echoOut * int32(int8(m.EWET.Value)) / 128
	left += wet
	right += wet

	l := sat16(left * int32(m.MVOLL.Value) / 128)
	r := sat16(right * int32(m.MVOLR.Value) / 128)

	outL := sat16(int32(l) * outputScale)
	outR := sat16(int32(r) * outputScale)
	if outL != m.prevL {
		m.bufL.AddDelta(stamp, int32(outL-m.prevL))
		m.prevL = outL
	}
	if outR != m.prevR {
		m.bufR.AddDelta(stamp, int32(outR-m.prevR))
		m.prevR = outR
	}
}

// endFrame resamples the frame's deltas to the host rate and hands the
// interleaved buffer to the sink.
func (m *Mixer) endFrame(frameCycles int) {
	m.bufL.EndFrame(frameCycles)
	m.bufR.EndFrame(frameCycles)

	out := m.outbuf[:]
	n := m.bufL.ReadSamples(out, maxSamplesPerFrame, blip.Stereo)
	m.bufR.ReadSamples(out[1:], maxSamplesPerFrame, blip.Stereo)

	if m.Sink == nil {
		return
	}
	if n == 0 {
		log.ModSound.DebugZ("empty audio frame").End()
		return
	}
	m.Sink(out[:n*2])
}
