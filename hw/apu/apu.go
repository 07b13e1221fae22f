package apu

import (
	"halcyon/hw/hwdefs"
	"halcyon/hw/hwio"
)

// APU is the sound unit: four synthesis channels, the echo DSP and the
// output mixer, stepped at 32768 Hz off the master clock.
//
// The APU is clocked lazily: it only advances when a register is about to
// change (catchUp, called from every write callback) or at end of frame.
// Between those points the channels' state is whatever it was at the last
// sync, which is fine because nothing can have observed it.
type APU struct {
	Pulse1 PulseChannel
	Pulse2 PulseChannel
	Wave   WaveChannel
	Noise  NoiseChannel
	Mixer  *Mixer

	WAVERAM hwio.Mem `hwio:"offset=0x40,size=0x20"`

	clock       func() int64
	cycles      int64
	frameStart  int64
	sampleTicks uint64
}

// New creates the APU. clock reports the current master cycle; echo is the
// CPU-addressable 1024-byte delay region shared with the bus.
func New(clock func() int64, echo []byte) *APU {
	a := &APU{
		clock: clock,
		Mixer: NewMixer(echo),
	}
	hwio.MustInitRegs(a)
	hwio.MustInitRegs(&a.Pulse1)
	hwio.MustInitRegs(&a.Pulse2)
	hwio.MustInitRegs(&a.Wave)
	hwio.MustInitRegs(&a.Noise)

	a.Pulse1.init(a, 0, true)
	a.Pulse2.init(a, 1, false)
	a.Wave.init(a, a.WAVERAM.Data)
	a.Noise.init(a)
	return a
}

// MapInto maps the channel blocks, the mixer and WAVERAM into the I/O page.
func (a *APU) MapInto(table *hwio.Table) {
	table.MapBank(0xF060, &a.Pulse1, 0)
	table.MapBank(0xF060, &a.Pulse1, 1) // SWEEP, channel 1 only
	table.MapBank(0xF068, &a.Pulse2, 0)
	table.MapBank(0xF070, &a.Wave, 0)
	table.MapBank(0xF078, &a.Noise, 0)
	table.MapBank(0xF080, a.Mixer, 0)
	table.MapBank(0xF060, a, 0) // WAVERAM at F0A0
}

func (a *APU) Reset() {
	a.catchUp()
	for _, pc := range []*PulseChannel{&a.Pulse1, &a.Pulse2} {
		pc.env.mute()
		pc.pos = 0
		pc.sweepTicks = 0
		pc.disabled = false
		pc.syncCTL()
	}
	a.Wave.env.mute()
	a.Wave.acc, a.Wave.idx = 0, 0
	syncAudible(&a.Wave.CTL, false)
	a.Noise.env.mute()
	a.Noise.pos, a.Noise.sr = 0, 0x7FFF
	syncAudible(&a.Noise.CTL, false)
	a.Mixer.Reset()
	a.frameStart = a.cycles
	a.sampleTicks = 0
}

// catchUp advances the channels to the present master cycle, one sample
// tick at a time. Register write callbacks call this before mutating
// state so the change lands at the right point in the stream.
func (a *APU) catchUp() {
	target := a.clock()
	for a.cycles+cyclesPerSample <= target {
		a.cycles += cyclesPerSample
		a.tickSample()
	}
}

func (a *APU) tickSample() {
	a.sampleTicks++
	if a.sampleTicks&(envelopePeriod-1) == 0 {
		a.Pulse1.env.tick()
		a.Pulse1.syncCTL()
		a.Pulse2.env.tick()
		a.Pulse2.syncCTL()
		a.Wave.env.tick()
		syncAudible(&a.Wave.CTL, a.Wave.env.active())
		a.Noise.env.tick()
		syncAudible(&a.Noise.CTL, a.Noise.env.active())
	}
	if a.sampleTicks&(sweepPeriod-1) == 0 {
		a.Pulse1.tickSweep()
	}

	chOut := [4]int32{
		int32(a.Pulse1.tickSample()) * int32(a.Pulse1.env.Volume()),
		int32(a.Pulse2.tickSample()) * int32(a.Pulse2.env.Volume()),
		int32(a.Wave.tickSample()) * int32(a.Wave.env.Volume()),
		int32(a.Noise.tickSample()) * int32(a.Noise.env.Volume()),
	}
	send := [4]bool{
		a.Pulse1.echoSend(),
		a.Pulse2.echoSend(),
		a.Wave.echoSend(),
		a.Noise.echoSend(),
	}
	a.Mixer.mix(uint64(a.cycles-a.frameStart), chOut, send)
}

// EndFrame flushes the audio generated since the previous call into the
// mixer sink. Called once per video frame.
func (a *APU) EndFrame() {
	a.catchUp()
	a.Mixer.endFrame(int(a.cycles - a.frameStart))
	a.frameStart = a.cycles
}

// ChannelPhases reports the envelope phase of each channel, for status
// introspection.
func (a *APU) ChannelPhases() [hwdefs.NumAudioChannels]string {
	return [hwdefs.NumAudioChannels]string{
		a.Pulse1.env.phase.String(),
		a.Pulse2.env.phase.String(),
		a.Wave.env.phase.String(),
		a.Noise.env.phase.String(),
	}
}
