package apu

import (
	"halcyon/emu/log"
	"halcyon/hw/hwio"
)

// dutyLen is the high fraction of the waveform period, in eighths, indexed
// by DUTY bits 0-1: 12.5%, 25%, 50%, 75%.
var dutyLen = [4]int{1, 2, 4, 6}

// PulseChannel is a square wave generator. The tone period is
// 64*(65536-FREQ) master cycles, one waveform per divisor sample ticks.
// Channel 1 additionally carries the frequency sweep unit.
type PulseChannel struct {
	FREQ hwio.Reg16 `hwio:"offset=0,wcb"`
	DUTY hwio.Reg8  `hwio:"offset=2,rwmask=0x03,wcb"`
	ADSR hwio.Reg16 `hwio:"offset=4,wcb"`
	CTL  hwio.Reg8  `hwio:"offset=6,rwmask=0x03,wcb"`

	// The sweep register exists on channel 1 only, hence the separate
	// bank number.
	SWEEP hwio.Reg8 `hwio:"offset=7,bank=1,rwmask=0x7F,wcb"`

	env Envelope
	pos int // sample ticks into the current waveform period

	hasSweep   bool
	sweepTicks uint8
	disabled   bool // latched by a sweep range exit, until the next key-on

	apu *APU
	ch  int
}

func (pc *PulseChannel) init(a *APU, ch int, hasSweep bool) {
	pc.apu = a
	pc.ch = ch
	pc.hasSweep = hasSweep
}

func (pc *PulseChannel) WriteFREQ(old, val uint16) {
	pc.apu.catchUp()
}

func (pc *PulseChannel) WriteDUTY(old, val uint8) {
	pc.apu.catchUp()
}

func (pc *PulseChannel) WriteADSR(old, val uint16) {
	pc.apu.catchUp()
	pc.env.load(val)
}

func (pc *PulseChannel) WriteCTL(old, val uint8) {
	pc.apu.catchUp()
	keyEdge(&pc.env, old, val)
	if old&ctlKeyOn == 0 && val&ctlKeyOn != 0 {
		pc.pos = 0
		pc.sweepTicks = 0
		pc.disabled = false
	}
	pc.syncCTL()
}

func (pc *PulseChannel) WriteSWEEP(old, val uint8) {
	pc.apu.catchUp()
	pc.sweepTicks = 0
}

// syncCTL refreshes the read-only audible bit.
func (pc *PulseChannel) syncCTL() {
	syncAudible(&pc.CTL, pc.env.active() && !pc.disabled)
}

func (pc *PulseChannel) echoSend() bool { return pc.CTL.Value&ctlEchoSend != 0 }

// tickSweep applies one 128 Hz sweep step: every period+1 ticks the
// frequency moves by FREQ>>shift; leaving the 16-bit range disables the
// channel.
func (pc *PulseChannel) tickSweep() {
	if !pc.hasSweep || pc.disabled {
		return
	}
	shift := pc.SWEEP.Value & 0x07
	period := pc.SWEEP.Value >> 4 & 0x07
	if shift == 0 && period == 0 {
		return
	}
	pc.sweepTicks++
	if pc.sweepTicks < period+1 {
		return
	}
	pc.sweepTicks = 0

	freq := int(pc.FREQ.Value)
	delta := freq >> shift
	if pc.SWEEP.Value&0x08 != 0 {
		freq -= delta
	} else {
		freq += delta
	}
	if freq < 0 || freq > 0xFFFF {
		pc.disabled = true
		pc.env.mute()
		pc.syncCTL()
		log.ModSound.DebugZ("sweep range exit").Int("ch", pc.ch).End()
		return
	}
	pc.FREQ.Value = uint16(freq)
}

// tickSample produces the raw 4-bit output for one 32768 Hz tick.
func (pc *PulseChannel) tickSample() uint8 {
	divisor := 0x10000 - int(pc.FREQ.Value)
	pc.pos++
	if pc.pos >= divisor {
		pc.pos = 0
	}
	if pc.disabled || !pc.env.active() {
		return 0
	}
	if pc.pos*8 < dutyLen[pc.DUTY.Value&0x03]*divisor {
		return 15
	}
	return 0
}
