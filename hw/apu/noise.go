package apu

import (
	"halcyon/hw/hwio"
)

// NoiseChannel clocks a 15-bit LFSR from the channel divisor. DUTY bit 0
// selects the feedback tap: long sequence (bit 1) or the short, metallic
// one (bit 6).
type NoiseChannel struct {
	FREQ hwio.Reg16 `hwio:"offset=0,wcb"`
	DUTY hwio.Reg8  `hwio:"offset=2,rwmask=0x01,wcb"`
	ADSR hwio.Reg16 `hwio:"offset=4,wcb"`
	CTL  hwio.Reg8  `hwio:"offset=6,rwmask=0x03,wcb"`

	env Envelope
	pos int
	sr  uint16

	apu *APU
}

func (nc *NoiseChannel) init(a *APU) {
	nc.apu = a
	nc.sr = 0x7FFF
}

func (nc *NoiseChannel) WriteFREQ(old, val uint16) {
	nc.apu.catchUp()
}

func (nc *NoiseChannel) WriteDUTY(old, val uint8) {
	nc.apu.catchUp()
}

func (nc *NoiseChannel) WriteADSR(old, val uint16) {
	nc.apu.catchUp()
	nc.env.load(val)
}

func (nc *NoiseChannel) WriteCTL(old, val uint8) {
	nc.apu.catchUp()
	keyEdge(&nc.env, old, val)
	if old&ctlKeyOn == 0 && val&ctlKeyOn != 0 {
		nc.pos = 0
		nc.sr = 0x7FFF
	}
	syncAudible(&nc.CTL, nc.env.active())
}

func (nc *NoiseChannel) echoSend() bool { return nc.CTL.Value&ctlEchoSend != 0 }

func (nc *NoiseChannel) tickSample() uint8 {
	divisor := 0x10000 - int(nc.FREQ.Value)
	nc.pos++
	if nc.pos >= divisor {
		nc.pos = 0

		tap := uint(1)
		if nc.DUTY.Value&0x01 != 0 {
			tap = 6
		}
		fb := (nc.sr ^ nc.sr>>tap) & 0x01
		nc.sr = nc.sr>>1 | fb<<14
	}
	if !nc.env.active() || nc.sr&0x01 != 0 {
		return 0
	}
	return 15
}
