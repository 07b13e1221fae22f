package apu

import (
	"halcyon/hw/hwio"
)

// WaveChannel plays the 64 4-bit samples of WAVERAM, looping once per
// divisor sample ticks like the pulse tone period.
type WaveChannel struct {
	FREQ hwio.Reg16 `hwio:"offset=0,wcb"`
	ADSR hwio.Reg16 `hwio:"offset=4,wcb"`
	CTL  hwio.Reg8  `hwio:"offset=6,rwmask=0x03,wcb"`

	env Envelope
	acc int // fractional nibble position, in 1/64ths of a period
	idx int

	waveram []byte
	apu     *APU
}

func (wc *WaveChannel) init(a *APU, waveram []byte) {
	wc.apu = a
	wc.waveram = waveram
}

func (wc *WaveChannel) WriteFREQ(old, val uint16) {
	wc.apu.catchUp()
}

func (wc *WaveChannel) WriteADSR(old, val uint16) {
	wc.apu.catchUp()
	wc.env.load(val)
}

func (wc *WaveChannel) WriteCTL(old, val uint8) {
	wc.apu.catchUp()
	keyEdge(&wc.env, old, val)
	if old&ctlKeyOn == 0 && val&ctlKeyOn != 0 {
		wc.acc = 0
		wc.idx = 0
	}
	syncAudible(&wc.CTL, wc.env.active())
}

func (wc *WaveChannel) echoSend() bool { return wc.CTL.Value&ctlEchoSend != 0 }

// tickSample steps through the 64 nibbles, high nibble first.
func (wc *WaveChannel) tickSample() uint8 {
	divisor := 0x10000 - int(wc.FREQ.Value)
	wc.acc += 64
	for wc.acc >= divisor {
		wc.acc -= divisor
		wc.idx = (wc.idx + 1) & 63
	}
	if !wc.env.active() {
		return 0
	}
	b := wc.waveram[wc.idx>>1]
	if wc.idx&1 == 0 {
		return b >> 4
	}
	return b & 0x0F
}
