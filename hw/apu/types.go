package apu

import (
	"halcyon/hw/hwio"
)

// Channel identifies one of the four synthesis channels.
type Channel int

const (
	Pulse1 Channel = iota
	Pulse2
	Wave
	Noise
)

// CTL register bits, common to all channels.
const (
	ctlKeyOn    = 0x01
	ctlEchoSend = 0x02
	ctlAudible  = 0x80 // read-only
)

// Sample clock: one stereo sample every 64 master cycles.
const (
	ClockRate       = 2097152
	SampleRate      = 32768
	cyclesPerSample = ClockRate / SampleRate

	envelopePeriod = 128 // sample ticks per 256 Hz envelope tick
	sweepPeriod    = 256 // sample ticks per 128 Hz sweep tick
)

// keyEdge turns KEY_ON transitions into envelope gate events: 0 to 1
// restarts the attack, 1 to 0 enters release.
func keyEdge(env *Envelope, old, val uint8) {
	switch {
	case old&ctlKeyOn == 0 && val&ctlKeyOn != 0:
		env.keyOn()
	case old&ctlKeyOn != 0 && val&ctlKeyOn == 0:
		env.keyOff()
	}
}

// syncAudible refreshes the read-only CTL bit 7.
func syncAudible(ctl *hwio.Reg8, on bool) {
	if on {
		ctl.Value |= ctlAudible
	} else {
		ctl.Value &^= ctlAudible
	}
}

func sat16(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
