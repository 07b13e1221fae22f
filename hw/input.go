package hw

import (
	"halcyon/hw/hwdefs"
	"halcyon/hw/hwio"
)

// An InputDevice provides the state of the 8 pad buttons, one bit per
// button in PAD register order.
type InputDevice interface {
	LoadState() uint8
}

// Pad is the input/link block at F0E0: the read-only PAD button register
// and the two serial stub registers. The link protocol itself is not
// emulated, the registers are simple latches.
type Pad struct {
	PAD        hwio.Reg8 `hwio:"offset=0x00,readonly"`
	SERIALDATA hwio.Reg8 `hwio:"offset=0x02"`
	SERIALCTL  hwio.Reg8 `hwio:"offset=0x03,rwmask=0x03"`

	Ints *IntCtrl
	dev  InputDevice
}

func NewPad(bus *Bus, ints *IntCtrl) *Pad {
	p := &Pad{Ints: ints}
	hwio.MustInitRegs(p)
	bus.Table.MapBank(0xF0E0, p, 0)
	return p
}

func (p *Pad) SetDevice(dev InputDevice) {
	p.dev = dev
}

// Poll refreshes PAD from the input device. A 0 to 1 transition on any
// button raises the pad interrupt. Called once per frame.
func (p *Pad) Poll() {
	if p.dev == nil {
		return
	}
	state := p.dev.LoadState()
	pressed := state &^ p.PAD.Value
	p.PAD.Value = state
	if pressed != 0 {
		p.Ints.Raise(hwdefs.Pad)
	}
}
