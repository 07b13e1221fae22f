package hw

import (
	"halcyon/hw/hwdefs"
	"halcyon/hw/hwio"
)

// tapBits maps the timer clock select to the DIV bit whose falling edge
// clocks the counter.
var tapBits = [4]uint{9, 3, 5, 7}

// Timer is one reloadable 8-bit timer, two instances live at F024 and F028.
type Timer struct {
	CNT hwio.Reg8 `hwio:"offset=0"`
	MOD hwio.Reg8 `hwio:"offset=1"`
	CTL hwio.Reg8 `hwio:"offset=2,rwmask=0x07"`

	irq hwdefs.IRQSource
}

func (t *Timer) enabled() bool { return t.CTL.Value&0x01 != 0 }

// advance applies every falling edge of the selected DIV tap between d0 and
// d1. Edges are counted in one batch: bit b falls once per 2^(b+1) divider
// increments.
func (t *Timer) advance(d0, d1 uint32, ints *IntCtrl) {
	if !t.enabled() {
		return
	}
	b := tapBits[t.CTL.Value>>1&0x03]
	incr := int(d1>>(b+1)) - int(d0>>(b+1))
	if incr <= 0 {
		return
	}

	v := int(t.CNT.Value) + incr
	if v > 0xFF {
		period := 0x100 - int(t.MOD.Value)
		v = int(t.MOD.Value) + (v-0x100)%period
		ints.Raise(t.irq)
	}
	t.CNT.Value = uint8(v)
}

// Timers groups the free-running divider and both timers behind their
// F020 register block.
type Timers struct {
	Ints *IntCtrl

	DIV hwio.Device `hwio:"offset=0,size=4,rcb,readonly"`

	Timer0 Timer
	Timer1 Timer

	cycles int64
	div    uint32
}

func NewTimers(bus *Bus, ints *IntCtrl) *Timers {
	t := &Timers{
		Ints:   ints,
		Timer0: Timer{irq: hwdefs.Timer0},
		Timer1: Timer{irq: hwdefs.Timer1},
	}
	hwio.MustInitRegs(t)
	hwio.MustInitRegs(&t.Timer0)
	hwio.MustInitRegs(&t.Timer1)
	bus.Table.MapBank(0xF020, t, 0)
	bus.Table.MapBank(0xF024, &t.Timer0, 0)
	bus.Table.MapBank(0xF028, &t.Timer1, 0)
	return t
}

// ReadDIV exposes the divider as a 32-bit little-endian read-only register.
func (t *Timers) ReadDIV(addr uint16) uint8 {
	return uint8(t.div >> (8 * (addr & 0x03)))
}

// Run advances the divider to the master clock target and clocks the timers
// from its tap transitions.
func (t *Timers) Run(target int64) {
	if target <= t.cycles {
		return
	}
	elapsed := target - t.cycles
	t.cycles = target

	d0 := t.div
	t.div += uint32(elapsed)
	t.Timer0.advance(d0, t.div, t.Ints)
	t.Timer1.advance(d0, t.div, t.Ints)
}

func (t *Timers) Reset() {
	t.div = 0
	t.Timer0.CNT.Value = 0
	t.Timer1.CNT.Value = 0
}
