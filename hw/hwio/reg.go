package hwio

import (
	"fmt"

	"halcyon/emu/log"
)

type RWFlags uint8

const (
	ReadWriteFlag RWFlags = 0
	ReadOnlyFlag  RWFlags = 1 << iota
	WriteOnlyFlag
)

// Reg8 is a single 8-bit memory-mapped register.
type Reg8 struct {
	Name   string
	Value  uint8
	RoMask uint8 // bits a bus write cannot touch

	Flags   RWFlags
	ReadCb  func(val uint8) uint8
	PeekCb  func(val uint8) uint8
	WriteCb func(old, val uint8)
}

func (reg Reg8) String() string {
	s := fmt.Sprintf("%s{%02x", reg.Name, reg.Value)
	if reg.ReadCb != nil {
		s += ",r!"
	}
	if reg.PeekCb != nil {
		s += ",p!"
	}
	if reg.WriteCb != nil {
		s += ",w!"
	}
	return s + "}"
}

func (reg *Reg8) write(val uint8) {
	old := reg.Value
	reg.Value = (reg.Value & reg.RoMask) | (val &^ reg.RoMask)
	if reg.WriteCb != nil {
		reg.WriteCb(old, reg.Value)
	}
}

func (reg *Reg8) Write8(addr uint16, val uint8) {
	if reg.Flags&ReadOnlyFlag != 0 {
		log.ModHwIo.ErrorZ("invalid Write8 to readonly reg").
			String("name", reg.Name).
			Hex16("addr", addr).
			End()
		return
	}
	reg.write(val)
}

func (reg *Reg8) Read8(addr uint16) uint8 {
	if reg.Flags&WriteOnlyFlag != 0 {
		log.ModHwIo.ErrorZ("invalid Read8 from writeonly reg").
			String("name", reg.Name).
			Hex16("addr", addr).
			End()
		return 0
	}
	if reg.ReadCb != nil {
		return reg.ReadCb(reg.Value)
	}
	return reg.Value
}

func (reg *Reg8) Peek8(addr uint16) uint8 {
	if reg.PeekCb != nil {
		return reg.PeekCb(reg.Value)
	}
	return reg.Value
}

/* bit helpers */

func (reg *Reg8) GetBit(i int) bool   { return reg.Value&(1<<i) != 0 }
func (reg *Reg8) GetBiti(i int) uint8 { return (reg.Value >> i) & 1 }
func (reg *Reg8) SetBit(i int)        { reg.Value |= 1 << i }
func (reg *Reg8) ClearBit(i int)      { reg.Value &^= 1 << i }
func (reg *Reg8) ClearBits(mask uint8) {
	reg.Value &^= mask
}

// Reg16 is a 16-bit register exposed on the bus as two consecutive bytes,
// low byte first, matching the console's native endianness. Callbacks fire
// on every byte write with the whole register value.
type Reg16 struct {
	Name   string
	Value  uint16
	RoMask uint16

	Flags   RWFlags
	ReadCb  func(val uint16) uint16
	PeekCb  func(val uint16) uint16
	WriteCb func(old, val uint16)
}

func (reg Reg16) String() string {
	return fmt.Sprintf("%s{%04x}", reg.Name, reg.Value)
}

// bankIO returns the adaptor actually mapped into a table; base is the bus
// address of the low byte.
func (reg *Reg16) bankIO(base uint16) *reg16IO {
	return &reg16IO{reg: reg, base: base}
}

type reg16IO struct {
	reg  *Reg16
	base uint16
}

func (io *reg16IO) value() uint16 {
	if io.reg.ReadCb != nil {
		return io.reg.ReadCb(io.reg.Value)
	}
	return io.reg.Value
}

func (io *reg16IO) Read8(addr uint16) uint8 {
	if io.reg.Flags&WriteOnlyFlag != 0 {
		log.ModHwIo.ErrorZ("invalid Read8 from writeonly reg").
			String("name", io.reg.Name).
			Hex16("addr", addr).
			End()
		return 0
	}
	if addr == io.base {
		return uint8(io.value())
	}
	return uint8(io.value() >> 8)
}

func (io *reg16IO) Peek8(addr uint16) uint8 {
	val := io.reg.Value
	if io.reg.PeekCb != nil {
		val = io.reg.PeekCb(val)
	}
	if addr == io.base {
		return uint8(val)
	}
	return uint8(val >> 8)
}

func (io *reg16IO) Write8(addr uint16, val uint8) {
	if io.reg.Flags&ReadOnlyFlag != 0 {
		log.ModHwIo.ErrorZ("invalid Write8 to readonly reg").
			String("name", io.reg.Name).
			Hex16("addr", addr).
			End()
		return
	}

	old := io.reg.Value
	var merged uint16
	if addr == io.base {
		merged = old&0xFF00 | uint16(val)
	} else {
		merged = old&0x00FF | uint16(val)<<8
	}
	io.reg.Value = (old & io.reg.RoMask) | (merged &^ io.reg.RoMask)
	if io.reg.WriteCb != nil {
		io.reg.WriteCb(old, io.reg.Value)
	}
}
