package hwio

import (
	"fmt"

	"halcyon/emu/log"
)

// BankIO8 is the interface implemented by everything that can be mapped into
// a Table: plain memory, single registers and whole devices.
type BankIO8 interface {
	Read8(addr uint16) uint8
	// Peek8 reads without side effects (debugging/tracing).
	Peek8(addr uint16) uint8
	Write8(addr uint16, val uint8)
}

func Read16(b *Table, addr uint16) uint16 {
	lo := b.Read8(addr)
	hi := b.Read8(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

func Write16(b *Table, addr uint16, val uint16) {
	b.Write8(addr, uint8(val))
	b.Write8(addr+1, uint8(val>>8))
}

func Peek16(b *Table, addr uint16) uint16 {
	lo := b.Peek8(addr)
	hi := b.Peek8(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

// Table decodes a 16-bit address space into mapped banks of registers,
// memory areas and devices.
type Table struct {
	Name string

	// Unmapped, when non-nil, handles accesses that hit no mapping
	// (open bus behavior).
	Unmapped BankIO8

	table8 pageTree
}

func NewTable(name string) *Table {
	t := new(Table)
	t.Name = name
	t.Reset()
	return t
}

func (t *Table) Reset() {
	t.table8 = pageTree{}
}

// MapBank maps a register bank, that is a struct containing hwio.Reg8,
// hwio.Reg16, hwio.Mem or hwio.Device fields carrying a "hwio" struct tag.
// Tag options:
//
//	offset=0x12     Byte offset within the bank at which the register is
//	                mapped. Without it the field is ignored by this call.
//
//	bank=NN         Ordinal bank number (defaults to zero). Lets a single
//	                struct expose several banks mapped at separate addresses.
//
// The bank struct must have been initialized with MustInitRegs first.
func (t *Table) MapBank(addr uint16, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		switch r := reg.regPtr.(type) {
		case *Mem:
			t.MapMem(addr+reg.offset, r)
		case *Reg8:
			t.mapBus8(addr+reg.offset, 1, r)
		case *Reg16:
			t.mapBus8(addr+reg.offset, 2, r.bankIO(addr+reg.offset))
		case *Device:
			t.mapBus8(addr+reg.offset, uint16(r.Size), r)
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

func (t *Table) UnmapBank(addr uint16, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		switch r := reg.regPtr.(type) {
		case *Mem:
			t.Unmap(addr+reg.offset, addr+reg.offset+uint16(r.vsize())-1)
		case *Reg8:
			t.Unmap(addr+reg.offset, addr+reg.offset)
		case *Reg16:
			t.Unmap(addr+reg.offset, addr+reg.offset+1)
		case *Device:
			t.Unmap(addr+reg.offset, addr+reg.offset+uint16(r.Size)-1)
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

func (t *Table) mapBus8(addr, size uint16, io BankIO8) {
	if err := t.table8.InsertRange(addr, addr+size-1, io); err != nil {
		panic(err)
	}
}

func (t *Table) MapMem(addr uint16, m *Mem) {
	log.ModHwIo.DebugZ("mapping mem").
		Hex16("addr", addr).
		Hex16("size", uint16(m.vsize())).
		String("area", m.Name).
		String("bus", t.Name).
		End()

	if len(m.Data)&(len(m.Data)-1) != 0 {
		panic("memory buffer size is not pow2")
	}

	t.mapBus8(addr, uint16(m.vsize()), m.bankIO())
}

// MapMemorySlice maps an existing buffer over [addr, end], mirrored if the
// buffer is smaller than the range.
func (t *Table) MapMemorySlice(addr, end uint16, buf []uint8, readonly bool) {
	var flags MemFlags
	if readonly {
		flags |= MemFlag8ReadOnly
	}
	t.MapMem(addr, &Mem{
		Data:  buf,
		Flags: flags,
		VSize: int(end-addr) + 1,
	})
}

func (t *Table) Unmap(begin, end uint16) {
	t.table8.RemoveRange(begin, end)
}

// Read8 forwards the read to the device mapped at addr, or to the Unmapped
// handler when there is none.
func (t *Table) Read8(addr uint16) uint8 {
	io := t.table8.Search(addr)
	if io == nil {
		if t.Unmapped != nil {
			return t.Unmapped.Read8(addr)
		}
		return 0
	}
	return io.Read8(addr)
}

// Peek8 is like Read8 but without side effects.
func (t *Table) Peek8(addr uint16) uint8 {
	io := t.table8.Search(addr)
	if io == nil {
		if t.Unmapped != nil {
			return t.Unmapped.Peek8(addr)
		}
		return 0
	}
	return io.Peek8(addr)
}

// Write8 forwards the write to the device mapped at addr. It reports whether
// the write went through: false means it was blocked by a read-only memory
// area, which the bus surfaces to the CPU as a ProtectedMemory fault.
// Writes to read-only registers are hardware no-ops and report true.
func (t *Table) Write8(addr uint16, val uint8) bool {
	io := t.table8.Search(addr)
	if io == nil {
		if t.Unmapped != nil {
			t.Unmapped.Write8(addr, val)
		}
		return true
	}
	if m, ok := io.(*mem); ok {
		return m.write8CheckRO(addr, val)
	}
	io.Write8(addr, val)
	return true
}

// FetchPointer returns a slice aliasing the memory area mapped at addr, from
// addr to the end of the area, or nil if addr is not plain memory. Used by
// units that stream from memory (PPU tile fetch, DMA).
func (t *Table) FetchPointer(addr uint16) []uint8 {
	io := t.table8.Search(addr)
	if m, ok := io.(*mem); ok {
		return m.fetchPointer(addr)
	}
	return nil
}
