package hwio

import (
	"halcyon/emu/log"
)

type MemFlags int

const (
	MemFlagReadWrite MemFlags = 0
	MemFlag8ReadOnly MemFlags = 1 << iota // writes are blocked
	MemFlagNoROLog                        // skip logging blocked writes
)

// Mem is a linear memory area that can be mapped into a Table.
//
// This structure does not directly implement BankIO8; clients get an adaptor
// through bankIO() so the per-access path doesn't re-parse the flags.
type Mem struct {
	Name    string              // name of the memory area (for debugging)
	Data    []byte              // actual memory buffer (pow2 length)
	VSize   int                 // virtual size (>= len(Data) mirrors the buffer)
	Flags   MemFlags            // access control
	WriteCb func(uint16, uint8) // optional, called after a successful write
}

func (m *Mem) vsize() int {
	if m.VSize == 0 {
		return len(m.Data)
	}
	return m.VSize
}

func (m *Mem) bankIO() *mem {
	if len(m.Data)&(len(m.Data)-1) != 0 {
		panic("memory buffer size is not pow2")
	}
	return &mem{
		buf:  m.Data,
		mask: uint16(len(m.Data) - 1),
		wcb:  m.WriteCb,
		ro:   m.Flags,
	}
}

// mem is the internal adaptor actually mapped into the table. Stored by
// pointer so the table's fault path can type-assert it cheaply.
type mem struct {
	buf  []byte
	mask uint16
	wcb  func(uint16, uint8)
	ro   MemFlags
}

func (m *mem) fetchPointer(addr uint16) []uint8 {
	off := addr & m.mask
	return m.buf[off:]
}

func (m *mem) Read8(addr uint16) uint8 {
	return m.buf[addr&m.mask]
}

func (m *mem) Peek8(addr uint16) uint8 {
	return m.buf[addr&m.mask]
}

func (m *mem) write8CheckRO(addr uint16, val uint8) bool {
	if m.ro == 0 {
		m.buf[addr&m.mask] = val
		if m.wcb != nil {
			m.wcb(addr, val)
		}
		return true
	}
	return m.ro&MemFlagNoROLog != 0 // fake success in silent mode
}

func (m *mem) Write8(addr uint16, val uint8) {
	if !m.write8CheckRO(addr, val) {
		log.ModHwIo.ErrorZ("Write8 to readonly memory").
			Hex8("val", val).
			Hex16("addr", addr).
			End()
	}
}
