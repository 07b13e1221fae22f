package hw

import (
	"io"

	"halcyon/emu/log"
	"halcyon/hw/hwdefs"
	"halcyon/hw/hwio"
)

// Vector table bases. The active one is latched at power-up from the
// cartridge header flag.
const (
	ROMVectorBase  = uint16(0x0040)
	HRAMVectorBase = uint16(0xFF80)
)

// guestFault unwinds the interpreter out of a faulting instruction. It is
// emulated machine state, not a host error: step() recovers it and turns it
// into a vector dispatch.
type guestFault struct {
	kind hwdefs.Fault
	addr uint16
}

// IntCtrl is the interrupt controller register pair at F010.
type IntCtrl struct {
	IE hwio.Reg8 `hwio:"offset=0"`
	IF hwio.Reg8 `hwio:"offset=1,wcb"`
}

// WriteIF implements write-1-to-clear.
func (ic *IntCtrl) WriteIF(old, val uint8) {
	ic.IF.Value = old &^ val
}

// Raise latches an interrupt request. It becomes a dispatch only if enabled
// in IE and the CPU master-enable is set.
func (ic *IntCtrl) Raise(src hwdefs.IRQSource) {
	ic.IF.Value |= uint8(src)
}

func (ic *IntCtrl) pending() uint8 {
	return ic.IE.Value & ic.IF.Value
}

type CPU struct {
	Bus    *Bus
	PPU    *PPU
	DMA    *DMA
	Timers *Timers
	Ints   IntCtrl

	// Non-nil when execution tracing is enabled.
	tracer *tracer

	Cycles int64 // master clock cycles

	// cpu registers. R[7] doubles as the stack pointer.
	R  [8]uint16
	PC uint16
	F  F

	IME     bool
	halted  bool
	vecBase uint16
}

// NewCPU creates a new CPU at power-up state, wired to its bus.
func NewCPU(bus *Bus) *CPU {
	cpu := &CPU{
		Bus:     bus,
		vecBase: ROMVectorBase,
	}
	hwio.MustInitRegs(&cpu.Ints)
	bus.Table.MapBank(0xF010, &cpu.Ints, 0)
	return cpu
}

// SetVectorBase selects where the 16-entry vector table lives, per the
// cartridge header vectors-in-RAM flag. Latched once, before execution.
func (c *CPU) SetVectorBase(inRAM bool) {
	if inRAM {
		c.vecBase = HRAMVectorBase
	} else {
		c.vecBase = ROMVectorBase
	}
}

func (c *CPU) Reset(soft bool) {
	if !soft {
		c.R = [8]uint16{}
		c.F = 0
	}
	c.IME = false
	c.halted = false
	c.PC = c.readVector(hwdefs.VecReset)
}

// Run executes instructions until the master clock reaches until.
func (c *CPU) Run(until int64) {
	for c.Cycles < until {
		if c.DMA != nil && c.DMA.process() {
			continue
		}

		if c.halted {
			c.tick(4)
			if c.Ints.pending() == 0 {
				continue
			}
			c.halted = false
		}

		if c.IME {
			if pend := c.Ints.pending(); pend != 0 {
				c.serveIRQ(pend)
				continue
			}
		}

		c.step()
	}
}

// step executes one instruction, turning a guest fault into a dispatch
// with the PC of the aborted instruction.
func (c *CPU) step() {
	prevPC := c.PC
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		f, ok := r.(guestFault)
		if !ok {
			panic(r)
		}
		log.ModCPU.DebugZ("guest fault").
			Stringer("kind", f.kind).
			Hex16("PC", prevPC).
			Hex16("addr", f.addr).
			End()
		c.PC = prevPC
		c.dispatch(int(f.kind))
	}()

	c.traceOp()
	opcode := c.fetch8()
	ops[opcode](c)
}

// serveIRQ dispatches the lowest pending enabled interrupt and acknowledges
// it in IF.
func (c *CPU) serveIRQ(pend uint8) {
	bit := 0
	for pend&1 == 0 {
		pend >>= 1
		bit++
	}
	c.Ints.IF.Value &^= 1 << bit
	c.dispatch(hwdefs.VectorIndex(bit))
}

// dispatch performs the common fault/IRQ entry sequence: push PC, push F,
// clear IME and load the vector. Costs a flat 16 cycles; the stack writes
// bypass the stack overflow check so a dispatch can never double fault.
func (c *CPU) dispatch(vec int) {
	c.R[7] -= 2
	c.writeRaw16(c.R[7], c.PC)
	c.R[7] -= 2
	c.writeRaw16(c.R[7], uint16(c.F))
	c.IME = false
	c.PC = c.readVector(vec)
	c.tick(16)
}

func (c *CPU) readVector(n int) uint16 {
	addr := c.vecBase + uint16(n)*2
	lo := c.Bus.Read8(addr)
	hi := c.Bus.Read8(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) raise(kind hwdefs.Fault, addr uint16) {
	panic(guestFault{kind: kind, addr: addr})
}

func (c *CPU) halt() {
	c.halted = true
}

func (c *CPU) IsHalted() bool {
	return c.halted
}

// tick advances the master clock, keeping the lockstep units in sync.
func (c *CPU) tick(ncycles int64) {
	c.Cycles += ncycles
	if c.PPU != nil {
		c.PPU.Run(c.Cycles)
	}
	if c.Timers != nil {
		c.Timers.Run(c.Cycles)
	}
}

// accessCost is the bus cost of one byte access. HRAM is on the fast
// internal bus.
func accessCost(addr uint16) int64 {
	if addr >= 0xFF00 {
		return 2
	}
	return 4
}

func (c *CPU) Read8(addr uint16) uint8 {
	c.tick(accessCost(addr))
	return c.Bus.Read8(addr)
}

func (c *CPU) Write8(addr uint16, val uint8) {
	c.tick(accessCost(addr))
	if !c.Bus.Write8(addr, val) {
		c.raise(hwdefs.ProtectedMemory, addr)
	}
}

// Read16 performs an aligned 16-bit read. Odd addresses fault before the
// access completes.
func (c *CPU) Read16(addr uint16) uint16 {
	if addr&1 != 0 {
		c.raise(hwdefs.BusError, addr)
	}
	lo := c.Read8(addr)
	hi := c.Read8(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) Write16(addr uint16, val uint16) {
	if addr&1 != 0 {
		c.raise(hwdefs.BusError, addr)
	}
	c.Write8(addr, uint8(val))
	c.Write8(addr+1, uint8(val>>8))
}

// writeRaw16 is the dispatch stack write: ticking and fault checks do not
// apply, the flat dispatch cost covers it.
func (c *CPU) writeRaw16(addr uint16, val uint16) {
	c.Bus.Write8(addr, uint8(val))
	c.Bus.Write8(addr+1, uint8(val>>8))
}

// fetch8 reads the next instruction byte. Fetches cost 4 cycles per byte
// regardless of the region.
func (c *CPU) fetch8() uint8 {
	c.tick(4)
	v := c.Bus.Read8(c.PC)
	c.PC++
	return v
}

func (c *CPU) fetch16() uint16 {
	lo := c.fetch8()
	hi := c.fetch8()
	return uint16(hi)<<8 | uint16(lo)
}

/* stack operations */

// push16 writes val at SP-2. Dropping SP below the STKBASE page raises
// StackOverflow before the write.
func (c *CPU) push16(val uint16) {
	sp := c.R[7] - 2
	if sp < uint16(c.Bus.STKBASE.Value)<<8 {
		c.raise(hwdefs.StackOverflow, sp)
	}
	c.R[7] = sp
	c.Write16(sp, val)
}

func (c *CPU) pop16() uint16 {
	val := c.Read16(c.R[7])
	c.R[7] += 2
	return val
}

/* tracing / debugging */

func (c *CPU) SetTraceOutput(w io.Writer) {
	c.tracer = &tracer{w: w, d: c}
}

func (c *CPU) traceOp() {
	if c.tracer == nil {
		return
	}
	state := cpuState{
		R:     c.R,
		F:     c.F,
		PC:    c.PC,
		Clock: c.Cycles,
	}
	if c.PPU != nil {
		state.Line = c.PPU.LY.Value
		state.Dot = c.PPU.Dot()
	}
	c.tracer.write(state)
}

func (c *CPU) Disasm(pc uint16) DisasmOp {
	return disasm(c.Bus, pc)
}
