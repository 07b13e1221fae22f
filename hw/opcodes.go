package hw

import (
	"halcyon/hw/hwdefs"
)

// ops is the primary opcode map. Unassigned entries are filled with
// opIllegal at init.
var ops = [256]func(*CPU){
	0x00: opNOP,
	0x01: opHALT,
	0x02: opEI,
	0x03: opDI,
	0x04: opRET,
	0x05: opRETI,
	0x06: opCALLa16,
	0x07: opCALLind,
	0x08: opJMPa16,
	0x09: opJMPind,
	0x0A: opJR,
	0x0B: opJRcc(Zero, true),
	0x0C: opJRcc(Zero, false),
	0x0D: opJRcc(Carry, true),
	0x0E: opJRcc(Carry, false),
	0x0F: opJRcc(Negative, true),
	0x10: opJRcc(Negative, false),
	0x11: opJRcc(Overflow, true),
	0x12: opJRcc(Overflow, false),
	0x13: opPUSH,
	0x14: opPOP,
	0x15: opPUSHF,
	0x16: opPOPF,

	0x20: opLDrr,
	0x21: opLDimm,
	0x22: opLDabs,
	0x23: opSTabs,
	0x24: opLDind,
	0x25: opSTind,
	0x26: opLDidx,
	0x27: opSTidx,
	0x28: opLDpostinc,
	0x29: opSTpostinc,
	0x2A: opLDpredec,
	0x2B: opSTpredec,

	0x30: opLDrrB,
	0x31: opLDimmB,
	0x32: opLDabsB,
	0x33: opSTabsB,
	0x34: opLDindB,
	0x35: opSTindB,
	0x36: opLDidxB,
	0x37: opSTidxB,
	0x38: opLDpostincB,
	0x39: opSTpostincB,
	0x3A: opLDpredecB,
	0x3B: opSTpredecB,

	0x40: opADD,
	0x41: opADC,
	0x42: opSUB,
	0x43: opSBC,
	0x44: opAND,
	0x45: opOR,
	0x46: opXOR,
	0x47: opCMP,
	0x48: opADDI,
	0x49: opSUBI,
	0x4A: opANDI,
	0x4B: opORI,
	0x4C: opXORI,
	0x4D: opCMPI,
	0x4E: opMUL,
	0x4F: opNEG,
	0x50: opINC,
	0x51: opDEC,
	0x52: opNOT,
	0x53: opSHL,
	0x54: opSHR,
	0x55: opSAR,
	0x56: opROL,
	0x57: opROR,

	0xCB: opPrefixCB,
	0xDD: opPrefixDD,
}

func init() {
	for i, op := range ops {
		if op == nil {
			ops[i] = opIllegal
		}
	}
}

func opIllegal(c *CPU) {
	c.raise(hwdefs.IllegalInstruction, c.PC-1)
}

// fetchRegs reads the reg byte: destination in the high nibble, source in
// the low one. Only 3 bits select a register.
func fetchRegs(c *CPU) (rd, rs int) {
	b := c.fetch8()
	return int(b>>4) & 0x07, int(b) & 0x07
}

/* control flow */

func opNOP(c *CPU) {}

func opHALT(c *CPU) { c.halt() }

func opEI(c *CPU) { c.IME = true }
func opDI(c *CPU) { c.IME = false }

func opRET(c *CPU) {
	c.PC = c.pop16()
}

func opRETI(c *CPU) {
	c.F = F(c.pop16()) & flagsMask
	c.PC = c.pop16()
	c.IME = true
}

func opCALLa16(c *CPU) {
	addr := c.fetch16()
	c.push16(c.PC)
	c.PC = addr
}

func opCALLind(c *CPU) {
	_, rs := fetchRegs(c)
	addr := c.Read16(c.R[rs])
	c.push16(c.PC)
	c.PC = addr
}

func opJMPa16(c *CPU) {
	c.PC = c.fetch16()
}

func opJMPind(c *CPU) {
	_, rs := fetchRegs(c)
	c.PC = c.Read16(c.R[rs])
}

func opJR(c *CPU) {
	off := int8(c.fetch8())
	c.PC = uint16(int32(c.PC) + int32(off))
}

func opJRcc(flag F, want bool) func(*CPU) {
	return func(c *CPU) {
		off := int8(c.fetch8())
		if c.F.hasFlag(flag) == want {
			c.PC = uint16(int32(c.PC) + int32(off))
		}
	}
}

func opPUSH(c *CPU) {
	_, rs := fetchRegs(c)
	c.push16(c.R[rs])
}

func opPOP(c *CPU) {
	rd, _ := fetchRegs(c)
	c.R[rd] = c.pop16()
}

func opPUSHF(c *CPU) {
	c.push16(uint16(c.F))
}

func opPOPF(c *CPU) {
	c.F = F(c.pop16()) & flagsMask
}

/* word loads and stores. None of them touch flags. */

func opLDrr(c *CPU) {
	rd, rs := fetchRegs(c)
	c.R[rd] = c.R[rs]
}

func opLDimm(c *CPU) {
	rd, _ := fetchRegs(c)
	c.R[rd] = c.fetch16()
}

func opLDabs(c *CPU) {
	rd, _ := fetchRegs(c)
	addr := c.fetch16()
	c.R[rd] = c.Read16(addr)
}

func opSTabs(c *CPU) {
	_, rs := fetchRegs(c)
	addr := c.fetch16()
	c.Write16(addr, c.R[rs])
}

func opLDind(c *CPU) {
	rd, rs := fetchRegs(c)
	c.R[rd] = c.Read16(c.R[rs])
}

func opSTind(c *CPU) {
	rd, rs := fetchRegs(c)
	c.Write16(c.R[rd], c.R[rs])
}

func opLDidx(c *CPU) {
	rd, rs := fetchRegs(c)
	off := int8(c.fetch8())
	c.R[rd] = c.Read16(uint16(int32(c.R[rs]) + int32(off)))
}

func opSTidx(c *CPU) {
	rd, rs := fetchRegs(c)
	off := int8(c.fetch8())
	c.Write16(uint16(int32(c.R[rd])+int32(off)), c.R[rs])
}

func opLDpostinc(c *CPU) {
	rd, rs := fetchRegs(c)
	val := c.Read16(c.R[rs])
	c.R[rs] += 2
	c.R[rd] = val
}

func opSTpostinc(c *CPU) {
	rd, rs := fetchRegs(c)
	c.Write16(c.R[rd], c.R[rs])
	c.R[rd] += 2
}

func opLDpredec(c *CPU) {
	rd, rs := fetchRegs(c)
	c.R[rs] -= 2
	c.R[rd] = c.Read16(c.R[rs])
}

func opSTpredec(c *CPU) {
	rd, rs := fetchRegs(c)
	c.R[rd] -= 2
	c.Write16(c.R[rd], c.R[rs])
}

/* byte loads and stores. Loads zero-extend into the full register. */

func opLDrrB(c *CPU) {
	rd, rs := fetchRegs(c)
	c.R[rd] = c.R[rs] & 0x00FF
}

func opLDimmB(c *CPU) {
	rd, _ := fetchRegs(c)
	c.R[rd] = c.fetch16() & 0x00FF
}

func opLDabsB(c *CPU) {
	rd, _ := fetchRegs(c)
	addr := c.fetch16()
	c.R[rd] = uint16(c.Read8(addr))
}

func opSTabsB(c *CPU) {
	_, rs := fetchRegs(c)
	addr := c.fetch16()
	c.Write8(addr, uint8(c.R[rs]))
}

func opLDindB(c *CPU) {
	rd, rs := fetchRegs(c)
	c.R[rd] = uint16(c.Read8(c.R[rs]))
}

func opSTindB(c *CPU) {
	rd, rs := fetchRegs(c)
	c.Write8(c.R[rd], uint8(c.R[rs]))
}

func opLDidxB(c *CPU) {
	rd, rs := fetchRegs(c)
	off := int8(c.fetch8())
	c.R[rd] = uint16(c.Read8(uint16(int32(c.R[rs]) + int32(off))))
}

func opSTidxB(c *CPU) {
	rd, rs := fetchRegs(c)
	off := int8(c.fetch8())
	c.Write8(uint16(int32(c.R[rd])+int32(off)), uint8(c.R[rs]))
}

func opLDpostincB(c *CPU) {
	rd, rs := fetchRegs(c)
	val := uint16(c.Read8(c.R[rs]))
	c.R[rs]++
	c.R[rd] = val
}

func opSTpostincB(c *CPU) {
	rd, rs := fetchRegs(c)
	c.Write8(c.R[rd], uint8(c.R[rs]))
	c.R[rd]++
}

func opLDpredecB(c *CPU) {
	rd, rs := fetchRegs(c)
	c.R[rs]--
	c.R[rd] = uint16(c.Read8(c.R[rs]))
}

func opSTpredecB(c *CPU) {
	rd, rs := fetchRegs(c)
	c.R[rd]--
	c.Write8(c.R[rd], uint8(c.R[rs]))
}

/* ALU */

func (c *CPU) add16(a, b uint16, carry uint16) uint16 {
	sum := uint32(a) + uint32(b) + uint32(carry)
	res := uint16(sum)
	c.F.checkNZ(res)
	c.F.set(Carry, sum > 0xFFFF)
	c.F.set(Overflow, (a^res)&(b^res)&0x8000 != 0)
	return res
}

func (c *CPU) sub16(a, b uint16, borrow uint16) uint16 {
	diff := uint32(a) - uint32(b) - uint32(borrow)
	res := uint16(diff)
	c.F.checkNZ(res)
	c.F.set(Carry, diff > 0xFFFF)
	c.F.set(Overflow, (a^b)&(a^res)&0x8000 != 0)
	return res
}

// logic16 sets flags for the bitwise group: Z/N from the result, C and V
// cleared.
func (c *CPU) logic16(res uint16) uint16 {
	c.F.checkNZ(res)
	c.F.clearFlags(Carry | Overflow)
	return res
}

func carryIn(c *CPU) uint16 {
	if c.F.hasFlag(Carry) {
		return 1
	}
	return 0
}

func opADD(c *CPU) {
	rd, rs := fetchRegs(c)
	c.R[rd] = c.add16(c.R[rd], c.R[rs], 0)
}

func opADC(c *CPU) {
	rd, rs := fetchRegs(c)
	c.R[rd] = c.add16(c.R[rd], c.R[rs], carryIn(c))
}

func opSUB(c *CPU) {
	rd, rs := fetchRegs(c)
	c.R[rd] = c.sub16(c.R[rd], c.R[rs], 0)
}

func opSBC(c *CPU) {
	rd, rs := fetchRegs(c)
	c.R[rd] = c.sub16(c.R[rd], c.R[rs], carryIn(c))
}

func opAND(c *CPU) {
	rd, rs := fetchRegs(c)
	c.R[rd] = c.logic16(c.R[rd] & c.R[rs])
}

func opOR(c *CPU) {
	rd, rs := fetchRegs(c)
	c.R[rd] = c.logic16(c.R[rd] | c.R[rs])
}

func opXOR(c *CPU) {
	rd, rs := fetchRegs(c)
	c.R[rd] = c.logic16(c.R[rd] ^ c.R[rs])
}

func opCMP(c *CPU) {
	rd, rs := fetchRegs(c)
	c.sub16(c.R[rd], c.R[rs], 0)
}

/* immediate ALU group: R0 is the implicit left operand and destination */

func opADDI(c *CPU) { c.R[0] = c.add16(c.R[0], c.fetch16(), 0) }
func opSUBI(c *CPU) { c.R[0] = c.sub16(c.R[0], c.fetch16(), 0) }
func opANDI(c *CPU) { c.R[0] = c.logic16(c.R[0] & c.fetch16()) }
func opORI(c *CPU)  { c.R[0] = c.logic16(c.R[0] | c.fetch16()) }
func opXORI(c *CPU) { c.R[0] = c.logic16(c.R[0] ^ c.fetch16()) }
func opCMPI(c *CPU) { c.sub16(c.R[0], c.fetch16(), 0) }

func opMUL(c *CPU) {
	rd, rs := fetchRegs(c)
	prod := uint32(c.R[rd]) * uint32(c.R[rs])
	res := uint16(prod)
	c.R[rd] = res
	c.F.checkNZ(res)
	c.F.set(Carry, prod > 0xFFFF)
	c.F.clearFlags(Overflow)
}

func opNEG(c *CPU) {
	rd, _ := fetchRegs(c)
	c.R[rd] = c.sub16(0, c.R[rd], 0)
}

func opINC(c *CPU) {
	rd, _ := fetchRegs(c)
	c.R[rd] = c.add16(c.R[rd], 1, 0)
}

func opDEC(c *CPU) {
	rd, _ := fetchRegs(c)
	c.R[rd] = c.sub16(c.R[rd], 1, 0)
}

func opNOT(c *CPU) {
	rd, _ := fetchRegs(c)
	c.R[rd] = c.logic16(^c.R[rd])
}

/* single-bit shifts and rotates */

func (c *CPU) shift1(v uint16, kind int) uint16 {
	var res uint16
	var out bool
	switch kind {
	case shiftSHL:
		out, res = v&0x8000 != 0, v<<1
	case shiftSHR:
		out, res = v&1 != 0, v>>1
	case shiftSAR:
		out, res = v&1 != 0, uint16(int16(v)>>1)
	case shiftROL:
		out, res = v&0x8000 != 0, v<<1|v>>15
	case shiftROR:
		out, res = v&1 != 0, v>>1|v<<15
	}
	c.F.checkNZ(res)
	c.F.set(Carry, out)
	c.F.clearFlags(Overflow)
	return res
}

const (
	shiftSHL = iota
	shiftSHR
	shiftSAR
	shiftROL
	shiftROR
)

func opShift1(kind int) func(*CPU) {
	return func(c *CPU) {
		rd, _ := fetchRegs(c)
		c.R[rd] = c.shift1(c.R[rd], kind)
	}
}

var (
	opSHL = opShift1(shiftSHL)
	opSHR = opShift1(shiftSHR)
	opSAR = opShift1(shiftSAR)
	opROL = opShift1(shiftROL)
	opROR = opShift1(shiftROR)
)

/* 0xCB prefix: bit tests and counted shifts */

func opPrefixCB(c *CPU) {
	opbyte := c.fetch8()
	imm := c.fetch8() & 0x0F
	rd := int(opbyte) & 0x07

	switch opbyte >> 4 {
	case 0x0: // BIT: bit value into Z, N mirrors the register MSB
		c.F.set(Zero, c.R[rd]&(1<<imm) == 0)
		c.F.set(Negative, c.R[rd]&0x8000 != 0)
	case 0x1: // SET
		c.R[rd] |= 1 << imm
	case 0x2: // RES
		c.R[rd] &^= 1 << imm
	case 0x3: // TST
		v := c.R[rd] & (1 << imm)
		c.F.checkNZ(v)
	case 0x4, 0x5, 0x6, 0x7, 0x8:
		kind := int(opbyte>>4) - 4
		v := c.R[rd]
		for range imm {
			v = c.shift1(v, kind)
		}
		if imm == 0 {
			c.F.checkNZ(v)
			c.F.clearFlags(Overflow)
		}
		c.R[rd] = v
	default:
		c.raise(hwdefs.IllegalInstruction, c.PC-3)
	}
}

/* 0xDD prefix: system / register transforms */

func opPrefixDD(c *CPU) {
	opbyte := c.fetch8()
	rd := int(opbyte) & 0x07

	switch opbyte >> 4 {
	case 0x0: // SWAP: exchange bytes
		v := c.R[rd]
		c.R[rd] = v<<8 | v>>8
	case 0x1: // SXT: sign-extend the low byte
		c.R[rd] = uint16(int16(int8(c.R[rd])))
	case 0x2: // LDF
		c.R[rd] = uint16(c.F)
	case 0x3: // STF
		c.F = F(c.R[rd]) & flagsMask
	default:
		c.raise(hwdefs.IllegalInstruction, c.PC-2)
	}
}
