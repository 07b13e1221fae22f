package hw

import (
	"fmt"
)

// DisasmOp is one decoded instruction, ready for display.
type DisasmOp struct {
	Opcode string // mnemonic
	Oper   string // formatted operands
	Buf    []byte // raw instruction bytes
	PC     uint16
}

func (d DisasmOp) String() string {
	if d.Oper == "" {
		return d.Opcode
	}
	return d.Opcode + " " + d.Oper
}

// Bytes returns the fixed-width trace representation of a DisasmOp:
// address, raw bytes, mnemonic and operands.
func (d DisasmOp) Bytes() []byte {
	const totalLen = 52
	buf := make([]byte, totalLen)

	hexEncode(buf[0:], byte(d.PC>>8))
	hexEncode(buf[2:], byte(d.PC))
	buf[4] = ' '
	buf[5] = ' '

	off := 6
	for i := range d.Buf {
		hexEncode(buf[off:], d.Buf[i])
		buf[off+2] = ' '
		off += 3
	}
	for ; off < 20; off++ {
		buf[off] = ' '
	}

	off += copy(buf[off:], d.Opcode)
	buf[off] = ' '
	off++

	buf = append(buf[:off], d.Oper...)
	off += len(d.Oper)
	if len(buf) > totalLen {
		buf = append(buf, ' ')
	} else {
		buf = buf[:totalLen]
		for i := off; i < totalLen; i++ {
			buf[i] = ' '
		}
	}
	return buf
}

// addressLabels names the I/O page registers in disassembly output.
var addressLabels = map[uint16]string{
	0xF000: "BootCtl_F000",
	0xF001: "RomBank_F001",
	0xF002: "VramBank_F002",
	0xF003: "SramBank_F003",
	0xF004: "WramBank_F004",
	0xF005: "StkBase_F005",
	0xF010: "IntEnable_F010",
	0xF011: "IntFlags_F011",
	0xF020: "Divider_F020",
	0xF024: "Tim0Count_F024",
	0xF025: "Tim0Reload_F025",
	0xF026: "Tim0Ctl_F026",
	0xF028: "Tim1Count_F028",
	0xF029: "Tim1Reload_F029",
	0xF02A: "Tim1Ctl_F02A",
	0xF040: "LcdCtrl_F040",
	0xF041: "LcdStat_F041",
	0xF042: "Ly_F042",
	0xF043: "Lyc_F043",
	0xF060: "Ch1Freq_F060",
	0xF066: "Ch1Ctl_F066",
	0xF067: "Ch1Sweep_F067",
	0xF068: "Ch2Freq_F068",
	0xF070: "Ch3Freq_F070",
	0xF078: "Ch4Freq_F078",
	0xF080: "MasterVolL_F080",
	0xF081: "MasterVolR_F081",
	0xF0C0: "DmaSrc_F0C0",
	0xF0C2: "DmaDst_F0C2",
	0xF0C4: "DmaLen_F0C4",
	0xF0C6: "DmaCtl_F0C6",
	0xF0E0: "Pad_F0E0",
	0xF0E2: "SerialData_F0E2",
	0xF0E3: "SerialCtl_F0E3",
}

func formatAddr(addr uint16) string {
	if label, ok := addressLabels[addr]; ok {
		return label
	}
	return fmt.Sprintf("$%04X", addr)
}

// operand formats, driving both length and rendering of an instruction.
type operKind int

const (
	operNone    operKind = iota
	operA16              // 16-bit absolute target
	operIndJump          // [rS], source register indirect jump
	operRel              // 8-bit relative branch
	operRS               // single source register
	operRD               // single destination register
	operRR               // rD, rS
	operImm16            // rD, #imm16
	operAbsLD            // rD, [a16]
	operAbsST            // [a16], rS
	operIndLD            // rD, [rS]
	operIndST            // [rD], rS
	operIdxLD            // rD, [rS+d8]
	operIdxST            // [rD+d8], rS
	operPostLD           // rD, [rS++]
	operPostST           // [rD++], rS
	operPreLD            // rD, [--rS]
	operPreST            // [--rD], rS
	operAccImm           // r0, #imm16
	operCB               // bit / counted shift prefix
	operDD               // register transform prefix
)

type disasmDesc struct {
	name string
	kind operKind
}

var disasmTable = [256]disasmDesc{
	0x00: {"NOP", operNone},
	0x01: {"HALT", operNone},
	0x02: {"EI", operNone},
	0x03: {"DI", operNone},
	0x04: {"RET", operNone},
	0x05: {"RETI", operNone},
	0x06: {"CALL", operA16},
	0x07: {"CALL", operIndJump},
	0x08: {"JMP", operA16},
	0x09: {"JMP", operIndJump},
	0x0A: {"JR", operRel},
	0x0B: {"JRZ", operRel},
	0x0C: {"JRNZ", operRel},
	0x0D: {"JRC", operRel},
	0x0E: {"JRNC", operRel},
	0x0F: {"JRN", operRel},
	0x10: {"JRNN", operRel},
	0x11: {"JRV", operRel},
	0x12: {"JRNV", operRel},
	0x13: {"PUSH", operRS},
	0x14: {"POP", operRD},
	0x15: {"PUSHF", operNone},
	0x16: {"POPF", operNone},

	0x20: {"LD", operRR},
	0x21: {"LD", operImm16},
	0x22: {"LD", operAbsLD},
	0x23: {"ST", operAbsST},
	0x24: {"LD", operIndLD},
	0x25: {"ST", operIndST},
	0x26: {"LD", operIdxLD},
	0x27: {"ST", operIdxST},
	0x28: {"LD", operPostLD},
	0x29: {"ST", operPostST},
	0x2A: {"LD", operPreLD},
	0x2B: {"ST", operPreST},

	0x30: {"LD.B", operRR},
	0x31: {"LD.B", operImm16},
	0x32: {"LD.B", operAbsLD},
	0x33: {"ST.B", operAbsST},
	0x34: {"LD.B", operIndLD},
	0x35: {"ST.B", operIndST},
	0x36: {"LD.B", operIdxLD},
	0x37: {"ST.B", operIdxST},
	0x38: {"LD.B", operPostLD},
	0x39: {"ST.B", operPostST},
	0x3A: {"LD.B", operPreLD},
	0x3B: {"ST.B", operPreST},

	0x40: {"ADD", operRR},
	0x41: {"ADC", operRR},
	0x42: {"SUB", operRR},
	0x43: {"SBC", operRR},
	0x44: {"AND", operRR},
	0x45: {"OR", operRR},
	0x46: {"XOR", operRR},
	0x47: {"CMP", operRR},
	0x48: {"ADDI", operAccImm},
	0x49: {"SUBI", operAccImm},
	0x4A: {"ANDI", operAccImm},
	0x4B: {"ORI", operAccImm},
	0x4C: {"XORI", operAccImm},
	0x4D: {"CMPI", operAccImm},
	0x4E: {"MUL", operRR},
	0x4F: {"NEG", operRD},
	0x50: {"INC", operRD},
	0x51: {"DEC", operRD},
	0x52: {"NOT", operRD},
	0x53: {"SHL", operRD},
	0x54: {"SHR", operRD},
	0x55: {"SAR", operRD},
	0x56: {"ROL", operRD},
	0x57: {"ROR", operRD},

	0xCB: {"", operCB},
	0xDD: {"", operDD},
}

var cbNames = [9]string{"BIT", "SET", "RES", "TST", "SHL", "SHR", "SAR", "ROL", "ROR"}
var ddNames = [4]string{"SWAP", "SXT", "LDF", "STF"}

type peeker interface {
	Peek8(addr uint16) uint8
}

// disasm decodes the instruction at pc without bus side effects.
func disasm(bus peeker, pc uint16) DisasmOp {
	op := bus.Peek8(pc)
	desc := disasmTable[op]
	if desc.name == "" && desc.kind != operCB && desc.kind != operDD {
		return DisasmOp{Opcode: "???", Buf: []byte{op}, PC: pc}
	}

	regs := bus.Peek8(pc + 1)
	rd, rs := int(regs>>4)&0x07, int(regs)&0x07
	imm16 := uint16(bus.Peek8(pc+2)) | uint16(bus.Peek8(pc+3))<<8
	a16 := uint16(bus.Peek8(pc+1)) | uint16(bus.Peek8(pc+2))<<8

	d := DisasmOp{Opcode: desc.name, PC: pc}
	raw := func(n uint16) {
		for i := uint16(0); i < n; i++ {
			d.Buf = append(d.Buf, bus.Peek8(pc+i))
		}
	}

	switch desc.kind {
	case operNone:
		raw(1)
	case operA16:
		raw(3)
		d.Oper = formatAddr(a16)
	case operIndJump:
		raw(2)
		d.Oper = fmt.Sprintf("[R%d]", rs)
	case operRel:
		raw(2)
		target := uint16(int32(pc) + 2 + int32(int8(regs)))
		d.Oper = fmt.Sprintf("$%04X", target)
	case operRS:
		raw(2)
		d.Oper = fmt.Sprintf("R%d", rs)
	case operRD:
		raw(2)
		d.Oper = fmt.Sprintf("R%d", rd)
	case operRR:
		raw(2)
		d.Oper = fmt.Sprintf("R%d, R%d", rd, rs)
	case operImm16:
		raw(4)
		d.Oper = fmt.Sprintf("R%d, #$%04X", rd, imm16)
	case operAbsLD:
		raw(4)
		d.Oper = fmt.Sprintf("R%d, [%s]", rd, formatAddr(imm16))
	case operAbsST:
		raw(4)
		d.Oper = fmt.Sprintf("[%s], R%d", formatAddr(imm16), rs)
	case operIndLD:
		raw(2)
		d.Oper = fmt.Sprintf("R%d, [R%d]", rd, rs)
	case operIndST:
		raw(2)
		d.Oper = fmt.Sprintf("[R%d], R%d", rd, rs)
	case operIdxLD:
		raw(3)
		d.Oper = fmt.Sprintf("R%d, [R%d%+d]", rd, rs, int8(bus.Peek8(pc+2)))
	case operIdxST:
		raw(3)
		d.Oper = fmt.Sprintf("[R%d%+d], R%d", rd, int8(bus.Peek8(pc+2)), rs)
	case operPostLD:
		raw(2)
		d.Oper = fmt.Sprintf("R%d, [R%d++]", rd, rs)
	case operPostST:
		raw(2)
		d.Oper = fmt.Sprintf("[R%d++], R%d", rd, rs)
	case operPreLD:
		raw(2)
		d.Oper = fmt.Sprintf("R%d, [--R%d]", rd, rs)
	case operPreST:
		raw(2)
		d.Oper = fmt.Sprintf("[--R%d], R%d", rd, rs)
	case operAccImm:
		raw(3)
		d.Oper = fmt.Sprintf("R0, #$%04X", a16)
	case operCB:
		raw(3)
		group := regs >> 4
		reg := int(regs) & 0x07
		imm := bus.Peek8(pc+2) & 0x0F
		if int(group) >= len(cbNames) {
			d.Opcode = "???"
			d.Oper = ""
			return d
		}
		d.Opcode = cbNames[group]
		d.Oper = fmt.Sprintf("R%d, %d", reg, imm)
	case operDD:
		raw(2)
		group := regs >> 4
		reg := int(regs) & 0x07
		if int(group) >= len(ddNames) {
			d.Opcode = "???"
			return d
		}
		d.Opcode = ddNames[group]
		d.Oper = fmt.Sprintf("R%d", reg)
	}
	return d
}
