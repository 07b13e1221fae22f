package hw

import (
	"halcyon/emu/log"
	"halcyon/hw/hwdefs"
	"halcyon/hw/hwio"
)

// DMA transfer modes (DMACTL bits 0-2).
const (
	DMAGeneral = iota
	DMAToVRAM
	DMAToOAM
	DMAToCRAM
	DMAToWaveRAM
	DMAFill
)

// DMA is the block transfer engine at F0C0. Transfers run at instruction
// boundaries with the CPU frozen; the other units advance by the full
// transfer cost.
type DMA struct {
	CPU  *CPU
	Bus  *Bus
	Ints *IntCtrl

	// WaveRAM aliases the APU sample memory for mode 4 transfers.
	WaveRAM []byte

	SRC hwio.Reg16 `hwio:"offset=0"`
	DST hwio.Reg16 `hwio:"offset=2"`
	LEN hwio.Reg16 `hwio:"offset=4"`
	CTL hwio.Reg8  `hwio:"offset=6,rwmask=0x8F,wcb"`

	pending bool
}

func NewDMA(cpu *CPU, bus *Bus) *DMA {
	d := &DMA{
		CPU:  cpu,
		Bus:  bus,
		Ints: &cpu.Ints,
	}
	hwio.MustInitRegs(d)
	bus.Table.MapBank(0xF0C0, d, 0)
	cpu.DMA = d
	return d
}

func (d *DMA) WriteCTL(old, val uint8) {
	if val&0x80 != 0 {
		d.pending = true
	}
}

func (d *DMA) gated() bool { return d.CTL.Value&0x08 != 0 }

func (d *DMA) mode() int {
	m := int(d.CTL.Value & 0x07)
	if m > DMAFill {
		m = DMAGeneral // reserved modes behave as general
	}
	return m
}

// process runs a requested transfer, reporting whether one took place.
// A gated transfer stays deferred (START reads back 1) until the PPU is
// in HBlank or VBlank.
func (d *DMA) process() bool {
	if !d.pending {
		return false
	}
	if d.gated() && d.CPU.PPU != nil && d.CPU.PPU.Mode() >= ModeOAMScan {
		return false
	}

	mode := d.mode()
	src := d.SRC.Value
	dst := d.DST.Value
	length := int(d.LEN.Value)

	costPerByte := int64(2)
	if mode == DMAGeneral {
		costPerByte = 4
	}

	switch mode {
	case DMAGeneral:
		for i := range length {
			d.Bus.Write8(dst+uint16(i), d.Bus.Read8(src+uint16(i)))
		}
	case DMAToVRAM:
		for i := range length {
			off := (int(dst) + i) & (vramPhysSize - 1)
			d.Bus.VRAM[off] = d.Bus.Read8(src + uint16(i))
		}
	case DMAToOAM:
		for i := range length {
			d.Bus.OAM.Data[(int(dst)+i)&0x1FF] = d.Bus.Read8(src + uint16(i))
		}
	case DMAToCRAM:
		for i := range length {
			d.Bus.CRAM.Data[(int(dst)+i)&0x1FF] = d.Bus.Read8(src + uint16(i))
		}
	case DMAToWaveRAM:
		for i := range length {
			d.WaveRAM[(int(dst)+i)&0x1F] = d.Bus.Read8(src + uint16(i))
		}
	case DMAFill:
		fill := uint8(src)
		for i := range length {
			d.Bus.Write8(dst+uint16(i), fill)
		}
	}

	log.ModDMA.DebugZ("transfer done").
		Int("mode", mode).
		Hex16("src", src).
		Hex16("dst", dst).
		Int("len", length).
		End()

	d.pending = false
	d.CTL.Value &^= 0x80
	d.Ints.Raise(hwdefs.DMA)
	d.CPU.tick(int64(length) * costPerByte)
	return true
}
