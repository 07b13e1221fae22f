package hw

import (
	"halcyon/cart"
	"halcyon/emu/log"
	"halcyon/hw/hwio"
)

// Physical memory sizes. The bus windows expose slices of these.
const (
	vramPhysSize = 0x4000 // 2 banks of 8K
	wramPhysSize = 0x8000 // 8 banks of 4K, bank 0 fixed at C000
	romBankSize  = 0x4000
	sramWinSize  = 0x2000
	bootSize     = 0x0800
)

// Bus is the 64K address decoder seen by the CPU and the general-mode DMA
// engine. It owns the physical memories and the bank window registers at
// F000, and tracks the boot overlay handover.
type Bus struct {
	Table *hwio.Table

	BOOTCTL  hwio.Reg8 `hwio:"offset=0x00,rwmask=0x01,wcb"`
	ROMBANK  hwio.Reg8 `hwio:"offset=0x01,reset=1,wcb"`
	VRAMBANK hwio.Reg8 `hwio:"offset=0x02,rwmask=0x01,wcb"`
	SRAMBANK hwio.Reg8 `hwio:"offset=0x03,wcb"`
	WRAMBANK hwio.Reg8 `hwio:"offset=0x04,reset=1,rwmask=0x07,wcb"`
	STKBASE  hwio.Reg8 `hwio:"offset=0x05"`

	Echo  hwio.Mem `hwio:"offset=0xE000,bank=1,size=0x400"` // the APU delay line, CPU-addressable
	CRAM  hwio.Mem `hwio:"offset=0xE400,bank=1,size=0x200"`
	OAM   hwio.Mem `hwio:"offset=0xE600,bank=1,size=0x200"`
	SLRAM hwio.Mem `hwio:"offset=0xE800,bank=1,size=0x400"`
	HRAM  hwio.Mem `hwio:"offset=0xFF00,bank=1,size=0x100"`

	VRAM [vramPhysSize]byte
	WRAM [wramPhysSize]byte
	SRAM []byte // cartridge ram, sized per header, nil when absent

	rom      *cart.Rom
	boot     []byte // boot overlay, nil once handed over
	romBanks int
	sramWins int
}

func NewBus(rom *cart.Rom) *Bus {
	b := &Bus{
		Table:    hwio.NewTable("bus"),
		rom:      rom,
		romBanks: rom.ROMSize() / romBankSize,
	}
	if n := rom.RAMSize(); n > 0 {
		b.SRAM = make([]byte, n)
		b.sramWins = n / sramWinSize
	}
	hwio.MustInitRegs(b)
	return b
}

// MapCartridge lays out the whole address space. boot, when non-nil, is the
// 2K boot program overlaid on 0000-07FF until the handover write to BOOTCTL;
// when nil the handover is performed immediately and PC starts at the
// cartridge entry point.
func (b *Bus) MapCartridge(boot []byte) {
	if boot != nil && len(boot) != bootSize {
		log.ModMem.FatalZ("bad boot rom size").Int("size", len(boot)).End()
	}
	b.boot = boot

	if b.boot != nil {
		b.Table.MapMemorySlice(0x0000, 0x07FF, b.boot, true)
	} else {
		b.Table.MapMemorySlice(0x0000, 0x07FF, b.rom.Data[:0x0800], true)
	}
	// ROM0 body in power of two chunks, the overlay swap only touches
	// the first 2K.
	b.Table.MapMemorySlice(0x0800, 0x0FFF, b.rom.Data[0x0800:0x1000], true)
	b.Table.MapMemorySlice(0x1000, 0x1FFF, b.rom.Data[0x1000:0x2000], true)
	b.Table.MapMemorySlice(0x2000, 0x3FFF, b.rom.Data[0x2000:0x4000], true)

	b.mapROMX(1)
	b.mapVRAM(0)
	if b.SRAM != nil {
		b.mapSRAM(0)
	}
	b.Table.MapMemorySlice(0xC000, 0xCFFF, b.WRAM[:0x1000], false)
	b.mapWRAMX(1)

	b.Table.MapBank(0xF000, b, 0)
	b.Table.MapBank(0x0000, b, 1)

	if b.boot == nil {
		b.handover()
	}
}

// HandoverDone reports whether system software already tripped BOOTCTL.
func (b *Bus) HandoverDone() bool {
	return b.BOOTCTL.Value&0x01 != 0
}

// handover unmaps the boot overlay and locks SLRAM, in one step.
func (b *Bus) handover() {
	if b.HandoverDone() {
		return
	}
	log.ModMem.InfoZ("boot handover").End()

	if b.boot != nil {
		b.Table.Unmap(0x0000, 0x07FF)
		b.Table.MapMemorySlice(0x0000, 0x07FF, b.rom.Data[:0x0800], true)
		b.boot = nil
	}
	b.Table.Unmap(0xE800, 0xEBFF)
	b.Table.MapMemorySlice(0xE800, 0xEBFF, b.SLRAM.Data, true)

	b.BOOTCTL.Value = 0x01
}

func (b *Bus) WriteBOOTCTL(old, val uint8) {
	if old&0x01 != 0 {
		// one-shot, later writes are ignored
		b.BOOTCTL.Value = old
		return
	}
	if val&0x01 != 0 {
		b.handover()
	}
}

func (b *Bus) mapROMX(bank int) {
	bank &= b.romBanks - 1
	b.Table.Unmap(0x4000, 0x7FFF)
	off := bank * romBankSize
	b.Table.MapMemorySlice(0x4000, 0x7FFF, b.rom.Data[off:off+romBankSize], true)
}

func (b *Bus) mapVRAM(bank int) {
	b.Table.Unmap(0x8000, 0x9FFF)
	off := bank * 0x2000
	b.Table.MapMemorySlice(0x8000, 0x9FFF, b.VRAM[off:off+0x2000], false)
}

func (b *Bus) mapSRAM(bank int) {
	bank &= b.sramWins - 1
	b.Table.Unmap(0xA000, 0xBFFF)
	off := bank * sramWinSize
	b.Table.MapMemorySlice(0xA000, 0xBFFF, b.SRAM[off:off+sramWinSize], false)
}

func (b *Bus) mapWRAMX(bank int) {
	if bank == 0 {
		bank = 1
	}
	b.Table.Unmap(0xD000, 0xDFFF)
	off := bank * 0x1000
	b.Table.MapMemorySlice(0xD000, 0xDFFF, b.WRAM[off:off+0x1000], false)
}

func (b *Bus) WriteROMBANK(old, val uint8) {
	b.ROMBANK.Value = val & uint8(b.romBanks-1)
	b.mapROMX(int(b.ROMBANK.Value))
	log.ModMem.DebugZ("select ROMX bank").Uint8("bank", b.ROMBANK.Value).End()
}

func (b *Bus) WriteVRAMBANK(old, val uint8) {
	b.mapVRAM(int(b.VRAMBANK.Value))
}

func (b *Bus) WriteSRAMBANK(old, val uint8) {
	if b.SRAM == nil {
		return
	}
	b.SRAMBANK.Value = val & uint8(b.sramWins-1)
	b.mapSRAM(int(b.SRAMBANK.Value))
}

func (b *Bus) WriteWRAMBANK(old, val uint8) {
	if b.WRAMBANK.Value == 0 {
		b.WRAMBANK.Value = 1
	}
	b.mapWRAMX(int(b.WRAMBANK.Value))
}

func (b *Bus) Read8(addr uint16) uint8       { return b.Table.Read8(addr) }
func (b *Bus) Peek8(addr uint16) uint8       { return b.Table.Peek8(addr) }
func (b *Bus) Write8(addr uint16, v uint8) bool { return b.Table.Write8(addr, v) }
