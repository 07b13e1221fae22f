package hw

import (
	"testing"
)

func newTestBus(tb testing.TB, boot []byte) *Bus {
	tb.Helper()
	rom := makeTestRom(tb, []byte{0x01}, nil)
	bus := NewBus(rom)
	bus.MapCartridge(boot)
	return bus
}

func TestBootHandover(t *testing.T) {
	boot := make([]byte, bootSize)
	boot[0x100] = 0xAA
	bus := newTestBus(t, boot)

	if bus.HandoverDone() {
		t.Fatal("handover reported done before BOOTCTL write")
	}
	if got := bus.Read8(0x0100); got != 0xAA {
		t.Fatalf("[0100] = %02X, want AA (boot overlay)", got)
	}
	// The overlay is read-only like the rom underneath.
	if bus.Write8(0x0100, 0x55) {
		t.Error("write to boot overlay accepted")
	}

	bus.Write8(0xF000, 0x01)
	if !bus.HandoverDone() {
		t.Fatal("handover not performed")
	}
	if got := bus.Read8(0x0100); got != 0x00 {
		t.Fatalf("[0100] = %02X, want 00 (cartridge rom)", got)
	}

	// One-shot: clearing the bit does not bring the overlay back.
	bus.Write8(0xF000, 0x00)
	if !bus.HandoverDone() {
		t.Error("BOOTCTL cleared by a second write")
	}
}

func TestSLRAMLocksAtHandover(t *testing.T) {
	boot := make([]byte, bootSize)
	bus := newTestBus(t, boot)

	if !bus.Write8(0xE800, 0x42) {
		t.Fatal("SLRAM write rejected before handover")
	}
	bus.Write8(0xF000, 0x01)

	if bus.Write8(0xE802, 0x43) {
		t.Error("SLRAM write accepted after handover")
	}
	// Contents survive the lock.
	if got := bus.Read8(0xE800); got != 0x42 {
		t.Errorf("[E800] = %02X, want 42", got)
	}
}

func TestROMXBankSwitch(t *testing.T) {
	// 128K image, 8 banks. Mark the first byte of each switchable bank.
	rom := makeSizedRom(t, 2, []byte{0x01}, func(img []byte) {
		for bank := 1; bank < 8; bank++ {
			img[bank*romBankSize] = 0xB0 + uint8(bank)
		}
	})
	bus := NewBus(rom)
	bus.MapCartridge(nil)

	if got := bus.Read8(0x4000); got != 0xB1 {
		t.Fatalf("[4000] = %02X, want B1 (bank 1 at reset)", got)
	}

	bus.Write8(0xF001, 3)
	if got := bus.Read8(0x4000); got != 0xB3 {
		t.Fatalf("[4000] = %02X, want B3", got)
	}

	// Bank number is masked to the cartridge bank count.
	bus.Write8(0xF001, 8+2)
	if got := bus.Read8(0x4000); got != 0xB2 {
		t.Fatalf("[4000] = %02X, want B2 (bank 10 masked to 2)", got)
	}
	if bus.ROMBANK.Value != 2 {
		t.Errorf("ROMBANK reads back %d, want masked 2", bus.ROMBANK.Value)
	}
}

func TestWRAMXBankZeroSelectsOne(t *testing.T) {
	bus := newTestBus(t, nil)

	bus.Write8(0xD000, 0x11) // bank 1 at reset
	bus.Write8(0xF004, 2)
	bus.Write8(0xD000, 0x22)
	bus.Write8(0xF004, 0) // 0 behaves as 1
	if got := bus.Read8(0xD000); got != 0x11 {
		t.Fatalf("[D000] = %02X, want 11 (bank 0 aliases bank 1)", got)
	}
	bus.Write8(0xF004, 2)
	if got := bus.Read8(0xD000); got != 0x22 {
		t.Fatalf("[D000] = %02X, want 22", got)
	}

	// WRAM0 is fixed and unaffected by the window register.
	bus.Write8(0xC123, 0x77)
	bus.Write8(0xF004, 5)
	if got := bus.Read8(0xC123); got != 0x77 {
		t.Errorf("[C123] = %02X, want 77", got)
	}
}

func TestVRAMBankSwitch(t *testing.T) {
	bus := newTestBus(t, nil)

	bus.Write8(0x8000, 0xA0)
	bus.Write8(0xF002, 1)
	if got := bus.Read8(0x8000); got != 0x00 {
		t.Fatalf("[8000] = %02X, want 00 (fresh bank 1)", got)
	}
	bus.Write8(0x8000, 0xA1)
	bus.Write8(0xF002, 0)
	if got := bus.Read8(0x8000); got != 0xA0 {
		t.Fatalf("[8000] = %02X, want A0 (bank 0 restored)", got)
	}

	// Both banks live in the same physical array the PPU sees.
	if bus.VRAM[0] != 0xA0 || bus.VRAM[0x2000] != 0xA1 {
		t.Errorf("VRAM phys = %02X/%02X, want A0/A1", bus.VRAM[0], bus.VRAM[0x2000])
	}
}

func TestSRAMWindow(t *testing.T) {
	bus := newTestBus(t, nil) // header declares 8K ram: a single window

	if !bus.Write8(0xA000, 0x5A) {
		t.Fatal("SRAM write rejected")
	}
	if got := bus.Read8(0xA000); got != 0x5A {
		t.Fatalf("[A000] = %02X, want 5A", got)
	}
	if bus.SRAM[0] != 0x5A {
		t.Errorf("SRAM[0] = %02X, want 5A", bus.SRAM[0])
	}
}

func TestROMWriteBlocked(t *testing.T) {
	bus := newTestBus(t, nil)
	if bus.Write8(0x1234, 0xFF) {
		t.Error("ROM0 write accepted")
	}
	if bus.Write8(0x5678, 0xFF) {
		t.Error("ROMX write accepted")
	}
}

func TestUnmappedReadsZero(t *testing.T) {
	bus := newTestBus(t, nil)
	for _, addr := range []uint16{0xEC00, 0xEFFF, 0xF0FF} {
		if got := bus.Read8(addr); got != 0 {
			t.Errorf("[%04X] = %02X, want 00", addr, got)
		}
	}
}

func TestEchoRegionIsDelayLine(t *testing.T) {
	bus := newTestBus(t, nil)

	bus.Write8(0xE000, 0x12)
	bus.Write8(0xE3FF, 0x34)
	if bus.Echo.Data[0] != 0x12 || bus.Echo.Data[0x3FF] != 0x34 {
		t.Fatalf("echo backing = %02X/%02X, want 12/34",
			bus.Echo.Data[0], bus.Echo.Data[0x3FF])
	}
}
