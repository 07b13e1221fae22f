package hw

import (
	"testing"

	"halcyon/hw/hwdefs"
	"halcyon/hw/hwio"
)

func newTestDMA(tb testing.TB) (*DMA, *CPU) {
	tb.Helper()
	cpu := newTestCPU(tb, []byte{0x01})
	return NewDMA(cpu, cpu.Bus), cpu
}

func startDMA(d *DMA, src, dst, length uint16, ctl uint8) {
	t := d.Bus.Table
	hwio.Write16(t, 0xF0C0, src)
	hwio.Write16(t, 0xF0C2, dst)
	hwio.Write16(t, 0xF0C4, length)
	t.Write8(0xF0C6, 0x80|ctl)
}

func TestDMAGeneralTransfer(t *testing.T) {
	d, cpu := newTestDMA(t)
	for i := range 256 {
		cpu.Bus.Write8(0xC000+uint16(i), uint8(i)^0x5A)
	}
	start := cpu.Cycles

	startDMA(d, 0xC000, 0xC400, 256, DMAGeneral)
	if !d.process() {
		t.Fatal("transfer did not run")
	}

	for i := range 256 {
		if got := cpu.Bus.Read8(0xC400 + uint16(i)); got != uint8(i)^0x5A {
			t.Fatalf("[%04X] = %02X, want %02X", 0xC400+i, got, uint8(i)^0x5A)
		}
	}
	if cost := cpu.Cycles - start; cost != 256*4 {
		t.Errorf("transfer cost %d cycles, want %d", cost, 256*4)
	}
	if d.CTL.Value&0x80 != 0 {
		t.Error("START bit still set after transfer")
	}
	if cpu.Ints.IF.Value&uint8(hwdefs.DMA) == 0 {
		t.Error("completion interrupt not raised")
	}
	// No pending work left.
	if d.process() {
		t.Error("second process ran without a new start")
	}
}

func TestDMAFillMode(t *testing.T) {
	d, cpu := newTestDMA(t)
	start := cpu.Cycles

	// Fill takes its value from the low byte of SRC.
	startDMA(d, 0x00E7, 0xC100, 32, DMAFill)
	d.process()

	for i := range 32 {
		if got := cpu.Bus.Read8(0xC100 + uint16(i)); got != 0xE7 {
			t.Fatalf("[%04X] = %02X, want E7", 0xC100+i, got)
		}
	}
	if cost := cpu.Cycles - start; cost != 32*2 {
		t.Errorf("fill cost %d cycles, want %d", cost, 32*2)
	}
}

func TestDMAToVRAMWritesPhysical(t *testing.T) {
	d, cpu := newTestDMA(t)
	cpu.Bus.Write8(0xC000, 0x11)
	cpu.Bus.Write8(0xC001, 0x22)

	// Mode 1 destinations are physical VRAM offsets, so bank 1 is
	// reachable whatever the CPU window selects.
	startDMA(d, 0xC000, 0x2000, 2, DMAToVRAM)
	d.process()

	if cpu.Bus.VRAM[0x2000] != 0x11 || cpu.Bus.VRAM[0x2001] != 0x22 {
		t.Errorf("VRAM[2000..] = %02X %02X, want 11 22",
			cpu.Bus.VRAM[0x2000], cpu.Bus.VRAM[0x2001])
	}
}

func TestDMAToOAMWraps(t *testing.T) {
	d, cpu := newTestDMA(t)
	cpu.Bus.Write8(0xC000, 0xAB)
	cpu.Bus.Write8(0xC001, 0xCD)

	startDMA(d, 0xC000, 0x01FF, 2, DMAToOAM)
	d.process()

	if cpu.Bus.OAM.Data[0x1FF] != 0xAB || cpu.Bus.OAM.Data[0] != 0xCD {
		t.Errorf("OAM wrap = %02X %02X, want AB CD",
			cpu.Bus.OAM.Data[0x1FF], cpu.Bus.OAM.Data[0])
	}
}

func TestDMAToWaveRAM(t *testing.T) {
	d, cpu := newTestDMA(t)
	d.WaveRAM = make([]byte, 0x20)
	for i := range 32 {
		cpu.Bus.Write8(0xC000+uint16(i), uint8(0x80+i))
	}

	startDMA(d, 0xC000, 0x0000, 32, DMAToWaveRAM)
	d.process()

	for i := range 32 {
		if d.WaveRAM[i] != uint8(0x80+i) {
			t.Fatalf("WaveRAM[%d] = %02X, want %02X", i, d.WaveRAM[i], 0x80+i)
		}
	}
}

func TestDMAGeneralDropsBlockedWrites(t *testing.T) {
	d, cpu := newTestDMA(t)
	cpu.Bus.Write8(0xC000, 0xFF)

	// A general transfer aimed at rom is silently dropped, it never
	// becomes a fault.
	startDMA(d, 0xC000, 0x1000, 1, DMAGeneral)
	if !d.process() {
		t.Fatal("transfer did not run")
	}
	if got := cpu.Bus.Read8(0x1000); got == 0xFF {
		t.Error("rom contents overwritten")
	}
}

func TestDMAGateDefersToBlanking(t *testing.T) {
	d, cpu := newTestDMA(t)
	cpu.PPU = NewPPU(cpu.Bus, &cpu.Ints)
	cpu.Bus.Write8(0xC000, 0x42)

	startDMA(d, 0xC000, 0xC100, 1, DMAGeneral|0x08)
	if got := cpu.PPU.Mode(); got != ModeOAMScan {
		t.Fatalf("PPU mode = %d at frame start, want %d", got, ModeOAMScan)
	}
	if d.process() {
		t.Fatal("gated transfer ran during OAM scan")
	}
	if d.CTL.Value&0x80 == 0 {
		t.Fatal("deferred transfer lost its START bit")
	}

	// Reach HBlank on line 0, then the transfer goes through.
	cpu.tick(dotsOAMScan + dotsDraw)
	if got := cpu.PPU.Mode(); got != ModeHBlank {
		t.Fatalf("PPU mode = %d, want %d", got, ModeHBlank)
	}
	if !d.process() {
		t.Fatal("gated transfer still deferred in HBlank")
	}
	if got := cpu.Bus.Read8(0xC100); got != 0x42 {
		t.Errorf("[C100] = %02X, want 42", got)
	}
}

func TestDMAReservedModeActsAsGeneral(t *testing.T) {
	d, cpu := newTestDMA(t)
	cpu.Bus.Write8(0xC000, 0x99)

	startDMA(d, 0xC000, 0xC200, 1, 0x07)
	d.process()
	if got := cpu.Bus.Read8(0xC200); got != 0x99 {
		t.Errorf("[C200] = %02X, want 99", got)
	}
}
