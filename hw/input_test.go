package hw

import (
	"testing"

	"halcyon/hw/hwdefs"
	"halcyon/hw/hwio"
)

type stubInput uint8

func (s stubInput) LoadState() uint8 { return uint8(s) }

func TestPadPollRaisesOnPress(t *testing.T) {
	bus := newTestBus(t, nil)
	ints := &IntCtrl{}
	hwio.MustInitRegs(ints)
	p := NewPad(bus, ints)

	p.SetDevice(stubInput(0x03))
	p.Poll()
	if got := bus.Read8(0xF0E0); got != 0x03 {
		t.Fatalf("PAD = %02X, want 03", got)
	}
	if ints.IF.Value&uint8(hwdefs.Pad) == 0 {
		t.Fatal("press did not raise the pad interrupt")
	}

	// Held buttons do not retrigger.
	ints.IF.Value = 0
	p.Poll()
	if ints.IF.Value != 0 {
		t.Error("held buttons retriggered the interrupt")
	}

	// Release then press again does.
	p.SetDevice(stubInput(0x00))
	p.Poll()
	p.SetDevice(stubInput(0x80))
	p.Poll()
	if ints.IF.Value&uint8(hwdefs.Pad) == 0 {
		t.Error("second press did not raise the interrupt")
	}
}

func TestPadRegisterReadOnly(t *testing.T) {
	bus := newTestBus(t, nil)
	ints := &IntCtrl{}
	hwio.MustInitRegs(ints)
	p := NewPad(bus, ints)
	p.SetDevice(stubInput(0x10))
	p.Poll()

	if !bus.Write8(0xF0E0, 0xFF) {
		t.Fatal("PAD write rejected at the bus level")
	}
	if got := bus.Read8(0xF0E0); got != 0x10 {
		t.Errorf("PAD = %02X after write, want 10", got)
	}
}

func TestSerialStubLatches(t *testing.T) {
	bus := newTestBus(t, nil)
	ints := &IntCtrl{}
	hwio.MustInitRegs(ints)
	NewPad(bus, ints)

	bus.Write8(0xF0E2, 0xA5)
	if got := bus.Read8(0xF0E2); got != 0xA5 {
		t.Errorf("SERIALDATA = %02X, want A5", got)
	}
	bus.Write8(0xF0E3, 0xFF)
	if got := bus.Read8(0xF0E3); got != 0x03 {
		t.Errorf("SERIALCTL = %02X, want 03 (masked)", got)
	}
}
