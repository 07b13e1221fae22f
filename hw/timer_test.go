package hw

import (
	"testing"

	"halcyon/hw/hwdefs"
	"halcyon/hw/hwio"
)

func newTestTimers(tb testing.TB) (*Timers, *IntCtrl, *Bus) {
	tb.Helper()
	bus := newTestBus(tb, nil)
	ints := &IntCtrl{}
	hwio.MustInitRegs(ints)
	bus.Table.MapBank(0xF010, ints, 0)
	return NewTimers(bus, ints), ints, bus
}

func TestDividerByteReads(t *testing.T) {
	tm, _, bus := newTestTimers(t)

	tm.Run(0x0000_0403)
	if got := bus.Read8(0xF020); got != 0x03 {
		t.Errorf("DIV[0] = %02X, want 03", got)
	}
	if got := bus.Read8(0xF021); got != 0x04 {
		t.Errorf("DIV[1] = %02X, want 04", got)
	}
	if got := bus.Read8(0xF022); got != 0x00 {
		t.Errorf("DIV[2] = %02X, want 00", got)
	}

	// Read-only: the write is accepted and dropped.
	if !bus.Write8(0xF020, 0xFF) {
		t.Fatal("DIV write rejected at the bus level")
	}
	if got := bus.Read8(0xF020); got != 0x03 {
		t.Errorf("DIV[0] after write = %02X, want 03", got)
	}
}

func TestTimerTapRates(t *testing.T) {
	// One counter increment per falling edge of the tap bit, so one per
	// 2^(bit+1) divider steps.
	tests := []struct {
		sel  uint8
		step int64
	}{
		{0, 1024}, // bit 9
		{1, 16},   // bit 3
		{2, 64},   // bit 5
		{3, 256},  // bit 7
	}
	for _, tt := range tests {
		tm, _, bus := newTestTimers(t)
		bus.Write8(0xF026, 0x01|tt.sel<<1)

		tm.Run(tt.step * 10)
		if got := bus.Read8(0xF024); got != 10 {
			t.Errorf("sel=%d: CNT = %d after %d cycles, want 10",
				tt.sel, got, tt.step*10)
		}
	}
}

func TestTimerBatchedAdvance(t *testing.T) {
	tm, _, bus := newTestTimers(t)
	bus.Write8(0xF026, 0x03) // enable, tap bit 3

	// A single large Run must count every edge in the span, not just one.
	tm.Run(16 * 37)
	if got := bus.Read8(0xF024); got != 37 {
		t.Fatalf("CNT = %d, want 37", got)
	}
	// And partial spans carry: 8 more cycles crosses no edge.
	tm.Run(16*37 + 8)
	if got := bus.Read8(0xF024); got != 37 {
		t.Fatalf("CNT = %d after partial span, want 37", got)
	}
	tm.Run(16 * 38)
	if got := bus.Read8(0xF024); got != 38 {
		t.Fatalf("CNT = %d, want 38", got)
	}
}

func TestTimerDisabledHolds(t *testing.T) {
	tm, _, bus := newTestTimers(t)
	bus.Write8(0xF024, 5)

	tm.Run(100000)
	if got := bus.Read8(0xF024); got != 5 {
		t.Errorf("CNT = %d with timer disabled, want 5", got)
	}
}

func TestTimerOverflowReload(t *testing.T) {
	tm, ints, bus := newTestTimers(t)
	bus.Write8(0xF025, 0xF0) // MOD: period of 16 edges
	bus.Write8(0xF024, 0xFE)
	bus.Write8(0xF026, 0x03) // enable, tap bit 3

	tm.Run(16 * 2) // FE -> FF -> overflow
	if got := bus.Read8(0xF024); got != 0xF0 {
		t.Fatalf("CNT = %02X after overflow, want F0 (reload)", got)
	}
	if ints.IF.Value&uint8(hwdefs.Timer0) == 0 {
		t.Fatal("overflow did not raise the timer interrupt")
	}

	// Overshoot past the overflow wraps modulo the reload period.
	bus.Write8(0xF011, 0xFF) // ack
	tm.Run(16 * (2 + 16 + 3))
	if got := bus.Read8(0xF024); got != 0xF3 {
		t.Errorf("CNT = %02X, want F3 (F0 + 3 past second overflow)", got)
	}
}

func TestSecondTimerIndependent(t *testing.T) {
	tm, ints, bus := newTestTimers(t)
	bus.Write8(0xF026, 0x03) // timer 0, tap bit 3
	bus.Write8(0xF02A, 0x05) // timer 1, tap bit 5

	tm.Run(64 * 4)
	if got := bus.Read8(0xF024); got != 16 {
		t.Errorf("Timer0 CNT = %d, want 16", got)
	}
	if got := bus.Read8(0xF028); got != 4 {
		t.Errorf("Timer1 CNT = %d, want 4", got)
	}

	bus.Write8(0xF029, 0xFC) // MOD
	bus.Write8(0xF028, 0xFF)
	tm.Run(64 * 5)
	if got := bus.Read8(0xF028); got != 0xFC {
		t.Errorf("Timer1 CNT = %02X after overflow, want FC", got)
	}
	if ints.IF.Value&uint8(hwdefs.Timer1) == 0 {
		t.Error("Timer1 overflow did not raise its interrupt")
	}
	if ints.IF.Value&uint8(hwdefs.Timer0) != 0 {
		t.Error("Timer1 overflow raised the Timer0 interrupt")
	}
}

func TestTimersReset(t *testing.T) {
	tm, _, bus := newTestTimers(t)
	bus.Write8(0xF026, 0x03)
	tm.Run(16 * 7)

	tm.Reset()
	if got := bus.Read8(0xF024); got != 0 {
		t.Errorf("CNT = %d after reset, want 0", got)
	}
	if got := bus.Read8(0xF020); got != 0 {
		t.Errorf("DIV = %02X after reset, want 0", got)
	}
}
