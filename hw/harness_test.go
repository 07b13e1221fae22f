package hw

import (
	"bytes"
	"testing"

	"halcyon/cart"
)

// faultHandlerBase is where makeTestRom plants one HALT handler per vector.
const faultHandlerBase = 0x0400

// testEntry is the program counter loaded from the reset vector.
const testEntry = 0x0200

func handlerAddr(vec int) uint16 {
	return faultHandlerBase + uint16(vec)*0x20
}

// makeTestRom builds a valid 32K cartridge image: program at testEntry,
// every vector pointing at its own HALT handler.
func makeTestRom(tb testing.TB, program []byte, mutate func(img []byte)) *cart.Rom {
	tb.Helper()
	return makeSizedRom(tb, 0, program, mutate)
}

// makeSizedRom is makeTestRom with a chosen ROM size code (32K << code).
func makeSizedRom(tb testing.TB, code uint8, program []byte, mutate func(img []byte)) *cart.Rom {
	tb.Helper()

	img := make([]byte, 0x8000<<code)
	copy(img, cart.Magic)
	copy(img[0x04:], "TESTCART")
	img[0x15] = code
	img[0x16] = 1 // 8K ram
	img[0x18] = uint8(testEntry & 0xff)
	img[0x19] = uint8(testEntry >> 8)

	for vec := 0; vec < 16; vec++ {
		target := handlerAddr(vec)
		if vec == 0 {
			target = testEntry
		}
		img[0x40+2*vec] = uint8(target)
		img[0x40+2*vec+1] = uint8(target >> 8)
		img[handlerAddr(vec)] = 0x01 // HALT
	}

	copy(img[testEntry:], program)
	if mutate != nil {
		mutate(img)
	}

	var hsum uint8
	img[0x1A] = 0
	for _, b := range img[:0x1B] {
		hsum += b
	}
	img[0x1A] = -hsum

	img[0x1C], img[0x1D] = 0, 0
	var sum uint16
	for _, b := range img {
		sum += uint16(b)
	}
	img[0x1C] = uint8(sum)
	img[0x1D] = uint8(sum >> 8)

	rom := new(cart.Rom)
	if _, err := rom.ReadFrom(bytes.NewReader(img)); err != nil {
		tb.Fatalf("test rom rejected: %v", err)
	}
	return rom
}

// newTestCPU builds a bus+cpu pair running the given program, stack in
// WRAM0, no boot rom.
func newTestCPU(tb testing.TB, program []byte) *CPU {
	tb.Helper()
	rom := makeTestRom(tb, program, nil)
	bus := NewBus(rom)
	bus.MapCartridge(nil)
	cpu := NewCPU(bus)
	cpu.Reset(false)
	cpu.R[7] = 0xD000
	return cpu
}

// runToHalt executes until the CPU halts, failing the test if it does not
// within maxCycles.
func runToHalt(tb testing.TB, c *CPU, maxCycles int64) {
	tb.Helper()
	limit := c.Cycles + maxCycles
	for c.Cycles < limit {
		c.Run(c.Cycles + 4)
		if c.IsHalted() {
			return
		}
	}
	tb.Fatalf("CPU did not halt within %d cycles (PC=%04X)", maxCycles, c.PC)
}
