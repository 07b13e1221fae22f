package emu

import (
	"bytes"
	"fmt"
	"runtime"
	"testing"

	"golang.org/x/sync/errgroup"

	"halcyon/cart"
	"halcyon/hw"
)

const testEntry = 0x0200

// makeConsoleRom builds a valid 32K cartridge image with the program at
// testEntry and every vector pointing at a HALT handler.
func makeConsoleRom(program []byte) (*cart.Rom, error) {
	img := make([]byte, 0x8000)
	copy(img, cart.Magic)
	copy(img[0x04:], "CONSOLETEST")
	img[0x16] = 1 // 8K ram
	img[0x18] = uint8(testEntry & 0xff)
	img[0x19] = uint8(testEntry >> 8)

	for vec := 0; vec < 16; vec++ {
		target := 0x0400 + uint16(vec)*0x20
		if vec == 0 {
			target = testEntry
		}
		img[0x40+2*vec] = uint8(target)
		img[0x40+2*vec+1] = uint8(target >> 8)
		img[target] = 0x01 // HALT
	}

	copy(img[testEntry:], program)

	var hsum uint8
	for _, b := range img[:0x1B] {
		hsum += b
	}
	img[0x1A] = -hsum

	var sum uint16
	for _, b := range img {
		sum += uint16(b)
	}
	img[0x1C] = uint8(sum)
	img[0x1D] = uint8(sum >> 8)

	rom := new(cart.Rom)
	if _, err := rom.ReadFrom(bytes.NewReader(img)); err != nil {
		return nil, err
	}
	return rom, nil
}

// storeProgram stores marker at 0xC100 then halts.
func storeProgram(marker uint16) []byte {
	return []byte{
		0x21, 0x10, 0x00, 0xC1, // LD R1, #$C100
		0x21, 0x00, uint8(marker), uint8(marker >> 8), // LD R0, #marker
		0x29, 0x10, // ST [R1++], R0
		0x01, // HALT
	}
}

func TestConsoleRunOneFrame(t *testing.T) {
	rom, err := makeConsoleRom(storeProgram(0xBEEF))
	if err != nil {
		t.Fatal(err)
	}
	c, err := PowerUp(rom, nil)
	if err != nil {
		t.Fatal(err)
	}

	video := make([]byte, hw.ScreenWidth*hw.ScreenHeight*4)
	c.RunOneFrame(hw.Frame{Video: video})

	if c.PPU.FrameCount != 1 {
		t.Fatalf("FrameCount = %d, want 1", c.PPU.FrameCount)
	}
	if !c.CPU.IsHalted() {
		t.Fatalf("program still running after a full frame (PC=%04X)", c.CPU.PC)
	}
	lo, hi := c.Bus.Read8(0xC100), c.Bus.Read8(0xC101)
	if got := uint16(lo) | uint16(hi)<<8; got != 0xBEEF {
		t.Fatalf("marker = %04X, want BEEF", got)
	}
	// Backdrop pixels are opaque.
	if video[3] != 0xFF {
		t.Fatalf("first pixel alpha = %02X, want FF", video[3])
	}
}

func TestConsoleSoftResetKeepsWRAM(t *testing.T) {
	rom, err := makeConsoleRom(storeProgram(0x1234))
	if err != nil {
		t.Fatal(err)
	}
	c, err := PowerUp(rom, nil)
	if err != nil {
		t.Fatal(err)
	}
	c.RunOneFrame(hw.Frame{})

	c.Reset(true)
	if got := c.Bus.Read8(0xC100); got != 0x34 {
		t.Fatalf("WRAM after soft reset = %02X, want 34", got)
	}
	if c.CPU.PC != testEntry {
		t.Fatalf("PC after reset = %04X, want %04X", c.CPU.PC, testEntry)
	}
}

// Consoles are self-contained: several instances can run on different
// goroutines without sharing state.
func TestConsolesRunIndependently(t *testing.T) {
	const nconsoles = 8

	consoles := make([]*Console, nconsoles)
	for i := range consoles {
		rom, err := makeConsoleRom(storeProgram(uint16(0x1000 + i)))
		if err != nil {
			t.Fatal(err)
		}
		if consoles[i], err = PowerUp(rom, nil); err != nil {
			t.Fatal(err)
		}
	}

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())

	for i, c := range consoles {
		want := uint16(0x1000 + i)
		g.Go(func() error {
			c.RunOneFrame(hw.Frame{})
			lo, hi := c.Bus.Read8(0xC100), c.Bus.Read8(0xC101)
			if got := uint16(lo) | uint16(hi)<<8; got != want {
				return fmt.Errorf("console %d: marker = %04X, want %04X", i, got, want)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}
