package hw

import (
	"testing"

	"halcyon/hw/hwdefs"
	"halcyon/hw/hwio"
)

func newTestPPU(tb testing.TB) (*PPU, *Bus, *IntCtrl) {
	tb.Helper()
	bus := newTestBus(tb, nil)
	ints := &IntCtrl{}
	hwio.MustInitRegs(ints)
	bus.Table.MapBank(0xF010, ints, 0)
	return NewPPU(bus, ints), bus, ints
}

// solidTile fills tile idx with a single pixel value on all 64 pixels.
func solidTile(vram []byte, idx int, pix uint8) {
	off := idx * 32
	for plane := range 4 {
		var b byte
		if pix&(1<<plane) != 0 {
			b = 0xFF
		}
		for y := range 8 {
			vram[off+plane*8+y] = b
		}
	}
}

func setMapRow0(vram []byte, slot uint8, entry uint16) {
	for col := range 32 {
		off := int(slot)*0x800 + col*2
		vram[off] = uint8(entry)
		vram[off+1] = uint8(entry >> 8)
	}
}

func setColor(cram []byte, pal, idx int, c uint16) {
	off := (pal*16 + idx) * 2
	cram[off] = uint8(c)
	cram[off+1] = uint8(c >> 8)
}

func setSprite(oam []byte, i int, sy, sx uint8, tile uint16, pal uint8, lowPrio bool) {
	attr := 1<<15 | tile&0x1FF | uint16(pal&7)<<9
	if lowPrio {
		attr |= 1 << 12
	}
	oam[i*8+0] = sy
	oam[i*8+1] = sx
	oam[i*8+2] = uint8(attr)
	oam[i*8+3] = uint8(attr >> 8)
}

func rgbAt(p *PPU, x, y int) (r, g, b uint8) {
	px := p.screen.Pix[y*p.screen.Stride+x*4:]
	return px[0], px[1], px[2]
}

const (
	red   = 0x001F
	green = 0x03E0
	blue  = 0x7C00
	white = 0x7FFF
)

func TestModeSequenceWithinLine(t *testing.T) {
	p, _, _ := newTestPPU(t)

	if p.Mode() != ModeOAMScan || p.Dot() != 0 {
		t.Fatalf("start: mode=%d dot=%d, want %d/0", p.Mode(), p.Dot(), ModeOAMScan)
	}
	p.Run(dotsOAMScan - 1)
	if p.Mode() != ModeOAMScan {
		t.Fatalf("dot %d: mode=%d, want OAM scan", p.Dot(), p.Mode())
	}
	p.Run(dotsOAMScan)
	if p.Mode() != ModeDraw {
		t.Fatalf("dot %d: mode=%d, want draw", p.Dot(), p.Mode())
	}
	p.Run(dotsOAMScan + dotsDraw)
	if p.Mode() != ModeHBlank {
		t.Fatalf("dot %d: mode=%d, want hblank", p.Dot(), p.Mode())
	}
	p.Run(CyclesPerLine)
	if p.Mode() != ModeOAMScan || p.LY.Value != 1 || p.Dot() != 0 {
		t.Fatalf("line end: mode=%d LY=%d dot=%d, want OAM scan/1/0",
			p.Mode(), p.LY.Value, p.Dot())
	}
}

func TestHBlankInterrupt(t *testing.T) {
	p, _, ints := newTestPPU(t)

	p.Run(dotsOAMScan + dotsDraw)
	if ints.IF.Value&uint8(hwdefs.HBlank) == 0 {
		t.Error("HBlank not raised at the draw/hblank boundary")
	}
}

func TestVBlankEntry(t *testing.T) {
	p, _, ints := newTestPPU(t)

	p.Run(ScreenHeight*CyclesPerLine - 1)
	if p.Mode() == ModeVBlank {
		t.Fatal("VBlank entered before line 120")
	}
	p.Run(ScreenHeight * CyclesPerLine)
	if p.Mode() != ModeVBlank || p.LY.Value != ScreenHeight {
		t.Fatalf("mode=%d LY=%d, want VBlank at LY=120", p.Mode(), p.LY.Value)
	}
	if ints.IF.Value&uint8(hwdefs.VBlank) == 0 {
		t.Error("VBlank interrupt not raised")
	}
	if p.FrameCount != 1 {
		t.Errorf("FrameCount = %d, want 1", p.FrameCount)
	}

	// The mode holds through all 32 blanking lines, then wraps.
	p.Run(int64(NumLines)*CyclesPerLine - 1)
	if p.Mode() != ModeVBlank {
		t.Errorf("mode=%d on the last blanking line, want VBlank", p.Mode())
	}
	p.Run(int64(NumLines) * CyclesPerLine)
	if p.Mode() != ModeOAMScan || p.LY.Value != 0 {
		t.Errorf("mode=%d LY=%d after wrap, want OAM scan at LY=0",
			p.Mode(), p.LY.Value)
	}
}

func TestLYCCompare(t *testing.T) {
	p, bus, ints := newTestPPU(t)
	bus.Write8(0xF043, 5)

	p.Run(5*CyclesPerLine - 1)
	if ints.IF.Value&uint8(hwdefs.LYC) != 0 {
		t.Fatal("LYC raised before the compare line")
	}
	p.Run(5 * CyclesPerLine)
	if ints.IF.Value&uint8(hwdefs.LYC) == 0 {
		t.Fatal("LYC not raised when LY reached LYC")
	}
	if bus.Read8(0xF041)&0x04 == 0 {
		t.Error("coincidence bit clear on the compare line")
	}

	p.Run(6 * CyclesPerLine)
	if bus.Read8(0xF041)&0x04 != 0 {
		t.Error("coincidence bit stuck past the compare line")
	}
}

func TestLYCWriteOnMatchingLine(t *testing.T) {
	_, bus, ints := newTestPPU(t)

	// LY is 0; writing a matching LYC raises immediately.
	bus.Write8(0xF043, 0)
	if ints.IF.Value&uint8(hwdefs.LYC) == 0 {
		t.Error("LYC not raised by a write matching the current line")
	}
}

func TestBackdropWhenBG0Disabled(t *testing.T) {
	p, bus, _ := newTestPPU(t)
	setColor(bus.CRAM.Data, 0, 0, red)

	p.Run(dotsOAMScan + dotsDraw)
	if r, g, b := rgbAt(p, 0, 0); r != 0xFF || g != 0 || b != 0 {
		t.Errorf("backdrop = %02X %02X %02X, want FF 00 00", r, g, b)
	}
}

func TestBG0Scrolled(t *testing.T) {
	p, bus, _ := newTestPPU(t)
	solidTile(bus.VRAM[:], 1, 3)
	setMapRow0(bus.VRAM[:], 6, 0x0001)
	setColor(bus.CRAM.Data, 0, 3, white)
	setColor(bus.CRAM.Data, 0, 0, red)
	bus.Write8(0xF04A, 6)    // BG0 map slot
	bus.Write8(0xF045, 0xF8) // SCY0: map row 0 lands on lines 8-15
	bus.Write8(0xF040, 0x01)

	p.Run(dotsOAMScan + dotsDraw)
	if r, _, _ := rgbAt(p, 0, 0); r != 0xFF {
		t.Errorf("line 0 shows %02X, want red backdrop (map row -1 is empty)", r)
	}
	p.Run(8*CyclesPerLine + dotsOAMScan + dotsDraw)
	if r, g, b := rgbAt(p, 0, 8); r != 0xFF || g != 0xFF || b != 0xFF {
		t.Errorf("line 8 = %02X %02X %02X, want white tile", r, g, b)
	}
}

func TestBG1TransparencyOverBG0(t *testing.T) {
	p, bus, _ := newTestPPU(t)
	solidTile(bus.VRAM[:], 1, 3) // BG0 tile
	solidTile(bus.VRAM[:], 2, 1) // BG1 tile, palette 1
	setMapRow0(bus.VRAM[:], 6, 0x0001)
	// BG1 row 0: tile 2 in even columns, transparent tile 0 in odd ones.
	for col := 0; col < 32; col += 2 {
		off := 7*0x800 + col*2
		bus.VRAM[off] = 0x02
		bus.VRAM[off+1] = 0x02 // palette 1 in bits 9-11
	}
	setColor(bus.CRAM.Data, 0, 3, white)
	setColor(bus.CRAM.Data, 1, 1, green)
	bus.Write8(0xF04A, 6)
	bus.Write8(0xF04B, 7)
	bus.Write8(0xF040, 0x03)

	p.Run(dotsOAMScan + dotsDraw)
	if _, g, _ := rgbAt(p, 0, 0); g != 0xFF {
		t.Errorf("BG1 pixel not on top (g=%02X)", g)
	}
	if r, g, b := rgbAt(p, 8, 0); r != 0xFF || g != 0xFF || b != 0xFF {
		t.Errorf("transparent BG1 column = %02X %02X %02X, want BG0 white", r, g, b)
	}
}

func TestWindowPosition(t *testing.T) {
	p, bus, _ := newTestPPU(t)
	solidTile(bus.VRAM[:], 1, 3)
	solidTile(bus.VRAM[:], 2, 1)
	setMapRow0(bus.VRAM[:], 6, 0x0001) // BG0
	setMapRow0(bus.VRAM[:], 5, 0x0002) // window
	setColor(bus.CRAM.Data, 0, 3, white)
	setColor(bus.CRAM.Data, 0, 1, blue)
	bus.Write8(0xF04A, 6)
	bus.Write8(0xF04C, 5)
	bus.Write8(0xF048, 100) // WINX
	bus.Write8(0xF049, 0)   // WINY
	bus.Write8(0xF040, 0x05)

	p.Run(dotsOAMScan + dotsDraw)
	if r, g, b := rgbAt(p, 99, 0); r != 0xFF || g != 0xFF || b != 0xFF {
		t.Errorf("left of window = %02X %02X %02X, want BG0 white", r, g, b)
	}
	if _, _, b := rgbAt(p, 100, 0); b != 0xFF {
		t.Errorf("window origin not drawn (b=%02X)", b)
	}
}

func TestSpriteLowerIndexWins(t *testing.T) {
	p, bus, _ := newTestPPU(t)
	solidTile(bus.VRAM[:], 1, 3)
	setColor(bus.CRAM.Data, 8, 3, green)
	setColor(bus.CRAM.Data, 9, 3, blue)
	setSprite(bus.OAM.Data, 0, 0, 10, 1, 0, false)
	setSprite(bus.OAM.Data, 1, 0, 10, 1, 1, false)
	bus.Write8(0xF040, 0x08)

	p.Run(dotsOAMScan + dotsDraw)
	if _, g, b := rgbAt(p, 10, 0); g != 0xFF || b != 0 {
		t.Errorf("sprite pixel = g:%02X b:%02X, want sprite 0 (green)", g, b)
	}
}

func TestSpriteBehindPriorityBackground(t *testing.T) {
	p, bus, _ := newTestPPU(t)
	solidTile(bus.VRAM[:], 1, 3)
	setMapRow0(bus.VRAM[:], 6, 0x1001) // tile 1, priority bit set
	setColor(bus.CRAM.Data, 0, 3, white)
	setColor(bus.CRAM.Data, 8, 3, green)
	setColor(bus.CRAM.Data, 9, 3, blue)
	setSprite(bus.OAM.Data, 0, 0, 10, 1, 0, true)
	// A later normal-priority sprite on the same pixels: the hidden
	// sprite already claimed them, so it must not show through.
	setSprite(bus.OAM.Data, 1, 0, 10, 1, 1, false)
	bus.Write8(0xF04A, 6)
	bus.Write8(0xF040, 0x09)

	p.Run(dotsOAMScan + dotsDraw)
	if r, g, b := rgbAt(p, 10, 0); r != 0xFF || g != 0xFF || b != 0xFF {
		t.Errorf("pixel = %02X %02X %02X, want priority background", r, g, b)
	}
}

func TestSpriteOverBackgroundHole(t *testing.T) {
	p, bus, _ := newTestPPU(t)
	solidTile(bus.VRAM[:], 1, 3)
	// Background enabled but its tile 0 is all pixel 0: a low priority
	// sprite still wins over an empty background.
	setMapRow0(bus.VRAM[:], 6, 0x1000)
	setColor(bus.CRAM.Data, 8, 3, green)
	setSprite(bus.OAM.Data, 0, 0, 10, 1, 0, true)
	bus.Write8(0xF04A, 6)
	bus.Write8(0xF040, 0x09)

	p.Run(dotsOAMScan + dotsDraw)
	if _, g, _ := rgbAt(p, 10, 0); g != 0xFF {
		t.Errorf("sprite hidden behind an empty background (g=%02X)", g)
	}
}

func TestSpritesPerLineLimit(t *testing.T) {
	p, bus, _ := newTestPPU(t)
	solidTile(bus.VRAM[:], 1, 3)
	setColor(bus.CRAM.Data, 8, 3, green)
	for i := range spritesPerLine + 1 {
		setSprite(bus.OAM.Data, i, 0, uint8(i*9), 1, 0, false)
	}
	bus.Write8(0xF040, 0x08)

	p.Run(dotsOAMScan + dotsDraw)
	if _, g, _ := rgbAt(p, (spritesPerLine-1)*9, 0); g != 0xFF {
		t.Errorf("sprite %d missing", spritesPerLine-1)
	}
	if _, g, _ := rgbAt(p, spritesPerLine*9, 0); g != 0 {
		t.Errorf("sprite %d drawn past the per-line limit", spritesPerLine)
	}
}

func TestSpriteVerticalRange(t *testing.T) {
	p, bus, _ := newTestPPU(t)
	solidTile(bus.VRAM[:], 1, 3)
	setColor(bus.CRAM.Data, 8, 3, green)
	setSprite(bus.OAM.Data, 0, 4, 10, 1, 0, false)
	bus.Write8(0xF040, 0x08)

	p.Run(3*CyclesPerLine + dotsOAMScan + dotsDraw)
	if _, g, _ := rgbAt(p, 10, 3); g != 0 {
		t.Error("sprite visible above its first line")
	}
	p.Run(4*CyclesPerLine + dotsOAMScan + dotsDraw)
	if _, g, _ := rgbAt(p, 10, 4); g != 0xFF {
		t.Error("sprite missing on its first line")
	}
	p.Run(12*CyclesPerLine + dotsOAMScan + dotsDraw)
	if _, g, _ := rgbAt(p, 10, 12); g != 0 {
		t.Error("sprite visible below its last line")
	}
}

func TestTileFlip(t *testing.T) {
	p, bus, _ := newTestPPU(t)
	// Tile 1: only the leftmost column is pixel 1.
	for y := range 8 {
		bus.VRAM[32+y] = 0x80
	}
	setMapRow0(bus.VRAM[:], 6, 0x2001) // flipH
	setColor(bus.CRAM.Data, 0, 1, green)
	setColor(bus.CRAM.Data, 0, 0, red)
	bus.Write8(0xF04A, 6)
	bus.Write8(0xF040, 0x01)

	p.Run(dotsOAMScan + dotsDraw)
	if _, g, _ := rgbAt(p, 0, 0); g != 0 {
		t.Error("flipped column still at x=0")
	}
	if _, g, _ := rgbAt(p, 7, 0); g != 0xFF {
		t.Error("flipped column missing at x=7")
	}
}
