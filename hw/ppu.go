package hw

import (
	"image"

	"halcyon/hw/hwdefs"
	"halcyon/hw/hwio"
)

const (
	ScreenWidth  = 160
	ScreenHeight = 120

	NumLines = 152 // 120 visible + 32 VBlank

	// Scanline phases, in cycles.
	dotsOAMScan = 48
	dotsDraw    = 160
	dotsHBlank  = 24

	CyclesPerLine  = dotsOAMScan + dotsDraw + dotsHBlank
	CyclesPerFrame = NumLines * CyclesPerLine
)

// LCDSTAT mode values.
const (
	ModeHBlank = iota
	ModeVBlank
	ModeOAMScan
	ModeDraw
)

// LCDCTRL bits.
const (
	lcdBG0 = 1 << iota
	lcdBG1
	lcdWIN
	lcdOBJ
)

const spritesPerLine = 16

// PPU is the scanline renderer. It never runs ahead of the CPU: the CPU
// ticks it to the current master cycle around every bus access, so mid-frame
// register and VRAM writes land on the exact line they were made on.
type PPU struct {
	Ints *IntCtrl

	// physical video memories, owned by the bus decoder
	vram []byte
	oam  []byte
	cram []byte

	LCDCTRL hwio.Reg8 `hwio:"offset=0x0,rwmask=0x0F"`
	LCDSTAT hwio.Reg8 `hwio:"offset=0x1,readonly"`
	LY      hwio.Reg8 `hwio:"offset=0x2,readonly"`
	LYC     hwio.Reg8 `hwio:"offset=0x3,wcb"`
	SCX0    hwio.Reg8 `hwio:"offset=0x4"`
	SCY0    hwio.Reg8 `hwio:"offset=0x5"`
	SCX1    hwio.Reg8 `hwio:"offset=0x6"`
	SCY1    hwio.Reg8 `hwio:"offset=0x7"`
	WINX    hwio.Reg8 `hwio:"offset=0x8"`
	WINY    hwio.Reg8 `hwio:"offset=0x9"`
	BG0MAP  hwio.Reg8 `hwio:"offset=0xA,rwmask=0x07"`
	BG1MAP  hwio.Reg8 `hwio:"offset=0xB,rwmask=0x07"`
	WINMAP  hwio.Reg8 `hwio:"offset=0xC,rwmask=0x07"`

	cycles int64 // master clock position the PPU has reached
	dot    int   // cycle within the current line

	FrameCount uint64

	screen image.RGBA
}

func NewPPU(bus *Bus, ints *IntCtrl) *PPU {
	p := &PPU{
		Ints: ints,
		vram: bus.VRAM[:],
		oam:  bus.OAM.Data,
		cram: bus.CRAM.Data,
		screen: image.RGBA{
			Pix:    make([]uint8, ScreenWidth*ScreenHeight*4),
			Stride: ScreenWidth * 4,
			Rect:   image.Rect(0, 0, ScreenWidth, ScreenHeight),
		},
	}
	hwio.MustInitRegs(p)
	bus.Table.MapBank(0xF040, p, 0)
	p.setMode(ModeOAMScan)
	return p
}

func (p *PPU) Output() *image.RGBA {
	return &p.screen
}

// Dot is the cycle offset within the current scanline.
func (p *PPU) Dot() int {
	return p.dot
}

func (p *PPU) Mode() uint8 {
	return p.LCDSTAT.Value & 0x03
}

func (p *PPU) setMode(mode uint8) {
	p.LCDSTAT.Value = p.LCDSTAT.Value&^0x03 | mode
}

func (p *PPU) WriteLYC(old, val uint8) {
	p.compareLYC()
}

// compareLYC refreshes the coincidence bit, raising the LYC interrupt on a
// 0 to 1 transition.
func (p *PPU) compareLYC() {
	match := p.LY.Value == p.LYC.Value
	was := p.LCDSTAT.Value&0x04 != 0
	p.LCDSTAT.Value = p.LCDSTAT.Value &^ 0x04
	if match {
		p.LCDSTAT.Value |= 0x04
		if !was {
			p.Ints.Raise(hwdefs.LYC)
		}
	}
}

// Run advances the PPU to the master clock target, crossing mode boundaries
// one at a time.
func (p *PPU) Run(target int64) {
	for p.cycles < target {
		boundary := p.nextBoundary()
		step := min(target-p.cycles, int64(boundary-p.dot))
		p.cycles += step
		p.dot += int(step)

		if p.dot == boundary {
			p.crossBoundary()
		}
	}
}

// nextBoundary returns the dot of the next mode transition on this line.
func (p *PPU) nextBoundary() int {
	if p.LY.Value >= ScreenHeight {
		return CyclesPerLine
	}
	switch {
	case p.dot < dotsOAMScan:
		return dotsOAMScan
	case p.dot < dotsOAMScan+dotsDraw:
		return dotsOAMScan + dotsDraw
	default:
		return CyclesPerLine
	}
}

func (p *PPU) crossBoundary() {
	vblank := p.LY.Value >= ScreenHeight

	switch {
	case p.dot == dotsOAMScan && !vblank:
		p.setMode(ModeDraw)

	case p.dot == dotsOAMScan+dotsDraw && !vblank:
		p.renderLine(int(p.LY.Value))
		p.setMode(ModeHBlank)
		p.Ints.Raise(hwdefs.HBlank)

	case p.dot == CyclesPerLine:
		p.dot = 0
		p.LY.Value++
		switch {
		case p.LY.Value == ScreenHeight:
			p.setMode(ModeVBlank)
			p.Ints.Raise(hwdefs.VBlank)
			p.FrameCount++
		case p.LY.Value == NumLines:
			p.LY.Value = 0
			p.setMode(ModeOAMScan)
		case p.LY.Value < ScreenHeight:
			p.setMode(ModeOAMScan)
		}
		p.compareLYC()
	}
}

func (p *PPU) Reset() {
	p.dot = 0
	p.LY.Value = 0
	p.setMode(ModeOAMScan)
}

/* scanline rendering */

// mapEntry reads one 16-bit tilemap entry from the slot's 32x32 grid.
func (p *PPU) mapEntry(slot uint8, col, row int) uint16 {
	off := int(slot)*0x800 + (row*32+col)*2
	return uint16(p.vram[off]) | uint16(p.vram[off+1])<<8
}

// tilePixel extracts one pixel from the 4-bitplane tile data.
func (p *PPU) tilePixel(entry uint16, px, py int) uint8 {
	if entry&(1<<13) != 0 { // flipH
		px = 7 - px
	}
	if entry&(1<<14) != 0 { // flipV
		py = 7 - py
	}
	off := int(entry&0x1FF) * 32
	bit := uint(7 - px)
	var pix uint8
	for plane := range 4 {
		pix |= (p.vram[off+plane*8+py] >> bit & 1) << plane
	}
	return pix
}

// color looks up CRAM and expands RGB555 to RGBA.
func (p *PPU) color(palette, pix uint8) (r, g, b uint8) {
	off := (int(palette)*16 + int(pix)) * 2
	c := uint16(p.cram[off]) | uint16(p.cram[off+1])<<8
	r = uint8(c & 0x1F)
	g = uint8(c >> 5 & 0x1F)
	b = uint8(c >> 10 & 0x1F)
	return r<<3 | r>>2, g<<3 | g>>2, b<<3 | b>>2
}

// bgPixel samples one background layer at map coordinates (x, y).
func (p *PPU) bgPixel(slot uint8, x, y int) (pix, palette uint8, prio bool) {
	entry := p.mapEntry(slot, x>>3&31, y>>3&31)
	pix = p.tilePixel(entry, x&7, y&7)
	palette = uint8(entry >> 9 & 0x07)
	prio = entry&(1<<12) != 0
	return pix, palette, prio
}

func (p *PPU) renderLine(ly int) {
	ctrl := p.LCDCTRL.Value

	var (
		colorIdx [ScreenWidth]uint8 // palette*16 + pixel of the visible layer
		bgPrio   [ScreenWidth]bool
		bgZero   [ScreenWidth]bool // layer pixel index is 0
	)

	for x := range ScreenWidth {
		// BG0 is the opaque backdrop: index 0 renders its literal color.
		pix, palette, prio := uint8(0), uint8(0), false
		if ctrl&lcdBG0 != 0 {
			pix, palette, prio = p.bgPixel(p.BG0MAP.Value,
				(x+int(p.SCX0.Value))&255, (ly+int(p.SCY0.Value))&255)
		}
		zero := pix == 0

		if ctrl&lcdBG1 != 0 {
			if pix1, pal1, prio1 := p.bgPixel(p.BG1MAP.Value,
				(x+int(p.SCX1.Value))&255, (ly+int(p.SCY1.Value))&255); pix1 != 0 {
				pix, palette, prio, zero = pix1, pal1, prio1, false
			}
		}

		if ctrl&lcdWIN != 0 && x >= int(p.WINX.Value) && ly >= int(p.WINY.Value) {
			if pixw, palw, priow := p.bgPixel(p.WINMAP.Value,
				x-int(p.WINX.Value), ly-int(p.WINY.Value)); pixw != 0 {
				pix, palette, prio, zero = pixw, palw, priow, false
			}
		}

		colorIdx[x] = palette*16 + pix
		bgPrio[x] = prio
		bgZero[x] = zero
	}

	if ctrl&lcdOBJ != 0 {
		p.renderSprites(ly, &colorIdx, &bgPrio, &bgZero)
	}

	row := p.screen.Pix[ly*p.screen.Stride:]
	for x := range ScreenWidth {
		r, g, b := p.color(colorIdx[x]/16, colorIdx[x]%16)
		row[x*4+0] = r
		row[x*4+1] = g
		row[x*4+2] = b
		row[x*4+3] = 0xFF
	}
}

func (p *PPU) renderSprites(ly int, colorIdx *[ScreenWidth]uint8, bgPrio, bgZero *[ScreenWidth]bool) {
	var claimed [ScreenWidth]bool

	nsel := 0
	for i := 0; i < 64 && nsel < spritesPerLine; i++ {
		ent := p.oam[i*8 : i*8+4]
		attr := uint16(ent[2]) | uint16(ent[3])<<8
		if attr&(1<<15) == 0 {
			continue
		}
		sy, sx := int(ent[0]), int(ent[1])
		if ly < sy || ly >= sy+8 {
			continue
		}
		nsel++

		palette := 8 + uint8(attr>>9&0x07)
		lowPrio := attr&(1<<12) != 0
		for px := range 8 {
			x := sx + px
			if x >= ScreenWidth || claimed[x] {
				continue
			}
			pix := p.tilePixel(attr, px, ly-sy)
			if pix == 0 {
				continue
			}
			// earlier sprites win regardless of the background outcome
			claimed[x] = true
			if lowPrio && bgPrio[x] && !bgZero[x] {
				continue
			}
			colorIdx[x] = palette*16 + pix
		}
	}
}
