package emu

import (
	"os"
	"strings"

	"halcyon/cart"
	"halcyon/emu/log"
)

// batterySave persists cartridge ram next to the rom file, RLE-compressed.
// Loaded once at launch, written back when the emulation loop exits.
type batterySave struct {
	path string
	sram []byte
}

func newBatterySave(romPath string, sram []byte) *batterySave {
	return &batterySave{
		path: savPath(romPath),
		sram: sram,
	}
}

func savPath(romPath string) string {
	if i := strings.LastIndexByte(romPath, '.'); i > strings.LastIndexByte(romPath, '/') {
		romPath = romPath[:i]
	}
	return romPath + ".sav"
}

func (bs *batterySave) load() {
	buf, err := os.ReadFile(bs.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.ModEmu.WarnZ("Failed to read save file").
				String("path", bs.path).
				Error("err", err).
				End()
		}
		return
	}
	data, err := cart.RLEDecode(buf)
	if err != nil {
		log.ModEmu.WarnZ("Corrupted save file, starting fresh").
			String("path", bs.path).
			Error("err", err).
			End()
		return
	}
	if len(data) != len(bs.sram) {
		log.ModEmu.WarnZ("Save file size mismatch, starting fresh").
			String("path", bs.path).
			Int("size", len(data)).
			Int("want", len(bs.sram)).
			End()
		return
	}
	copy(bs.sram, data)
	log.ModEmu.InfoZ("Loaded battery save").String("path", bs.path).End()
}

func (bs *batterySave) save() {
	buf := cart.RLEEncode(bs.sram)
	if err := os.WriteFile(bs.path, buf, 0644); err != nil {
		log.ModEmu.WarnZ("Failed to write save file").
			String("path", bs.path).
			Error("err", err).
			End()
		return
	}
	log.ModEmu.InfoZ("Wrote battery save").
		String("path", bs.path).
		Int("size", len(buf)).
		End()
}
