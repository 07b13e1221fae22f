// Package cart implements a reader for Halcyon-16 cartridge images, the
// file format game binaries are distributed in.
package cart

import (
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	Magic      = "HC16"
	HeaderSize = 0x20
)

type Rom struct {
	header
	Data []byte // full image, header included
}

// Open loads a rom from file.
func Open(path string) (*Rom, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rom := new(Rom)
	if _, err := rom.ReadFrom(f); err != nil {
		return nil, err
	}
	return rom, nil
}

// ReadFrom implements the io.ReaderFrom interface.
func (rom *Rom) ReadFrom(r io.Reader) (int64, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}

	if err := rom.decode(buf); err != nil {
		return 0, fmt.Errorf("failed to decode header: %w", err)
	}
	if len(buf) != rom.romsz {
		return 0, fmt.Errorf("rom is %d bytes, header declares %d", len(buf), rom.romsz)
	}
	if sum := globalSum(buf); sum != rom.globsum {
		return 0, fmt.Errorf("global checksum mismatch: computed %04x, header has %04x", sum, rom.globsum)
	}

	rom.Data = buf
	return int64(len(buf)), nil
}

func (hdr *header) decode(p []byte) error {
	if len(p) < HeaderSize {
		return fmt.Errorf("too small, needs %d bytes", HeaderSize)
	}
	if string(p[:4]) != Magic {
		return fmt.Errorf("invalid magic number")
	}
	copy(hdr.raw[:], p[:HeaderSize])

	var hsum uint8
	for _, b := range hdr.raw[:0x1B] {
		hsum += b
	}
	if hsum != 0 {
		return fmt.Errorf("header checksum mismatch (residue %02x)", hsum)
	}

	if hdr.Mapper() != 0 {
		return fmt.Errorf("unsupported mapper %d", hdr.Mapper())
	}
	if code := hdr.raw[0x15]; code > 6 {
		return fmt.Errorf("invalid ROM size code %d", code)
	}
	if code := hdr.raw[0x16]; code > 3 {
		return fmt.Errorf("invalid RAM size code %d", code)
	}
	hdr.romsz = 0x8000 << hdr.raw[0x15]
	hdr.ramsz = ramSizes[hdr.raw[0x16]]
	hdr.globsum = uint16(hdr.raw[0x1C]) | uint16(hdr.raw[0x1D])<<8

	entry := hdr.Entry()
	if entry%2 != 0 {
		return fmt.Errorf("entry point %04x is odd", entry)
	}
	if entry >= 0x4000 {
		return fmt.Errorf("entry point %04x is outside ROM0", entry)
	}
	return nil
}

var ramSizes = [4]int{0, 8 << 10, 32 << 10, 128 << 10}

// globalSum computes the 16-bit sum of every rom byte, with the two
// checksum bytes themselves counted as zero.
func globalSum(p []byte) uint16 {
	var sum uint16
	for i, b := range p {
		if i == 0x1C || i == 0x1D {
			continue
		}
		sum += uint16(b)
	}
	return sum
}

type header struct {
	raw     [HeaderSize]byte
	romsz   int
	ramsz   int
	globsum uint16
}

// Title returns the game title, stripped of NUL padding.
func (hdr *header) Title() string {
	return strings.TrimRight(string(hdr.raw[0x04:0x14]), "\x00")
}

func (hdr *header) Mapper() uint8 { return hdr.raw[0x14] }

// ROMSize is the total rom size in bytes, 32K per bank window pair.
func (hdr *header) ROMSize() int { return hdr.romsz }

// RAMSize is the cartridge ram size in bytes, possibly zero.
func (hdr *header) RAMSize() int { return hdr.ramsz }

// HasBattery indicates that cartridge ram persists across power cycles.
func (hdr *header) HasBattery() bool { return hdr.raw[0x17]&0x01 != 0 }

// HasRTC indicates the presence of a real-time clock on the cartridge.
func (hdr *header) HasRTC() bool { return hdr.raw[0x17]&0x02 != 0 }

// VectorsInRAM selects the HRAM interrupt vector table instead of the
// ROM one. Latched once at power-up.
func (hdr *header) VectorsInRAM() bool { return hdr.raw[0x17]&0x04 != 0 }

// Entry is the initial program counter. Always even, inside ROM0.
func (hdr *header) Entry() uint16 {
	return uint16(hdr.raw[0x18]) | uint16(hdr.raw[0x19])<<8
}

// PrintInfos writes a human-readable summary of the rom header to w.
func (rom *Rom) PrintInfos(w io.Writer) {
	yesno := func(b bool) string {
		if b {
			return "yes"
		}
		return "no"
	}

	fmt.Fprintf(w, "title:    %s\n", rom.Title())
	fmt.Fprintf(w, "mapper:   %d\n", rom.Mapper())
	fmt.Fprintf(w, "rom size: %d KiB (%d banks)\n", rom.ROMSize()>>10, rom.ROMSize()/0x4000)
	fmt.Fprintf(w, "ram size: %d KiB\n", rom.RAMSize()>>10)
	fmt.Fprintf(w, "battery:  %s\n", yesno(rom.HasBattery()))
	fmt.Fprintf(w, "rtc:      %s\n", yesno(rom.HasRTC()))
	vectors := "rom"
	if rom.VectorsInRAM() {
		vectors = "hram"
	}
	fmt.Fprintf(w, "vectors:  %s\n", vectors)
	fmt.Fprintf(w, "entry:    0x%04X\n", rom.Entry())
	fmt.Fprintf(w, "checksum: 0x%04X\n", rom.globsum)
}
