package emu

import (
	"image"

	"github.com/go-faster/jx"
)

// StatusJSON encodes a snapshot of the machine state, served to debugging
// clients over RPC.
func (e *Emulator) StatusJSON() []byte {
	c := e.Console
	var enc jx.Encoder

	enc.ObjStart()
	enc.FieldStart("title")
	enc.Str(c.Rom.Title())
	enc.FieldStart("paused")
	enc.Bool(e.isPaused())
	enc.FieldStart("cycles")
	enc.Int64(c.CPU.Cycles)

	enc.FieldStart("cpu")
	enc.ObjStart()
	enc.FieldStart("pc")
	enc.Int(int(c.CPU.PC))
	enc.FieldStart("flags")
	enc.Str(c.CPU.F.String())
	enc.FieldStart("r")
	enc.ArrStart()
	for _, r := range c.CPU.R {
		enc.Int(int(r))
	}
	enc.ArrEnd()
	enc.ObjEnd()

	enc.FieldStart("ppu")
	enc.ObjStart()
	enc.FieldStart("line")
	enc.Int(int(c.PPU.LY.Value))
	enc.FieldStart("dot")
	enc.Int(c.PPU.Dot())
	enc.FieldStart("mode")
	enc.Int(int(c.PPU.Mode()))
	enc.FieldStart("frame")
	enc.UInt64(c.PPU.FrameCount)
	enc.ObjEnd()

	enc.FieldStart("apu")
	enc.ArrStart()
	for _, phase := range c.APU.ChannelPhases() {
		enc.Str(phase)
	}
	enc.ArrEnd()

	enc.ObjEnd()
	return enc.Bytes()
}

// Screenshot returns the last rendered frame.
func (e *Emulator) Screenshot() *image.RGBA {
	return e.out.Screenshot()
}
