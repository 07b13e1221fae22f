package emu

import (
	"fmt"

	"halcyon/cart"
	"halcyon/hw"
	"halcyon/hw/apu"
	"halcyon/hw/hwdefs"
)

// Console assembles the lockstep machine: the CPU drives the master clock
// and ticks the PPU and timers around every bus access, the APU catches up
// lazily at frame end.
type Console struct {
	CPU    *hw.CPU
	PPU    *hw.PPU
	APU    *apu.APU
	DMA    *hw.DMA
	Timers *hw.Timers
	Pad    *hw.Pad
	Bus    *hw.Bus
	Rom    *cart.Rom
}

// PowerUp wires every hardware unit to the bus and performs a hard reset.
// boot, when non-nil, is the 2K boot program overlaid on the bottom of the
// address space until the handover write.
func PowerUp(rom *cart.Rom, boot []byte) (*Console, error) {
	if rom.Mapper() != 0 {
		return nil, fmt.Errorf("unsupported mapper %d", rom.Mapper())
	}

	bus := hw.NewBus(rom)
	bus.MapCartridge(boot)

	cpu := hw.NewCPU(bus)
	cpu.PPU = hw.NewPPU(bus, &cpu.Ints)
	cpu.Timers = hw.NewTimers(bus, &cpu.Ints)
	dma := hw.NewDMA(cpu, bus)

	snd := apu.New(func() int64 { return cpu.Cycles }, bus.Echo.Data)
	snd.MapInto(bus.Table)
	dma.WaveRAM = snd.WAVERAM.Data

	pad := hw.NewPad(bus, &cpu.Ints)

	cpu.SetVectorBase(rom.VectorsInRAM())

	c := &Console{
		CPU:    cpu,
		PPU:    cpu.PPU,
		APU:    snd,
		DMA:    dma,
		Timers: cpu.Timers,
		Pad:    pad,
		Bus:    bus,
		Rom:    rom,
	}
	c.Reset(hwdefs.HardReset)
	return c, nil
}

// Run advances the machine by ncycles master clock cycles.
func (c *Console) Run(ncycles int64) {
	c.CPU.Run(c.CPU.Cycles + ncycles)
}

func (c *Console) Reset(soft bool) {
	c.PPU.Reset()
	c.Timers.Reset()
	c.APU.Reset()
	c.CPU.Reset(soft)
}

// RunOneFrame executes until the PPU enters the next vertical blank, then
// flushes the audio frame and samples the pad. frame.Video, when non-nil,
// receives the rendered screen.
func (c *Console) RunOneFrame(frame hw.Frame) {
	start := c.PPU.FrameCount
	for c.PPU.FrameCount == start {
		c.CPU.Run(c.CPU.Cycles + hw.CyclesPerLine)
	}
	c.APU.EndFrame()
	c.Pad.Poll()

	if frame.Video != nil {
		copy(frame.Video, c.PPU.Output().Pix)
	}
}
