package hwdefs

import "strings"

// IRQSource is a bit in the IE/IF register pair. Lower bits have higher
// priority when several sources are pending.
type IRQSource uint8

const (
	VBlank IRQSource = 1 << iota
	HBlank
	LYC
	Timer0
	Timer1
	DMA
	Serial
	Pad

	numSources = 8
)

var irqSrcNames = [numSources]string{
	"vblank",
	"hblank",
	"lyc",
	"tim0",
	"tim1",
	"dma",
	"serial",
	"pad",
}

func (irq IRQSource) String() string {
	var names []string
	for i := range numSources {
		if irq&(1<<i) != 0 {
			names = append(names, irqSrcNames[i])
		}
	}
	return strings.Join(names, "|")
}

// Fault identifies a synchronous CPU fault. Faults are non-maskable and are
// dispatched through the vector table, never surfaced as host errors.
type Fault uint8

const (
	NoFault Fault = iota
	BusError
	IllegalInstruction
	ProtectedMemory
	StackOverflow
)

var faultNames = [...]string{
	"none",
	"bus error",
	"illegal instruction",
	"protected memory",
	"stack overflow",
}

func (f Fault) String() string { return faultNames[f] }

// Vector table indices. The table holds 16 little-endian handler addresses,
// either at ROM 0x0040 or HRAM 0xFF80 depending on the boot-time latch.
const (
	VecReset = iota
	VecBusError
	VecIllegal
	VecProtMem
	VecStackOvf
	VecVBlank
	VecHBlank
	VecLYC
	VecTimer0
	VecTimer1
	VecDMA
	VecSerial
	VecPad

	NumVectors = 16
)

// VectorIndex returns the table index for an IRQ source bit number.
func VectorIndex(bit int) int { return VecVBlank + bit }

const (
	SoftReset = true
	HardReset = false
)

const NumAudioChannels = 4 // Pulse1, Pulse2, Wave, Noise
