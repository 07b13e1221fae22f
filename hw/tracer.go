package hw

import (
	"fmt"
	"io"
)

// cpuState captures the CPU state for one line of the execution trace.
type cpuState struct {
	R  [8]uint16
	F  F
	PC uint16

	Clock int64
	Line  uint8
	Dot   int
}

type disasmer interface {
	Disasm(pc uint16) DisasmOp
}

type tracer struct {
	d disasmer
	w io.Writer
}

func hexEncode(dst []byte, v byte) {
	const hextable = "0123456789ABCDEF"
	dst[0] = hextable[v>>4]
	dst[1] = hextable[v&0x0f]
}

// write emits the trace line for the instruction about to execute.
func (t *tracer) write(state cpuState) {
	buf := make([]byte, 0, 128)
	buf = append(buf, t.d.Disasm(state.PC).Bytes()...)

	for i, r := range state.R {
		buf = append(buf, 'R', '0'+byte(i), ':', 0, 0, 0, 0, ' ')
		hexEncode(buf[len(buf)-5:], byte(r>>8))
		hexEncode(buf[len(buf)-3:], byte(r))
	}
	buf = append(buf, "F:"...)
	buf = append(buf, state.F.String()...)

	buf = fmt.Appendf(buf, " PPU:%-3d,%-3d CYC:%d\n", state.Line, state.Dot, state.Clock)
	t.w.Write(buf)
}
