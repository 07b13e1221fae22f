package hw

// F is the CPU flags word. Only the low nibble is architecturally defined,
// bits 4-15 always read zero.
type F uint16

const (
	Zero = 1 << iota
	Negative
	Carry
	Overflow
)

const flagsMask = 0x000F

func (f F) String() string {
	const bits = "zncvZNCV"

	s := make([]byte, 4)
	for i := range 4 {
		ibit := (uint16(f) >> i) & 1
		s[3-i] = bits[i+int(4*ibit)]
	}
	return string(s)
}

func (f *F) setFlags(flags uint16)   { *f |= F(flags) }
func (f *F) clearFlags(flags uint16) { *f &= ^F(flags) }

func (f F) hasFlag(flag F) bool { return f&flag == flag }

func (f *F) set(flag F, on bool) {
	if on {
		*f |= flag
	} else {
		*f &= ^flag
	}
}

// checkNZ sets Z and N from a 16-bit result.
func (f *F) checkNZ(v uint16) {
	f.set(Zero, v == 0)
	f.set(Negative, v&0x8000 != 0)
}
