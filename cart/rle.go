package cart

import (
	"errors"
	"fmt"
)

// RLE stream format, shared by battery saves and packed tile data:
//
//	ctrl < 0x80     copy the next ctrl+1 bytes verbatim
//	0x80 <= ctrl < 0xFF  repeat the next byte (ctrl&0x7F)+1 times
//	ctrl == 0xFF    end of stream
const rleEnd = 0xFF

const (
	maxLiteral = 0x80 // ctrl 0x00-0x7F
	maxRun     = 0x7F // ctrl 0x80-0xFE
)

var errTruncated = errors.New("rle: truncated stream")

// RLEDecode expands an RLE stream. The terminator byte is required;
// trailing bytes after it are ignored.
func RLEDecode(src []byte) ([]byte, error) {
	var dst []byte
	for i := 0; ; {
		if i >= len(src) {
			return nil, errTruncated
		}
		ctrl := src[i]
		i++

		switch {
		case ctrl == rleEnd:
			return dst, nil
		case ctrl < 0x80:
			n := int(ctrl) + 1
			if i+n > len(src) {
				return nil, fmt.Errorf("rle: literal of %d bytes overruns stream", n)
			}
			dst = append(dst, src[i:i+n]...)
			i += n
		default:
			if i >= len(src) {
				return nil, errTruncated
			}
			n := int(ctrl&0x7F) + 1
			for range n {
				dst = append(dst, src[i])
			}
			i++
		}
	}
}

// RLEEncode compresses src, always appending the terminator. Runs shorter
// than 3 bytes are folded into literals since a run costs 2 bytes.
func RLEEncode(src []byte) []byte {
	dst := make([]byte, 0, len(src)/2+2)

	var lit []byte
	flush := func() {
		for len(lit) > 0 {
			n := min(len(lit), maxLiteral)
			dst = append(dst, uint8(n-1))
			dst = append(dst, lit[:n]...)
			lit = lit[n:]
		}
	}

	for i := 0; i < len(src); {
		j := i + 1
		for j < len(src) && src[j] == src[i] {
			j++
		}
		if n := j - i; n >= 3 {
			flush()
			for n > 0 {
				c := min(n, maxRun)
				dst = append(dst, 0x80|uint8(c-1), src[i])
				n -= c
			}
		} else {
			lit = append(lit, src[i:j]...)
		}
		i = j
	}
	flush()

	return append(dst, rleEnd)
}
