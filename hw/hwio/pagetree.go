package hwio

import "fmt"

const pageShift = 8 // 256 pages of 256 bytes

// pageTree is a two-level lookup structure mapping every address of a 16-bit
// space to the BankIO8 serving it. Pages are allocated lazily so sparse
// tables (a handful of registers in a 64K space) stay small.
type pageTree struct {
	pages [1 << (16 - pageShift)]*[1 << pageShift]BankIO8
}

func (pt *pageTree) Search(addr uint16) BankIO8 {
	page := pt.pages[addr>>pageShift]
	if page == nil {
		return nil
	}
	return page[addr&(1<<pageShift-1)]
}

// InsertRange maps io over [begin, end], both inclusive. Overlapping an
// existing mapping is an error: banks must be explicitly unmapped first.
func (pt *pageTree) InsertRange(begin, end uint16, io BankIO8) error {
	for a := uint32(begin); a <= uint32(end); a++ {
		idx := a >> pageShift
		if pt.pages[idx] == nil {
			pt.pages[idx] = new([1 << pageShift]BankIO8)
		}
		slot := &pt.pages[idx][a&(1<<pageShift-1)]
		if *slot != nil {
			return fmt.Errorf("hwio: address %04x already mapped", a)
		}
		*slot = io
	}
	return nil
}

func (pt *pageTree) RemoveRange(begin, end uint16) {
	for a := uint32(begin); a <= uint32(end); a++ {
		if page := pt.pages[a>>pageShift]; page != nil {
			page[a&(1<<pageShift-1)] = nil
		}
	}
}
