package scrape

import "golang.org/x/exp/constraints"

// alignUp rounds v up to the next multiple of align.
func alignUp[T constraints.Integer](v, align T) T {
	if align <= 1 {
		return v
	}
	return (v + align - 1) / align * align
}

// product multiplies the array extents.
func product[T constraints.Integer](dims []T) T {
	n := T(1)
	for _, d := range dims {
		n *= d
	}
	return n
}

// layout places aggregate members one after another. All values are bits.
type layout struct {
	union     bool
	offset    int // next free bit (struct) or largest member (union)
	alignment int
	minAlign  int
}

func newLayout(union bool, structAlignment int) *layout {
	return &layout{union: union, alignment: 1, minAlign: structAlignment}
}

// place assigns the member offset and returns it. A bitfield width of zero
// closes the current storage unit; negative means not a bitfield.
func (l *layout) place(size, align, bitfield int) int {
	l.alignment = max(l.alignment, align)
	if l.union {
		width := size
		if bitfield >= 0 {
			width = bitfield
		}
		l.offset = max(l.offset, width)
		return 0
	}

	switch {
	case bitfield == 0:
		l.offset = alignUp(l.offset, size)
		return l.offset
	case bitfield > 0:
		// A bitfield may not straddle a storage unit of its declared type.
		if size > 0 && l.offset/size != (l.offset+bitfield-1)/size {
			l.offset = alignUp(l.offset, size)
		}
		at := l.offset
		l.offset += bitfield
		return at
	}
	l.offset = alignUp(l.offset, align)
	at := l.offset
	l.offset += size
	return at
}

// finish returns the total size and alignment of the aggregate.
func (l *layout) finish() (size, alignment int) {
	alignment = max(l.alignment, l.minAlign)
	return alignUp(l.offset, alignment), alignment
}
