package geoarrow

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/array"
)

// listOffsets returns the offsets of one list level of a geometry column,
// validated against the encoding invariants: offsets[0] == 0, values
// monotonically non-decreasing, final sentinel within the child array. Any
// violation is corrupt input and fails fast, since a single bad offset
// invalidates every downstream index.
func listOffsets(a *array.List) ([]int32, error) {
	if a.Offset() != 0 {
		return nil, fmt.Errorf("geoarrow: sliced geometry columns are not supported")
	}
	off := a.Offsets()[: a.Len()+1 : a.Len()+1]
	if err := validateOffsets(off, a.ListValues().Len()); err != nil {
		return nil, err
	}
	return off, nil
}

func validateOffsets(off []int32, childLen int) error {
	if len(off) == 0 {
		return fmt.Errorf("%w: empty offsets array", ErrMalformedOffsets)
	}
	if off[0] != 0 {
		return fmt.Errorf("%w: first offset is %d, want 0", ErrMalformedOffsets, off[0])
	}
	for i := 1; i < len(off); i++ {
		if off[i] < off[i-1] {
			return fmt.Errorf("%w: offset %d decreases from %d to %d",
				ErrMalformedOffsets, i, off[i-1], off[i])
		}
	}
	if last := int(off[len(off)-1]); last > childLen {
		return fmt.Errorf("%w: final offset %d exceeds child length %d",
			ErrMalformedOffsets, last, childLen)
	}
	return nil
}

// composeOffsets resolves outer parent-to-mid offsets through inner
// mid-to-leaf offsets, yielding parent-to-leaf offsets: out[i] =
// inner[outer[i]]. Composing polygon-to-ring with ring-to-coordinate
// offsets gives each polygon's starting coordinate index, which is what a
// flat renderer needs as a start index.
func composeOffsets(outer, inner []int32) []int32 {
	out := make([]int32, len(outer))
	for i, o := range outer {
		out[i] = inner[o]
	}
	return out
}

// OriginalIndexMap maps exploded child indices back to the parent element
// that owns them. The backing integer width is picked from the highest
// index the map must represent; it is a storage optimization only and never
// affects lookup results.
type OriginalIndexMap struct {
	u8  []uint8
	u16 []uint16
	u32 []uint32
}

// InvertOffsets builds the child-to-parent map for an offsets array: for
// every parent p and child c in [offsets[p], offsets[p+1]), the map holds
// p at position c. Empty parent ranges contribute nothing.
func InvertOffsets(offsets []int32) *OriginalIndexMap {
	total := 0
	if len(offsets) > 0 {
		total = int(offsets[len(offsets)-1])
	}
	m := &OriginalIndexMap{}
	switch max := total - 1; {
	case max < 1<<8:
		m.u8 = make([]uint8, total)
		fillInverted(m.u8, offsets)
	case max < 1<<16:
		m.u16 = make([]uint16, total)
		fillInverted(m.u16, offsets)
	default:
		m.u32 = make([]uint32, total)
		fillInverted(m.u32, offsets)
	}
	return m
}

func fillInverted[T uint8 | uint16 | uint32](out []T, offsets []int32) {
	for p := 0; p < len(offsets)-1; p++ {
		for c := offsets[p]; c < offsets[p+1]; c++ {
			out[c] = T(p)
		}
	}
}

// Len returns the number of child entries in the map.
func (m *OriginalIndexMap) Len() int {
	switch {
	case m.u8 != nil:
		return len(m.u8)
	case m.u16 != nil:
		return len(m.u16)
	default:
		return len(m.u32)
	}
}

// At returns the parent index owning child i.
func (m *OriginalIndexMap) At(i int) int {
	switch {
	case m.u8 != nil:
		return int(m.u8[i])
	case m.u16 != nil:
		return int(m.u16[i])
	default:
		return int(m.u32[i])
	}
}

// Value returns the underlying typed slice ([]uint8, []uint16 or []uint32),
// suitable for direct upload as a picking attribute.
func (m *OriginalIndexMap) Value() any {
	switch {
	case m.u8 != nil:
		return m.u8
	case m.u16 != nil:
		return m.u16
	default:
		return m.u32
	}
}
