package geoarrow

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// FlatCoords is the point level of a geometry column flattened to a single
// interleaved buffer (x0, y0, [z0], x1, y1, ...). Exactly one of Float64
// and Float32 is non-nil.
type FlatCoords struct {
	Float64 []float64
	Float32 []float32
	Dim     int
}

// Len returns the number of points in the buffer.
func (c FlatCoords) Len() int {
	if c.Float64 != nil {
		return len(c.Float64) / c.Dim
	}
	return len(c.Float32) / c.Dim
}

// Value returns the underlying typed slice for renderer upload.
func (c FlatCoords) Value() any {
	if c.Float64 != nil {
		return c.Float64
	}
	return c.Float32
}

// X, Y and Z return one component of point i. Z reports 0 for 2-D buffers.
func (c FlatCoords) X(i int) float64 { return c.at(i*c.Dim + 0) }
func (c FlatCoords) Y(i int) float64 { return c.at(i*c.Dim + 1) }
func (c FlatCoords) Z(i int) float64 {
	if c.Dim < 3 {
		return 0
	}
	return c.at(i*c.Dim + 2)
}

func (c FlatCoords) at(i int) float64 {
	if c.Float64 != nil {
		return c.Float64[i]
	}
	return float64(c.Float32[i])
}

// flatCoordinates extracts the interleaved coordinate buffer underlying the
// point level of a geometry column. Interleaved storage (fixed-size list of
// floats) is returned zero-copy; separated storage (struct of x/y[/z]
// float64 fields) is interleaved into a fresh buffer, an unavoidable O(n)
// copy since the renderer requires interleaved layout. Any other leaf
// encoding is rejected.
func flatCoordinates(a arrow.Array) (FlatCoords, error) {
	switch arr := a.(type) {
	case *array.FixedSizeList:
		dt := arr.DataType().(*arrow.FixedSizeListType)
		dim := int(dt.Len())
		if dim != 2 && dim != 3 {
			return FlatCoords{}, fmt.Errorf("%w: fixed-size list of width %d", ErrUnsupportedCoords, dim)
		}
		if arr.Offset() != 0 {
			return FlatCoords{}, fmt.Errorf("geoarrow: sliced geometry columns are not supported")
		}
		n := arr.Len() * dim
		switch vals := arr.ListValues().(type) {
		case *array.Float64:
			return FlatCoords{Float64: vals.Float64Values()[:n:n], Dim: dim}, nil
		case *array.Float32:
			return FlatCoords{Float32: vals.Float32Values()[:n:n], Dim: dim}, nil
		default:
			return FlatCoords{}, fmt.Errorf("%w: coordinate child is %s, want float",
				ErrUnsupportedCoords, vals.DataType())
		}

	case *array.Struct:
		dim := arr.NumField()
		if dim != 2 && dim != 3 {
			return FlatCoords{}, fmt.Errorf("%w: struct of %d fields", ErrUnsupportedCoords, dim)
		}
		if arr.Offset() != 0 {
			return FlatCoords{}, fmt.Errorf("geoarrow: sliced geometry columns are not supported")
		}
		n := arr.Len()
		buf := make([]float64, n*dim)
		for d := 0; d < dim; d++ {
			field, ok := arr.Field(d).(*array.Float64)
			if !ok {
				return FlatCoords{}, fmt.Errorf("%w: struct field %d is %s, want float64",
					ErrUnsupportedCoords, d, arr.Field(d).DataType())
			}
			vals := field.Float64Values()
			for i := 0; i < n; i++ {
				buf[i*dim+d] = vals[i]
			}
		}
		return FlatCoords{Float64: buf, Dim: dim}, nil

	default:
		return FlatCoords{}, fmt.Errorf("%w: %s", ErrUnsupportedCoords, a.DataType())
	}
}
