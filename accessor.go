package geoarrow

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

type accessorKind int

const (
	accessorConstant accessorKind = iota
	accessorColumn
	accessorCallback
)

// Accessor describes how a layer obtains one attribute's value per feature.
// It is a closed union, constructed once when layer props are parsed and
// never re-inspected per row: a constant broadcast to every feature, a
// reference to a sibling column of the batch, or a callback invoked with
// the original feature index.
type Accessor struct {
	kind     accessorKind
	constant []float64
	column   string
	fn       func(row int) []float64
	color    bool
}

// Constant returns an accessor holding a fixed scalar or tuple value for
// every feature. The renderer broadcasts it; no expansion happens.
func Constant(v ...float64) Accessor {
	return Accessor{kind: accessorConstant, constant: v}
}

// Column returns an accessor reading the named column of each batch.
func Column(name string) Accessor {
	return Accessor{kind: accessorColumn, column: name}
}

// Callback returns an accessor invoking fn once per feature. When the
// render target is an exploded multi-geometry, fn still receives the
// original feature index, translated through the inverted offsets map.
func Callback(fn func(row int) []float64) Accessor {
	return Accessor{kind: accessorCallback, fn: fn}
}

// AsColor marks the accessor as a color source. A color column must be a
// fixed-size list of 3- or 4-wide uint8 vectors; anything else is a
// validation error, never a silent coercion. Constant and callback colors
// must likewise be 3 or 4 wide; callback values are stored as uint8 and
// flagged normalized.
func (a Accessor) AsColor() Accessor {
	a.color = true
	return a
}

// Attribute is one resolved renderer attribute: a typed flat buffer plus
// its per-element width. Constant is set when Value holds a single
// broadcast value rather than a per-vertex buffer.
type Attribute struct {
	Value      any
	Size       int
	Normalized bool
	Constant   bool
}

// ResolveAccessor turns an accessor into a renderer-ready attribute for a
// batch of features. When offsets is non-nil, per-feature values are
// expanded to per-coordinate values through it (repeat-broadcast); features
// is the expected per-feature entry count and is validated before any
// expansion work begins. im, when non-nil, translates feature indices seen
// by callbacks back to original rows for exploded multi-geometries.
func ResolveAccessor(rec arrow.Record, acc Accessor, features int, offsets []int32, im *OriginalIndexMap) (Attribute, error) {
	switch acc.kind {
	case accessorConstant:
		if acc.color && len(acc.constant) != 3 && len(acc.constant) != 4 {
			return Attribute{}, fmt.Errorf("%w: constant width %d, want 3 or 4", ErrInvalidColor, len(acc.constant))
		}
		return Attribute{Value: acc.constant, Size: len(acc.constant), Constant: true}, nil

	case accessorColumn:
		indices := rec.Schema().FieldIndices(acc.column)
		if len(indices) == 0 {
			return Attribute{}, fmt.Errorf("geoarrow: accessor column %q not found", acc.column)
		}
		return columnAttribute(rec.Column(indices[0]), acc.color, features, offsets)

	case accessorCallback:
		if acc.fn == nil {
			return Attribute{}, fmt.Errorf("geoarrow: nil accessor callback")
		}
		return callbackAttribute(acc.fn, acc.color, features, offsets, im)
	}
	return Attribute{}, fmt.Errorf("geoarrow: unknown accessor kind")
}

func columnAttribute(col arrow.Array, wantColor bool, features int, offsets []int32) (Attribute, error) {
	if col.Len() != features {
		return Attribute{}, fmt.Errorf("%w: column has %d rows, geometry has %d",
			ErrRowCountMismatch, col.Len(), features)
	}

	switch arr := col.(type) {
	case *array.FixedSizeList:
		size := int(arr.DataType().(*arrow.FixedSizeListType).Len())
		n := features * size
		switch vals := arr.ListValues().(type) {
		case *array.Uint8:
			if size != 3 && size != 4 {
				return Attribute{}, fmt.Errorf("%w: width %d, want 3 or 4", ErrInvalidColor, size)
			}
			v := vals.Uint8Values()[:n:n]
			if offsets != nil {
				v = expandToCoords(v, size, offsets)
			}
			return Attribute{Value: v, Size: size, Normalized: true}, nil
		case *array.Float64:
			if wantColor {
				return Attribute{}, fmt.Errorf("%w: child is float64, want uint8", ErrInvalidColor)
			}
			v := vals.Float64Values()[:n:n]
			if offsets != nil {
				v = expandToCoords(v, size, offsets)
			}
			return Attribute{Value: v, Size: size}, nil
		case *array.Float32:
			if wantColor {
				return Attribute{}, fmt.Errorf("%w: child is float32, want uint8", ErrInvalidColor)
			}
			v := vals.Float32Values()[:n:n]
			if offsets != nil {
				v = expandToCoords(v, size, offsets)
			}
			return Attribute{Value: v, Size: size}, nil
		default:
			return Attribute{}, fmt.Errorf("geoarrow: unsupported accessor child type %s", vals.DataType())
		}

	case *array.Float64:
		if wantColor {
			return Attribute{}, fmt.Errorf("%w: scalar float64 column", ErrInvalidColor)
		}
		v := arr.Float64Values()[:features:features]
		if offsets != nil {
			v = expandToCoords(v, 1, offsets)
		}
		return Attribute{Value: v, Size: 1}, nil

	case *array.Float32:
		if wantColor {
			return Attribute{}, fmt.Errorf("%w: scalar float32 column", ErrInvalidColor)
		}
		v := arr.Float32Values()[:features:features]
		if offsets != nil {
			v = expandToCoords(v, 1, offsets)
		}
		return Attribute{Value: v, Size: 1}, nil
	}
	return Attribute{}, fmt.Errorf("geoarrow: unsupported accessor column type %s", col.DataType())
}

func callbackAttribute(fn func(row int) []float64, wantColor bool, features int, offsets []int32, im *OriginalIndexMap) (Attribute, error) {
	size := 0
	var out []float64
	for g := 0; g < features; g++ {
		row := g
		if im != nil {
			row = im.At(g)
		}
		v := fn(row)
		if g == 0 {
			size = len(v)
			if size == 0 {
				return Attribute{}, fmt.Errorf("geoarrow: accessor callback returned empty value")
			}
			out = make([]float64, 0, features*size)
		}
		if len(v) != size {
			return Attribute{}, fmt.Errorf("geoarrow: accessor callback width changed from %d to %d at row %d",
				size, len(v), row)
		}
		out = append(out, v...)
	}
	if wantColor {
		if size != 3 && size != 4 {
			return Attribute{}, fmt.Errorf("%w: callback width %d, want 3 or 4", ErrInvalidColor, size)
		}
		colors := make([]uint8, len(out))
		for i, v := range out {
			colors[i] = uint8(v)
		}
		if offsets != nil {
			colors = expandToCoords(colors, size, offsets)
		}
		return Attribute{Value: colors, Size: size, Normalized: true}, nil
	}
	if offsets != nil {
		out = expandToCoords(out, size, offsets)
	}
	return Attribute{Value: out, Size: size}, nil
}

type numeric interface {
	~float32 | ~float64 | ~uint8 | ~uint16 | ~uint32 | ~int32 | ~int64
}

// expandToCoords repeat-broadcasts one size-wide entry per feature into one
// entry per coordinate: every vertex in [offsets[g], offsets[g+1]) receives
// an identical copy of feature g's value. This is the hottest loop in the
// package for large line and polygon batches; it performs direct indexed
// writes only.
func expandToCoords[T numeric](in []T, size int, offsets []int32) []T {
	total := int(offsets[len(offsets)-1])
	out := make([]T, total*size)
	for g := 0; g < len(offsets)-1; g++ {
		src := in[g*size : (g+1)*size]
		for c := int(offsets[g]); c < int(offsets[g+1]); c++ {
			copy(out[c*size:(c+1)*size], src)
		}
	}
	return out
}
