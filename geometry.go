package geoarrow

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paulmach/orb"
)

// KindOf returns the geometry kind an orb geometry encodes as. Rings and
// bounds encode as single-ring polygons; collections have no single-kind
// GeoArrow encoding and report KindUnknown.
func KindOf(g orb.Geometry) GeometryKind {
	switch g.(type) {
	case orb.Point:
		return KindPoint
	case orb.MultiPoint:
		return KindMultiPoint
	case orb.LineString:
		return KindLineString
	case orb.MultiLineString:
		return KindMultiLineString
	case orb.Ring, orb.Polygon, orb.Bound:
		return KindPolygon
	case orb.MultiPolygon:
		return KindMultiPolygon
	default:
		return KindUnknown
	}
}

// DataType returns the Arrow type of an interleaved 2-D GeoArrow column of
// this kind.
func (k GeometryKind) DataType() arrow.DataType {
	var dt arrow.DataType = arrow.FixedSizeListOf(2, arrow.PrimitiveTypes.Float64)
	for i := 0; i < k.listDepth(); i++ {
		dt = arrow.ListOf(dt)
	}
	return dt
}

// GeometryField returns an Arrow field of the kind's interleaved encoding,
// tagged with its GeoArrow extension name.
func GeometryField(name string, kind GeometryKind) arrow.Field {
	return arrow.Field{
		Name:     name,
		Type:     kind.DataType(),
		Metadata: arrow.NewMetadata([]string{ExtensionKey}, []string{kind.ExtensionName()}),
	}
}

// RecordFromGeometries encodes geometries of a single kind into a
// one-column GeoArrow record batch, using the interleaved coordinate
// encoding. columnName defaults to "geometry"; a nil allocator uses the
// default.
func RecordFromGeometries(mem memory.Allocator, geoms []orb.Geometry, columnName string) (arrow.Record, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	if columnName == "" {
		columnName = "geometry"
	}
	if len(geoms) == 0 {
		return nil, fmt.Errorf("%w: no geometries", ErrNoGeometryColumn)
	}
	kind := KindOf(geoms[0])
	if kind == KindUnknown {
		return nil, fmt.Errorf("%w: %T has no single-kind encoding", ErrMixedGeometryTypes, geoms[0])
	}
	for i, g := range geoms[1:] {
		if KindOf(g) != kind {
			return nil, fmt.Errorf("%w: %s at row 0, %T at row %d", ErrMixedGeometryTypes, kind, g, i+1)
		}
	}

	schema := arrow.NewSchema([]arrow.Field{GeometryField(columnName, kind)}, nil)
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	appendGeometries(b.Field(0), geoms, kind)
	return b.NewRecord(), nil
}

// GeometryAt decodes a single row of the record's geometry column back into
// an orb geometry. This is the row lookup a picking consumer performs after
// translating a primitive index through RenderData.OriginalRow; it is not
// used anywhere on the render path.
func GeometryAt(rec arrow.Record, row int, explicitName string) (orb.Geometry, error) {
	idx, kind, ok := DetectGeometryColumn(rec.Schema(), explicitName)
	if !ok {
		return nil, ErrNoGeometryColumn
	}
	if kind == KindUnknown {
		return nil, fmt.Errorf("%w: column %q carries no geometry extension tag",
			ErrInvalidShape, rec.Schema().Field(idx).Name)
	}
	return decodeGeometry(rec.Column(idx), kind, row)
}

// Building

func appendPoint(pb *array.FixedSizeListBuilder, p orb.Point) {
	pb.Append(true)
	vb := pb.ValueBuilder().(*array.Float64Builder)
	vb.Append(p[0])
	vb.Append(p[1])
}

func appendPointSeq(lb *array.ListBuilder, pb *array.FixedSizeListBuilder, points []orb.Point) {
	lb.Append(true)
	for _, p := range points {
		appendPoint(pb, p)
	}
}

func appendPolygon(lb *array.ListBuilder, rb *array.ListBuilder, pb *array.FixedSizeListBuilder, poly orb.Polygon) {
	lb.Append(true)
	for _, ring := range poly {
		appendPointSeq(rb, pb, ring)
	}
}

func asPolygon(g orb.Geometry) orb.Polygon {
	switch v := g.(type) {
	case orb.Polygon:
		return v
	case orb.Ring:
		return orb.Polygon{v}
	case orb.Bound:
		return orb.Polygon{{
			{v.Min[0], v.Min[1]},
			{v.Max[0], v.Min[1]},
			{v.Max[0], v.Max[1]},
			{v.Min[0], v.Max[1]},
			{v.Min[0], v.Min[1]},
		}}
	}
	return nil
}

func appendGeometries(b array.Builder, geoms []orb.Geometry, kind GeometryKind) {
	switch kind {
	case KindPoint:
		pb := b.(*array.FixedSizeListBuilder)
		for _, g := range geoms {
			appendPoint(pb, g.(orb.Point))
		}

	case KindMultiPoint:
		lb := b.(*array.ListBuilder)
		pb := lb.ValueBuilder().(*array.FixedSizeListBuilder)
		for _, g := range geoms {
			appendPointSeq(lb, pb, g.(orb.MultiPoint))
		}

	case KindLineString:
		lb := b.(*array.ListBuilder)
		pb := lb.ValueBuilder().(*array.FixedSizeListBuilder)
		for _, g := range geoms {
			appendPointSeq(lb, pb, g.(orb.LineString))
		}

	case KindMultiLineString:
		lb := b.(*array.ListBuilder)
		sb := lb.ValueBuilder().(*array.ListBuilder)
		pb := sb.ValueBuilder().(*array.FixedSizeListBuilder)
		for _, g := range geoms {
			lb.Append(true)
			for _, line := range g.(orb.MultiLineString) {
				appendPointSeq(sb, pb, line)
			}
		}

	case KindPolygon:
		lb := b.(*array.ListBuilder)
		rb := lb.ValueBuilder().(*array.ListBuilder)
		pb := rb.ValueBuilder().(*array.FixedSizeListBuilder)
		for _, g := range geoms {
			appendPolygon(lb, rb, pb, asPolygon(g))
		}

	case KindMultiPolygon:
		lb := b.(*array.ListBuilder)
		gb := lb.ValueBuilder().(*array.ListBuilder)
		rb := gb.ValueBuilder().(*array.ListBuilder)
		pb := rb.ValueBuilder().(*array.FixedSizeListBuilder)
		for _, g := range geoms {
			lb.Append(true)
			for _, poly := range g.(orb.MultiPolygon) {
				appendPolygon(gb, rb, pb, poly)
			}
		}
	}
}

// Decoding

func decodeGeometry(col arrow.Array, kind GeometryKind, row int) (orb.Geometry, error) {
	if err := ValidateShape(col.DataType(), kind); err != nil {
		return nil, err
	}
	if row < 0 || row >= col.Len() {
		return nil, fmt.Errorf("geoarrow: row %d out of range for column of %d rows", row, col.Len())
	}

	switch kind {
	case KindPoint:
		coords, err := flatCoordinates(col)
		if err != nil {
			return nil, err
		}
		return pointAt(coords, row), nil

	case KindLineString, KindMultiPoint:
		list := col.(*array.List)
		offsets, err := listOffsets(list)
		if err != nil {
			return nil, err
		}
		coords, err := flatCoordinates(list.ListValues())
		if err != nil {
			return nil, err
		}
		points := pointRange(coords, offsets[row], offsets[row+1])
		if kind == KindMultiPoint {
			return orb.MultiPoint(points), nil
		}
		return orb.LineString(points), nil

	case KindPolygon, KindMultiLineString:
		outer := col.(*array.List)
		geomOffsets, err := listOffsets(outer)
		if err != nil {
			return nil, err
		}
		inner := outer.ListValues().(*array.List)
		partOffsets, err := listOffsets(inner)
		if err != nil {
			return nil, err
		}
		coords, err := flatCoordinates(inner.ListValues())
		if err != nil {
			return nil, err
		}
		if kind == KindPolygon {
			poly := make(orb.Polygon, 0, geomOffsets[row+1]-geomOffsets[row])
			for r := geomOffsets[row]; r < geomOffsets[row+1]; r++ {
				poly = append(poly, orb.Ring(pointRange(coords, partOffsets[r], partOffsets[r+1])))
			}
			return poly, nil
		}
		mls := make(orb.MultiLineString, 0, geomOffsets[row+1]-geomOffsets[row])
		for l := geomOffsets[row]; l < geomOffsets[row+1]; l++ {
			mls = append(mls, orb.LineString(pointRange(coords, partOffsets[l], partOffsets[l+1])))
		}
		return mls, nil

	default: // KindMultiPolygon
		outer := col.(*array.List)
		geomOffsets, err := listOffsets(outer)
		if err != nil {
			return nil, err
		}
		polys := outer.ListValues().(*array.List)
		polyOffsets, err := listOffsets(polys)
		if err != nil {
			return nil, err
		}
		rings := polys.ListValues().(*array.List)
		ringOffsets, err := listOffsets(rings)
		if err != nil {
			return nil, err
		}
		coords, err := flatCoordinates(rings.ListValues())
		if err != nil {
			return nil, err
		}
		mp := make(orb.MultiPolygon, 0, geomOffsets[row+1]-geomOffsets[row])
		for p := geomOffsets[row]; p < geomOffsets[row+1]; p++ {
			poly := make(orb.Polygon, 0, polyOffsets[p+1]-polyOffsets[p])
			for r := polyOffsets[p]; r < polyOffsets[p+1]; r++ {
				poly = append(poly, orb.Ring(pointRange(coords, ringOffsets[r], ringOffsets[r+1])))
			}
			mp = append(mp, poly)
		}
		return mp, nil
	}
}

func pointAt(coords FlatCoords, i int) orb.Point {
	return orb.Point{coords.X(i), coords.Y(i)}
}

func pointRange(coords FlatCoords, start, end int32) []orb.Point {
	points := make([]orb.Point, 0, end-start)
	for i := start; i < end; i++ {
		points = append(points, pointAt(coords, int(i)))
	}
	return points
}
