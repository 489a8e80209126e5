package geoarrow

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	flatgeobuf "github.com/flatgeobuf/flatgeobuf/src/go"
	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// RecordFromFlatGeobuf converts in-memory FlatGeobuf data into a GeoArrow
// record batch. Feature properties become sibling Arrow columns, so they
// can drive Column accessors directly. The data must carry a spatial index
// and envelope; features are read through an index scan over the full
// envelope.
func RecordFromFlatGeobuf(mem memory.Allocator, data []byte, columnName string) (arrow.Record, error) {
	fgb, err := flatgeobuf.NewWithData(data)
	if err != nil {
		return nil, fmt.Errorf("geoarrow: parsing flatgeobuf: %w", err)
	}
	header := fgb.Header()
	if header == nil {
		return nil, fmt.Errorf("geoarrow: flatgeobuf data has no header")
	}
	if header.IndexNodeSize() == 0 || header.EnvelopeLength() < 4 {
		return nil, ErrNoSpatialIndex
	}

	features, err := fgb.Search(header.Envelope(0), header.Envelope(1), header.Envelope(2), header.Envelope(3))
	if err != nil {
		return nil, fmt.Errorf("geoarrow: scanning flatgeobuf index: %w", err)
	}

	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		if f == nil {
			continue
		}
		var geomObj flattypes.Geometry
		geom := fgbGeometry(f.Geometry(&geomObj))
		if geom == nil {
			continue
		}
		feature := geojson.NewFeature(geom)
		if n := f.PropertiesLength(); n > 0 && header.ColumnsLength() > 0 {
			raw := make([]byte, n)
			for i := 0; i < n; i++ {
				raw[i] = byte(f.Properties(i))
			}
			feature.Properties = decodeFGBProperties(raw, header)
		}
		fc.Append(feature)
	}
	return RecordFromFeatureCollection(mem, fc, columnName)
}

// RecordFromFeatureCollection encodes a GeoJSON feature collection into a
// GeoArrow record batch: one tagged geometry column plus one nullable
// column per inferred property. All features must share one geometry kind.
func RecordFromFeatureCollection(mem memory.Allocator, fc *geojson.FeatureCollection, columnName string) (arrow.Record, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	if columnName == "" {
		columnName = "geometry"
	}
	if fc == nil || len(fc.Features) == 0 {
		return nil, fmt.Errorf("%w: empty feature collection", ErrNoGeometryColumn)
	}

	geoms := make([]orb.Geometry, 0, len(fc.Features))
	rows := make([]*geojson.Feature, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		geoms = append(geoms, f.Geometry)
		rows = append(rows, f)
	}
	if len(geoms) == 0 {
		return nil, fmt.Errorf("%w: no features with geometry", ErrNoGeometryColumn)
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

	props := inferPropertyColumns(rows)
	fields := make([]arrow.Field, 0, len(props)+1)
	fields = append(fields, GeometryField(columnName, kind))
	for _, p := range props {
		fields = append(fields, arrow.Field{Name: p.name, Type: p.dt, Nullable: true})
	}

	b := array.NewRecordBuilder(mem, arrow.NewSchema(fields, nil))
	defer b.Release()
	appendGeometries(b.Field(0), geoms, kind)
	for i, p := range props {
		appendPropertyColumn(b.Field(i+1), p, rows)
	}
	return b.NewRecord(), nil
}

type propertyColumn struct {
	name string
	dt   arrow.DataType
}

// inferPropertyColumns scans every feature's properties and infers one
// Arrow column per property name, widening when features disagree: mixing
// integers with floats widens to float64, anything else falls back to
// string.
func inferPropertyColumns(features []*geojson.Feature) []propertyColumn {
	types := make(map[string]arrow.DataType)
	for _, f := range features {
		for name, value := range f.Properties {
			dt := propertyType(value)
			if dt == nil {
				continue
			}
			if prev, ok := types[name]; ok {
				types[name] = widenType(prev, dt)
			} else {
				types[name] = dt
			}
		}
	}
	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	sort.Strings(names)
	cols := make([]propertyColumn, 0, len(names))
	for _, name := range names {
		cols = append(cols, propertyColumn{name: name, dt: types[name]})
	}
	return cols
}

func propertyType(v any) arrow.DataType {
	switch v.(type) {
	case bool:
		return arrow.FixedWidthTypes.Boolean
	case int, int8, int16, int32, int64, uint8, uint16, uint32, uint64:
		return arrow.PrimitiveTypes.Int64
	case float32, float64:
		return arrow.PrimitiveTypes.Float64
	case string:
		return arrow.BinaryTypes.String
	default:
		return nil
	}
}

func widenType(a, b arrow.DataType) arrow.DataType {
	if arrow.TypeEqual(a, b) {
		return a
	}
	numeric := func(dt arrow.DataType) bool {
		return dt.ID() == arrow.INT64 || dt.ID() == arrow.FLOAT64
	}
	if numeric(a) && numeric(b) {
		return arrow.PrimitiveTypes.Float64
	}
	return arrow.BinaryTypes.String
}

func appendPropertyColumn(b array.Builder, col propertyColumn, features []*geojson.Feature) {
	for _, f := range features {
		v, ok := f.Properties[col.name]
		if !ok || v == nil {
			b.AppendNull()
			continue
		}
		switch builder := b.(type) {
		case *array.BooleanBuilder:
			if bv, ok := v.(bool); ok {
				builder.Append(bv)
			} else {
				builder.AppendNull()
			}
		case *array.Int64Builder:
			if iv, ok := propertyInt64(v); ok {
				builder.Append(iv)
			} else {
				builder.AppendNull()
			}
		case *array.Float64Builder:
			if fv, ok := propertyFloat64(v); ok {
				builder.Append(fv)
			} else {
				builder.AppendNull()
			}
		case *array.StringBuilder:
			builder.Append(fmt.Sprint(v))
		default:
			b.AppendNull()
		}
	}
}

func propertyInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	default:
		return 0, false
	}
}

func propertyFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		if iv, ok := propertyInt64(v); ok {
			return float64(iv), true
		}
		return 0, false
	}
}

// FlatGeobuf geometry decoding

func fgbGeometry(g *flattypes.Geometry) orb.Geometry {
	if g == nil {
		return nil
	}
	switch g.Type() {
	case flattypes.GeometryTypePoint:
		if g.XyLength() < 2 {
			return nil
		}
		return orb.Point{g.Xy(0), g.Xy(1)}

	case flattypes.GeometryTypeMultiPoint:
		return orb.MultiPoint(fgbPoints(g, 0, uint32(g.XyLength()/2)))

	case flattypes.GeometryTypeLineString:
		return orb.LineString(fgbPoints(g, 0, uint32(g.XyLength()/2)))

	case flattypes.GeometryTypeMultiLineString:
		ranges := fgbPartRanges(g)
		mls := make(orb.MultiLineString, 0, len(ranges))
		for _, r := range ranges {
			mls = append(mls, orb.LineString(fgbPoints(g, r[0], r[1])))
		}
		return mls

	case flattypes.GeometryTypePolygon:
		return fgbPolygon(g)

	case flattypes.GeometryTypeMultiPolygon:
		n := g.PartsLength()
		mp := make(orb.MultiPolygon, 0, n)
		for i := 0; i < n; i++ {
			var part flattypes.Geometry
			if g.Parts(&part, i) {
				if poly := fgbPolygon(&part); len(poly) > 0 {
					mp = append(mp, poly)
				}
			}
		}
		return mp

	default:
		return nil
	}
}

func fgbPolygon(g *flattypes.Geometry) orb.Polygon {
	ranges := fgbPartRanges(g)
	poly := make(orb.Polygon, 0, len(ranges))
	for _, r := range ranges {
		poly = append(poly, orb.Ring(fgbPoints(g, r[0], r[1])))
	}
	return poly
}

// fgbPartRanges returns [start, end) point ranges per part from the ends
// array; without one, the whole coordinate run is a single part.
func fgbPartRanges(g *flattypes.Geometry) [][2]uint32 {
	total := uint32(g.XyLength() / 2)
	n := g.EndsLength()
	if n == 0 {
		if total == 0 {
			return nil
		}
		return [][2]uint32{{0, total}}
	}
	ranges := make([][2]uint32, 0, n)
	start := uint32(0)
	for i := 0; i < n; i++ {
		end := g.Ends(i)
		if end > total {
			end = total
		}
		ranges = append(ranges, [2]uint32{start, end})
		start = end
	}
	return ranges
}

func fgbPoints(g *flattypes.Geometry, start, end uint32) []orb.Point {
	points := make([]orb.Point, 0, end-start)
	for i := start; i < end; i++ {
		points = append(points, orb.Point{g.Xy(int(i) * 2), g.Xy(int(i)*2 + 1)})
	}
	return points
}

// FlatGeobuf property decoding: little-endian column index followed by a
// value whose width depends on the column type.

func decodeFGBProperties(data []byte, header *flattypes.Header) geojson.Properties {
	if len(data) == 0 {
		return nil
	}
	props := make(geojson.Properties)
	offset := 0
	for offset+2 <= len(data) {
		colIndex := int(binary.LittleEndian.Uint16(data[offset : offset+2]))
		offset += 2
		if colIndex >= header.ColumnsLength() {
			break
		}
		var col flattypes.Column
		if !header.Columns(&col, colIndex) {
			break
		}
		value, n := readFGBValue(data[offset:], col.Type())
		if n == 0 && col.Type() != flattypes.ColumnTypeBool {
			break
		}
		offset += n
		props[string(col.Name())] = value
	}
	return props
}

func readFGBValue(data []byte, colType flattypes.ColumnType) (any, int) {
	switch colType {
	case flattypes.ColumnTypeBool:
		if len(data) < 1 {
			return nil, 0
		}
		return data[0] != 0, 1
	case flattypes.ColumnTypeByte:
		if len(data) < 1 {
			return nil, 0
		}
		return int8(data[0]), 1
	case flattypes.ColumnTypeUByte:
		if len(data) < 1 {
			return nil, 0
		}
		return data[0], 1
	case flattypes.ColumnTypeShort:
		if len(data) < 2 {
			return nil, 0
		}
		return int16(binary.LittleEndian.Uint16(data)), 2
	case flattypes.ColumnTypeUShort:
		if len(data) < 2 {
			return nil, 0
		}
		return binary.LittleEndian.Uint16(data), 2
	case flattypes.ColumnTypeInt:
		if len(data) < 4 {
			return nil, 0
		}
		return int32(binary.LittleEndian.Uint32(data)), 4
	case flattypes.ColumnTypeUInt:
		if len(data) < 4 {
			return nil, 0
		}
		return binary.LittleEndian.Uint32(data), 4
	case flattypes.ColumnTypeLong:
		if len(data) < 8 {
			return nil, 0
		}
		return int64(binary.LittleEndian.Uint64(data)), 8
	case flattypes.ColumnTypeULong:
		if len(data) < 8 {
			return nil, 0
		}
		return binary.LittleEndian.Uint64(data), 8
	case flattypes.ColumnTypeFloat:
		if len(data) < 4 {
			return nil, 0
		}
		return math.Float32frombits(binary.LittleEndian.Uint32(data)), 4
	case flattypes.ColumnTypeDouble:
		if len(data) < 8 {
			return nil, 0
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(data)), 8
	case flattypes.ColumnTypeString, flattypes.ColumnTypeJson, flattypes.ColumnTypeDateTime:
		i := bytes.IndexByte(data, 0)
		if i == -1 {
			return string(data), len(data)
		}
		return string(data[:i]), i + 1
	default:
		return nil, 0
	}
}
