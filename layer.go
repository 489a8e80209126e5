package geoarrow

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// geometryColumn locates and validates the geometry column a layer will
// consume. The kind comes from the extension tag recorded at discovery;
// for an explicitly named, untagged column the kind is inferred among the
// kinds the layer accepts, since shape alone cannot distinguish further.
func geometryColumn(rec arrow.Record, opts *LayerOptions, accept ...GeometryKind) (arrow.Array, GeometryKind, error) {
	name := ""
	if opts != nil {
		name = opts.GeometryColumn
	}
	idx, kind, ok := DetectGeometryColumn(rec.Schema(), name)
	if !ok {
		return nil, KindUnknown, ErrNoGeometryColumn
	}
	col := rec.Column(idx)

	if kind == KindUnknown {
		for _, k := range accept {
			if ValidateShape(col.DataType(), k) == nil {
				return col, k, nil
			}
		}
		return nil, KindUnknown, fmt.Errorf("%w: column %q fits none of the accepted kinds",
			ErrInvalidShape, rec.Schema().Field(idx).Name)
	}

	for _, k := range accept {
		if k == kind {
			if err := ValidateShape(col.DataType(), kind); err != nil {
				return nil, kind, err
			}
			return col, kind, nil
		}
	}
	return nil, kind, fmt.Errorf("%w: %s geometry cannot feed this layer", ErrInvalidShape, kind)
}

// resolveAccessors fills data.Attributes from opts.Accessors. Per-feature
// inputs become per-vertex buffers through offsets; im translates callback
// indices for exploded geometries.
func resolveAccessors(rec arrow.Record, opts *LayerOptions, data *RenderData, features int, offsets []int32, im *OriginalIndexMap) error {
	if opts == nil {
		return nil
	}
	for name, acc := range opts.Accessors {
		attr, err := ResolveAccessor(rec, acc, features, offsets, im)
		if err != nil {
			return fmt.Errorf("accessor %q: %w", name, err)
		}
		data.Attributes[name] = attr
	}
	return nil
}

func newRenderData(opts *LayerOptions, length int) *RenderData {
	data := &RenderData{
		Length:     length,
		Attributes: make(map[string]Attribute),
	}
	if opts != nil {
		data.BatchOffset = opts.BatchOffset
	}
	return data
}

// BuildScatterplot derives scatter-point render data from a batch carrying
// a point or multi-point geometry column. Multi-points explode into one
// primitive per point, with the inverted offsets recorded for picking.
func BuildScatterplot(rec arrow.Record, opts *LayerOptions) (*RenderData, error) {
	col, kind, err := geometryColumn(rec, opts, KindPoint, KindMultiPoint)
	if err != nil {
		return nil, err
	}
	rows := int(rec.NumRows())

	switch kind {
	case KindPoint:
		coords, err := flatCoordinates(col)
		if err != nil {
			return nil, err
		}
		data := newRenderData(opts, rows)
		data.Attributes[PositionsName] = Attribute{Value: coords.Value(), Size: coords.Dim}
		if err := resolveAccessors(rec, opts, data, rows, nil, nil); err != nil {
			return nil, err
		}
		return data, nil

	default: // KindMultiPoint
		list := col.(*array.List)
		geomOffsets, err := listOffsets(list)
		if err != nil {
			return nil, err
		}
		coords, err := flatCoordinates(list.ListValues())
		if err != nil {
			return nil, err
		}
		data := newRenderData(opts, int(geomOffsets[len(geomOffsets)-1]))
		data.Attributes[PositionsName] = Attribute{Value: coords.Value(), Size: coords.Dim}
		data.Picking = InvertOffsets(geomOffsets)
		if err := resolveAccessors(rec, opts, data, rows, geomOffsets, nil); err != nil {
			return nil, err
		}
		return data, nil
	}
}

// BuildPath derives path render data from a batch carrying a linestring or
// multi-linestring geometry column. Multi-linestrings explode into one path
// per part; start indices always delimit one path's coordinate run.
func BuildPath(rec arrow.Record, opts *LayerOptions) (*RenderData, error) {
	col, kind, err := geometryColumn(rec, opts, KindLineString, KindMultiLineString)
	if err != nil {
		return nil, err
	}
	rows := int(rec.NumRows())

	switch kind {
	case KindLineString:
		list := col.(*array.List)
		geomOffsets, err := listOffsets(list)
		if err != nil {
			return nil, err
		}
		coords, err := flatCoordinates(list.ListValues())
		if err != nil {
			return nil, err
		}
		data := newRenderData(opts, rows)
		data.StartIndices = geomOffsets
		data.Attributes[PositionsName] = Attribute{Value: coords.Value(), Size: coords.Dim}
		if err := resolveAccessors(rec, opts, data, rows, geomOffsets, nil); err != nil {
			return nil, err
		}
		return data, nil

	default: // KindMultiLineString
		outer := col.(*array.List)
		geomOffsets, err := listOffsets(outer)
		if err != nil {
			return nil, err
		}
		inner := outer.ListValues().(*array.List)
		lineOffsets, err := listOffsets(inner)
		if err != nil {
			return nil, err
		}
		coords, err := flatCoordinates(inner.ListValues())
		if err != nil {
			return nil, err
		}
		data := newRenderData(opts, len(lineOffsets)-1)
		data.StartIndices = lineOffsets
		data.Attributes[PositionsName] = Attribute{Value: coords.Value(), Size: coords.Dim}
		data.Picking = InvertOffsets(geomOffsets)
		// Per-feature attributes expand straight to per-vertex through the
		// composed row-to-coordinate offsets.
		rowToCoord := composeOffsets(geomOffsets, lineOffsets)
		if err := resolveAccessors(rec, opts, data, rows, rowToCoord, nil); err != nil {
			return nil, err
		}
		return data, nil
	}
}

// BuildSolidPolygon derives filled-polygon render data from a batch
// carrying a polygon or multi-polygon geometry column. Multi-polygons
// explode into one primitive per sub-polygon. Start indices are the
// composed polygon-to-coordinate offsets, and per-feature attributes are
// expanded through those same composed offsets, never through the raw
// ring-to-coordinate level. When opts.Triangulator is set, every polygon
// is triangulated and the batch-global triangle indices are returned.
func BuildSolidPolygon(rec arrow.Record, opts *LayerOptions) (*RenderData, error) {
	col, kind, err := geometryColumn(rec, opts, KindPolygon, KindMultiPolygon)
	if err != nil {
		return nil, err
	}
	rows := int(rec.NumRows())

	var (
		data       *RenderData
		coords     FlatCoords
		polyToRing []int32 // per exploded polygon: index of its first ring
		ringToCrd  []int32 // per ring: index of its first coordinate
	)

	switch kind {
	case KindPolygon:
		geom := col.(*array.List)
		geomOffsets, err := listOffsets(geom)
		if err != nil {
			return nil, err
		}
		rings := geom.ListValues().(*array.List)
		ringOffsets, err := listOffsets(rings)
		if err != nil {
			return nil, err
		}
		coords, err = flatCoordinates(rings.ListValues())
		if err != nil {
			return nil, err
		}
		polyToRing, ringToCrd = geomOffsets, ringOffsets

		data = newRenderData(opts, rows)
		data.StartIndices = composeOffsets(geomOffsets, ringOffsets)
		data.Attributes[PositionsName] = Attribute{Value: coords.Value(), Size: coords.Dim}
		if err := resolveAccessors(rec, opts, data, rows, data.StartIndices, nil); err != nil {
			return nil, err
		}

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
		coords, err = flatCoordinates(rings.ListValues())
		if err != nil {
			return nil, err
		}
		polyToRing, ringToCrd = polyOffsets, ringOffsets

		data = newRenderData(opts, len(polyOffsets)-1)
		data.StartIndices = composeOffsets(polyOffsets, ringOffsets)
		data.Picking = InvertOffsets(geomOffsets)
		data.Attributes[PositionsName] = Attribute{Value: coords.Value(), Size: coords.Dim}
		rowToCoord := composeOffsets(geomOffsets, data.StartIndices)
		if err := resolveAccessors(rec, opts, data, rows, rowToCoord, nil); err != nil {
			return nil, err
		}
	}

	if opts != nil && opts.Triangulator != nil {
		requests := polygonRequests(coords, polyToRing, ringToCrd)
		results, err := opts.Triangulator.TriangulateAll(requests)
		if err != nil {
			return nil, err
		}
		total := 0
		for _, r := range results {
			total += len(r)
		}
		indices := make([]uint32, 0, total)
		for i, r := range results {
			base := uint32(data.StartIndices[i])
			for _, v := range r {
				indices = append(indices, base+v)
			}
		}
		data.Indices = indices
	}
	return data, nil
}

// polygonRequests builds one self-contained triangulation request per
// polygon: the polygon's interleaved coordinates and its ring boundaries
// rebased to the polygon's first point.
func polygonRequests(coords FlatCoords, polyToRing, ringToCoord []int32) []PolygonRings {
	n := len(polyToRing) - 1
	requests := make([]PolygonRings, n)
	for i := 0; i < n; i++ {
		firstRing, endRing := polyToRing[i], polyToRing[i+1]
		start, end := ringToCoord[firstRing], ringToCoord[endRing]
		ends := make([]int32, 0, endRing-firstRing)
		for r := firstRing + 1; r <= endRing; r++ {
			ends = append(ends, ringToCoord[r]-start)
		}
		requests[i] = PolygonRings{
			Coords:   coordRange(coords, int(start), int(end)),
			RingEnds: ends,
			Dim:      coords.Dim,
		}
	}
	return requests
}

// coordRange returns points [start, end) as float64 values, converting
// float32 storage on the way out.
func coordRange(coords FlatCoords, start, end int) []float64 {
	if coords.Float64 != nil {
		return coords.Float64[start*coords.Dim : end*coords.Dim]
	}
	out := make([]float64, (end-start)*coords.Dim)
	src := coords.Float32[start*coords.Dim : end*coords.Dim]
	for i, v := range src {
		out[i] = float64(v)
	}
	return out
}
