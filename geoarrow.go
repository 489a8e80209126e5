// Package geoarrow decodes GeoArrow-encoded geometry columns from Arrow
// record batches into the flat buffers a GPU renderer consumes: interleaved
// coordinates, start indices, and per-vertex attribute arrays. It never
// materializes row-wise geometry objects on the render path; multi-part
// geometries explode into one primitive per part, with inverted offset maps
// carried alongside so picking can recover the original row.
package geoarrow

import (
	"errors"
)

// Common errors returned by this package.
var (
	ErrNoGeometryColumn   = errors.New("geoarrow: no geometry column")
	ErrMalformedOffsets   = errors.New("geoarrow: malformed geometry offsets")
	ErrUnsupportedCoords  = errors.New("geoarrow: unsupported coordinate encoding")
	ErrInvalidShape       = errors.New("geoarrow: column shape does not match geometry kind")
	ErrInvalidColor       = errors.New("geoarrow: invalid color column")
	ErrRowCountMismatch   = errors.New("geoarrow: accessor row count mismatch")
	ErrMixedGeometryTypes = errors.New("geoarrow: mixed geometry types")
	ErrNoTriangulator     = errors.New("geoarrow: no triangulation function")
	ErrNoSpatialIndex     = errors.New("geoarrow: flatgeobuf data has no spatial index")
)

// ExtensionKey is the Arrow field metadata key that carries a column's
// extension type name.
const ExtensionKey = "ARROW:extension:name"

// GeoArrow extension type names, as recorded under ExtensionKey.
const (
	ExtensionPoint           = "geoarrow.point"
	ExtensionLineString      = "geoarrow.linestring"
	ExtensionPolygon         = "geoarrow.polygon"
	ExtensionMultiPoint      = "geoarrow.multipoint"
	ExtensionMultiLineString = "geoarrow.multilinestring"
	ExtensionMultiPolygon    = "geoarrow.multipolygon"
)

// GeometryKind identifies the logical shape of a geometry column. It is
// determined once, when the column is discovered, and threaded explicitly
// through every later call: LineString and MultiPoint (and Polygon and
// MultiLineString) share an identical physical encoding, so the kind can
// never be re-derived from shape alone.
type GeometryKind int

const (
	KindUnknown GeometryKind = iota
	KindPoint
	KindLineString
	KindPolygon
	KindMultiPoint
	KindMultiLineString
	KindMultiPolygon
)

// String returns the GeoJSON-style name of the kind.
func (k GeometryKind) String() string {
	switch k {
	case KindPoint:
		return "Point"
	case KindLineString:
		return "LineString"
	case KindPolygon:
		return "Polygon"
	case KindMultiPoint:
		return "MultiPoint"
	case KindMultiLineString:
		return "MultiLineString"
	case KindMultiPolygon:
		return "MultiPolygon"
	default:
		return "Unknown"
	}
}

// ExtensionName returns the GeoArrow extension tag for the kind, or the
// empty string for KindUnknown.
func (k GeometryKind) ExtensionName() string {
	switch k {
	case KindPoint:
		return ExtensionPoint
	case KindLineString:
		return ExtensionLineString
	case KindPolygon:
		return ExtensionPolygon
	case KindMultiPoint:
		return ExtensionMultiPoint
	case KindMultiLineString:
		return ExtensionMultiLineString
	case KindMultiPolygon:
		return ExtensionMultiPolygon
	default:
		return ""
	}
}

// KindForExtension maps a GeoArrow extension tag to its geometry kind.
// Unrecognized tags map to KindUnknown.
func KindForExtension(name string) GeometryKind {
	switch name {
	case ExtensionPoint:
		return KindPoint
	case ExtensionLineString:
		return KindLineString
	case ExtensionPolygon:
		return KindPolygon
	case ExtensionMultiPoint:
		return KindMultiPoint
	case ExtensionMultiLineString:
		return KindMultiLineString
	case ExtensionMultiPolygon:
		return KindMultiPolygon
	default:
		return KindUnknown
	}
}

// Multi reports whether one row of this kind explodes into multiple render
// primitives.
func (k GeometryKind) Multi() bool {
	switch k {
	case KindMultiPoint, KindMultiLineString, KindMultiPolygon:
		return true
	default:
		return false
	}
}

// listDepth is the number of variable-length list levels between the column
// root and the point level.
func (k GeometryKind) listDepth() int {
	switch k {
	case KindPoint:
		return 0
	case KindLineString, KindMultiPoint:
		return 1
	case KindPolygon, KindMultiLineString:
		return 2
	case KindMultiPolygon:
		return 3
	default:
		return -1
	}
}
