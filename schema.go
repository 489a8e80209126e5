package geoarrow

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// extensionTag returns a field's Arrow extension type name, if present.
func extensionTag(f arrow.Field) (string, bool) {
	if i := f.Metadata.FindKey(ExtensionKey); i >= 0 {
		return f.Metadata.Values()[i], true
	}
	return "", false
}

// FindGeometryColumn scans a schema in declaration order and returns the
// index of the first column whose name equals explicitName (when non-empty)
// or whose extension tag equals extensionName. A false result is not an
// error: callers decide whether to fall back or skip.
func FindGeometryColumn(schema *arrow.Schema, extensionName, explicitName string) (int, bool) {
	for i, f := range schema.Fields() {
		if explicitName != "" && f.Name == explicitName {
			return i, true
		}
		if tag, ok := extensionTag(f); ok && tag == extensionName {
			return i, true
		}
	}
	return -1, false
}

// DetectGeometryColumn scans a schema in declaration order for the first
// column carrying any GeoArrow extension tag, or the column named
// explicitName when given. The returned kind is KindUnknown when the
// matched column carries no recognized tag; physically ambiguous kinds
// (LineString vs MultiPoint, Polygon vs MultiLineString) are only ever
// distinguished by this tag, so callers must keep the pairing.
func DetectGeometryColumn(schema *arrow.Schema, explicitName string) (int, GeometryKind, bool) {
	for i, f := range schema.Fields() {
		if explicitName != "" && f.Name == explicitName {
			kind := KindUnknown
			if tag, ok := extensionTag(f); ok {
				kind = KindForExtension(tag)
			}
			return i, kind, true
		}
		if tag, ok := extensionTag(f); ok {
			if kind := KindForExtension(tag); kind != KindUnknown {
				return i, kind, true
			}
		}
	}
	return -1, KindUnknown, false
}

// ValidateShape verifies that a column's physical type carries the nesting
// depth required by kind, with a recognized point encoding at the bottom:
// a fixed-size list of 2 or 3 floats (interleaved) or a struct of 2 or 3
// float64 fields (separated).
func ValidateShape(dt arrow.DataType, kind GeometryKind) error {
	depth := kind.listDepth()
	if depth < 0 {
		return fmt.Errorf("%w: unknown geometry kind", ErrInvalidShape)
	}
	cur := dt
	for level := 0; level < depth; level++ {
		lt, ok := cur.(*arrow.ListType)
		if !ok {
			return fmt.Errorf("%w: %s needs %d list levels, found %s at level %d",
				ErrInvalidShape, kind, depth, cur, level)
		}
		cur = lt.Elem()
	}
	if err := validatePointType(cur); err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}
	return nil
}

func validatePointType(dt arrow.DataType) error {
	switch t := dt.(type) {
	case *arrow.FixedSizeListType:
		if t.Len() != 2 && t.Len() != 3 {
			return fmt.Errorf("%w: coordinate width %d, want 2 or 3", ErrUnsupportedCoords, t.Len())
		}
		switch t.Elem().ID() {
		case arrow.FLOAT64, arrow.FLOAT32:
			return nil
		}
		return fmt.Errorf("%w: coordinate child is %s, want float", ErrUnsupportedCoords, t.Elem())

	case *arrow.StructType:
		fields := t.Fields()
		if len(fields) != 2 && len(fields) != 3 {
			return fmt.Errorf("%w: struct of %d fields, want 2 or 3", ErrUnsupportedCoords, len(fields))
		}
		for _, f := range fields {
			if f.Type.ID() != arrow.FLOAT64 {
				return fmt.Errorf("%w: struct field %q is %s, want float64",
					ErrUnsupportedCoords, f.Name, f.Type)
			}
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedCoords, dt)
}
