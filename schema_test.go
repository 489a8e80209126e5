package geoarrow

import (
	"errors"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
)

func TestKindForExtension(t *testing.T) {
	tests := []struct {
		name string
		want GeometryKind
	}{
		{ExtensionPoint, KindPoint},
		{ExtensionLineString, KindLineString},
		{ExtensionPolygon, KindPolygon},
		{ExtensionMultiPoint, KindMultiPoint},
		{ExtensionMultiLineString, KindMultiLineString},
		{ExtensionMultiPolygon, KindMultiPolygon},
		{"geoarrow.wkb", KindUnknown},
		{"", KindUnknown},
	}

	for _, tt := range tests {
		if got := KindForExtension(tt.name); got != tt.want {
			t.Errorf("KindForExtension(%q): expected %v, got %v", tt.name, tt.want, got)
		}
	}
	for _, k := range []GeometryKind{KindPoint, KindLineString, KindPolygon, KindMultiPoint, KindMultiLineString, KindMultiPolygon} {
		if got := KindForExtension(k.ExtensionName()); got != k {
			t.Errorf("round-trip through extension name failed for %v: got %v", k, got)
		}
	}
}

func TestFindGeometryColumn(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		GeometryField("geom", KindPolygon),
		{Name: "other", Type: KindPolygon.DataType()},
	}, nil)

	if idx, ok := FindGeometryColumn(schema, ExtensionPolygon, ""); !ok || idx != 1 {
		t.Errorf("expected column 1 by tag, got %d (found %v)", idx, ok)
	}
	if idx, ok := FindGeometryColumn(schema, ExtensionPolygon, "other"); !ok || idx != 1 {
		// The tagged column precedes "other" in declaration order and a tag
		// match wins just like a name match; first match is returned.
		t.Errorf("expected column 1, got %d (found %v)", idx, ok)
	}
	if idx, ok := FindGeometryColumn(schema, ExtensionMultiPolygon, "other"); !ok || idx != 2 {
		t.Errorf("expected column 2 by explicit name, got %d (found %v)", idx, ok)
	}
	if _, ok := FindGeometryColumn(schema, ExtensionPoint, ""); ok {
		t.Error("expected no match for absent tag")
	}
}

func TestDetectGeometryColumn(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		GeometryField("geom", KindMultiLineString),
		{Name: "plain", Type: KindPolygon.DataType()},
	}, nil)

	idx, kind, ok := DetectGeometryColumn(schema, "")
	if !ok || idx != 1 || kind != KindMultiLineString {
		t.Errorf("expected (1, MultiLineString), got (%d, %v, %v)", idx, kind, ok)
	}

	// An explicitly named untagged column is found, but its kind cannot be
	// derived from shape.
	idx, kind, ok = DetectGeometryColumn(schema, "plain")
	if !ok || idx != 2 || kind != KindUnknown {
		t.Errorf("expected (2, Unknown), got (%d, %v, %v)", idx, kind, ok)
	}

	empty := arrow.NewSchema([]arrow.Field{{Name: "id", Type: arrow.PrimitiveTypes.Int64}}, nil)
	if _, _, ok := DetectGeometryColumn(empty, ""); ok {
		t.Error("expected no geometry column")
	}
}

func TestValidateShape(t *testing.T) {
	separated := arrow.StructOf(
		arrow.Field{Name: "x", Type: arrow.PrimitiveTypes.Float64},
		arrow.Field{Name: "y", Type: arrow.PrimitiveTypes.Float64},
	)

	tests := []struct {
		name    string
		dt      arrow.DataType
		kind    GeometryKind
		wantErr error
	}{
		{"point interleaved", KindPoint.DataType(), KindPoint, nil},
		{"point separated", separated, KindPoint, nil},
		{"point float32", arrow.FixedSizeListOf(2, arrow.PrimitiveTypes.Float32), KindPoint, nil},
		{"linestring", KindLineString.DataType(), KindLineString, nil},
		{"multipoint shares linestring shape", KindLineString.DataType(), KindMultiPoint, nil},
		{"polygon", KindPolygon.DataType(), KindPolygon, nil},
		{"multipolygon", KindMultiPolygon.DataType(), KindMultiPolygon, nil},
		{"polygon too shallow", KindLineString.DataType(), KindPolygon, ErrInvalidShape},
		{"point too deep", KindLineString.DataType(), KindPoint, ErrUnsupportedCoords},
		{"wide leaf", arrow.FixedSizeListOf(4, arrow.PrimitiveTypes.Float64), KindPoint, ErrUnsupportedCoords},
		{"integer leaf", arrow.FixedSizeListOf(2, arrow.PrimitiveTypes.Int32), KindPoint, ErrUnsupportedCoords},
		{"separated int field", arrow.StructOf(
			arrow.Field{Name: "x", Type: arrow.PrimitiveTypes.Int64},
			arrow.Field{Name: "y", Type: arrow.PrimitiveTypes.Float64},
		), KindPoint, ErrUnsupportedCoords},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateShape(tt.dt, tt.kind)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			} else if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
