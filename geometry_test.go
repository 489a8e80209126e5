package geoarrow

import (
	"errors"
	"reflect"
	"testing"

	"github.com/paulmach/orb"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		geom orb.Geometry
		want GeometryKind
	}{
		{"Point", orb.Point{1, 2}, KindPoint},
		{"MultiPoint", orb.MultiPoint{{1, 2}, {3, 4}}, KindMultiPoint},
		{"LineString", orb.LineString{{0, 0}, {1, 1}}, KindLineString},
		{"MultiLineString", orb.MultiLineString{{{0, 0}, {1, 1}}}, KindMultiLineString},
		{"Ring", orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 0}}, KindPolygon},
		{"Polygon", orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}, KindPolygon},
		{"MultiPolygon", orb.MultiPolygon{{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}}, KindMultiPolygon},
		{"Bound", orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}, KindPolygon},
		{"Collection", orb.Collection{orb.Point{1, 2}}, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.geom); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRecordRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		geoms []orb.Geometry
	}{
		{"points", []orb.Geometry{orb.Point{1.5, 2.5}, orb.Point{-3, 4}}},
		{"multipoints", []orb.Geometry{orb.MultiPoint{{1, 2}, {3, 4}}, orb.MultiPoint{{5, 6}}}},
		{"linestrings", []orb.Geometry{
			orb.LineString{{0, 0}, {1, 1}, {2, 2}},
			orb.LineString{{9, 9}, {8, 8}},
		}},
		{"multilinestrings", []orb.Geometry{
			orb.MultiLineString{{{0, 0}, {1, 1}}, {{2, 2}, {3, 3}, {4, 4}}},
		}},
		{"polygons", []orb.Geometry{
			orb.Polygon{
				{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
				{{2, 2}, {8, 2}, {8, 8}, {2, 8}, {2, 2}},
			},
		}},
		{"multipolygons", []orb.Geometry{
			orb.MultiPolygon{
				{{{0, 0}, {5, 0}, {5, 5}, {0, 5}, {0, 0}}},
				{{{10, 10}, {15, 10}, {15, 15}, {10, 15}, {10, 10}}},
			},
			orb.MultiPolygon{
				{{{20, 20}, {25, 20}, {25, 25}, {20, 25}, {20, 20}}},
			},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := RecordFromGeometries(nil, tt.geoms, "")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer rec.Release()

			if int(rec.NumRows()) != len(tt.geoms) {
				t.Fatalf("expected %d rows, got %d", len(tt.geoms), rec.NumRows())
			}
			for i, want := range tt.geoms {
				got, err := GeometryAt(rec, i, "")
				if err != nil {
					t.Fatalf("row %d: unexpected error: %v", i, err)
				}
				if !reflect.DeepEqual(got, want) {
					t.Errorf("row %d: expected %v, got %v", i, want, got)
				}
			}
		})
	}
}

func TestRecordRoundTrip_Ring(t *testing.T) {
	ring := orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 0}}
	rec, err := RecordFromGeometries(nil, []orb.Geometry{ring}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rec.Release()

	got, err := GeometryAt(rec, 0, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Rings encode as single-ring polygons.
	if want := (orb.Polygon{ring}); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestRecordFromGeometries_Mixed(t *testing.T) {
	_, err := RecordFromGeometries(nil, []orb.Geometry{
		orb.Point{0, 0},
		orb.LineString{{0, 0}, {1, 1}},
	}, "")
	if !errors.Is(err, ErrMixedGeometryTypes) {
		t.Errorf("expected ErrMixedGeometryTypes, got %v", err)
	}
}

func TestRecordFromGeometries_Empty(t *testing.T) {
	if _, err := RecordFromGeometries(nil, nil, ""); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestGeometryAt_RowOutOfRange(t *testing.T) {
	rec, err := RecordFromGeometries(nil, []orb.Geometry{orb.Point{0, 0}}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rec.Release()

	if _, err := GeometryAt(rec, 5, ""); err == nil {
		t.Error("expected error for out-of-range row")
	}
}
