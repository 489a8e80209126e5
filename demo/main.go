package main

import (
	"fmt"
	"log"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	geoarrow "github.com/tingold/orb-geoarrow"
)

type District struct {
	Name      string
	Density   float64
	Footprint orb.Polygon
}

var districts = []District{
	{"Harbor", 5200, orb.Polygon{{
		{-122.42, 37.80}, {-122.40, 37.80}, {-122.40, 37.82}, {-122.42, 37.82}, {-122.42, 37.80},
	}}},
	{"Midtown", 12400, orb.Polygon{
		{{-122.40, 37.78}, {-122.37, 37.78}, {-122.37, 37.80}, {-122.40, 37.80}, {-122.40, 37.78}},
		// Park carved out of the middle.
		{{-122.39, 37.785}, {-122.38, 37.785}, {-122.38, 37.795}, {-122.39, 37.795}, {-122.39, 37.785}},
	}},
	{"Southside", 8700, orb.Polygon{{
		{-122.41, 37.75}, {-122.38, 37.75}, {-122.38, 37.77}, {-122.41, 37.77}, {-122.41, 37.75},
	}}},
}

// fanTriangulate splits each ring's outer boundary into a triangle fan. A
// real renderer would plug in an ear-clipping implementation here; the fan
// keeps the demo dependency-free and is correct for convex outlines.
func fanTriangulate(p geoarrow.PolygonRings) ([]uint32, error) {
	end := p.RingEnds[0]
	indices := make([]uint32, 0, 3*(end-2))
	for i := int32(1); i < end-1; i++ {
		indices = append(indices, 0, uint32(i), uint32(i+1))
	}
	return indices, nil
}

func main() {
	// Build a GeoJSON FeatureCollection
	fc := geojson.NewFeatureCollection()
	for _, d := range districts {
		f := geojson.NewFeature(d.Footprint)
		f.Properties = geojson.Properties{
			"name":    d.Name,
			"density": d.Density,
		}
		fc.Append(f)
	}

	// Encode it as a GeoArrow record batch
	rec, err := geoarrow.RecordFromFeatureCollection(nil, fc, "")
	if err != nil {
		log.Fatalf("Failed to encode record: %v", err)
	}
	defer rec.Release()

	idx, kind, _ := geoarrow.DetectGeometryColumn(rec.Schema(), "")
	fmt.Printf("Record: %d rows, geometry column %d (%s)\n", rec.NumRows(), idx, kind)

	// Build GPU-ready polygon data: positions, per-vertex colors scaled by
	// density, and triangle indices.
	tri := geoarrow.NewTriangulator(fanTriangulate, 4)
	defer tri.Close()

	data, err := geoarrow.BuildSolidPolygon(rec, &geoarrow.LayerOptions{
		Triangulator: tri,
		Accessors: map[string]geoarrow.Accessor{
			"getFillColor": geoarrow.Callback(func(row int) []float64 {
				d := districts[row]
				shade := 255 * d.Density / 13000
				return []float64{shade, 80, 255 - shade, 255}
			}).AsColor(),
			"getElevation": geoarrow.Column("density"),
		},
	})
	if err != nil {
		log.Fatalf("Failed to build polygon layer data: %v", err)
	}

	fmt.Printf("Vertices:      %d\n", data.Length)
	fmt.Printf("Rings:         %d (start indices %v)\n", len(data.StartIndices)-1, data.StartIndices)
	fmt.Printf("Triangles:     %d\n", len(data.Indices)/3)
	for name, attr := range data.Attributes {
		fmt.Printf("Attribute %-13s size=%d normalized=%v\n", name, attr.Size, attr.Normalized)
	}

	// Round-trip a row back out of the column, the way a picking handler
	// resolves a clicked vertex.
	g, err := geoarrow.GeometryAt(rec, data.OriginalRow(1), "")
	if err != nil {
		log.Fatalf("Failed to decode geometry: %v", err)
	}
	fmt.Printf("Picked row 1:  %T with %d rings\n", g, len(g.(orb.Polygon)))
}
