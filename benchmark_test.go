package geoarrow

import (
	"math/rand"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/paulmach/orb"
)

// =============================================================================
// Benchmark Data Generators
// =============================================================================

// generateOffsets creates n+1 monotonically increasing offsets with runs of
// minRun..maxRun children each.
func generateOffsets(r *rand.Rand, n, minRun, maxRun int) []int32 {
	offsets := make([]int32, n+1)
	for i := 1; i <= n; i++ {
		offsets[i] = offsets[i-1] + int32(minRun+r.Intn(maxRun-minRun+1))
	}
	return offsets
}

// generatePolygonRecord builds a polygon record of n random squares with a
// float64 "elevation" column alongside the geometry.
func generatePolygonRecord(r *rand.Rand, n int) arrow.Record {
	geoms := make([]orb.Geometry, n)
	for i := 0; i < n; i++ {
		x := -180 + r.Float64()*359
		y := -90 + r.Float64()*179
		size := 0.01 + r.Float64()*0.09
		geoms[i] = orb.Polygon{{
			{x, y},
			{x + size, y},
			{x + size, y + size},
			{x, y + size},
			{x, y},
		}}
	}
	rec, err := RecordFromGeometries(nil, geoms, "")
	if err != nil {
		panic(err)
	}
	return rec
}

// generateLineRecord builds a linestring record of n lines with the given
// number of vertices each.
func generateLineRecord(r *rand.Rand, n, verticesPerLine int) arrow.Record {
	geoms := make([]orb.Geometry, n)
	for i := 0; i < n; i++ {
		line := make(orb.LineString, verticesPerLine)
		x := -180 + r.Float64()*356
		y := -90 + r.Float64()*176
		for j := range line {
			line[j] = orb.Point{x + float64(j)*0.01, y + float64(j)*0.01}
		}
		geoms[i] = line
	}
	rec, err := RecordFromGeometries(nil, geoms, "")
	if err != nil {
		panic(err)
	}
	return rec
}

// =============================================================================
// Offset Algebra
// =============================================================================

func BenchmarkComposeOffsets_1000(b *testing.B)   { benchmarkComposeOffsets(b, 1000) }
func BenchmarkComposeOffsets_100000(b *testing.B) { benchmarkComposeOffsets(b, 100000) }

func benchmarkComposeOffsets(b *testing.B, n int) {
	r := rand.New(rand.NewSource(42))
	outer := generateOffsets(r, n, 1, 3)
	inner := generateOffsets(r, int(outer[n]), 4, 32)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		composeOffsets(outer, inner)
	}
}

func BenchmarkInvertOffsets_1000(b *testing.B)   { benchmarkInvertOffsets(b, 1000) }
func BenchmarkInvertOffsets_100000(b *testing.B) { benchmarkInvertOffsets(b, 100000) }

func benchmarkInvertOffsets(b *testing.B, n int) {
	r := rand.New(rand.NewSource(42))
	offsets := generateOffsets(r, n, 1, 4)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		InvertOffsets(offsets)
	}
}

// =============================================================================
// Attribute Expansion
// =============================================================================

func BenchmarkExpandToCoords_Size1_100000(b *testing.B) { benchmarkExpandToCoords(b, 100000, 1) }
func BenchmarkExpandToCoords_Size4_100000(b *testing.B) { benchmarkExpandToCoords(b, 100000, 4) }

func benchmarkExpandToCoords(b *testing.B, n, size int) {
	r := rand.New(rand.NewSource(42))
	offsets := generateOffsets(r, n, 4, 32)
	values := make([]float64, n*size)
	for i := range values {
		values[i] = r.Float64()
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		expandToCoords(values, size, offsets)
	}
}

// =============================================================================
// Layer Adapters
// =============================================================================

func BenchmarkBuildPath_LineStrings_1000(b *testing.B) {
	r := rand.New(rand.NewSource(42))
	rec := generateLineRecord(r, 1000, 10)
	defer rec.Release()
	opts := &LayerOptions{
		Accessors: map[string]Accessor{"getColor": Constant(255, 0, 0, 255).AsColor()},
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := BuildPath(rec, opts); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkBuildSolidPolygon_1000(b *testing.B)  { benchmarkBuildSolidPolygon(b, 1000, false) }
func BenchmarkBuildSolidPolygon_10000(b *testing.B) { benchmarkBuildSolidPolygon(b, 10000, false) }

func BenchmarkBuildSolidPolygon_Triangulated_1000(b *testing.B) {
	benchmarkBuildSolidPolygon(b, 1000, true)
}

func benchmarkBuildSolidPolygon(b *testing.B, n int, triangulate bool) {
	r := rand.New(rand.NewSource(42))
	rec := generatePolygonRecord(r, n)
	defer rec.Release()

	opts := &LayerOptions{
		Accessors: map[string]Accessor{"getFillColor": Constant(0, 128, 255, 255).AsColor()},
	}
	if triangulate {
		tri := NewTriangulator(fanTriangulate, 4)
		defer tri.Close()
		opts.Triangulator = tri
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := BuildSolidPolygon(rec, opts); err != nil {
			b.Fatal(err)
		}
	}
}
