package geoarrow

// RenderData is the structure handed to the external renderer: a primitive
// count, optional per-primitive start indices into the flat vertex run, and
// named attribute buffers. The package depends on nothing about the
// renderer beyond this shape.
type RenderData struct {
	// Length is the number of render primitives: rows for single-part
	// geometries, exploded parts for multi-part ones.
	Length int

	// StartIndices holds, per primitive, the index of its first coordinate
	// in the flat buffers. Nil for point primitives.
	StartIndices []int32

	// Indices holds triangle vertex indices for solid polygons, global to
	// the batch's flat coordinate buffer. Nil unless triangulation ran.
	Indices []uint32

	// Attributes maps renderer attribute names to resolved buffers. The
	// "positions" attribute is always present.
	Attributes map[string]Attribute

	// Picking maps a primitive-local index back to the row within the
	// batch. Nil when primitives already map 1:1 to rows.
	Picking *OriginalIndexMap

	// BatchOffset is the global row index of this batch's first row.
	BatchOffset int
}

// OriginalRow translates a renderer-local primitive index into the global
// row index of the feature that produced it.
func (d *RenderData) OriginalRow(local int) int {
	if d.Picking != nil {
		local = d.Picking.At(local)
	}
	return d.BatchOffset + local
}

// PositionsName is the attribute key under which flat coordinates are
// stored in RenderData.Attributes.
const PositionsName = "positions"

// LayerOptions configures one adapter pass over a batch.
type LayerOptions struct {
	// GeometryColumn names the geometry column explicitly. Empty means
	// discover it by GeoArrow extension tag.
	GeometryColumn string

	// BatchOffset is the global row index of the batch's first row, used
	// when translating picking results across multiple batches.
	BatchOffset int

	// Accessors maps renderer attribute names to their accessors. Every
	// entry is resolved to a per-vertex buffer or broadcast constant.
	Accessors map[string]Accessor

	// Triangulator drives polygon triangulation for solid polygon layers.
	// Nil skips triangulation (the renderer tessellates itself).
	Triangulator *Triangulator
}

// DefaultLayerOptions returns empty options: tag-based column discovery,
// batch offset zero, no accessors.
func DefaultLayerOptions() *LayerOptions {
	return &LayerOptions{}
}
