package exporter

import (
	"github.com/gpuix/drawcall_exporter/fbxascii"
)

// encodePolygons turns the compact index list into the FBX polygon
// winding array: the last vertex of each triangle is stored as -(v+1) to
// mark the end of the polygon loop.
func encodePolygons(compact []int32) []int32 {
	polygons := make([]int32, len(compact))
	for i, v := range compact {
		if (i+1)%3 == 0 {
			polygons[i] = -(v + 1)
		} else {
			polygons[i] = v
		}
	}
	return polygons
}

// flipTriangleOrientation swaps the first two indices of every complete
// triangle, reversing its winding. Any single transposition reverses
// orientation; tools that flip by swapping the last two indices of each
// triangle produce a different index order but the same facing. Kept for
// target engines with the opposite handedness convention; the default
// export path leaves the captured orientation untouched.
func flipTriangleOrientation(compact []int32) {
	for i := 0; i+2 < len(compact); i += 3 {
		compact[i], compact[i+1] = compact[i+1], compact[i]
	}
}

// buildDocument assembles the FBX ASCII document of one draw call from
// the dedup pass results.
func buildDocument(modelName string, m *meshData, flipWinding bool) *fbxascii.FBX {
	doc := fbxascii.NewDocument(modelName)
	mesh := doc.Mesh()

	mesh.Vertices = m.cacheValues(AttrPosition, 3)

	compact := make([]int32, m.indexCount())
	copy(compact, m.compactIndices)
	if flipWinding {
		flipTriangleOrientation(compact)
	}
	mesh.PolygonVertexIndex = encodePolygons(compact)

	layer0 := doc.PrimaryLayer()
	attach := func(lf layerFragment) {
		if !lf.empty() {
			layer0.LayerElement = append(layer0.LayerElement, *lf.ref)
		}
	}

	normal := buildNormalLayer(m)
	mesh.LayerElementNormal = normal.element
	attach(normal)

	tangent := buildTangentLayer(m)
	mesh.LayerElementTangent = tangent.element
	attach(tangent)

	color := buildColorLayer(m)
	mesh.LayerElementColor = color.element
	attach(color)

	uv0 := buildUVLayer(m, AttrUV0, 0)
	if !uv0.empty() {
		mesh.LayerElementUV = append(mesh.LayerElementUV, uv0.element)
	}
	attach(uv0)

	// A second UV channel needs its own top-level layer block besides
	// the primary layer the other elements share.
	uv1 := buildUVLayer(m, AttrUV1, 1)
	if !uv1.empty() {
		mesh.LayerElementUV = append(mesh.LayerElementUV, uv1.element)
		layer1 := doc.AddLayer(1)
		layer1.LayerElement = append(layer1.LayerElement, *uv1.ref)
	}

	return doc
}
