package exporter

import (
	"github.com/gpuix/drawcall_exporter/fbxascii"
)

// layerFragment is the output of one layer builder: the geometry layer
// element and the reference to insert into a layer block. Both are nil
// when the source attribute is absent; an empty fragment keeps the
// document structurally valid without any caller-side branching on
// attribute presence.
type layerFragment struct {
	element *fbxascii.LayerElementShared
	ref     *fbxascii.LayerElement
}

func (lf layerFragment) empty() bool {
	return lf.element == nil
}

// buildNormalLayer emits normals from the per-polygon-vertex stream,
// values inline without index indirection.
func buildNormalLayer(m *meshData) layerFragment {
	ad := m.attr(AttrNormal)
	if ad == nil {
		return layerFragment{}
	}

	normals := make([]float64, 0, len(ad.stream)*3)
	for _, value := range ad.stream {
		normals = append(normals, component(value, 0), component(value, 1), component(value, 2))
	}

	return layerFragment{
		element: &fbxascii.LayerElementShared{
			TypedIndex:               0,
			Version:                  101,
			Name:                     "",
			MappingInformationType:   "ByPolygonVertex",
			ReferenceInformationType: "Direct",
			Normals:                  normals,
		},
		ref: &fbxascii.LayerElement{Type: "LayerElementNormal", TypedIndex: 0},
	}
}

// buildTangentLayer emits tangents from the per-polygon-vertex stream,
// all components including the handedness sign.
func buildTangentLayer(m *meshData) layerFragment {
	ad := m.attr(AttrTangent)
	if ad == nil {
		return layerFragment{}
	}

	tangents := make([]float64, 0, len(ad.stream)*4)
	for _, value := range ad.stream {
		tangents = append(tangents, value...)
	}

	return layerFragment{
		element: &fbxascii.LayerElementShared{
			TypedIndex:               0,
			Version:                  101,
			Name:                     "",
			MappingInformationType:   "ByPolygonVertex",
			ReferenceInformationType: "Direct",
			Tangents:                 tangents,
		},
		ref: &fbxascii.LayerElement{Type: "LayerElementTangent", TypedIndex: 0},
	}
}

// buildColorLayer emits vertex colors from the per-polygon-vertex stream
// with an identity index array. The leading channel of every 4-tuple is
// forced to the literal 1.
func buildColorLayer(m *meshData) layerFragment {
	ad := m.attr(AttrColor)
	if ad == nil {
		return layerFragment{}
	}

	colors := make([]float64, 0, len(ad.stream)*4)
	for _, value := range ad.stream {
		for c, v := range value {
			if c == 0 {
				colors = append(colors, 1)
			} else {
				colors = append(colors, v)
			}
		}
	}

	colorIndex := make([]int32, m.indexCount())
	for i := range colorIndex {
		colorIndex[i] = int32(i)
	}

	return layerFragment{
		element: &fbxascii.LayerElementShared{
			TypedIndex:               0,
			Version:                  101,
			Name:                     "colorSet1",
			MappingInformationType:   "ByPolygonVertex",
			ReferenceInformationType: "IndexToDirect",
			Colors:                   colors,
			ColorIndex:               colorIndex,
		},
		ref: &fbxascii.LayerElement{Type: "LayerElementColor", TypedIndex: 0},
	}
}

// buildUVLayer emits a texture coordinate channel: deduplicated values in
// cache insertion order, indexed by the shared compact index list.
func buildUVLayer(m *meshData, attrName string, typedIndex int) layerFragment {
	ad := m.attr(attrName)
	if ad == nil {
		return layerFragment{}
	}

	uv := m.cacheValues(attrName, 2)

	uvIndex := make([]int32, m.indexCount())
	copy(uvIndex, m.compactIndices)

	return layerFragment{
		element: &fbxascii.LayerElementShared{
			TypedIndex:               typedIndex,
			Version:                  101,
			Name:                     "",
			MappingInformationType:   "ByPolygonVertex",
			ReferenceInformationType: "IndexToDirect",
			UV:                       uv,
			UVIndex:                  uvIndex,
		},
		ref: &fbxascii.LayerElement{Type: "LayerElementUV", TypedIndex: typedIndex},
	}
}
