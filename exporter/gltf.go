package exporter

import (
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// writeGltf emits the draw call as a glTF binary document. glTF shares
// attribute values per vertex, so every layer sources the deduplicated
// caches in first-seen order with the compact index list as indices.
func (e *Exporter) writeGltf(name string, m *meshData) (string, error) {
	doc := gltf.NewDocument()

	attributes := make(map[string]uint32)

	positions := make([][3]float32, 0, len(m.order))
	if pos := m.attr(AttrPosition); pos != nil {
		for _, idx := range m.order {
			v := pos.values[idx]
			positions = append(positions, [3]float32{
				float32(component(v, 0)), float32(component(v, 1)), float32(component(v, 2))})
		}
	}
	attributes["POSITION"] = modeler.WritePosition(doc, positions)

	if normal := m.attr(AttrNormal); normal != nil {
		normals := make([][3]float32, 0, len(m.order))
		for _, idx := range m.order {
			v := normal.values[idx]
			normals = append(normals, [3]float32{
				float32(component(v, 0)), float32(component(v, 1)), float32(component(v, 2))})
		}
		attributes["NORMAL"] = modeler.WriteNormal(doc, normals)
	}

	for iLayer, attrName := range []string{AttrUV0, AttrUV1} {
		uvAttr := m.attr(attrName)
		if uvAttr == nil {
			continue
		}
		uvs := make([][2]float32, 0, len(m.order))
		for _, idx := range m.order {
			v := uvAttr.values[idx]
			uvs = append(uvs, [2]float32{float32(component(v, 0)), float32(component(v, 1))})
		}
		if iLayer == 0 {
			attributes["TEXCOORD_0"] = modeler.WriteTextureCoord(doc, uvs)
		} else {
			attributes["TEXCOORD_1"] = modeler.WriteTextureCoord(doc, uvs)
		}
	}

	if color := m.attr(AttrColor); color != nil {
		colors := make([][4]uint8, 0, len(m.order))
		for _, idx := range m.order {
			v := color.values[idx]
			var c [4]uint8
			for i := 0; i < 4 && i < len(v); i++ {
				c[i] = colorComponentToU8(v[i])
			}
			colors = append(colors, c)
		}
		attributes["COLOR_0"] = modeler.WriteColor(doc, colors)
	}

	indices := make([]uint32, m.indexCount())
	for i, v := range m.compactIndices {
		indices[i] = uint32(v)
	}
	indicesAccessor := modeler.WriteIndices(doc, indices)

	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name: name,
		Primitives: []*gltf.Primitive{
			{
				Indices:    &indicesAccessor,
				Attributes: attributes,
			},
		},
	})
	meshIndex := uint32(len(doc.Meshes) - 1)

	doc.Nodes = append(doc.Nodes, &gltf.Node{
		Name: name,
		Mesh: &meshIndex,
	})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)-1))

	path := filepath.Join(e.cfg.OutputDir, name+".glb")
	if err := gltf.SaveBinary(doc, path); err != nil {
		return "", errors.Wrapf(err, "Failed to write gltf document %q", path)
	}
	return path, nil
}

func colorComponentToU8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
