package exporter

import (
	"os"
	"path/filepath"

	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"
	"github.com/pkg/errors"

	"github.com/gpuix/drawcall_exporter/fbxascii"
)

const fbxCreator = "drawcall_exporter 1.0"

// writeBinaryFbx emits the draw call as a binary FBX 7.4 file with the
// same geometry and layer content as the ASCII document.
func (e *Exporter) writeBinaryFbx(name string, m *meshData) (string, error) {
	f := fbx.NewFBX(7400)

	geometry := e.buildBinaryGeometry(name, m)
	model := bfbx73.Model(int64(fbxascii.ModelId), name+"\x00\x01Model", "Mesh").AddNodes(
		bfbx73.Version(232),
		bfbx73.Properties70().AddNodes(
			bfbx73.P("DefaultAttributeIndex", "int", "Integer", "", int32(0)),
		),
		bfbx73.Shading(true),
		bfbx73.Culling("CullingOff"),
	)

	f.Root.AddNodes(
		bfbx73.FBXHeaderExtension().AddNodes(
			bfbx73.FBXHeaderVersion(1003),
			bfbx73.FBXVersion(7400),
			bfbx73.Creator(fbxCreator),
		),
		bfbx73.GlobalSettings().AddNodes(
			bfbx73.Version(1000),
			bfbx73.Properties70().AddNodes(
				bfbx73.P("UpAxis", "int", "Integer", "", int32(1)),
				bfbx73.P("UnitScaleFactor", "double", "Number", "", float64(1)),
			),
		),
		bfbx73.Documents().AddNodes(
			bfbx73.Count(1),
			bfbx73.Document(1000001, "Scene", "Scene").AddNodes(
				bfbx73.RootNode(0),
			),
		),
		bfbx73.References(),
		bfbx73.Definitions().AddNodes(
			bfbx73.Version(100),
			bfbx73.Count(2),
			bfbx73.ObjectType("Geometry").AddNodes(bfbx73.Count(1)),
			bfbx73.ObjectType("Model").AddNodes(bfbx73.Count(1)),
		),
		bfbx73.Objects().AddNodes(
			geometry,
			model,
		),
		bfbx73.Connections().AddNodes(
			bfbx73.C("OO", int64(fbxascii.ModelId), int64(fbxascii.RootNodeId)),
			bfbx73.C("OO", int64(fbxascii.GeometryId), int64(fbxascii.ModelId)),
		),
		bfbx73.Takes().AddNodes(
			bfbx73.Current(""),
		),
	)

	path := filepath.Join(e.cfg.OutputDir, name+".fbx")
	w, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "Failed to create %q", path)
	}
	defer w.Close()

	if err := fbx.Write(w, f); err != nil {
		return "", errors.Wrapf(err, "Failed to write binary fbx %q", path)
	}
	return path, nil
}

func (e *Exporter) buildBinaryGeometry(name string, m *meshData) *fbx.Node {
	compact := make([]int32, m.indexCount())
	copy(compact, m.compactIndices)
	if e.cfg.FlipWinding {
		flipTriangleOrientation(compact)
	}

	geometryLayer := bfbx73.Layer(0).AddNodes(
		bfbx73.Version(100),
	)

	geometry := bfbx73.Geometry(int64(fbxascii.GeometryId), "\x00\x01Geometry", "Mesh").AddNodes(
		bfbx73.GeometryVersion(124),
		bfbx73.Vertices(m.cacheValues(AttrPosition, 3)),
		bfbx73.PolygonVertexIndex(encodePolygons(compact)),
		geometryLayer,
	)

	if normal := buildNormalLayer(m); !normal.empty() {
		geometry.AddNode(
			bfbx73.LayerElementNormal(0).AddNodes(
				bfbx73.Version(101),
				bfbx73.Name(""),
				bfbx73.MappingInformationType("ByPolygonVertex"),
				bfbx73.ReferenceInformationType("Direct"),
				bfbx73.Normals(normal.element.Normals.([]float64)),
			),
		)
		geometryLayer.AddNode(
			bfbx73.LayerElement().AddNodes(
				bfbx73.Type("LayerElementNormal"),
				bfbx73.TypedIndex(0),
			),
		)
	}

	// bfbx73 has no tangent builders, but they are plain nodes like the
	// rest and fbx.NewNode is what the builders wrap anyway
	if tangent := buildTangentLayer(m); !tangent.empty() {
		geometry.AddNode(
			fbx.NewNode("LayerElementTangent", int32(0)).AddNodes(
				bfbx73.Version(101),
				bfbx73.Name(""),
				bfbx73.MappingInformationType("ByPolygonVertex"),
				bfbx73.ReferenceInformationType("Direct"),
				fbx.NewNode("Tangents", tangent.element.Tangents.([]float64)),
			),
		)
		geometryLayer.AddNode(
			bfbx73.LayerElement().AddNodes(
				bfbx73.Type("LayerElementTangent"),
				bfbx73.TypedIndex(0),
			),
		)
	}

	// the color index array is the identity in the ASCII document, so the
	// binary form can reference the same value stream directly
	if color := buildColorLayer(m); !color.empty() {
		geometry.AddNode(
			bfbx73.LayerElementColor(0).AddNodes(
				bfbx73.Version(101),
				bfbx73.Name(color.element.Name),
				bfbx73.MappingInformationType("ByPolygonVertex"),
				bfbx73.ReferenceInformationType("Direct"),
				bfbx73.Colors(color.element.Colors.([]float64)),
			),
		)
		geometryLayer.AddNode(
			bfbx73.LayerElement().AddNodes(
				bfbx73.Type("LayerElementColor"),
				bfbx73.TypedIndex(0),
			),
		)
	}

	for iLayer, attrName := range []string{AttrUV0, AttrUV1} {
		uv := buildUVLayer(m, attrName, iLayer)
		if uv.empty() {
			continue
		}
		geometry.AddNode(
			bfbx73.LayerElementUV(int32(iLayer)).AddNodes(
				bfbx73.Version(101),
				bfbx73.Name(""),
				bfbx73.MappingInformationType("ByPolygonVertex"),
				bfbx73.ReferenceInformationType("IndexToDirect"),
				bfbx73.UV(uv.element.UV.([]float64)),
				bfbx73.UVIndex(uv.element.UVIndex.([]int32)),
			),
		)

		// the second UV channel gets its own layer block, same as in the
		// ASCII document
		elementLayer := geometryLayer
		if iLayer > 0 {
			elementLayer = bfbx73.Layer(int32(iLayer)).AddNodes(
				bfbx73.Version(100),
			)
			geometry.AddNode(elementLayer)
		}
		elementLayer.AddNode(
			bfbx73.LayerElement().AddNodes(
				bfbx73.Type("LayerElementUV"),
				bfbx73.TypedIndex(int32(iLayer)),
			),
		)
	}

	return geometry
}
