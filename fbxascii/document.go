package fbxascii

// NewDocument creates the fixed skeleton of a single-mesh document: object
// type definitions, an empty geometry, a model named after the output file
// base name and the geometry->model->root connections.
func NewDocument(modelName string) *FBX {
	f := &FBX{
		Definitions: Definitions{
			ObjectType: []*ObjectTypeDefinition{
				{
					Name:  "Geometry",
					Count: 1,
					PropertyTemplate: &PropertyTemplate{
						TemplateName: "FbxMesh",
						Properties70: Properties70{
							P: []*Propertie70{
								{Name: "Primary Visibility", Type: "bool", Purpose: "", Idk: "", Value: 1},
							},
						},
					},
				},
				{
					Name:  "Model",
					Count: 1,
					PropertyTemplate: &PropertyTemplate{
						TemplateName: "FbxNode",
						Properties70: Properties70{
							P: []*Propertie70{
								{Name: "Visibility", Type: "Visibility", Purpose: "", Idk: "A", Value: 1},
							},
						},
					},
				},
			},
		},
		Objects: Objects{
			Geometry: []*Geometry{
				{
					Id:              GeometryId,
					Name:            "Geometry::",
					Element:         "Mesh",
					GeometryVersion: 124,
					Layer: []*Layer{
						{Index: 0, Version: 100},
					},
				},
			},
			Model: []*Model{
				{
					Id:      ModelId,
					Name:    "Model::" + modelName,
					Element: "Mesh",
					Properties70: Properties70{
						P: []*Propertie70{
							{Name: "DefaultAttributeIndex", Type: "int", Purpose: "Integer", Idk: "", Value: 0},
						},
					},
				},
			},
		},
		Connections: Connections{
			C: []Connection{
				{Type: "OO", Child: ModelId, Parent: RootNodeId},
				{Type: "OO", Child: GeometryId, Parent: ModelId},
			},
		},
	}
	return f
}

// Mesh returns the document's single geometry object.
func (f *FBX) Mesh() *Geometry {
	return f.Objects.Geometry[0]
}

// PrimaryLayer returns layer 0, the one every attribute except a second
// UV channel attaches to.
func (f *FBX) PrimaryLayer() *Layer {
	return f.Objects.Geometry[0].Layer[0]
}

// AddLayer appends an additional top-level layer block and returns it.
func (f *FBX) AddLayer(index int) *Layer {
	l := &Layer{Index: index, Version: 100}
	g := f.Objects.Geometry[0]
	g.Layer = append(g.Layer, l)
	return l
}
