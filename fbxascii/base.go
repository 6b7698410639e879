// Package fbxascii models an FBX 7.3 ASCII document as a tree of typed
// sections and renders it with a reflect-driven serializer. Array counts
// are always derived from the actual slice length at render time, so a
// count field can never disagree with its array.
package fbxascii

// Fixed object ids of the single-mesh document. Every document produced
// by the exporter contains exactly one geometry and one model, wired to
// the scene root through these ids.
const (
	GeometryId uint64 = 2035541511296
	ModelId    uint64 = 2035615390896
	RootNodeId uint64 = 0
)

type FBX struct {
	Definitions Definitions
	Objects     Objects
	Connections Connections
}

type Propertie70 struct {
	Name    string      `fbx:"p"`
	Type    string      `fbx:"p"`
	Purpose string      `fbx:"p"`
	Idk     string      `fbx:"p"`
	Value   interface{} `fbx:"p"`
}

type Properties70 struct {
	P []*Propertie70
}

type PropertyTemplate struct {
	TemplateName string `fbx:"p"`
	Properties70 Properties70
}

type ObjectTypeDefinition struct {
	Name             string `fbx:"p"`
	Count            int
	PropertyTemplate *PropertyTemplate
}

type Definitions struct {
	ObjectType []*ObjectTypeDefinition
}

// LayerElementShared covers every layer element kind the drawcall
// document can carry; only the arrays relevant to the kind are non-nil.
type LayerElementShared struct {
	TypedIndex int `fbx:"p"`

	Version int
	Name    string

	MappingInformationType   string
	ReferenceInformationType string
	Normals                  interface{} `fbx:"a"`
	Tangents                 interface{} `fbx:"a"`
	Colors                   interface{} `fbx:"a"`
	ColorIndex               interface{} `fbx:"a"`
	UV                       interface{} `fbx:"a"`
	UVIndex                  interface{} `fbx:"a"`
}

type LayerElement struct {
	Type       string
	TypedIndex int
}

type Layer struct {
	Index   int `fbx:"p"`
	Version int

	LayerElement []LayerElement
}

type Geometry struct {
	Id      uint64 `fbx:"p"`
	Name    string `fbx:"p"`
	Element string `fbx:"p"`

	Vertices           interface{} `fbx:"a"`
	PolygonVertexIndex interface{} `fbx:"a"`
	GeometryVersion    int

	LayerElementNormal  *LayerElementShared
	LayerElementTangent *LayerElementShared
	LayerElementColor   *LayerElementShared
	LayerElementUV      []*LayerElementShared

	Layer []*Layer
}

type Model struct {
	Id           uint64 `fbx:"p"`
	Name         string `fbx:"p"`
	Element      string `fbx:"p"`
	Properties70 Properties70
}

type Objects struct {
	Geometry []*Geometry
	Model    []*Model
}

type Connection struct {
	Type   string `fbx:"p"`
	Child  uint64 `fbx:"p"`
	Parent uint64 `fbx:"p"`
}

type Connections struct {
	C []Connection
}
