// Package capture defines the interface to a frame-capture replay backend:
// draw-call metadata, pipeline state and raw resource access.
package capture

// ResourceId identifies a buffer or texture inside the capture.
type ResourceId uint64

// ResourceNone marks an unbound resource slot.
const ResourceNone ResourceId = 0

// CompType is the interpretation of a vertex attribute component.
type CompType int

const (
	CompTypeUInt CompType = iota
	CompTypeSInt
	CompTypeFloat
	CompTypeUNorm
	CompTypeSNorm
	CompTypeUScaled
	CompTypeSScaled
)

func (t CompType) String() string {
	switch t {
	case CompTypeUInt:
		return "uint"
	case CompTypeSInt:
		return "sint"
	case CompTypeFloat:
		return "float"
	case CompTypeUNorm:
		return "unorm"
	case CompTypeSNorm:
		return "snorm"
	case CompTypeUScaled:
		return "uscaled"
	case CompTypeSScaled:
		return "sscaled"
	}
	return "unknown"
}

// ComponentFormat describes the in-memory layout of one attribute value.
type ComponentFormat struct {
	CompCount     uint32   `yaml:"comp_count"`
	CompType      CompType `yaml:"comp_type"`
	CompByteWidth uint32   `yaml:"comp_byte_width"`

	// Special marks bit-packed layouts such as 10:10:10:2 that cannot be
	// decoded per-component.
	Special   bool `yaml:"special"`
	BGRAOrder bool `yaml:"bgra_order"`
}

// VertexInput is one active vertex-shader input attribute.
type VertexInput struct {
	Name         string          `yaml:"name"`
	Used         bool            `yaml:"used"`
	PerInstance  bool            `yaml:"per_instance"`
	VertexBuffer int             `yaml:"vertex_buffer"`
	ByteOffset   uint64          `yaml:"byte_offset"`
	Format       ComponentFormat `yaml:"format"`
}

// BoundVertexBuffer is a vertex buffer binding slot.
type BoundVertexBuffer struct {
	Resource   ResourceId `yaml:"resource"`
	ByteOffset uint64     `yaml:"byte_offset"`
	ByteStride uint32     `yaml:"byte_stride"`
}

// BoundIndexBuffer is the index buffer binding.
type BoundIndexBuffer struct {
	Resource   ResourceId `yaml:"resource"`
	ByteOffset uint64     `yaml:"byte_offset"`
}

// PipelineState is the graphics pipeline state at one frame event.
type PipelineState struct {
	IndexBuffer      BoundIndexBuffer    `yaml:"index_buffer"`
	VertexBuffers    []BoundVertexBuffer `yaml:"vertex_buffers"`
	VertexInputs     []VertexInput       `yaml:"vertex_inputs"`
	FragmentTextures []ResourceId        `yaml:"fragment_textures"`
}

// Draw is the metadata of a single draw call.
type Draw struct {
	Id             uint32 `yaml:"id"`
	EventId        uint32 `yaml:"event_id"`
	NumIndices     uint32 `yaml:"num_indices"`
	IndexByteWidth uint32 `yaml:"index_byte_width"`
	IndexOffset    uint32 `yaml:"index_offset"`
	BaseVertex     int32  `yaml:"base_vertex"`
	VertexOffset   uint32 `yaml:"vertex_offset"`
	Indexed        bool   `yaml:"indexed"`

	Children []Draw `yaml:"children,omitempty"`
}

// TextureDescription describes a texture resource in the capture.
type TextureDescription struct {
	Resource  ResourceId `yaml:"resource"`
	Name      string     `yaml:"name"`
	ArraySize int        `yaml:"array_size"`
	Width     int        `yaml:"width"`
	Height    int        `yaml:"height"`
}

// ShaderStage selects a pipeline shader stage.
type ShaderStage int

const (
	StageVertex ShaderStage = iota
	StageFragment
)

func (s ShaderStage) String() string {
	if s == StageVertex {
		return "vertex"
	}
	return "fragment"
}

// ConstantVariable is one variable of a constant block. Matrix and struct
// variables carry their rows in Members instead of Values.
type ConstantVariable struct {
	Name    string             `yaml:"name"`
	Columns int                `yaml:"columns"`
	Values  []float32          `yaml:"values,omitempty"`
	Members []ConstantVariable `yaml:"members,omitempty"`
}

// ConstantBlock is a bound constant buffer with its decoded variables.
type ConstantBlock struct {
	Name      string             `yaml:"name"`
	ArraySize int                `yaml:"array_size"`
	Variables []ConstantVariable `yaml:"variables"`
}

// Controller is the replay backend. Implementations are not safe for
// concurrent use; all calls must come from the replay worker goroutine
// (see Queue).
type Controller interface {
	// Draws returns the root draw list of the capture. Marker draws carry
	// their real draws in Children.
	Draws() []Draw

	// SetFrameEvent replays the capture up to the given event, making its
	// pipeline state current.
	SetFrameEvent(eventId uint32) error

	// PipelineState returns the pipeline state of the current frame event.
	PipelineState() (*PipelineState, error)

	// GetBufferData reads byteLength bytes of a buffer resource starting
	// at byteOffset. A byteLength of 0 reads to the end of the buffer.
	GetBufferData(id ResourceId, byteOffset uint64, byteLength uint64) ([]byte, error)

	// Textures lists texture resources of the capture.
	Textures() []TextureDescription

	// TexturePNG renders one array slice of a texture as PNG bytes.
	TexturePNG(id ResourceId, slice int) ([]byte, error)

	// ConstantBlocks returns the decoded constant buffers bound to the
	// given stage at the current frame event.
	ConstantBlocks(stage ShaderStage) ([]ConstantBlock, error)
}

// FlattenDraws collects real draw calls keyed by draw id: draws with
// children are markers and contribute their children instead.
func FlattenDraws(roots []Draw) map[uint32]*Draw {
	draws := make(map[uint32]*Draw)
	for iRoot := range roots {
		root := &roots[iRoot]
		if len(root.Children) > 0 {
			for iChild := range root.Children {
				child := &root.Children[iChild]
				draws[child.Id] = child
			}
		} else {
			draws[root.Id] = root
		}
	}
	return draws
}
