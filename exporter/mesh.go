package exporter

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/gpuix/drawcall_exporter/capture"
)

// Vertex shader input names as they appear in captured pipeline state.
const (
	AttrPosition = "in_POSITION0"
	AttrNormal   = "in_NORMAL0"
	AttrTangent  = "in_TANGENT0"
	AttrColor    = "in_COLOR0"
	AttrUV0      = "in_TEXCOORD0"
	AttrUV1      = "in_TEXCOORD1"
)

// meshAttribute is one vertex attribute resolved against its buffer
// binding: byteOffset already folds in the attribute offset, the buffer
// binding offset and the draw's vertex offset.
type meshAttribute struct {
	name       string
	resource   capture.ResourceId
	byteOffset uint64
	byteStride uint32
	format     capture.ComponentFormat
}

// attributeData is the decoded data of one attribute after the dedup
// pass over the index sequence.
type attributeData struct {
	// values keyed by original buffer index, exactly one decode per index
	values map[uint32][]float64
	// stream has one entry per polygon-vertex occurrence, not deduplicated
	stream [][]float64
}

// meshData is the result of the single dedup pass: the compact index
// remap plus per-attribute caches and per-polygon-vertex streams.
type meshData struct {
	// order lists original indices in first-seen order; enumerating an
	// attribute cache in this order yields the compact vertex array
	order []uint32
	attrs map[string]*attributeData

	compactIndices []int32
}

func (m *meshData) indexCount() int {
	return len(m.compactIndices)
}

// attr returns the decoded data of a named attribute, nil when the
// attribute was not bound for this draw.
func (m *meshData) attr(name string) *attributeData {
	return m.attrs[name]
}

// cacheValues flattens an attribute's deduplicated cache in first-seen
// order, keeping comps components per value. Values with fewer decoded
// components are zero-padded, so a 2-component position still yields
// x,y,0 triples.
func (m *meshData) cacheValues(name string, comps int) []float64 {
	ad := m.attrs[name]
	if ad == nil {
		return nil
	}
	flat := make([]float64, 0, len(m.order)*comps)
	for _, idx := range m.order {
		value := ad.values[idx]
		for c := 0; c < comps; c++ {
			flat = append(flat, component(value, c))
		}
	}
	return flat
}

// component reads one component of a decoded value, 0 when the format
// carries fewer components than the consumer needs.
func component(value []float64, i int) float64 {
	if i < len(value) {
		return value[i]
	}
	return 0
}

// buildMeshData performs the single pass over the resolved index
// sequence: assign compact indices in first-seen order, decode every
// attribute at most once per original index, and record the full
// per-polygon-vertex streams.
func buildMeshData(c capture.Controller, attrs []meshAttribute, indices []uint32) (*meshData, error) {
	m := &meshData{
		order:          make([]uint32, 0),
		attrs:          make(map[string]*attributeData, len(attrs)),
		compactIndices: make([]int32, 0, len(indices)),
	}
	for _, attr := range attrs {
		m.attrs[attr.name] = &attributeData{
			values: make(map[uint32][]float64),
			stream: make([][]float64, 0, len(indices)),
		}
	}

	remap := make(map[uint32]int32)
	nextCompact := int32(0)

	for _, idx := range indices {
		if _, seen := remap[idx]; !seen {
			remap[idx] = nextCompact
			nextCompact++
			m.order = append(m.order, idx)
		}
		m.compactIndices = append(m.compactIndices, remap[idx])

		for i := range attrs {
			attr := &attrs[i]
			ad := m.attrs[attr.name]

			value, cached := ad.values[idx]
			if !cached {
				offset := attr.byteOffset + uint64(attr.byteStride)*uint64(idx)
				data, err := c.GetBufferData(attr.resource, offset, uint64(attr.byteStride))
				if err != nil {
					return nil, errors.Wrapf(err, "Failed to fetch attribute %q at index %d", attr.name, idx)
				}

				value, err = DecodeValue(attr.format, data)
				if err != nil {
					if ufe, ok := err.(*UnsupportedVertexFormatError); ok {
						ufe.Attr = attr.name
					}
					return nil, err
				}
				ad.values[idx] = value
			}

			ad.stream = append(ad.stream, value)
		}
	}

	return m, nil
}

// bounds computes the axis-aligned bounding box of the deduplicated
// position array.
func (m *meshData) bounds() (mgl64.Vec3, mgl64.Vec3) {
	bbMin := mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	bbMax := mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}

	pos := m.attrs[AttrPosition]
	if pos == nil {
		return mgl64.Vec3{}, mgl64.Vec3{}
	}

	for _, idx := range m.order {
		value := pos.values[idx]
		for c := 0; c < 3 && c < len(value); c++ {
			bbMin[c] = math.Min(bbMin[c], value[c])
			bbMax[c] = math.Max(bbMax[c], value[c])
		}
	}
	return bbMin, bbMax
}
