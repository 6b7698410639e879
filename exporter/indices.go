package exporter

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/gpuix/drawcall_exporter/capture"
)

// drawGeometry is the index topology of one draw call, assembled from the
// pipeline state and the draw metadata.
type drawGeometry struct {
	indexResource   capture.ResourceId
	indexByteOffset uint64
	indexByteStride uint32
	baseVertex      int32
	indexOffset     uint32
	numIndices      uint32
}

// resolveIndices produces the ordered original vertex index sequence of
// the draw: either read from the bound index buffer with the baseVertex
// bias applied, or the implicit range 0..numIndices-1.
func resolveIndices(c capture.Controller, g *drawGeometry) ([]uint32, error) {
	indices := make([]uint32, 0, g.numIndices)

	if g.indexResource == capture.ResourceNone {
		for i := uint32(0); i < g.numIndices; i++ {
			indices = append(indices, i)
		}
		return indices, nil
	}

	switch g.indexByteStride {
	case 1, 2, 4:
	default:
		return nil, errors.Errorf("Invalid index byte stride %d", g.indexByteStride)
	}

	data, err := c.GetBufferData(g.indexResource, g.indexByteOffset, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to fetch index buffer %d", g.indexResource)
	}

	offset := uint64(g.indexOffset) * uint64(g.indexByteStride)
	need := offset + uint64(g.numIndices)*uint64(g.indexByteStride)
	if uint64(len(data)) < need {
		return nil, errors.Errorf("Index buffer too short: got %d bytes, need %d", len(data), need)
	}

	for i := uint32(0); i < g.numIndices; i++ {
		raw := data[offset+uint64(i)*uint64(g.indexByteStride):]

		var idx uint32
		switch g.indexByteStride {
		case 1:
			idx = uint32(raw[0])
		case 2:
			idx = uint32(binary.LittleEndian.Uint16(raw))
		case 4:
			idx = binary.LittleEndian.Uint32(raw)
		}

		indices = append(indices, uint32(int64(idx)+int64(g.baseVertex)))
	}

	return indices, nil
}
