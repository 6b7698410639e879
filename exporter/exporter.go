// Package exporter converts captured draw-call geometry into portable
// mesh documents: FBX ASCII by default, binary FBX or glTF on request.
package exporter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/gpuix/drawcall_exporter/capture"
	"github.com/gpuix/drawcall_exporter/config"
	"github.com/gpuix/drawcall_exporter/logger"
	"github.com/gpuix/drawcall_exporter/status"
)

// Exporter runs draw-call exports against a single controller. All
// methods must be called from the replay worker goroutine that owns the
// controller; an Exporter is single-use state for one request.
type Exporter struct {
	c   capture.Controller
	cfg config.ExportConfig

	savedTextures map[capture.ResourceId]struct{}
}

func New(c capture.Controller, cfg config.ExportConfig) *Exporter {
	return &Exporter{
		c:             c,
		cfg:           cfg,
		savedTextures: make(map[capture.ResourceId]struct{}),
	}
}

// ExportRange exports every draw call with an id inside [startId, endId].
// Both endpoints must exist in the capture. Per-draw failures abort the
// whole range only when continue_on_error is disabled; cancellation is
// honored between draw calls.
func (e *Exporter) ExportRange(ctx context.Context, startId, endId uint32) error {
	draws := capture.FlattenDraws(e.c.Draws())

	if _, ok := draws[startId]; !ok {
		return errors.Wrapf(ErrInvalidDrawRange, "start drawcall %d", startId)
	}
	if _, ok := draws[endId]; !ok {
		return errors.Wrapf(ErrInvalidDrawRange, "end drawcall %d", endId)
	}

	if err := os.MkdirAll(e.cfg.OutputDir, 0777); err != nil {
		return errors.Wrapf(err, "Failed to create output dir %q", e.cfg.OutputDir)
	}

	total := endId - startId + 1
	for id := startId; id <= endId; id++ {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, "Export cancelled at drawcall %d", id)
		}

		draw, ok := draws[id]
		if !ok {
			// ids inside the range that are markers or state events
			continue
		}

		status.Progress(float32(id-startId)/float32(total), "Exporting drawcall %d", id)

		path, err := e.ExportDraw(draw)
		if err != nil {
			status.Error("Drawcall %d failed: %v", id, err)
			logger.Log.Error("drawcall export failed",
				zap.Uint32("draw", id), zap.Error(err))
			if !e.cfg.ContinueOnError {
				return err
			}
			continue
		}
		logger.Log.Info("drawcall exported",
			zap.Uint32("draw", id), zap.String("path", path))
	}

	status.Progress(1.0, "Export finished")
	return nil
}

// ExportDraw exports a single draw call and returns the path of the
// written document.
func (e *Exporter) ExportDraw(draw *capture.Draw) (string, error) {
	if err := e.c.SetFrameEvent(draw.EventId); err != nil {
		return "", errors.Wrapf(err, "Failed to replay to event %d", draw.EventId)
	}
	state, err := e.c.PipelineState()
	if err != nil {
		return "", errors.Wrapf(err, "Failed to get pipeline state")
	}

	if e.cfg.SaveTextures {
		if err := e.saveBoundTextures(state); err != nil {
			return "", err
		}
	}
	if e.cfg.DumpConstants {
		for _, stage := range []capture.ShaderStage{capture.StageVertex, capture.StageFragment} {
			if err := e.dumpConstants(stage); err != nil {
				return "", err
			}
		}
	}

	attrs, geometry, err := resolveDrawInputs(draw, state)
	if err != nil {
		return "", err
	}

	indices, err := resolveIndices(e.c, geometry)
	if err != nil {
		return "", err
	}
	if len(indices) == 0 {
		return "", &EmptyGeometryError{DrawId: draw.Id}
	}

	m, err := buildMeshData(e.c, attrs, indices)
	if err != nil {
		return "", err
	}

	bbMin, bbMax := m.bounds()
	logger.Log.Debug("mesh extracted",
		zap.Uint32("draw", draw.Id),
		zap.Int("vertices", len(m.order)),
		zap.Int("indices", m.indexCount()),
		zap.Any("bounds_min", bbMin),
		zap.Any("bounds_max", bbMax))

	name := fmt.Sprintf("drawcall_%d", draw.Id)

	switch e.cfg.Format {
	case config.FormatFbxBinary:
		return e.writeBinaryFbx(name, m)
	case config.FormatGltf:
		return e.writeGltf(name, m)
	default:
		return e.writeAsciiFbx(name, m)
	}
}

func (e *Exporter) writeAsciiFbx(name string, m *meshData) (string, error) {
	doc := buildDocument(name, m, e.cfg.FlipWinding)

	path := filepath.Join(e.cfg.OutputDir, name+".fbx")
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "Failed to create %q", path)
	}
	defer f.Close()

	if err := doc.Export(f); err != nil {
		return "", errors.Wrapf(err, "Failed to write fbx document %q", path)
	}
	return path, nil
}

// resolveDrawInputs folds the draw metadata and pipeline state into the
// attribute and index topology descriptions the extraction pass consumes.
func resolveDrawInputs(draw *capture.Draw, state *capture.PipelineState) ([]meshAttribute, *drawGeometry, error) {
	attrs := make([]meshAttribute, 0, len(state.VertexInputs))
	for _, vi := range state.VertexInputs {
		if !vi.Used {
			continue
		}
		if vi.PerInstance {
			return nil, nil, &UnsupportedInstancedAttributeError{Attr: vi.Name}
		}
		if vi.VertexBuffer < 0 || vi.VertexBuffer >= len(state.VertexBuffers) {
			return nil, nil, errors.Errorf("Attribute %q references vertex buffer slot %d of %d",
				vi.Name, vi.VertexBuffer, len(state.VertexBuffers))
		}
		vb := &state.VertexBuffers[vi.VertexBuffer]

		attrs = append(attrs, meshAttribute{
			name:     vi.Name,
			resource: vb.Resource,
			byteOffset: vi.ByteOffset + vb.ByteOffset +
				uint64(draw.VertexOffset)*uint64(vb.ByteStride),
			byteStride: vb.ByteStride,
			format:     vi.Format,
		})
	}

	geometry := &drawGeometry{
		indexResource:   state.IndexBuffer.Resource,
		indexByteOffset: state.IndexBuffer.ByteOffset,
		indexByteStride: draw.IndexByteWidth,
		baseVertex:      draw.BaseVertex,
		indexOffset:     draw.IndexOffset,
		numIndices:      draw.NumIndices,
	}
	// a bound index buffer is ignored for non-indexed draws
	if !draw.Indexed {
		geometry.indexResource = capture.ResourceNone
	}

	return attrs, geometry, nil
}
