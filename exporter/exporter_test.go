package exporter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gpuix/drawcall_exporter/capture"
	"github.com/gpuix/drawcall_exporter/config"
)

// fakeController serves canned draws, state and buffers and counts buffer
// fetches per resource.
type fakeController struct {
	draws    []capture.Draw
	states   map[uint32]*capture.PipelineState
	buffers  map[capture.ResourceId][]byte
	textures []capture.TextureDescription
	pngs     map[capture.ResourceId][][]byte
	consts   map[string][]capture.ConstantBlock

	fetches map[capture.ResourceId]int
	event   uint32
}

func newFakeController() *fakeController {
	return &fakeController{
		states:  make(map[uint32]*capture.PipelineState),
		buffers: make(map[capture.ResourceId][]byte),
		pngs:    make(map[capture.ResourceId][][]byte),
		consts:  make(map[string][]capture.ConstantBlock),
		fetches: make(map[capture.ResourceId]int),
	}
}

func (f *fakeController) Draws() []capture.Draw { return f.draws }

func (f *fakeController) SetFrameEvent(eventId uint32) error {
	if _, ok := f.states[eventId]; !ok {
		return errors.New("no such event")
	}
	f.event = eventId
	return nil
}

func (f *fakeController) PipelineState() (*capture.PipelineState, error) {
	state, ok := f.states[f.event]
	if !ok {
		return nil, errors.New("no state")
	}
	return state, nil
}

func (f *fakeController) GetBufferData(id capture.ResourceId, byteOffset uint64, byteLength uint64) ([]byte, error) {
	data, ok := f.buffers[id]
	if !ok {
		return nil, errors.New("unknown buffer")
	}
	f.fetches[id]++

	if byteOffset > uint64(len(data)) {
		return nil, errors.New("read past end")
	}
	end := uint64(len(data))
	if byteLength != 0 && byteOffset+byteLength < end {
		end = byteOffset + byteLength
	}
	return data[byteOffset:end], nil
}

func (f *fakeController) Textures() []capture.TextureDescription { return f.textures }

func (f *fakeController) TexturePNG(id capture.ResourceId, slice int) ([]byte, error) {
	slices, ok := f.pngs[id]
	if !ok || slice < 0 || slice >= len(slices) {
		return nil, errors.New("no such texture slice")
	}
	return slices[slice], nil
}

func (f *fakeController) ConstantBlocks(stage capture.ShaderStage) ([]capture.ConstantBlock, error) {
	return f.consts[stage.String()], nil
}

func testExportConfig(t *testing.T) config.ExportConfig {
	return config.ExportConfig{
		OutputDir: t.TempDir(),
		Format:    config.FormatFbxAscii,
	}
}

func float32Format(count uint32) capture.ComponentFormat {
	return capture.ComponentFormat{CompCount: count, CompType: capture.CompTypeFloat, CompByteWidth: 4}
}

// triangleController is a capture with a single non-indexed position-only
// triangle at draw 7.
func triangleController() *fakeController {
	c := newFakeController()
	c.draws = []capture.Draw{
		{Id: 7, EventId: 70, NumIndices: 3, Indexed: false},
	}
	c.states[70] = &capture.PipelineState{
		VertexBuffers: []capture.BoundVertexBuffer{
			{Resource: 1, ByteStride: 12},
		},
		VertexInputs: []capture.VertexInput{
			{Name: AttrPosition, Used: true, VertexBuffer: 0, Format: float32Format(3)},
		},
	}
	c.buffers[1] = floatBytes(
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
	)
	return c
}

func TestExportDrawAsciiTriangle(t *testing.T) {
	c := triangleController()
	cfg := testExportConfig(t)

	path, err := New(c, cfg).ExportDraw(&c.draws[0])
	if err != nil {
		t.Fatalf("ExportDraw failed: %v", err)
	}
	if filepath.Base(path) != "drawcall_7.fbx" {
		t.Errorf("unexpected output name %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	doc := string(data)

	for _, want := range []string{
		"; FBX 7.3.0 project file",
		"Vertices: *9 {",
		"a: 0,0,0,1,0,0,0,1,0",
		"PolygonVertexIndex: *3 {",
		"a: 0,1,-3",
		"\"Model::drawcall_7\"",
		"C: \"OO\",2035615390896,0",
		"C: \"OO\",2035541511296,2035615390896",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document misses %q", want)
		}
	}
	for _, unwanted := range []string{
		"LayerElementNormal",
		"LayerElementColor",
		"LayerElementUV",
	} {
		if strings.Contains(doc, unwanted) {
			t.Errorf("document has unexpected %q", unwanted)
		}
	}
}

func TestExportDrawTwoComponentPosition(t *testing.T) {
	c := triangleController()
	// 2D layouts bind xy-only positions; the document still carries
	// 3-component vertices with z padded to 0
	c.states[70].VertexBuffers[0].ByteStride = 8
	c.states[70].VertexInputs[0].Format = float32Format(2)
	c.buffers[1] = floatBytes(
		0, 0,
		1, 0,
		0, 1,
	)

	cfg := testExportConfig(t)

	path, err := New(c, cfg).ExportDraw(&c.draws[0])
	if err != nil {
		t.Fatalf("ExportDraw failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	doc := string(data)

	for _, want := range []string{
		"Vertices: *9 {",
		"a: 0,0,0,1,0,0,0,1,0",
		"PolygonVertexIndex: *3 {",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document misses %q", want)
		}
	}
}

func TestExportDrawEmptyGeometry(t *testing.T) {
	c := triangleController()
	c.draws[0].NumIndices = 0

	cfg := testExportConfig(t)

	_, err := New(c, cfg).ExportDraw(&c.draws[0])
	var ege *EmptyGeometryError
	if !errors.As(err, &ege) {
		t.Fatalf("expected EmptyGeometryError, got %v", err)
	}
	if ege.DrawId != 7 {
		t.Errorf("error names drawcall %d; expected 7", ege.DrawId)
	}
}

func TestExportDrawInstancedAttribute(t *testing.T) {
	c := triangleController()
	c.states[70].VertexInputs[0].PerInstance = true

	cfg := testExportConfig(t)

	_, err := New(c, cfg).ExportDraw(&c.draws[0])
	var iae *UnsupportedInstancedAttributeError
	if !errors.As(err, &iae) {
		t.Fatalf("expected UnsupportedInstancedAttributeError, got %v", err)
	}
}

func TestExportRangeInvalidEndpoints(t *testing.T) {
	c := triangleController()
	cfg := testExportConfig(t)

	err := New(c, cfg).ExportRange(context.Background(), 7, 9)
	if !errors.Is(err, ErrInvalidDrawRange) {
		t.Fatalf("expected ErrInvalidDrawRange, got %v", err)
	}

	if err := New(c, cfg).ExportRange(context.Background(), 7, 7); err != nil {
		t.Fatalf("valid range failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "drawcall_7.fbx")); err != nil {
		t.Errorf("expected output file: %v", err)
	}
}

func TestExportRangeContinuesOnError(t *testing.T) {
	c := triangleController()
	// draw 8 fails on a packed format, draw 9 exports fine
	c.draws = append(c.draws,
		capture.Draw{Id: 8, EventId: 80, NumIndices: 3, Indexed: false},
		capture.Draw{Id: 9, EventId: 70, NumIndices: 3, Indexed: false},
	)
	c.states[80] = &capture.PipelineState{
		VertexBuffers: []capture.BoundVertexBuffer{{Resource: 1, ByteStride: 12}},
		VertexInputs: []capture.VertexInput{
			{Name: AttrPosition, Used: true, VertexBuffer: 0,
				Format: capture.ComponentFormat{CompCount: 4, CompType: capture.CompTypeUNorm, CompByteWidth: 1, Special: true}},
		},
	}

	cfg := testExportConfig(t)
	cfg.ContinueOnError = true

	if err := New(c, cfg).ExportRange(context.Background(), 7, 9); err != nil {
		t.Fatalf("range with continue_on_error failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "drawcall_9.fbx")); err != nil {
		t.Errorf("drawcall 9 not exported after drawcall 8 failure: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "drawcall_8.fbx")); err == nil {
		t.Errorf("failed drawcall 8 left an output file")
	}

	cfg.ContinueOnError = false
	err := New(c, cfg).ExportRange(context.Background(), 7, 9)
	var ufe *UnsupportedVertexFormatError
	if !errors.As(err, &ufe) {
		t.Fatalf("expected UnsupportedVertexFormatError to abort the range, got %v", err)
	}
}

func TestExportRangeCancellation(t *testing.T) {
	c := triangleController()
	cfg := testExportConfig(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(c, cfg).ExportRange(ctx, 7, 7)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
