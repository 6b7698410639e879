package exporter

import (
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gpuix/drawcall_exporter/capture"
)

func quadAttributes() []meshAttribute {
	return []meshAttribute{
		{name: AttrPosition, resource: 1, byteStride: 12, format: float32Format(3)},
		{name: AttrUV0, resource: 2, byteStride: 8, format: float32Format(2)},
	}
}

func quadController() *fakeController {
	c := newFakeController()
	c.buffers[1] = floatBytes(
		0, 0, 0,
		1, 0, 0,
		1, 1, 0,
		0, 1, 0,
	)
	c.buffers[2] = floatBytes(
		0, 0,
		1, 0,
		1, 1,
		0, 1,
	)
	return c
}

func TestBuildMeshDataDedup(t *testing.T) {
	c := quadController()
	indices := []uint32{0, 1, 2, 0, 2, 3}

	m, err := buildMeshData(c, quadAttributes(), indices)
	if err != nil {
		t.Fatalf("buildMeshData failed: %v", err)
	}

	if !reflect.DeepEqual(m.order, []uint32{0, 1, 2, 3}) {
		t.Errorf("first-seen order %v; expected [0 1 2 3]", m.order)
	}
	if !reflect.DeepEqual(m.compactIndices, []int32{0, 1, 2, 0, 2, 3}) {
		t.Errorf("compact indices %v; expected [0 1 2 0 2 3]", m.compactIndices)
	}

	// one decode per attribute per distinct original index
	for _, res := range []capture.ResourceId{1, 2} {
		if c.fetches[res] != 4 {
			t.Errorf("resource %d fetched %d times; expected 4", res, c.fetches[res])
		}
	}

	for name, wantLen := range map[string]int{AttrPosition: 6, AttrUV0: 6} {
		if got := len(m.attr(name).stream); got != wantLen {
			t.Errorf("%s stream has %d entries; expected %d", name, got, wantLen)
		}
	}

	// the repeated polygon vertices share the cached decode
	pos := m.attr(AttrPosition)
	if !reflect.DeepEqual(pos.stream[0], pos.stream[3]) {
		t.Errorf("repeated index decoded differently: %v vs %v", pos.stream[0], pos.stream[3])
	}
}

func TestBuildMeshDataFirstSeenOrderCache(t *testing.T) {
	c := quadController()
	// first occurrence order differs from numeric order
	indices := []uint32{2, 0, 1}

	m, err := buildMeshData(c, quadAttributes(), indices)
	if err != nil {
		t.Fatalf("buildMeshData failed: %v", err)
	}

	if !reflect.DeepEqual(m.compactIndices, []int32{0, 1, 2}) {
		t.Errorf("compact indices %v; expected [0 1 2]", m.compactIndices)
	}
	want := []float64{
		1, 1, 0,
		0, 0, 0,
		1, 0, 0,
	}
	if got := m.cacheValues(AttrPosition, 3); !reflect.DeepEqual(got, want) {
		t.Errorf("cache values %v; expected %v", got, want)
	}
}

func TestCacheValuesPadsShortValues(t *testing.T) {
	c := newFakeController()
	c.buffers[1] = floatBytes(
		0, 0,
		1, 0,
		0, 1,
	)
	attrs := []meshAttribute{
		{name: AttrPosition, resource: 1, byteStride: 8, format: float32Format(2)},
	}

	m, err := buildMeshData(c, attrs, []uint32{0, 1, 2})
	if err != nil {
		t.Fatalf("buildMeshData failed: %v", err)
	}

	want := []float64{
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
	}
	if got := m.cacheValues(AttrPosition, 3); !reflect.DeepEqual(got, want) {
		t.Errorf("cache values %v; expected zero-padded %v", got, want)
	}

	normal := buildNormalLayer(&meshData{
		order:          m.order,
		compactIndices: m.compactIndices,
		attrs:          map[string]*attributeData{AttrNormal: m.attrs[AttrPosition]},
	})
	normals := normal.element.Normals.([]float64)
	if !reflect.DeepEqual(normals, want) {
		t.Errorf("normal stream %v; expected zero-padded %v", normals, want)
	}
}

func TestBuildMeshDataPackedFormatNamesAttribute(t *testing.T) {
	c := quadController()
	attrs := []meshAttribute{
		{name: AttrNormal, resource: 1, byteStride: 4,
			format: capture.ComponentFormat{CompCount: 4, CompType: capture.CompTypeUNorm, CompByteWidth: 1, Special: true}},
	}

	_, err := buildMeshData(c, attrs, []uint32{0})
	ufe, ok := err.(*UnsupportedVertexFormatError)
	if !ok {
		t.Fatalf("expected UnsupportedVertexFormatError, got %v", err)
	}
	if ufe.Attr != AttrNormal {
		t.Errorf("error names attribute %q; expected %q", ufe.Attr, AttrNormal)
	}
}

func TestMeshBounds(t *testing.T) {
	c := quadController()
	m, err := buildMeshData(c, quadAttributes(), []uint32{0, 1, 2, 0, 2, 3})
	if err != nil {
		t.Fatalf("buildMeshData failed: %v", err)
	}

	bbMin, bbMax := m.bounds()
	if bbMin != (mgl64.Vec3{0, 0, 0}) {
		t.Errorf("bounds min %v; expected {0 0 0}", bbMin)
	}
	if bbMax != (mgl64.Vec3{1, 1, 0}) {
		t.Errorf("bounds max %v; expected {1 1 0}", bbMax)
	}
}
