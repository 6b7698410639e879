package dumpdriver

import (
	"archive/zip"
	"bytes"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/gpuix/drawcall_exporter/capture"
)

func buildDump(t *testing.T, manifest *Manifest, blobs map[string][]byte) *Capture {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	if manifest != nil {
		data, err := yaml.Marshal(manifest)
		if err != nil {
			t.Fatalf("Failed to marshal manifest: %v", err)
		}
		w, err := zw.Create(manifestName)
		if err != nil {
			t.Fatalf("Failed to create manifest entry: %v", err)
		}
		w.Write(data)
	}
	for name, data := range blobs {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Failed to create %q: %v", name, err)
		}
		w.Write(data)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to finish zip: %v", err)
	}

	c, err := NewFromReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("Failed to open dump: %v", err)
	}
	return c
}

func sampleManifest() *Manifest {
	return &Manifest{
		Draws: []capture.Draw{
			{Id: 1, EventId: 10, NumIndices: 3, Indexed: true, IndexByteWidth: 2},
		},
		Events: map[uint32]*capture.PipelineState{
			10: {
				IndexBuffer: capture.BoundIndexBuffer{Resource: 5},
				VertexBuffers: []capture.BoundVertexBuffer{
					{Resource: 6, ByteStride: 12},
				},
			},
		},
		Buffers: map[capture.ResourceId]string{
			5: "buffers/5.bin",
			6: "buffers/6.bin",
		},
		Textures: []TextureEntry{
			{
				Desc:  capture.TextureDescription{Resource: 9, Name: "diffuse", ArraySize: 2},
				Files: []string{"textures/9_0.png", "textures/9_1.png"},
			},
		},
		Constant: map[uint32]map[string][]capture.ConstantBlock{
			10: {
				"vertex": {
					{Name: "globals", Variables: []capture.ConstantVariable{
						{Name: "mvp", Columns: 4, Values: []float32{1, 0, 0, 0}},
					}},
				},
			},
		},
	}
}

func sampleBlobs() map[string][]byte {
	return map[string][]byte{
		"buffers/5.bin":    {0, 0, 1, 0, 2, 0},
		"buffers/6.bin":    {1, 2, 3, 4, 5, 6, 7, 8},
		"textures/9_0.png": []byte("png0"),
		"textures/9_1.png": []byte("png1"),
	}
}

func TestDumpRoundTrip(t *testing.T) {
	c := buildDump(t, sampleManifest(), sampleBlobs())

	draws := c.Draws()
	if len(draws) != 1 || draws[0].Id != 1 || !draws[0].Indexed {
		t.Fatalf("unexpected draws: %+v", draws)
	}

	if err := c.SetFrameEvent(11); err == nil {
		t.Error("expected error for unknown event")
	}
	if err := c.SetFrameEvent(10); err != nil {
		t.Fatalf("SetFrameEvent failed: %v", err)
	}

	state, err := c.PipelineState()
	if err != nil {
		t.Fatalf("PipelineState failed: %v", err)
	}
	if state.IndexBuffer.Resource != 5 || len(state.VertexBuffers) != 1 {
		t.Errorf("unexpected pipeline state: %+v", state)
	}

	blocks, err := c.ConstantBlocks(capture.StageVertex)
	if err != nil {
		t.Fatalf("ConstantBlocks failed: %v", err)
	}
	if len(blocks) != 1 || blocks[0].Name != "globals" {
		t.Errorf("unexpected constant blocks: %+v", blocks)
	}
	if blocks, _ := c.ConstantBlocks(capture.StageFragment); blocks != nil {
		t.Errorf("unexpected fragment constants: %+v", blocks)
	}
}

func TestDumpGetBufferData(t *testing.T) {
	c := buildDump(t, sampleManifest(), sampleBlobs())

	tests := []struct {
		name    string
		id      capture.ResourceId
		offset  uint64
		length  uint64
		want    []byte
		wantErr bool
	}{
		{name: "full read", id: 5, length: 0, want: []byte{0, 0, 1, 0, 2, 0}},
		{name: "offset to end", id: 5, offset: 2, length: 0, want: []byte{1, 0, 2, 0}},
		{name: "offset and length", id: 6, offset: 1, length: 2, want: []byte{2, 3}},
		{name: "read past end truncates", id: 6, offset: 6, length: 100, want: []byte{7, 8}},
		{name: "offset at end", id: 6, offset: 8, length: 0, want: []byte{}},
		{name: "offset past end", id: 6, offset: 9, wantErr: true},
		{name: "unknown resource", id: 7, wantErr: true},
	}
	for _, test := range tests {
		got, err := c.GetBufferData(test.id, test.offset, test.length)
		if test.wantErr {
			if err == nil {
				t.Errorf("%s: expected error, got %v", test.name, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", test.name, err)
			continue
		}
		if !bytes.Equal(got, test.want) {
			t.Errorf("%s: got %v; expected %v", test.name, got, test.want)
		}
	}
}

func TestDumpTextures(t *testing.T) {
	c := buildDump(t, sampleManifest(), sampleBlobs())

	descs := c.Textures()
	if len(descs) != 1 || descs[0].Name != "diffuse" {
		t.Fatalf("unexpected textures: %+v", descs)
	}

	data, err := c.TexturePNG(9, 1)
	if err != nil {
		t.Fatalf("TexturePNG failed: %v", err)
	}
	if string(data) != "png1" {
		t.Errorf("got %q; expected %q", data, "png1")
	}

	if _, err := c.TexturePNG(9, 2); err == nil {
		t.Error("expected error for out-of-range slice")
	}
	if _, err := c.TexturePNG(8, 0); err == nil {
		t.Error("expected error for unknown texture")
	}
}

func TestDumpValidation(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.Close()
	if _, err := NewFromReader(bytes.NewReader(buf.Bytes()), int64(buf.Len())); err == nil {
		t.Error("expected error for dump without manifest")
	}

	manifest := sampleManifest()
	blobs := sampleBlobs()
	delete(blobs, "buffers/6.bin")

	buf.Reset()
	zw = zip.NewWriter(&buf)
	data, _ := yaml.Marshal(manifest)
	w, _ := zw.Create(manifestName)
	w.Write(data)
	for name, blob := range blobs {
		bw, _ := zw.Create(name)
		bw.Write(blob)
	}
	zw.Close()

	if _, err := NewFromReader(bytes.NewReader(buf.Bytes()), int64(buf.Len())); err == nil {
		t.Error("expected error for missing buffer blob")
	}
}
