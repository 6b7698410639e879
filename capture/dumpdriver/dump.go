// Package dumpdriver implements capture.Controller over a capture-dump
// zip file: a manifest.yaml describing draws, per-event pipeline state,
// textures and constants, plus one blob entry per buffer resource and
// texture slice.
package dumpdriver

import (
	"archive/zip"
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/gpuix/drawcall_exporter/capture"
)

const manifestName = "manifest.yaml"

// TextureEntry pairs a texture description with its PNG blob entries,
// one per array slice.
type TextureEntry struct {
	Desc  capture.TextureDescription `yaml:"desc"`
	Files []string                   `yaml:"files"`
}

// Manifest is the structured part of a capture dump.
type Manifest struct {
	Draws    []capture.Draw                               `yaml:"draws"`
	Events   map[uint32]*capture.PipelineState            `yaml:"events"`
	Buffers  map[capture.ResourceId]string                `yaml:"buffers"`
	Textures []TextureEntry                               `yaml:"textures"`
	Constant map[uint32]map[string][]capture.ConstantBlock `yaml:"constants"`
}

// Capture is an opened capture dump. Not safe for concurrent use; owned
// by the replay worker like every capture.Controller.
type Capture struct {
	manifest Manifest
	files    map[string][]byte

	currentEvent uint32
}

// Open reads a capture dump from disk.
func Open(path string) (*Capture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read capture dump %q", path)
	}
	return NewFromReader(bytes.NewReader(data), int64(len(data)))
}

// NewFromReader reads a capture dump from an in-memory zip.
func NewFromReader(r io.ReaderAt, size int64) (*Capture, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to open capture dump zip")
	}

	c := &Capture{
		files: make(map[string][]byte),
	}

	for _, zf := range zr.File {
		rc, err := zf.Open()
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to open %q", zf.Name)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to read %q", zf.Name)
		}
		c.files[zf.Name] = data
	}

	manifestData, ok := c.files[manifestName]
	if !ok {
		return nil, errors.Errorf("Capture dump has no %s", manifestName)
	}
	if err := yaml.Unmarshal(manifestData, &c.manifest); err != nil {
		return nil, errors.Wrapf(err, "Failed to parse %s", manifestName)
	}

	for res, name := range c.manifest.Buffers {
		if _, ok := c.files[name]; !ok {
			return nil, errors.Errorf("Buffer %d references missing blob %q", res, name)
		}
	}

	return c, nil
}

func (c *Capture) Draws() []capture.Draw {
	return c.manifest.Draws
}

func (c *Capture) SetFrameEvent(eventId uint32) error {
	if _, ok := c.manifest.Events[eventId]; !ok {
		return errors.Errorf("Event %d is not present in the capture", eventId)
	}
	c.currentEvent = eventId
	return nil
}

func (c *Capture) PipelineState() (*capture.PipelineState, error) {
	state, ok := c.manifest.Events[c.currentEvent]
	if !ok {
		return nil, errors.Errorf("No pipeline state for event %d", c.currentEvent)
	}
	return state, nil
}

// GetBufferData reads a slice of a buffer blob. A byteLength of 0 reads
// to the end; reads past the end are truncated to the available bytes,
// matching replay backend semantics for trailing partial strides.
func (c *Capture) GetBufferData(id capture.ResourceId, byteOffset uint64, byteLength uint64) ([]byte, error) {
	name, ok := c.manifest.Buffers[id]
	if !ok {
		return nil, errors.Errorf("Unknown buffer resource %d", id)
	}
	data := c.files[name]

	if byteOffset > uint64(len(data)) {
		return nil, errors.Errorf("Buffer %d read at %d past end %d", id, byteOffset, len(data))
	}

	end := uint64(len(data))
	if byteLength != 0 && byteOffset+byteLength < end {
		end = byteOffset + byteLength
	}
	return data[byteOffset:end], nil
}

func (c *Capture) Textures() []capture.TextureDescription {
	descs := make([]capture.TextureDescription, 0, len(c.manifest.Textures))
	for _, entry := range c.manifest.Textures {
		descs = append(descs, entry.Desc)
	}
	return descs
}

func (c *Capture) TexturePNG(id capture.ResourceId, slice int) ([]byte, error) {
	for _, entry := range c.manifest.Textures {
		if entry.Desc.Resource != id {
			continue
		}
		if slice < 0 || slice >= len(entry.Files) {
			return nil, errors.Errorf("Texture %d has no slice %d", id, slice)
		}
		data, ok := c.files[entry.Files[slice]]
		if !ok {
			return nil, errors.Errorf("Texture %d slice %d references missing blob %q", id, slice, entry.Files[slice])
		}
		return data, nil
	}
	return nil, errors.Errorf("Unknown texture resource %d", id)
}

func (c *Capture) ConstantBlocks(stage capture.ShaderStage) ([]capture.ConstantBlock, error) {
	stages, ok := c.manifest.Constant[c.currentEvent]
	if !ok {
		return nil, nil
	}
	return stages[stage.String()], nil
}
