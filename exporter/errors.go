package exporter

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrInvalidDrawRange reports a requested draw call id that does not
// exist in the capture. Fatal for the whole request, raised before any
// file is written.
var ErrInvalidDrawRange = errors.New("not a valid drawcall id")

// UnsupportedVertexFormatError reports a bit-packed attribute format the
// decoder cannot handle. Aborts the current draw call only.
type UnsupportedVertexFormatError struct {
	Attr string
}

func (e *UnsupportedVertexFormatError) Error() string {
	if e.Attr == "" {
		return "packed formats are not supported"
	}
	return fmt.Sprintf("packed formats are not supported (attribute %q)", e.Attr)
}

// UnsupportedInstancedAttributeError reports a per-instance vertex input.
// Aborts the current draw call only.
type UnsupportedInstancedAttributeError struct {
	Attr string
}

func (e *UnsupportedInstancedAttributeError) Error() string {
	return fmt.Sprintf("instanced properties are not supported (attribute %q)", e.Attr)
}

// EmptyGeometryError reports a draw call that resolved to zero vertex
// indices. No file is written for that draw call.
type EmptyGeometryError struct {
	DrawId uint32
}

func (e *EmptyGeometryError) Error() string {
	return fmt.Sprintf("drawcall %d has no vertex data", e.DrawId)
}
