package exporter

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/gpuix/drawcall_exporter/capture"
)

// DecodeValue decodes one fixed-width attribute value from raw vertex
// buffer bytes. Components are read little-endian, normalized per the
// component type and rounded to 4 decimal digits.
func DecodeValue(format capture.ComponentFormat, data []byte) ([]float64, error) {
	// Bit-packed layouts such as 10:10:10:2 cannot be read per-component
	if format.Special {
		return nil, &UnsupportedVertexFormatError{}
	}

	if format.CompCount < 1 || format.CompCount > 4 {
		return nil, errors.Errorf("Invalid component count %d", format.CompCount)
	}
	switch format.CompType {
	case capture.CompTypeFloat:
		switch format.CompByteWidth {
		case 2, 4, 8:
		default:
			return nil, errors.Errorf("Invalid float byte width %d", format.CompByteWidth)
		}
	default:
		switch format.CompByteWidth {
		case 1, 2, 4, 8:
		default:
			return nil, errors.Errorf("Invalid integer byte width %d", format.CompByteWidth)
		}
	}

	required := format.CompCount * format.CompByteWidth
	if uint32(len(data)) < required {
		return nil, errors.Errorf("Attribute data too short: got %d bytes, need %d", len(data), required)
	}

	value := make([]float64, format.CompCount)
	for i := uint32(0); i < format.CompCount; i++ {
		raw := data[i*format.CompByteWidth:]
		switch format.CompType {
		case capture.CompTypeFloat:
			value[i] = decodeFloat(raw, format.CompByteWidth)
		case capture.CompTypeUInt, capture.CompTypeUNorm, capture.CompTypeUScaled:
			value[i] = float64(decodeUint(raw, format.CompByteWidth))
		case capture.CompTypeSInt, capture.CompTypeSNorm, capture.CompTypeSScaled:
			value[i] = float64(decodeSint(raw, format.CompByteWidth))
		default:
			return nil, errors.Errorf("Unknown component type %v", format.CompType)
		}
	}

	bits := format.CompByteWidth * 8
	switch format.CompType {
	case capture.CompTypeUNorm:
		divisor := math.Pow(2, float64(bits)) - 1
		for i := range value {
			value[i] /= divisor
		}
	case capture.CompTypeSNorm:
		// The most negative value maps to exactly -1.0: two's complement
		// has one more negative step than positive, dividing would give
		// a value slightly below -1.
		maxNeg := -math.Pow(2, float64(bits)) / 2
		divisor := -(maxNeg + 1)
		for i := range value {
			if value[i] == maxNeg {
				value[i] = -1.0
			} else {
				value[i] /= divisor
			}
		}
	}

	if format.BGRAOrder && format.CompCount == 4 {
		value[0], value[2] = value[2], value[0]
	}

	for i := range value {
		value[i] = round4(value[i])
	}

	return value, nil
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func decodeUint(data []byte, width uint32) uint64 {
	switch width {
	case 1:
		return uint64(data[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(data))
	case 4:
		return uint64(binary.LittleEndian.Uint32(data))
	default:
		return binary.LittleEndian.Uint64(data)
	}
}

func decodeSint(data []byte, width uint32) int64 {
	switch width {
	case 1:
		return int64(int8(data[0]))
	case 2:
		return int64(int16(binary.LittleEndian.Uint16(data)))
	case 4:
		return int64(int32(binary.LittleEndian.Uint32(data)))
	default:
		return int64(binary.LittleEndian.Uint64(data))
	}
}

func decodeFloat(data []byte, width uint32) float64 {
	switch width {
	case 2:
		return float64(float16ToFloat32(binary.LittleEndian.Uint16(data)))
	case 4:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(data)))
	default:
		return math.Float64frombits(binary.LittleEndian.Uint64(data))
	}
}

func float16ToFloat32(h uint16) float32 {
	sign := uint32(h>>15) & 1
	exp := uint32(h>>10) & 0x1f
	mant := uint32(h) & 0x3ff

	var bits uint32
	switch {
	case exp == 0:
		if mant == 0 {
			bits = sign << 31
		} else {
			// subnormal half, renormalize for float32
			e := uint32(127 - 15 + 1)
			for mant&0x400 == 0 {
				mant <<= 1
				e--
			}
			bits = sign<<31 | e<<23 | (mant&0x3ff)<<13
		}
	case exp == 0x1f:
		bits = sign<<31 | 0xff<<23 | mant<<13
	default:
		bits = sign<<31 | (exp-15+127)<<23 | mant<<13
	}
	return math.Float32frombits(bits)
}
