// SPDX-License-Identifier: EPL-2.0

package sample

import (
	"encoding/binary"
	"math"
)

// Format identifies one of the closed set of supported sample encodings.
// All internal arithmetic in this module happens on normalized float32;
// Format only matters at the storage boundary.
type Format int

const (
	// Int16 is 16-bit signed little-endian PCM.
	Int16 Format = iota
	// Int24 is 24-bit signed little-endian PCM.
	Int24
	// Float32 is 32-bit IEEE float little-endian, nominal range [-1, 1].
	Float32
)

func (f Format) String() string {
	switch f {
	case Int16:
		return "int16"
	case Int24:
		return "int24"
	case Float32:
		return "float32"
	default:
		return "unknown"
	}
}

// Size returns the number of bytes one sample occupies in this format.
func (f Format) Size() int {
	switch f {
	case Int16:
		return 2
	case Int24:
		return 3
	case Float32:
		return 4
	default:
		return 0
	}
}

// Valid reports whether f is one of the supported encodings.
func (f Format) Valid() bool {
	return f == Int16 || f == Int24 || f == Float32
}

// ToFloat32 decodes count samples of format f from src into dst.
// dst must have at least count elements and src at least count*f.Size()
// bytes; extra space is ignored.
func ToFloat32(dst []float32, src []byte, f Format, count int) {
	switch f {
	case Int16:
		for i := range count {
			v := int16(binary.LittleEndian.Uint16(src[2*i:]))
			dst[i] = float32(v) / 32768.0
		}
	case Int24:
		for i := range count {
			b := src[3*i : 3*i+3]
			// Sign-extend the 24-bit value
			v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
			if v&0x800000 != 0 {
				v |= ^int32(0xffffff)
			}
			dst[i] = float32(v) / 8388608.0
		}
	case Float32:
		for i := range count {
			bits := binary.LittleEndian.Uint32(src[4*i:])
			dst[i] = math.Float32frombits(bits)
		}
	}
}

// FromFloat32 encodes count samples from src into dst in format f,
// clamping to the representable range.
func FromFloat32(dst []byte, src []float32, f Format, count int) {
	switch f {
	case Int16:
		for i := range count {
			x := clamp(src[i])
			binary.LittleEndian.PutUint16(dst[2*i:], uint16(int16(x*32767.0)))
		}
	case Int24:
		for i := range count {
			x := clamp(src[i])
			v := int32(x * 8388607.0)
			dst[3*i] = byte(v)
			dst[3*i+1] = byte(v >> 8)
			dst[3*i+2] = byte(v >> 16)
		}
	case Float32:
		for i := range count {
			binary.LittleEndian.PutUint32(dst[4*i:], math.Float32bits(src[i]))
		}
	}
}

// Convert transcodes count samples from srcFormat to dstFormat through the
// normalized float32 representation. src and dst must not overlap.
func Convert(dst []byte, dstFormat Format, src []byte, srcFormat Format, count int) {
	if dstFormat == srcFormat {
		copy(dst[:count*dstFormat.Size()], src[:count*srcFormat.Size()])
		return
	}
	tmp := make([]float32, count)
	ToFloat32(tmp, src, srcFormat, count)
	FromFloat32(dst, tmp, dstFormat, count)
}

func clamp(x float32) float32 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}
