package periodconv

import (
	"encoding/binary"
	"math"
)

// Format identifies the client's requested sample format. It
// determines the shadow buffer's element size and which pair of
// conversion functions a port adapter uses.
type Format int

const (
	// Float is the server's own format: 32-bit IEEE float, [-1, 1]
	// normalized. No conversion is performed for this format; a
	// port adapter in Float degenerates to a pass-through or a plain
	// memcpy.
	Float Format = iota
	// Int32 is 32-bit signed PCM, full-scale ±0x7FFFFFFF.
	Int32
	// Int16 is 16-bit signed PCM, full-scale ±0x7FFF.
	Int16
)

const (
	scale32 = 0x7FFFFFFF
	scale16 = 0x7FFF
)

// SampleSize returns the element size in bytes for format, or 0 if the
// format is unknown. Callers use the zero return to detect an
// unsupported format without a separate validity check.
func SampleSize(format Format) int {
	switch format {
	case Float:
		return 4
	case Int32:
		return 4
	case Int16:
		return 2
	default:
		return 0
	}
}

// clipToUnit saturates x to [-1.0, 1.0], treating NaN as 0 so that
// non-finite input produces a defined, in-range saturation value
// rather than propagating into the integer conversion below.
func clipToUnit(x float32) float32 {
	switch {
	case math.IsNaN(float64(x)):
		return 0
	case x <= -1.0:
		return -1.0
	case x >= 1.0:
		return 1.0
	default:
		return x
	}
}

// roundHalfAwayFromZero approximates the platform lrintf semantics the
// C reference relies on: round to nearest, ties away from zero.
func roundHalfAwayFromZero(x float64) int64 {
	if x >= 0 {
		return int64(math.Floor(x + 0.5))
	}
	return int64(math.Ceil(x - 0.5))
}

// FloatFromInt32 converts len(dst) int32 PCM samples read from src
// (src stride bytes apart, for interleaved layouts) into dst.
func FloatFromInt32(dst []float32, src []byte, stride int) {
	const scaling = 1.0 / float32(scale32)
	off := 0
	for i := range dst {
		v := int32(binary.NativeEndian.Uint32(src[off : off+4]))
		dst[i] = float32(v) * scaling
		off += stride
	}
}

// Int32FromFloat converts src's float32 samples into int32 PCM written
// to dst, round-to-nearest with hard clipping to ±0x7FFFFFFF.
func Int32FromFloat(dst []byte, src []float32) {
	off := 0
	for _, s := range src {
		c := clipToUnit(s)
		var v int32
		switch {
		case c <= -1.0:
			v = -scale32
		case c >= 1.0:
			v = scale32
		default:
			v = int32(roundHalfAwayFromZero(float64(c) * float64(scale32)))
		}
		binary.NativeEndian.PutUint32(dst[off:off+4], uint32(v))
		off += 4
	}
}

// FloatFromInt16 converts len(dst) int16 PCM samples read from src
// (src stride bytes apart) into dst.
func FloatFromInt16(dst []float32, src []byte, stride int) {
	const scaling = 1.0 / float32(scale16)
	off := 0
	for i := range dst {
		v := int16(binary.NativeEndian.Uint16(src[off : off+2]))
		dst[i] = float32(v) * scaling
		off += stride
	}
}

// Int16FromFloat converts src's float32 samples into int16 PCM written
// to dst, round-to-nearest with hard clipping to ±0x7FFF.
func Int16FromFloat(dst []byte, src []float32) {
	off := 0
	for _, s := range src {
		c := clipToUnit(s)
		var v int16
		switch {
		case c <= -1.0:
			v = -scale16
		case c >= 1.0:
			v = scale16
		default:
			v = int16(roundHalfAwayFromZero(float64(c) * float64(scale16)))
		}
		binary.NativeEndian.PutUint16(dst[off:off+2], uint16(v))
		off += 2
	}
}

// floatFromBytes decodes len(dst) native-endian float32 samples from
// src into dst. Both slices are caller-owned; nothing is allocated.
func floatFromBytes(dst []float32, src []byte) {
	for i := range dst {
		bits := binary.NativeEndian.Uint32(src[i*4 : i*4+4])
		dst[i] = math.Float32frombits(bits)
	}
}

// bytesFromFloat encodes src as native-endian float32 into dst.
// Caller-owned slices; nothing is allocated.
func bytesFromFloat(dst []byte, src []float32) {
	for i, v := range src {
		binary.NativeEndian.PutUint32(dst[i*4:i*4+4], math.Float32bits(v))
	}
}
