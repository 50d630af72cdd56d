package periodconv

import "unsafe"

const alignBytes = 32

// shadowBuffer is a contiguous, 32-byte aligned block of bytes owned by
// one port adapter, large enough to hold capacity frames of sampleSize
// bytes each. It is allocated once, at construction (never on the
// realtime path), and is never resized afterward.
type shadowBuffer struct {
	raw      []byte // over-allocated backing storage
	data     []byte // 32-byte aligned view into raw, capacity*sampleSize long
	sample   int    // bytes per frame (sampleSize of the adapter's format)
	capacity int    // frames
	// scratch is a per-construction float32 staging area used by the
	// format converters so they never allocate on the realtime path.
	scratch []float32
}

func newShadowBuffer(capacity, sampleSize int) *shadowBuffer {
	raw := make([]byte, capacity*sampleSize+alignBytes)
	data := alignedSlice(raw, capacity*sampleSize)
	maxScratch := capacity
	return &shadowBuffer{
		raw:      raw,
		data:     data,
		sample:   sampleSize,
		capacity: capacity,
		scratch:  make([]float32, maxScratch),
	}
}

// alignedSlice returns the n-byte prefix of buf starting at the first
// 32-byte aligned address within it.
func alignedSlice(buf []byte, n int) []byte {
	addr := uintptr(unsafe.Pointer(&buf[0]))
	pad := (alignBytes - addr%alignBytes) % alignBytes
	return buf[pad : pad+uintptr(n)]
}

// at returns the byte slice for frameOffset..frameOffset+frames within
// the shadow buffer.
func (s *shadowBuffer) at(frameOffset, frames int) []byte {
	start := frameOffset * s.sample
	end := start + frames*s.sample
	return s.data[start:end]
}

// silence zero-fills the first `frames` frames of the shadow buffer.
func (s *shadowBuffer) silence(frames int) {
	clear(s.at(0, frames))
}

// copyFromServer converts frames worth of server float32 samples
// (server, frames*4 bytes) into this shadow buffer's format, written
// starting at dstFrame. Uses the pre-allocated scratch slice so no
// allocation happens here.
func (s *shadowBuffer) copyFromServer(format Format, dstFrame, frames int, server []byte) {
	dst := s.at(dstFrame, frames)
	switch format {
	case Float:
		copy(dst, server[:frames*4])
	case Int32:
		scratch := s.scratch[:frames]
		floatFromBytes(scratch, server[:frames*4])
		Int32FromFloat(dst, scratch)
	case Int16:
		scratch := s.scratch[:frames]
		floatFromBytes(scratch, server[:frames*4])
		Int16FromFloat(dst, scratch)
	}
}

// copyToServer converts frames worth of this shadow buffer's samples,
// starting at srcFrame, into server float32 bytes (frames*4 long).
func (s *shadowBuffer) copyToServer(format Format, server []byte, srcFrame, frames int) {
	src := s.at(srcFrame, frames)
	switch format {
	case Float:
		copy(server[:frames*4], src)
	case Int32:
		scratch := s.scratch[:frames]
		FloatFromInt32(scratch, src, 4)
		bytesFromFloat(server[:frames*4], scratch)
	case Int16:
		scratch := s.scratch[:frames]
		FloatFromInt16(scratch, src, 2)
		bytesFromFloat(server[:frames*4], scratch)
	}
}
