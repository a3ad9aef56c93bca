package runstore

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/banshee-data/rfi-flagger/internal/grid"
)

// Blob layout before compression: width and height as little-endian uint32,
// then the mask bits row-major, least significant bit first.
const maskHeaderSize = 8

var (
	blobEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	blobDecoder, _ = zstd.NewReader(nil)
)

// ErrCorruptMask is returned when a stored mask blob cannot be decoded.
var ErrCorruptMask = errors.New("corrupt mask blob")

// EncodeMask packs m into bits and compresses it with zstd.
func EncodeMask(m *grid.Mask) []byte {
	w, h := m.Width(), m.Height()
	raw := make([]byte, maskHeaderSize+(w*h+7)/8)
	binary.LittleEndian.PutUint32(raw[0:4], uint32(w))
	binary.LittleEndian.PutUint32(raw[4:8], uint32(h))
	bits := raw[maskHeaderSize:]
	i := 0
	for y := 0; y < h; y++ {
		for _, v := range m.Row(y) {
			if v {
				bits[i>>3] |= 1 << (i & 7)
			}
			i++
		}
	}
	return blobEncoder.EncodeAll(raw, make([]byte, 0, len(raw)/4+16))
}

// DecodeMask reverses EncodeMask.
func DecodeMask(blob []byte) (*grid.Mask, error) {
	raw, err := blobDecoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptMask, err)
	}
	if len(raw) < maskHeaderSize {
		return nil, fmt.Errorf("%w: short header", ErrCorruptMask)
	}
	w := int(binary.LittleEndian.Uint32(raw[0:4]))
	h := int(binary.LittleEndian.Uint32(raw[4:8]))
	bits := raw[maskHeaderSize:]
	if len(bits) != (w*h+7)/8 {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d", ErrCorruptMask, len(bits), w, h)
	}
	m := grid.NewMask(w, h)
	i := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if bits[i>>3]&(1<<(i&7)) != 0 {
				m.SetValue(x, y, true)
			}
			i++
		}
	}
	return m, nil
}
