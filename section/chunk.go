package section

import (
	"fmt"

	"github.com/arloliu/lazbridge/endian"
	"github.com/arloliu/lazbridge/errs"
)

// ChunkEntry describes one chunk of a LAZ file.
type ChunkEntry struct {
	// Count is the number of points in the chunk.
	Count uint64
	// Offset is the absolute byte offset of the chunk in the file.
	Offset uint64
}

// ChunkTableHeader is the fixed prefix of the chunk table.
type ChunkTableHeader struct {
	Version    uint32
	ChunkCount uint32
}

// Parse parses the chunk table header.
func (c *ChunkTableHeader) Parse(data []byte) error {
	if len(data) < ChunkTableHeaderSize {
		return fmt.Errorf("%w: chunk table header needs %d bytes, have %d", errs.ErrDecode, ChunkTableHeaderSize, len(data))
	}

	engine := endian.GetLittleEndianEngine()

	c.Version = engine.Uint32(data[0:4])
	c.ChunkCount = engine.Uint32(data[4:8])

	if c.Version != 0 {
		return fmt.Errorf("%w: chunk table version %d", errs.ErrDecode, c.Version)
	}

	return nil
}

// Bytes serializes the chunk table header.
func (c *ChunkTableHeader) Bytes() []byte {
	b := make([]byte, ChunkTableHeaderSize)

	engine := endian.GetLittleEndianEngine()
	engine.PutUint32(b[0:4], c.Version)
	engine.PutUint32(b[4:8], c.ChunkCount)

	return b
}

// ChunkTableOffset reads the absolute chunk table offset stored at the start of point data.
//
// Returns:
//   - int64: Absolute offset of the chunk table
//   - error: ErrDecode when the offset is missing, -1 (written by streaming encoders),
//     or outside data
func ChunkTableOffset(data []byte, h *Header) (int64, error) {
	start := int(h.PointDataOffset)
	if start+ChunkTableOffsetSize > len(data) {
		return 0, fmt.Errorf("%w: chunk table offset at %d is past the end of %d bytes", errs.ErrDecode, start, len(data))
	}

	off := endian.Int64(endian.GetLittleEndianEngine(), data[start:])
	switch {
	case off == -1:
		return 0, fmt.Errorf("%w: chunk table offset not written", errs.ErrDecode)
	case off < int64(start)+ChunkTableOffsetSize || off > int64(len(data))-ChunkTableHeaderSize:
		return 0, fmt.Errorf("%w: chunk table offset %d out of range", errs.ErrDecode, off)
	}

	return off, nil
}
