package section

import (
	"bytes"
	"fmt"

	"github.com/arloliu/lazbridge/endian"
	"github.com/arloliu/lazbridge/errs"
	"github.com/arloliu/lazbridge/format"
)

// VLRHeader is the 54-byte header preceding every variable length record.
type VLRHeader struct {
	UserID       string // byte offset 2-17, NUL padded
	RecordID     uint16 // byte offset 18-19
	RecordLength uint16 // byte offset 20-21, payload bytes following the header
	Description  string // byte offset 22-53, NUL padded
}

// Parse parses the VLR header from a byte slice of at least VLRHeaderSize bytes.
func (v *VLRHeader) Parse(data []byte) error {
	if len(data) < VLRHeaderSize {
		return fmt.Errorf("%w: VLR header needs %d bytes, have %d", errs.ErrInvalidHeader, VLRHeaderSize, len(data))
	}

	engine := endian.GetLittleEndianEngine()

	v.UserID = cString(data[2 : 2+VLRUserIDSize])
	v.RecordID = engine.Uint16(data[18:20])
	v.RecordLength = engine.Uint16(data[20:22])
	v.Description = cString(data[22 : 22+VLRDescriptionSize])

	return nil
}

// Bytes serializes the VLR header.
func (v *VLRHeader) Bytes() []byte {
	b := make([]byte, VLRHeaderSize)

	engine := endian.GetLittleEndianEngine()

	copy(b[2:2+VLRUserIDSize], v.UserID)
	engine.PutUint16(b[18:20], v.RecordID)
	engine.PutUint16(b[20:22], v.RecordLength)
	copy(b[22:22+VLRDescriptionSize], v.Description)

	return b
}

// IsLASzip reports whether the record is the LASzip item description.
func (v *VLRHeader) IsLASzip() bool {
	return v.UserID == LASzipUserID && v.RecordID == LASzipRecordID
}

// Item is one entry of the LASzip item list.
type Item struct {
	Type    format.ItemType
	Size    uint16
	Version uint16
}

// LASzipVLR is the payload of the LASzip VLR.
type LASzipVLR struct {
	Compressor   uint16
	Coder        uint16
	VersionMajor uint8
	VersionMinor uint8
	Revision     uint16
	Options      uint32
	// ChunkSize is the number of points per chunk, or VariableChunkSize.
	ChunkSize uint32
	// NumPoints and NumBytes are -1 when unused.
	NumPoints int64
	NumBytes  int64
	Items     []Item
}

// Parse parses the LASzip VLR payload.
func (z *LASzipVLR) Parse(data []byte) error {
	if len(data) < LASzipVLRFixedSize {
		return fmt.Errorf("%w: LASzip VLR needs %d bytes, have %d", errs.ErrInvalidHeader, LASzipVLRFixedSize, len(data))
	}

	engine := endian.GetLittleEndianEngine()

	z.Compressor = engine.Uint16(data[0:2])
	z.Coder = engine.Uint16(data[2:4])
	z.VersionMajor = data[4]
	z.VersionMinor = data[5]
	z.Revision = engine.Uint16(data[6:8])
	z.Options = engine.Uint32(data[8:12])
	z.ChunkSize = engine.Uint32(data[12:16])
	z.NumPoints = endian.Int64(engine, data[16:24])
	z.NumBytes = endian.Int64(engine, data[24:32])

	numItems := int(engine.Uint16(data[32:34]))
	if len(data) < LASzipVLRFixedSize+numItems*LASzipItemSize {
		return fmt.Errorf("%w: LASzip VLR lists %d items in %d bytes", errs.ErrInvalidHeader, numItems, len(data))
	}

	z.Items = make([]Item, numItems)
	for i := range z.Items {
		p := data[LASzipVLRFixedSize+i*LASzipItemSize:]
		z.Items[i] = Item{
			Type:    format.ItemType(engine.Uint16(p[0:2])),
			Size:    engine.Uint16(p[2:4]),
			Version: engine.Uint16(p[4:6]),
		}
	}

	return nil
}

// Bytes serializes the LASzip VLR payload.
func (z *LASzipVLR) Bytes() []byte {
	b := make([]byte, z.Size())

	engine := endian.GetLittleEndianEngine()

	engine.PutUint16(b[0:2], z.Compressor)
	engine.PutUint16(b[2:4], z.Coder)
	b[4] = z.VersionMajor
	b[5] = z.VersionMinor
	engine.PutUint16(b[6:8], z.Revision)
	engine.PutUint32(b[8:12], z.Options)
	engine.PutUint32(b[12:16], z.ChunkSize)
	engine.PutUint64(b[16:24], uint64(z.NumPoints)) //nolint:gosec
	engine.PutUint64(b[24:32], uint64(z.NumBytes))  //nolint:gosec
	engine.PutUint16(b[32:34], uint16(len(z.Items))) //nolint:gosec

	for i, item := range z.Items {
		p := b[LASzipVLRFixedSize+i*LASzipItemSize:]
		engine.PutUint16(p[0:2], uint16(item.Type))
		engine.PutUint16(p[2:4], item.Size)
		engine.PutUint16(p[4:6], item.Version)
	}

	return b
}

// Size returns the encoded payload size.
func (z *LASzipVLR) Size() int {
	return LASzipVLRFixedSize + len(z.Items)*LASzipItemSize
}

// VariableChunks reports whether every chunk carries its own point count.
func (z *LASzipVLR) VariableChunks() bool {
	return z.ChunkSize == VariableChunkSize
}

// RecordLength returns the sum of the item sizes, which equals the point record length.
func (z *LASzipVLR) RecordLength() int {
	n := 0
	for _, item := range z.Items {
		n += int(item.Size)
	}

	return n
}

// FindLASzipVLR walks the VLRs following the header and returns the LASzip VLR.
//
// Parameters:
//   - data: The whole file, or at least everything up to PointDataOffset
//   - h: The parsed header of data
//
// Returns:
//   - LASzipVLR: Parsed LASzip record
//   - bool: false when no LASzip VLR is present
//   - error: ErrInvalidHeader when a VLR runs past the point data offset or the buffer
func FindLASzipVLR(data []byte, h *Header) (LASzipVLR, bool, error) {
	pos := int(h.HeaderSize)
	end := min(int(h.PointDataOffset), len(data))

	for i := uint32(0); i < h.VLRCount; i++ {
		if pos+VLRHeaderSize > end {
			return LASzipVLR{}, false, fmt.Errorf("%w: VLR %d header runs past point data", errs.ErrInvalidHeader, i)
		}

		var vh VLRHeader
		if err := vh.Parse(data[pos:]); err != nil {
			return LASzipVLR{}, false, err
		}
		pos += VLRHeaderSize

		if pos+int(vh.RecordLength) > end {
			return LASzipVLR{}, false, fmt.Errorf("%w: VLR %d payload runs past point data", errs.ErrInvalidHeader, i)
		}

		if vh.IsLASzip() {
			var z LASzipVLR
			if err := z.Parse(data[pos : pos+int(vh.RecordLength)]); err != nil {
				return LASzipVLR{}, false, err
			}

			return z, true, nil
		}
		pos += int(vh.RecordLength)
	}

	return LASzipVLR{}, false, nil
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}

	return string(b)
}
