package section

import (
	"fmt"

	"github.com/arloliu/lazbridge/endian"
	"github.com/arloliu/lazbridge/errs"
	"github.com/arloliu/lazbridge/format"
)

// Header is the subset of the LAS public header block needed to decode points.
type Header struct {
	VersionMajor uint8 // byte offset 24
	VersionMinor uint8 // byte offset 25
	// HeaderSize is the size of the public header block as stored in the file.
	HeaderSize uint16 // byte offset 94-95
	// PointDataOffset is the absolute byte offset of the first point record.
	// For compressed files the chunk table offset is stored there.
	PointDataOffset uint32 // byte offset 96-99
	VLRCount        uint32 // byte offset 100-103

	PointFormat       format.PointFormat // byte offset 104, low 4 bits
	Compressed        bool               // byte offset 104, bit 7 or bit 6
	PointRecordLength uint16             // byte offset 105-106

	// LegacyPointCount is the 32-bit point count, zero in files that exceed it.
	LegacyPointCount uint32 // byte offset 107-110
	// ExtendedPointCount is the 64-bit point count of LAS 1.4 headers.
	ExtendedPointCount uint64 // byte offset 247-254

	Scale  [3]float64 // byte offset 131-154
	Offset [3]float64 // byte offset 155-178
	Min    [3]float64 // byte offset 187/203/219
	Max    [3]float64 // byte offset 179/195/211
}

// PointCount returns the effective number of points in the file.
//
// The legacy count wins when it is non-zero, otherwise the extended count is used.
func (h *Header) PointCount() uint64 {
	if h.LegacyPointCount != 0 {
		return uint64(h.LegacyPointCount)
	}

	return h.ExtendedPointCount
}

// ExtraBytes returns the number of bytes each record carries beyond the format's base length.
func (h *Header) ExtraBytes() int {
	return int(h.PointRecordLength) - int(h.PointFormat.BaseRecordLength())
}

// Parse parses the header from a byte slice.
//
// Parameters:
//   - data: Byte slice starting at the beginning of the file (at least 227 bytes)
//
// Returns:
//   - error: ErrInvalidHeader for short or inconsistent headers, ErrUnsupportedFormat
//     (which also matches ErrInvalidHeader) for an unknown point format
func (h *Header) Parse(data []byte) error {
	if len(data) < MinHeaderSize {
		return fmt.Errorf("%w: buffer holds %d bytes, need at least %d", errs.ErrInvalidHeader, len(data), MinHeaderSize)
	}

	if string(data[OffsetSignature:OffsetSignature+4]) != Signature {
		return fmt.Errorf("%w: bad signature %q", errs.ErrInvalidHeader, data[OffsetSignature:OffsetSignature+4])
	}

	engine := endian.GetLittleEndianEngine()

	h.VersionMajor = data[OffsetVersionMajor]
	h.VersionMinor = data[OffsetVersionMinor]
	h.HeaderSize = engine.Uint16(data[OffsetHeaderSize:])
	h.PointDataOffset = engine.Uint32(data[OffsetPointDataOffset:])
	h.VLRCount = engine.Uint32(data[OffsetVLRCount:])

	formatByte := data[OffsetPointFormat]
	h.PointFormat = format.PointFormat(formatByte & FormatMask)
	h.Compressed = formatByte&(FlagCompressedLAZip|FlagCompressedAlt) != 0
	h.PointRecordLength = engine.Uint16(data[OffsetRecordLength:])
	h.LegacyPointCount = engine.Uint32(data[OffsetLegacyCount:])

	h.ExtendedPointCount = 0
	if h.supportsExtendedCount() && len(data) >= ExtendedCountEnd {
		h.ExtendedPointCount = engine.Uint64(data[OffsetExtendedCount:])
	}

	for i, off := range [3]int{OffsetScaleX, OffsetScaleY, OffsetScaleZ} {
		h.Scale[i] = endian.Float64(engine, data[off:])
	}
	for i, off := range [3]int{OffsetOffsetX, OffsetOffsetY, OffsetOffsetZ} {
		h.Offset[i] = endian.Float64(engine, data[off:])
	}
	for i, off := range [3]int{OffsetMaxX, OffsetMaxY, OffsetMaxZ} {
		h.Max[i] = endian.Float64(engine, data[off:])
	}
	for i, off := range [3]int{OffsetMinX, OffsetMinY, OffsetMinZ} {
		h.Min[i] = endian.Float64(engine, data[off:])
	}

	return h.Validate()
}

// Validate checks the structural invariants of a parsed header.
func (h *Header) Validate() error {
	if !h.PointFormat.Valid() {
		return fmt.Errorf("%w: %w: point format %d", errs.ErrInvalidHeader, errs.ErrUnsupportedFormat, h.PointFormat)
	}

	if base := h.PointFormat.BaseRecordLength(); h.PointRecordLength < base {
		return fmt.Errorf("%w: record length %d is shorter than %d for format %d",
			errs.ErrInvalidHeader, h.PointRecordLength, base, h.PointFormat)
	}

	if h.HeaderSize < MinHeaderSize {
		return fmt.Errorf("%w: header size %d", errs.ErrInvalidHeader, h.HeaderSize)
	}

	if h.PointDataOffset < uint32(h.HeaderSize) {
		return fmt.Errorf("%w: point data offset %d lies inside the %d byte header",
			errs.ErrInvalidHeader, h.PointDataOffset, h.HeaderSize)
	}

	for i := range 3 {
		if !(h.Min[i] < h.Max[i]) {
			return fmt.Errorf("%w: axis %d min %g is not below max %g", errs.ErrInvalidHeader, i, h.Min[i], h.Max[i])
		}
	}

	return nil
}

// Bytes serializes the header into a public header block of HeaderSize bytes.
//
// Fields this package does not model are written as zero. HeaderSize must be one of
// MinHeaderSize, HeaderSize13 or HeaderSize14.
func (h *Header) Bytes() []byte {
	size := int(h.HeaderSize)
	if size < MinHeaderSize {
		size = MinHeaderSize
	}
	b := make([]byte, size)

	engine := endian.GetLittleEndianEngine()

	copy(b[OffsetSignature:], Signature)
	b[OffsetVersionMajor] = h.VersionMajor
	b[OffsetVersionMinor] = h.VersionMinor
	engine.PutUint16(b[OffsetHeaderSize:], uint16(size)) //nolint:gosec
	engine.PutUint32(b[OffsetPointDataOffset:], h.PointDataOffset)
	engine.PutUint32(b[OffsetVLRCount:], h.VLRCount)

	b[OffsetPointFormat] = uint8(h.PointFormat)
	if h.Compressed {
		b[OffsetPointFormat] |= FlagCompressedLAZip
	}
	engine.PutUint16(b[OffsetRecordLength:], h.PointRecordLength)
	engine.PutUint32(b[OffsetLegacyCount:], h.LegacyPointCount)

	for i, off := range [3]int{OffsetScaleX, OffsetScaleY, OffsetScaleZ} {
		endian.PutFloat64(engine, b[off:], h.Scale[i])
	}
	for i, off := range [3]int{OffsetOffsetX, OffsetOffsetY, OffsetOffsetZ} {
		endian.PutFloat64(engine, b[off:], h.Offset[i])
	}
	for i, off := range [3]int{OffsetMaxX, OffsetMaxY, OffsetMaxZ} {
		endian.PutFloat64(engine, b[off:], h.Max[i])
	}
	for i, off := range [3]int{OffsetMinX, OffsetMinY, OffsetMinZ} {
		endian.PutFloat64(engine, b[off:], h.Min[i])
	}

	if size >= ExtendedCountEnd {
		engine.PutUint64(b[OffsetExtendedCount:], h.ExtendedPointCount)
	}

	return b
}

func (h *Header) supportsExtendedCount() bool {
	return h.VersionMajor > 1 || (h.VersionMajor == 1 && h.VersionMinor >= 4)
}

// ParseHeader parses a Header from the start of a LAS/LAZ file.
//
// Parameters:
//   - data: Byte slice containing at least the first 227 bytes of the file
//
// Returns:
//   - Header: Parsed header struct
//   - error: ErrInvalidHeader or ErrUnsupportedFormat
func ParseHeader(data []byte) (Header, error) {
	h := Header{}
	if err := h.Parse(data); err != nil {
		return Header{}, err
	}

	return h, nil
}
