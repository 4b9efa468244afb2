package section

// Public header block byte offsets. Every field is little-endian.
const (
	OffsetSignature       = 0
	OffsetVersionMajor    = 24
	OffsetVersionMinor    = 25
	OffsetHeaderSize      = 94
	OffsetPointDataOffset = 96
	OffsetVLRCount        = 100
	OffsetPointFormat     = 104
	OffsetRecordLength    = 105
	OffsetLegacyCount     = 107
	OffsetLegacyByReturn  = 111
	OffsetScaleX          = 131
	OffsetScaleY          = 139
	OffsetScaleZ          = 147
	OffsetOffsetX         = 155
	OffsetOffsetY         = 163
	OffsetOffsetZ         = 171
	OffsetMaxX            = 179
	OffsetMinX            = 187
	OffsetMaxY            = 195
	OffsetMinY            = 203
	OffsetMaxZ            = 211
	OffsetMinZ            = 219
	OffsetWaveform        = 227 // LAS 1.3+
	OffsetEVLRStart       = 235 // LAS 1.4
	OffsetEVLRCount       = 243 // LAS 1.4
	OffsetExtendedCount   = 247 // LAS 1.4
	OffsetExtendedByRet   = 255 // LAS 1.4
)

// Header sizes by version.
const (
	MinHeaderSize = 227 // LAS 1.0-1.2, and the minimum buffer ParseHeader accepts
	HeaderSize13  = 235 // LAS 1.3
	HeaderSize14  = 375 // LAS 1.4

	// ExtendedCountEnd is the buffer length needed to read the 1.4 extended point count.
	ExtendedCountEnd = OffsetExtendedCount + 8
)

// Point format byte flags.
const (
	FormatMask          = 0x0F
	FlagCompressedLAZip = 0x80 // set by LASzip
	FlagCompressedAlt   = 0x40 // set by some older writers
)

// Signature is the four-byte file signature of every LAS/LAZ file.
const Signature = "LASF"

// Variable length record constants.
const (
	VLRHeaderSize      = 54
	VLRUserIDSize      = 16
	VLRDescriptionSize = 32

	LASzipUserID   = "laszip encoded"
	LASzipRecordID = 22204

	// LASzipVLRFixedSize is the LASzip VLR payload size before the item list.
	LASzipVLRFixedSize = 34
	// LASzipItemSize is the encoded size of one item entry.
	LASzipItemSize = 6

	// CompressorPointwiseChunked is the LASzip compressor for formats 0-5.
	CompressorPointwiseChunked = 2
	// CompressorLayeredChunked is the LASzip compressor for formats 6-10.
	CompressorLayeredChunked = 3

	// VariableChunkSize marks files whose chunks carry individual point counts.
	VariableChunkSize = 0xFFFFFFFF
)

// Chunk table constants.
const (
	ChunkTableOffsetSize = 8 // i64 at the start of point data
	ChunkTableHeaderSize = 8 // version u32 + chunk count u32
)
