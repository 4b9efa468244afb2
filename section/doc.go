// Package section defines the low-level binary structures of LAS/LAZ files.
//
// It parses and serializes the fixed-offset structures that sit in front of the
// point records: the public header block, variable length records (VLRs), the
// LASzip VLR that describes the compressed item layout, and the chunk table header.
//
// # File Structure
//
//	┌─────────────────────────────────────────────────────────┐
//	│ Public Header Block (227 / 235 / 375 bytes)             │
//	│  - Signature "LASF", version                            │
//	│  - Point data offset, VLR count                         │
//	│  - Point format, record length, counts                  │
//	│  - Scale, offset, bounding box                          │
//	├─────────────────────────────────────────────────────────┤
//	│ VLRs (54-byte header + payload, VLRCount times)         │
//	│  - LASzip VLR ("laszip encoded", 22204) in LAZ files    │
//	├─────────────────────────────────────────────────────────┤
//	│ Point Data (at PointDataOffset)                         │
//	│  - LAS: PointCount × PointRecordLength bytes            │
//	│  - LAZ: i64 chunk table offset, then chunks             │
//	├─────────────────────────────────────────────────────────┤
//	│ Chunk Table (LAZ only)                                  │
//	│  - version u32, chunk count u32                         │
//	│  - arithmetic coded (count, byte size) pairs            │
//	└─────────────────────────────────────────────────────────┘
//
// # Header Fields
//
//	Bytes    | Field               | Type       | Description
//	---------|---------------------|------------|----------------------------------
//	0-3      | Signature           | char[4]    | "LASF"
//	24-25    | Version             | uint8 × 2  | major, minor
//	94-95    | HeaderSize          | uint16     | size of this block
//	96-99    | PointDataOffset     | uint32     | first point record
//	100-103  | VLRCount            | uint32     | number of VLRs
//	104      | PointFormat         | uint8      | low 4 bits format, bit 7/6 compressed
//	105-106  | PointRecordLength   | uint16     | bytes per record
//	107-110  | LegacyPointCount    | uint32     | zero when the count exceeds 32 bits
//	131-154  | Scale               | float64×3  | x, y, z
//	155-178  | Offset              | float64×3  | x, y, z
//	179-226  | Max/Min             | float64×6  | max x, min x, max y, min y, max z, min z
//	247-254  | ExtendedPointCount  | uint64     | LAS 1.4 only
//
// All values are little-endian.
package section
