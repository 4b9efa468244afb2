package format

// PointFormat is a LAS point data record format (0-10).
type PointFormat uint8

// MaxPointFormat is the highest point data record format defined by LAS 1.4.
const MaxPointFormat PointFormat = 10

// baseRecordLengths holds the minimum record length of each point format.
var baseRecordLengths = [...]uint16{20, 28, 26, 34, 57, 63, 30, 36, 38, 59, 67}

// Field offsets inside a point record. Formats 0-5 share the legacy layout,
// formats 6-10 share the extended layout.
const (
	OffsetX         = 0
	OffsetY         = 4
	OffsetZ         = 8
	OffsetIntensity = 12
	OffsetReturns   = 14
	OffsetAttrs     = 12 // first byte after the raw coordinates

	LegacyOffsetClassification = 15
	LegacyOffsetScanAngle      = 16
	LegacyOffsetUserData       = 17
	LegacyOffsetSourceID       = 18
	LegacyOffsetGPSTime        = 20

	ExtendedOffsetClassification = 16
	ExtendedOffsetGPSTime        = 22
	ExtendedOffsetRGB            = 30
)

// Valid reports whether p is a defined point format.
func (p PointFormat) Valid() bool {
	return p <= MaxPointFormat
}

// BaseRecordLength returns the record length of p without extra bytes, or 0 for an unknown format.
func (p PointFormat) BaseRecordLength() uint16 {
	if !p.Valid() {
		return 0
	}

	return baseRecordLengths[p]
}

// IsLegacy reports whether p uses the 20-byte core record of formats 0-5.
func (p PointFormat) IsLegacy() bool {
	return p <= 5
}

// HasGPSTime reports whether records of format p carry a GPS time field.
func (p PointFormat) HasGPSTime() bool {
	return p.Valid() && p != 0 && p != 2
}

// HasRGB reports whether records of format p carry red, green and blue channels.
func (p PointFormat) HasRGB() bool {
	switch p {
	case 2, 3, 5, 7, 8, 10:
		return true
	default:
		return false
	}
}

// GPSTimeOffset returns the byte offset of the GPS time field, or -1.
func (p PointFormat) GPSTimeOffset() int {
	switch {
	case !p.HasGPSTime():
		return -1
	case p.IsLegacy():
		return LegacyOffsetGPSTime
	default:
		return ExtendedOffsetGPSTime
	}
}

// RGBOffset returns the byte offset of the red channel, or -1.
func (p PointFormat) RGBOffset() int {
	switch p {
	case 2:
		return 20
	case 3, 5:
		return 28
	case 7, 8, 10:
		return ExtendedOffsetRGB
	default:
		return -1
	}
}

// ClassificationOffset returns the byte offset of the classification field, or -1.
func (p PointFormat) ClassificationOffset() int {
	switch {
	case !p.Valid():
		return -1
	case p.IsLegacy():
		return LegacyOffsetClassification
	default:
		return ExtendedOffsetClassification
	}
}
