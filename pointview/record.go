// Package pointview interprets decoded point records.
//
// A Record is a view over one record-sized byte slice plus the header it came
// from. It never copies or allocates, so a Record is only valid while the
// underlying bytes are. Callers that keep points must copy Raw first.
package pointview

import (
	"github.com/arloliu/lazbridge/endian"
	"github.com/arloliu/lazbridge/format"
	"github.com/arloliu/lazbridge/section"
)

const (
	legacyReturnMask         = 0x07
	extendedReturnMask       = 0x0F
	legacyClassificationMask = 0x1F
)

// Record is a read-only view of one point record.
type Record struct {
	raw []byte
	h   *section.Header
}

// New creates a view of raw, interpreted with the geometry and transform of h.
//
// h must not be nil. Every accessor other than Raw, RawXYZ, Attributes and
// Intensity reads it, and panics on a nil header. UnitHeader builds one for
// records whose file header is not at hand.
func New(raw []byte, h *section.Header) Record {
	return Record{raw: raw, h: h}
}

// UnitHeader returns a header that describes records of the given format and
// length with unit scale and zero offset, so Coordinate returns the raw values.
func UnitHeader(pointFormat format.PointFormat, recordLength uint16) *section.Header {
	return &section.Header{
		PointFormat:       pointFormat,
		PointRecordLength: recordLength,
		Scale:             [3]float64{1, 1, 1},
	}
}

// Raw returns the record bytes.
func (r Record) Raw() []byte {
	return r.raw
}

// RawXYZ returns the stored integer coordinates.
func (r Record) RawXYZ() (x, y, z int32) {
	engine := endian.GetLittleEndianEngine()

	return endian.Int32(engine, r.raw[format.OffsetX:]),
		endian.Int32(engine, r.raw[format.OffsetY:]),
		endian.Int32(engine, r.raw[format.OffsetZ:])
}

// Coordinate returns the real coordinates, raw * scale + offset on every axis.
func (r Record) Coordinate() (x, y, z float64) {
	rx, ry, rz := r.RawXYZ()

	return float64(rx)*r.h.Scale[0] + r.h.Offset[0],
		float64(ry)*r.h.Scale[1] + r.h.Offset[1],
		float64(rz)*r.h.Scale[2] + r.h.Offset[2]
}

// Attributes returns every byte after the coordinates as an opaque slice.
func (r Record) Attributes() []byte {
	return r.raw[format.OffsetAttrs:]
}

// Intensity returns the pulse return magnitude.
func (r Record) Intensity() uint16 {
	return endian.GetLittleEndianEngine().Uint16(r.raw[format.OffsetIntensity:])
}

// ReturnNumber returns the return number of the pulse.
func (r Record) ReturnNumber() uint8 {
	if r.h.PointFormat.IsLegacy() {
		return r.raw[format.OffsetReturns] & legacyReturnMask
	}

	return r.raw[format.OffsetReturns] & extendedReturnMask
}

// NumberOfReturns returns the number of returns of the pulse.
func (r Record) NumberOfReturns() uint8 {
	if r.h.PointFormat.IsLegacy() {
		return (r.raw[format.OffsetReturns] >> 3) & legacyReturnMask
	}

	return (r.raw[format.OffsetReturns] >> 4) & extendedReturnMask
}

// Classification returns the point class. Legacy formats keep flags in the top
// three bits of the byte, which are masked off.
func (r Record) Classification() (uint8, bool) {
	off := r.h.PointFormat.ClassificationOffset()
	if off < 0 || off >= len(r.raw) {
		return 0, false
	}

	if r.h.PointFormat.IsLegacy() {
		return r.raw[off] & legacyClassificationMask, true
	}

	return r.raw[off], true
}

// GPSTime returns the GPS time, or false for formats 0 and 2.
func (r Record) GPSTime() (float64, bool) {
	off := r.h.PointFormat.GPSTimeOffset()
	if off < 0 || off+8 > len(r.raw) {
		return 0, false
	}

	return endian.Float64(endian.GetLittleEndianEngine(), r.raw[off:]), true
}

// RGB returns the color channels, or false for formats without color.
func (r Record) RGB() (red, green, blue uint16, ok bool) {
	off := r.h.PointFormat.RGBOffset()
	if off < 0 || off+6 > len(r.raw) {
		return 0, 0, 0, false
	}

	engine := endian.GetLittleEndianEngine()

	return engine.Uint16(r.raw[off:]), engine.Uint16(r.raw[off+2:]), engine.Uint16(r.raw[off+4:]), true
}

// ExtraBytes returns the bytes following the format's base record.
func (r Record) ExtraBytes() []byte {
	base := int(r.h.PointFormat.BaseRecordLength())
	if base >= len(r.raw) {
		return nil
	}

	return r.raw[base:]
}
