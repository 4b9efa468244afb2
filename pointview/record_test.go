package pointview

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/lazbridge/format"
	"github.com/arloliu/lazbridge/section"
)

func legacyRecord(f format.PointFormat, extra int) []byte {
	raw := make([]byte, int(f.BaseRecordLength())+extra)
	binary.LittleEndian.PutUint32(raw[0:], uint32(1234))
	binary.LittleEndian.PutUint32(raw[4:], uint32(0xFFFFFFFF)) // -1
	binary.LittleEndian.PutUint32(raw[8:], uint32(50000))
	binary.LittleEndian.PutUint16(raw[12:], 4321)
	raw[14] = 2 | 3<<3
	raw[15] = 6 | 0x80 // withheld flag set

	return raw
}

func TestRecord_Coordinate(t *testing.T) {
	h := &section.Header{
		PointFormat: 0,
		Scale:       [3]float64{0.01, 0.01, 0.001},
		Offset:      [3]float64{500000, 4000000, -10},
	}

	r := New(legacyRecord(0, 0), h)

	x, y, z := r.RawXYZ()
	require.Equal(t, int32(1234), x)
	require.Equal(t, int32(-1), y)
	require.Equal(t, int32(50000), z)

	cx, cy, cz := r.Coordinate()
	require.InDelta(t, 500012.34, cx, 1e-6)
	require.InDelta(t, 3999999.99, cy, 1e-6)
	require.InDelta(t, 40.0, cz, 1e-9)
}

func TestRecord_LegacyAttributes(t *testing.T) {
	h := &section.Header{PointFormat: 3}
	raw := legacyRecord(3, 2)
	binary.LittleEndian.PutUint64(raw[20:], math.Float64bits(123456.789))
	binary.LittleEndian.PutUint16(raw[28:], 100)
	binary.LittleEndian.PutUint16(raw[30:], 200)
	binary.LittleEndian.PutUint16(raw[32:], 300)
	raw[34], raw[35] = 0xAA, 0xBB

	r := New(raw, h)
	require.Equal(t, uint16(4321), r.Intensity())
	require.Equal(t, uint8(2), r.ReturnNumber())
	require.Equal(t, uint8(3), r.NumberOfReturns())

	class, ok := r.Classification()
	require.True(t, ok)
	require.Equal(t, uint8(6), class)

	gps, ok := r.GPSTime()
	require.True(t, ok)
	require.InDelta(t, 123456.789, gps, 0)

	red, green, blue, ok := r.RGB()
	require.True(t, ok)
	require.Equal(t, []uint16{100, 200, 300}, []uint16{red, green, blue})

	require.Equal(t, []byte{0xAA, 0xBB}, r.ExtraBytes())
	require.Len(t, r.Attributes(), 36-12)
	require.Equal(t, raw, r.Raw())
}

func TestRecord_MissingFields(t *testing.T) {
	r := New(legacyRecord(0, 0), &section.Header{PointFormat: 0})

	_, ok := r.GPSTime()
	require.False(t, ok)
	_, _, _, ok = r.RGB()
	require.False(t, ok)
	require.Nil(t, r.ExtraBytes())

	r = New(legacyRecord(2, 0), &section.Header{PointFormat: 2})
	_, ok = r.GPSTime()
	require.False(t, ok)
	_, _, _, ok = r.RGB()
	require.True(t, ok)
}

func TestRecord_ExtendedLayout(t *testing.T) {
	raw := make([]byte, 36)
	raw[14] = 9 | 12<<4
	raw[16] = 200
	binary.LittleEndian.PutUint64(raw[22:], math.Float64bits(7.5))
	binary.LittleEndian.PutUint16(raw[30:], 65535)

	r := New(raw, &section.Header{PointFormat: 7})
	require.Equal(t, uint8(9), r.ReturnNumber())
	require.Equal(t, uint8(12), r.NumberOfReturns())

	class, ok := r.Classification()
	require.True(t, ok)
	require.Equal(t, uint8(200), class)

	gps, ok := r.GPSTime()
	require.True(t, ok)
	require.InDelta(t, 7.5, gps, 0)

	red, _, _, ok := r.RGB()
	require.True(t, ok)
	require.Equal(t, uint16(65535), red)
}

func TestRecord_NoAllocations(t *testing.T) {
	h := &section.Header{PointFormat: 3, Scale: [3]float64{1, 1, 1}}
	raw := legacyRecord(3, 0)

	allocs := testing.AllocsPerRun(100, func() {
		r := New(raw, h)
		_, _, _ = r.Coordinate()
		_ = r.Attributes()
		_, _ = r.GPSTime()
	})
	require.Zero(t, allocs)
}

func TestRecord_UnitHeader(t *testing.T) {
	raw := legacyRecord(1, 0)
	r := New(raw, UnitHeader(1, 28))

	x, y, z := r.Coordinate()
	require.InDelta(t, 1234.0, x, 0)
	require.InDelta(t, -1.0, y, 0)
	require.InDelta(t, 50000.0, z, 0)
	require.Equal(t, uint8(2), r.ReturnNumber())

	_, ok := r.GPSTime()
	require.True(t, ok)
}
