package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPointFormat_BaseRecordLength(t *testing.T) {
	want := map[PointFormat]uint16{0: 20, 1: 28, 2: 26, 3: 34, 4: 57, 5: 63, 6: 30, 7: 36, 8: 38, 9: 59, 10: 67}
	for f, n := range want {
		require.Equal(t, n, f.BaseRecordLength(), "format %d", f)
		require.True(t, f.Valid())
	}

	require.False(t, PointFormat(11).Valid())
	require.Equal(t, uint16(0), PointFormat(11).BaseRecordLength())
}

func TestPointFormat_Fields(t *testing.T) {
	t.Run("GPS time", func(t *testing.T) {
		require.Equal(t, -1, PointFormat(0).GPSTimeOffset())
		require.Equal(t, -1, PointFormat(2).GPSTimeOffset())
		require.Equal(t, 20, PointFormat(1).GPSTimeOffset())
		require.Equal(t, 20, PointFormat(3).GPSTimeOffset())
		require.Equal(t, 22, PointFormat(6).GPSTimeOffset())
	})

	t.Run("RGB", func(t *testing.T) {
		require.Equal(t, 20, PointFormat(2).RGBOffset())
		require.Equal(t, 28, PointFormat(3).RGBOffset())
		require.Equal(t, 30, PointFormat(7).RGBOffset())
		require.Equal(t, -1, PointFormat(1).RGBOffset())
		require.False(t, PointFormat(6).HasRGB())
	})

	t.Run("classification", func(t *testing.T) {
		require.Equal(t, 15, PointFormat(3).ClassificationOffset())
		require.Equal(t, 16, PointFormat(6).ClassificationOffset())
		require.Equal(t, -1, PointFormat(12).ClassificationOffset())
	})
}

func TestTypes_String(t *testing.T) {
	require.Equal(t, "Zstd", CompressionZstd.String())
	require.Equal(t, "LZ4", CompressionLZ4.String())
	require.Equal(t, "Unknown", CompressionType(0).String())
	require.Equal(t, "Point10", ItemPoint10.String())
	require.Equal(t, "RGB12", ItemRGB12.String())
	require.Equal(t, "Unknown", ItemType(99).String())
}
