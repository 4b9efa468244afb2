package lazbridge

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/lazbridge/arena"
	"github.com/arloliu/lazbridge/compress"
	"github.com/arloliu/lazbridge/errs"
	"github.com/arloliu/lazbridge/format"
	"github.com/arloliu/lazbridge/internal/lazfixture"
	"github.com/arloliu/lazbridge/internal/logctx"
	"github.com/arloliu/lazbridge/pointview"
)

func buildFixture(t *testing.T, cfg lazfixture.Config) *lazfixture.File {
	t.Helper()

	f, err := lazfixture.Build(cfg)
	require.NoError(t, err)

	return f
}

// collect returns a copy of every record handed to the callback.
func collect(dst *[][]byte) PointFunc {
	return func(_ uint64, r pointview.Record) error {
		*dst = append(*dst, bytes.Clone(r.Raw()))
		return nil
	}
}

func TestParseHeader(t *testing.T) {
	f := buildFixture(t, lazfixture.Config{Format: 3, Points: 25, Seed: 3})

	h, err := ParseHeader(f.Data)
	require.NoError(t, err)
	if diff := cmp.Diff(f.Header, h); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}

	_, err = ParseHeader(f.Data[:226])
	require.ErrorIs(t, err, errs.ErrInvalidHeader)
}

func TestDecodeFile(t *testing.T) {
	tests := []struct {
		name string
		cfg  lazfixture.Config
	}{
		{"format0", lazfixture.Config{Format: 0, Points: 200, Seed: 1}},
		{"format1 extra bytes", lazfixture.Config{Format: 1, ExtraBytes: 4, Points: 150, Seed: 2}},
		{"format2", lazfixture.Config{Format: 2, Points: 90, Seed: 3}},
		{"format3 multi chunk", lazfixture.Config{Format: 3, Points: 700, ChunkSize: 128, Seed: 4}},
		{"variable chunks", lazfixture.Config{Format: 3, Points: 100, VariableChunks: []int{40, 1, 59}, Seed: 5}},
		{"uncompressed", lazfixture.Config{Format: 3, Points: 60, Uncompressed: true, Seed: 6}},
		{"single point", lazfixture.Config{Format: 1, Points: 1, Seed: 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := buildFixture(t, tt.cfg)

			var got [][]byte
			require.NoError(t, DecodeFile(context.Background(), f.Data, collect(&got)))
			if diff := cmp.Diff(f.Points, got); diff != "" {
				t.Fatalf("points mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeFile_CoordinatesInBounds(t *testing.T) {
	f := buildFixture(t, lazfixture.Config{
		Format: 3, Points: 1065, Seed: 11, Version14: true, ZeroLegacyCount: true,
	})

	var n uint64
	err := DecodeFile(context.Background(), f.Data, func(i uint64, r pointview.Record) error {
		require.Equal(t, n, i)
		n++

		x, y, z := r.Coordinate()
		for axis, v := range []float64{x, y, z} {
			require.GreaterOrEqual(t, v, f.Header.Min[axis])
			require.LessOrEqual(t, v, f.Header.Max[axis])
		}

		return nil
	})
	require.NoError(t, err)
	require.Equal(t, uint64(1065), n)
}

func TestDecodeFile_InputCompression(t *testing.T) {
	f := buildFixture(t, lazfixture.Config{Format: 3, Points: 300, ChunkSize: 100, Seed: 8})

	for _, ct := range []format.CompressionType{
		format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4,
	} {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := compress.CreateCodec(ct, "input")
			require.NoError(t, err)
			wrapped, err := codec.Compress(f.Data)
			require.NoError(t, err)

			var got [][]byte
			require.NoError(t, DecodeFile(context.Background(), wrapped, collect(&got), WithInputCompression(ct)))
			require.Empty(t, cmp.Diff(f.Points, got))
		})
	}

	t.Run("corrupt wrapper", func(t *testing.T) {
		err := DecodeFile(context.Background(), []byte("not zstd at all"), collect(new([][]byte)),
			WithInputCompression(format.CompressionZstd))
		require.ErrorIs(t, err, errs.ErrInvalidHeader)
	})

	t.Run("unknown codec", func(t *testing.T) {
		err := DecodeFile(context.Background(), f.Data, collect(new([][]byte)),
			WithInputCompression(format.CompressionType(0x40)))
		require.ErrorIs(t, err, errs.ErrInvalidHeader)
	})
}

func TestDecodeFile_SharedArenaRestored(t *testing.T) {
	f := buildFixture(t, lazfixture.Config{Format: 2, Points: 120, Seed: 9})

	a, err := arena.New(arena.WithCapacity(len(f.Data) + 4096))
	require.NoError(t, err)
	before := a.Occupancy()

	for range 10 {
		require.NoError(t, DecodeFile(context.Background(), f.Data, collect(new([][]byte)),
			WithArena(a), WithInputChecksum()))
	}

	stop := errors.New("stop")
	err = DecodeFile(context.Background(), f.Data, func(i uint64, _ pointview.Record) error {
		if i == 3 {
			return stop
		}
		return nil
	}, WithArena(a))
	require.ErrorIs(t, err, stop)

	require.Equal(t, before, a.Occupancy())
	require.Zero(t, a.LiveCount())
}

func TestDecodeFile_Cancellation(t *testing.T) {
	f := buildFixture(t, lazfixture.Config{Format: 0, Points: 50, Seed: 10})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	err := DecodeFile(ctx, f.Data, func(i uint64, _ pointview.Record) error {
		calls++
		if i == 2 {
			cancel()
		}
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 3, calls)
}

func TestDecodeFile_Errors(t *testing.T) {
	f := buildFixture(t, lazfixture.Config{Format: 1, Points: 40, Seed: 12})
	noop := collect(new([][]byte))

	t.Run("short buffer", func(t *testing.T) {
		err := DecodeFile(context.Background(), f.Data[:100], noop)
		require.ErrorIs(t, err, errs.ErrInvalidHeader)
		require.Equal(t, errs.StageHeader, errs.Stage(err))
	})

	t.Run("truncated points", func(t *testing.T) {
		err := DecodeFile(context.Background(), f.Data[:len(f.Data)-20], noop)
		require.ErrorIs(t, err, errs.ErrDecode)
	})

	t.Run("chunk table offset overflow", func(t *testing.T) {
		data := bytes.Clone(f.Data)
		binary.LittleEndian.PutUint64(data[f.Header.PointDataOffset:], math.MaxInt64)

		err := DecodeFile(context.Background(), data, noop)
		require.ErrorIs(t, err, errs.ErrDecode)

		_, err = ReadChunkTable(data)
		require.ErrorIs(t, err, errs.ErrDecode)
	})

	t.Run("arena too small", func(t *testing.T) {
		err := DecodeFile(context.Background(), f.Data, noop, WithArenaCapacity(64))
		require.ErrorIs(t, err, errs.ErrAllocationFailure)
		require.Equal(t, errs.StageAllocation, errs.Stage(err))
	})

	t.Run("invalid options", func(t *testing.T) {
		require.ErrorIs(t, DecodeFile(context.Background(), f.Data, noop, WithArena(nil)), errs.ErrInvalidState)
		require.ErrorIs(t, DecodeFile(context.Background(), f.Data, noop, WithEngine(nil)), errs.ErrInvalidState)
		require.ErrorIs(t, DecodeFile(context.Background(), f.Data, noop, WithArenaCapacity(0)), errs.ErrInvalidSize)
	})
}

func TestDecodeChunk(t *testing.T) {
	f := buildFixture(t, lazfixture.Config{Format: 3, ExtraBytes: 2, Points: 260, ChunkSize: 100, Seed: 13})

	chunks, err := ReadChunkTable(f.Data)
	require.NoError(t, err)
	require.Equal(t, f.Chunks, chunks)

	var got [][]byte
	for _, c := range chunks {
		err := DecodeChunk(context.Background(), f.Data[c.Offset:], uint8(f.Header.PointFormat),
			f.Header.PointRecordLength, c.Count, &f.Header, collect(&got))
		require.NoError(t, err)
	}
	if diff := cmp.Diff(f.Points, got); diff != "" {
		t.Fatalf("points mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeChunk_Errors(t *testing.T) {
	f := buildFixture(t, lazfixture.Config{Format: 0, Points: 10, Seed: 14})
	noop := collect(new([][]byte))

	err := DecodeChunk(context.Background(), f.ChunkBytes(0), 7, 36, 10, nil, noop)
	require.ErrorIs(t, err, errs.ErrUnsupportedFormat)

	err = DecodeChunk(context.Background(), f.ChunkBytes(0), 0, 12, 10, nil, noop)
	require.ErrorIs(t, err, errs.ErrInvalidHeader)

	err = DecodeChunk(context.Background(), nil, 0, 20, 10, nil, noop)
	require.ErrorIs(t, err, errs.ErrInvalidSize)
}

func TestDecode_Logging(t *testing.T) {
	f := buildFixture(t, lazfixture.Config{Format: 0, Points: 5, Seed: 15})

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	require.NoError(t, DecodeFile(context.Background(), f.Data, collect(new([][]byte)), WithLogger(logger)))
	require.Contains(t, buf.String(), "decoding file")

	buf.Reset()
	ctx := logctx.WithLogger(context.Background(), logger)
	require.NoError(t, DecodeFile(ctx, f.Data, collect(new([][]byte))))
	require.Contains(t, buf.String(), "file session opened")
}

func TestDecodeChunk_WithoutHeader(t *testing.T) {
	f := buildFixture(t, lazfixture.Config{Format: 1, Points: 30, Seed: 16})

	var n int
	err := DecodeChunk(context.Background(), f.ChunkBytes(0), 1, 28, f.Chunks[0].Count, nil,
		func(i uint64, r pointview.Record) error {
			rx, ry, rz := r.RawXYZ()
			x, y, z := r.Coordinate()
			require.Equal(t, []float64{float64(rx), float64(ry), float64(rz)}, []float64{x, y, z})
			require.Equal(t, f.Points[i][14]&0x07, r.ReturnNumber())

			_, ok := r.GPSTime()
			require.True(t, ok)
			n++

			return nil
		})
	require.NoError(t, err)
	require.Equal(t, 30, n)
}
