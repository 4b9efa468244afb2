package native

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/lazbridge/arena"
	"github.com/arloliu/lazbridge/engine"
	"github.com/arloliu/lazbridge/errs"
	"github.com/arloliu/lazbridge/internal/lazfixture"
	"github.com/arloliu/lazbridge/section"
)

func newMemory(t *testing.T) engine.Memory {
	t.Helper()

	a, err := arena.New(arena.WithCapacity(8 << 20))
	require.NoError(t, err)

	return a.Memory()
}

func stage(t *testing.T, mem engine.Memory, b []byte) uint64 {
	t.Helper()

	addr, err := mem.Allocate(len(b))
	require.NoError(t, err)
	span, err := mem.Span(addr)
	require.NoError(t, err)
	copy(span, b)

	return addr
}

func readOut(t *testing.T, mem engine.Memory, addr uint64, n int) []byte {
	t.Helper()

	span, err := mem.Span(addr)
	require.NoError(t, err)

	return append([]byte(nil), span[:n]...)
}

func decodeAll(t *testing.T, f *lazfixture.File) [][]byte {
	t.Helper()

	mem := newMemory(t)
	dec := New().NewFileDecoder(mem)
	defer dec.Delete()

	in := stage(t, mem, f.Data)
	require.NoError(t, dec.Open(in, len(f.Data)))
	require.Equal(t, uint64(len(f.Points)), dec.Count())

	out, err := mem.Allocate(int(dec.PointLength()))
	require.NoError(t, err)

	points := make([][]byte, dec.Count())
	for i := range points {
		require.NoError(t, dec.GetPoint(out), "point %d", i)
		points[i] = readOut(t, mem, out, int(dec.PointLength()))
	}

	return points
}

func TestFileDecoder_Formats(t *testing.T) {
	for _, cfg := range []lazfixture.Config{
		{Format: 0, Points: 300, ChunkSize: 100},
		{Format: 1, Points: 3100, Seed: 2},
		{Format: 2, Points: 250, ChunkSize: 64, Seed: 3},
		{Format: 3, Points: 1065, ChunkSize: 500, Seed: 4},
		{Format: 3, ExtraBytes: 4, Points: 400, ChunkSize: 128, Seed: 5},
		{Format: 1, Points: 90, VariableChunks: []int{10, 0, 50, 30}, Seed: 6},
		{Format: 3, Points: 75, Uncompressed: true, Seed: 7},
		{Format: 2, Points: 40, Version14: true, ZeroLegacyCount: true, Seed: 8},
	} {
		f, err := lazfixture.Build(cfg)
		require.NoError(t, err)

		require.Equal(t, f.Points, decodeAll(t, f), "%+v", cfg)
	}
}

func TestFileDecoder_Geometry(t *testing.T) {
	f, err := lazfixture.Build(lazfixture.Config{Format: 3, Points: 10})
	require.NoError(t, err)

	mem := newMemory(t)
	dec := New().NewFileDecoder(mem)
	require.Zero(t, dec.Count())
	require.Zero(t, dec.PointLength())

	require.NoError(t, dec.Open(stage(t, mem, f.Data), len(f.Data)))
	require.Equal(t, uint64(10), dec.Count())
	require.Equal(t, uint16(34), dec.PointLength())
	require.Equal(t, uint8(3), dec.PointFormat())
}

func TestFileDecoder_Exhausted(t *testing.T) {
	f, err := lazfixture.Build(lazfixture.Config{Format: 0, Points: 3})
	require.NoError(t, err)

	mem := newMemory(t)
	dec := New().NewFileDecoder(mem)
	require.NoError(t, dec.Open(stage(t, mem, f.Data), len(f.Data)))

	out, err := mem.Allocate(20)
	require.NoError(t, err)
	for range 3 {
		require.NoError(t, dec.GetPoint(out))
	}
	require.ErrorIs(t, dec.GetPoint(out), errs.ErrExhaustedStream)
}

func TestFileDecoder_Errors(t *testing.T) {
	f, err := lazfixture.Build(lazfixture.Config{Format: 1, Points: 50, ChunkSize: 20})
	require.NoError(t, err)

	t.Run("bad header", func(t *testing.T) {
		data := append([]byte(nil), f.Data...)
		copy(data, "LASX")

		mem := newMemory(t)
		err := New().NewFileDecoder(mem).Open(stage(t, mem, data), len(data))
		require.ErrorIs(t, err, errs.ErrDecode)
		require.ErrorIs(t, err, errs.ErrInvalidHeader)
	})

	t.Run("length past region", func(t *testing.T) {
		mem := newMemory(t)
		err := New().NewFileDecoder(mem).Open(stage(t, mem, f.Data), len(f.Data)+1)
		require.ErrorIs(t, err, errs.ErrOutOfBounds)
	})

	t.Run("unwritten chunk table", func(t *testing.T) {
		g, err := lazfixture.Build(lazfixture.Config{Format: 0, Points: 5, UnwrittenTable: true})
		require.NoError(t, err)

		mem := newMemory(t)
		err = New().NewFileDecoder(mem).Open(stage(t, mem, g.Data), len(g.Data))
		require.ErrorIs(t, err, errs.ErrDecode)
	})

	t.Run("truncated file", func(t *testing.T) {
		data := f.Data[:len(f.Data)-20]

		mem := newMemory(t)
		err := New().NewFileDecoder(mem).Open(stage(t, mem, data), len(data))
		require.ErrorIs(t, err, errs.ErrDecode)
	})

	t.Run("use after delete", func(t *testing.T) {
		mem := newMemory(t)
		dec := New().NewFileDecoder(mem)
		require.NoError(t, dec.Open(stage(t, mem, f.Data), len(f.Data)))
		dec.Delete()

		out, err := mem.Allocate(28)
		require.NoError(t, err)
		require.ErrorIs(t, dec.GetPoint(out), errs.ErrUseAfterFree)
	})

	t.Run("short output", func(t *testing.T) {
		mem := newMemory(t)
		dec := New().NewFileDecoder(mem)
		require.NoError(t, dec.Open(stage(t, mem, f.Data), len(f.Data)))

		out, err := mem.Allocate(8)
		require.NoError(t, err)
		require.ErrorIs(t, dec.GetPoint(out), errs.ErrOutOfBounds)
	})
}

func TestChunkDecoder_MatchesFile(t *testing.T) {
	f, err := lazfixture.Build(lazfixture.Config{Format: 3, Points: 700, ChunkSize: 256, Seed: 11})
	require.NoError(t, err)

	chunks, err := ReadChunkTable(f.Data)
	require.NoError(t, err)
	require.Equal(t, f.Chunks, chunks)

	mem := newMemory(t)
	in := stage(t, mem, f.Data)
	out, err := mem.Allocate(34)
	require.NoError(t, err)

	next := 0
	for _, c := range chunks {
		dec := New().NewChunkDecoder(mem)
		require.NoError(t, dec.Open(3, 34, in+c.Offset))

		for range c.Count {
			require.NoError(t, dec.GetPoint(out))
			require.Equal(t, f.Points[next], readOut(t, mem, out, 34), "point %d", next)
			next++
		}
		dec.Delete()
	}
	require.Equal(t, len(f.Points), next)
}

func TestChunkDecoder_FirstChunkAfterTableOffset(t *testing.T) {
	f, err := lazfixture.Build(lazfixture.Config{Format: 1, ExtraBytes: 3, Points: 20})
	require.NoError(t, err)

	chunk := f.Data[f.Header.PointDataOffset+section.ChunkTableOffsetSize:]

	mem := newMemory(t)
	dec := New().NewChunkDecoder(mem)
	require.NoError(t, dec.Open(1, 31, stage(t, mem, chunk)))

	out, err := mem.Allocate(31)
	require.NoError(t, err)
	for i := range 2 {
		require.NoError(t, dec.GetPoint(out))
		require.Equal(t, f.Points[i], readOut(t, mem, out, 31))
	}
}

func TestChunkDecoder_OpenErrors(t *testing.T) {
	mem := newMemory(t)
	in := stage(t, mem, make([]byte, 64))

	tests := []struct {
		name   string
		format uint8
		length uint16
		want   error
	}{
		{"unknown format", 11, 40, errs.ErrUnsupportedFormat},
		{"layered format", 6, 30, errs.ErrUnsupportedFormat},
		{"short record", 3, 30, errs.ErrInvalidHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New().NewChunkDecoder(mem).Open(tt.format, tt.length, in)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestChunkDecoder_ReadPastEnd(t *testing.T) {
	f, err := lazfixture.Build(lazfixture.Config{Format: 0, Points: 4})
	require.NoError(t, err)

	// Only the compressed chunk, without the table behind it.
	chunk := f.Data[f.Chunks[0].Offset:]
	tableOff, err := section.ChunkTableOffset(f.Data, &f.Header)
	require.NoError(t, err)
	chunk = chunk[:tableOff-int64(f.Chunks[0].Offset)]

	mem := newMemory(t)
	dec := New().NewChunkDecoder(mem)
	require.NoError(t, dec.Open(0, 20, stage(t, mem, chunk)))

	out, err := mem.Allocate(20)
	require.NoError(t, err)

	var decodeErr error
	for range 200 {
		if decodeErr = dec.GetPoint(out); decodeErr != nil {
			break
		}
	}
	require.ErrorIs(t, decodeErr, errs.ErrDecode)
}

func TestReadChunkTable_Errors(t *testing.T) {
	plain, err := lazfixture.Build(lazfixture.Config{Format: 0, Points: 5, Uncompressed: true})
	require.NoError(t, err)
	_, err = ReadChunkTable(plain.Data)
	require.ErrorIs(t, err, errs.ErrInvalidHeader)

	_, err = ReadChunkTable(make([]byte, 100))
	require.ErrorIs(t, err, errs.ErrInvalidHeader)

	f, err := lazfixture.Build(lazfixture.Config{Format: 0, Points: 5})
	require.NoError(t, err)
	tableOff, err := section.ChunkTableOffset(f.Data, &f.Header)
	require.NoError(t, err)

	data := append([]byte(nil), f.Data...)
	data[tableOff] = 1 // table version
	_, err = ReadChunkTable(data)
	require.ErrorIs(t, err, errs.ErrDecode)

	for _, off := range []int64{math.MaxInt64, math.MaxInt64 - 3, int64(len(f.Data)) - 4} {
		data = append([]byte(nil), f.Data...)
		binary.LittleEndian.PutUint64(data[f.Header.PointDataOffset:], uint64(off))
		_, err = ReadChunkTable(data)
		require.ErrorIs(t, err, errs.ErrDecode, "offset %d", off)
	}
}

func TestVariableChunkTable(t *testing.T) {
	f, err := lazfixture.Build(lazfixture.Config{Format: 2, Points: 60, VariableChunks: []int{25, 5, 30}})
	require.NoError(t, err)

	chunks, err := ReadChunkTable(f.Data)
	require.NoError(t, err)
	require.Equal(t, []uint64{25, 5, 30}, []uint64{chunks[0].Count, chunks[1].Count, chunks[2].Count})
	require.Equal(t, f.Chunks, chunks)
}
