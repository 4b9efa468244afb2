// Package lazfixture builds LAS and LAZ files in memory for tests.
//
// Points are generated deterministically from a seed, compressed with the
// LASzip item compressors and laid out the way LASzip writes a file: header,
// VLRs, chunk table offset, chunks, chunk table.
package lazfixture

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/arloliu/lazbridge/endian"
	"github.com/arloliu/lazbridge/format"
	"github.com/arloliu/lazbridge/internal/arith"
	"github.com/arloliu/lazbridge/internal/fields"
	"github.com/arloliu/lazbridge/section"
)

// DefaultChunkSize is the LASzip default number of points per chunk.
const DefaultChunkSize = 50000

// Config describes a fixture file. The zero value plus Points builds a
// compressed LAS 1.2 format 0 file.
type Config struct {
	Format     format.PointFormat
	ExtraBytes int
	Points     int
	Seed       uint64

	// Uncompressed writes plain LAS point records.
	Uncompressed bool
	// ChunkSize is the fixed number of points per chunk, DefaultChunkSize when 0.
	ChunkSize uint32
	// VariableChunks, when set, writes a variable-size chunk table with these counts.
	// The counts must add up to Points.
	VariableChunks []int

	// Version14 writes a 375-byte LAS 1.4 header carrying the extended point count.
	Version14 bool
	// ZeroLegacyCount leaves the 32-bit point count at zero. Requires Version14.
	ZeroLegacyCount bool
	// UnwrittenTable stores -1 as the chunk table offset, as streaming writers do.
	UnwrittenTable bool

	Scale  [3]float64 // defaults to 0.01
	Offset [3]float64
}

// File is a built fixture.
type File struct {
	Data   []byte
	Header section.Header
	// Points are the raw point records in file order.
	Points [][]byte
	// Chunks is the chunk layout of a compressed file.
	Chunks []section.ChunkEntry
}

// ChunkBytes returns the compressed bytes of chunk i, as a chunk decoder expects them.
func (f *File) ChunkBytes(i int) []byte {
	return f.Data[f.Chunks[i].Offset:]
}

// Build generates the points of cfg and writes them into a file.
func Build(cfg Config) (*File, error) {
	items, err := fields.ItemsForFormat(cfg.Format, cfg.ExtraBytes)
	if err != nil {
		return nil, err
	}

	if cfg.ZeroLegacyCount && !cfg.Version14 {
		return nil, errors.New("lazfixture: a zero legacy count needs a 1.4 header")
	}

	if cfg.Scale == ([3]float64{}) {
		cfg.Scale = [3]float64{0.01, 0.01, 0.01}
	}

	points := GeneratePoints(items, cfg.Points, cfg.Seed)

	h := header(&cfg, points)
	f := &File{Points: points}

	var vlrs []byte
	vlrs = append(vlrs, projectionVLR()...)
	h.VLRCount = 1

	if !cfg.Uncompressed {
		laz := section.LASzipVLR{
			Compressor:   section.CompressorPointwiseChunked,
			Coder:        0,
			VersionMajor: 2,
			VersionMinor: 2,
			Options:      0,
			ChunkSize:    chunkSize(&cfg),
			NumPoints:    -1,
			NumBytes:     -1,
			Items:        items,
		}
		vh := section.VLRHeader{
			UserID:       section.LASzipUserID,
			RecordID:     section.LASzipRecordID,
			RecordLength: uint16(laz.Size()),
			Description:  "lazfixture",
		}
		vlrs = append(vlrs, vh.Bytes()...)
		vlrs = append(vlrs, laz.Bytes()...)
		h.VLRCount++
	}

	h.PointDataOffset = uint32(int(h.HeaderSize) + len(vlrs))

	data := h.Bytes()
	data = append(data, vlrs...)

	if cfg.Uncompressed {
		for _, p := range points {
			data = append(data, p...)
		}
	} else {
		data, f.Chunks, err = appendChunks(data, &cfg, items, points)
		if err != nil {
			return nil, err
		}
	}

	f.Data = data
	f.Header = h

	return f, nil
}

func chunkSize(cfg *Config) uint32 {
	switch {
	case cfg.VariableChunks != nil:
		return section.VariableChunkSize
	case cfg.ChunkSize == 0:
		return DefaultChunkSize
	default:
		return cfg.ChunkSize
	}
}

func chunkCounts(cfg *Config) ([]int, error) {
	if cfg.VariableChunks != nil {
		total := 0
		for _, n := range cfg.VariableChunks {
			total += n
		}
		if total != cfg.Points {
			return nil, fmt.Errorf("lazfixture: variable chunks hold %d points, want %d", total, cfg.Points)
		}

		return cfg.VariableChunks, nil
	}

	size := int(chunkSize(cfg))
	var counts []int
	for left := cfg.Points; left > 0; left -= size {
		counts = append(counts, min(size, left))
	}

	return counts, nil
}

// appendChunks writes the chunk table offset, the compressed chunks and the chunk table.
func appendChunks(data []byte, cfg *Config, items []section.Item, points [][]byte) ([]byte, []section.ChunkEntry, error) {
	counts, err := chunkCounts(cfg)
	if err != nil {
		return nil, nil, err
	}

	offsetPos := len(data)
	data = append(data, make([]byte, section.ChunkTableOffsetSize)...)

	chunks := make([]section.ChunkEntry, len(counts))
	sizes := make([]int, len(counts))
	next := 0
	for i, n := range counts {
		comp, err := fields.NewPointCompressor(items)
		if err != nil {
			return nil, nil, err
		}
		for _, p := range points[next : next+n] {
			if err := comp.Compress(p); err != nil {
				return nil, nil, err
			}
		}
		next += n

		chunk := comp.Finish()
		chunks[i] = section.ChunkEntry{Count: uint64(n), Offset: uint64(len(data))}
		sizes[i] = len(chunk)
		data = append(data, chunk...)
	}

	tableOff := int64(len(data))
	if cfg.UnwrittenTable {
		tableOff = -1
	}
	endian.GetLittleEndianEngine().PutUint64(data[offsetPos:], uint64(tableOff))

	th := section.ChunkTableHeader{Version: 0, ChunkCount: uint32(len(counts))}
	data = append(data, th.Bytes()...)
	data = append(data, encodeChunkTable(counts, sizes, cfg.VariableChunks != nil)...)

	return data, chunks, nil
}

// encodeChunkTable range codes the chunk sizes, and the counts when chunks vary in size.
func encodeChunkTable(counts, sizes []int, variable bool) []byte {
	enc := arith.NewEncoder()
	ic := arith.NewIntegerCompressor(enc, 32, 2)

	var prevCount, prevSize int32
	for i := range sizes {
		if variable {
			ic.Compress(prevCount, int32(counts[i]), 0)
			prevCount = int32(counts[i])
		}
		ic.Compress(prevSize, int32(sizes[i]), 1)
		prevSize = int32(sizes[i])
	}

	return enc.Done()
}

func header(cfg *Config, points [][]byte) section.Header {
	h := section.Header{
		VersionMajor:      1,
		VersionMinor:      2,
		HeaderSize:        section.MinHeaderSize,
		PointFormat:       cfg.Format,
		Compressed:        !cfg.Uncompressed,
		PointRecordLength: cfg.Format.BaseRecordLength() + uint16(cfg.ExtraBytes),
		LegacyPointCount:  uint32(len(points)),
		Scale:             cfg.Scale,
		Offset:            cfg.Offset,
	}

	if cfg.Version14 {
		h.VersionMinor = 4
		h.HeaderSize = section.HeaderSize14
		h.ExtendedPointCount = uint64(len(points))
		if cfg.ZeroLegacyCount {
			h.LegacyPointCount = 0
		}
	}

	for i := range 3 {
		h.Min[i] = math.Inf(1)
		h.Max[i] = math.Inf(-1)
	}
	for _, p := range points {
		for i := range 3 {
			v := float64(int32(binary.LittleEndian.Uint32(p[4*i:])))*h.Scale[i] + h.Offset[i]
			h.Min[i] = math.Min(h.Min[i], v)
			h.Max[i] = math.Max(h.Max[i], v)
		}
	}
	// pad by one unit so a single point still has Min < Max
	for i := range 3 {
		if len(points) == 0 {
			h.Min[i], h.Max[i] = h.Offset[i], h.Offset[i]
		}
		h.Min[i] -= h.Scale[i]
		h.Max[i] += h.Scale[i]
	}

	return h
}

// projectionVLR is a placeholder GeoKeyDirectory record that readers must skip.
func projectionVLR() []byte {
	payload := make([]byte, 8)
	binary.LittleEndian.PutUint16(payload[0:], 1)
	binary.LittleEndian.PutUint16(payload[2:], 1)

	vh := section.VLRHeader{
		UserID:       "LASF_Projection",
		RecordID:     34735,
		RecordLength: uint16(len(payload)),
		Description:  "GeoKeyDirectoryTag",
	}

	return append(vh.Bytes(), payload...)
}

// GeneratePoints returns n deterministic point records with the given items,
// shaped like an airborne scan: slowly drifting coordinates, multiple returns,
// alternating scan direction, interleaved GPS time and smooth colors.
func GeneratePoints(items []section.Item, n int, seed uint64) [][]byte {
	rng := rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
	recordLen := fields.RecordLength(items)
	engine := endian.GetLittleEndianEngine()

	x, y, z := int32(100000), int32(250000), int32(12000)
	gps := 386000.25
	r, g, b := uint16(20000), uint16(21000), uint16(19000)
	returns := 1

	points := make([][]byte, n)
	for i := range points {
		p := make([]byte, recordLen)

		x += int32(rng.IntN(300)) - 50
		y += int32(rng.IntN(60)) - 30
		z += int32(rng.IntN(80)) - 40
		if i%997 == 996 {
			x -= 40000
		}

		endian.PutInt32(engine, p[format.OffsetX:], x)
		endian.PutInt32(engine, p[format.OffsetY:], y)
		endian.PutInt32(engine, p[format.OffsetZ:], z)
		engine.PutUint16(p[format.OffsetIntensity:], uint16(200+rng.IntN(1800)))

		if rng.IntN(5) == 0 {
			returns = 1 + rng.IntN(5)
		}
		b14 := byte(1+rng.IntN(returns)) | byte(returns)<<3
		if (i/64)%2 == 1 {
			b14 |= 1 << 6
		}
		p[format.OffsetReturns] = b14
		p[format.LegacyOffsetClassification] = []byte{1, 2, 2, 2, 5, 6}[rng.IntN(6)]
		p[format.LegacyOffsetScanAngle] = byte(int8(rng.IntN(40) - 20))
		p[format.LegacyOffsetUserData] = byte(i / 500)
		engine.PutUint16(p[format.LegacyOffsetSourceID:], uint16(1+i/2000))

		off := fields.Point10Size
		for _, item := range items[1:] {
			switch item.Type {
			case format.ItemGPSTime11:
				gps += 0.000015 * float64(1+rng.IntN(2))
				if i%1500 == 1499 {
					gps += 3600
				}
				endian.PutFloat64(engine, p[off:], gps)
			case format.ItemRGB12:
				if rng.IntN(3) == 0 {
					r += uint16(rng.IntN(400))
					g = r + uint16(rng.IntN(50))
					b = r - uint16(rng.IntN(50))
				}
				engine.PutUint16(p[off:], r)
				engine.PutUint16(p[off+2:], g)
				engine.PutUint16(p[off+4:], b)
			case format.ItemByte:
				for j := range int(item.Size) {
					p[off+j] = byte(i>>j) ^ byte(rng.IntN(2))
				}
			}
			off += int(item.Size)
		}

		points[i] = p
	}

	return points
}
