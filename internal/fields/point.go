package fields

import (
	"fmt"

	"github.com/arloliu/lazbridge/errs"
	"github.com/arloliu/lazbridge/format"
	"github.com/arloliu/lazbridge/internal/arith"
	"github.com/arloliu/lazbridge/section"
)

// PointDecompressor decodes the points of one chunk.
//
// The first call copies the raw first point and starts the range decoder. Every
// later call runs the item decompressors in record order.
//
// PointDecompressor is NOT thread-safe.
type PointDecompressor struct {
	dec       *arith.Decoder
	fields    []Decompressor
	offsets   []int
	recordLen int
	started   bool
}

// NewPointDecompressor creates a decompressor for a chunk stored in buf.
//
// Parameters:
//   - buf: Chunk bytes, starting at the raw first point
//   - items: LASzip item list, checked with ValidateItems
//
// Returns:
//   - *PointDecompressor: Decompressor positioned at the first point
//   - error: ErrUnsupportedFormat or ErrInvalidHeader for an unusable item list
func NewPointDecompressor(buf []byte, items []section.Item) (*PointDecompressor, error) {
	if err := ValidateItems(items); err != nil {
		return nil, err
	}

	dec := arith.NewDecoder(buf)
	p := &PointDecompressor{
		dec:     dec,
		fields:  make([]Decompressor, len(items)),
		offsets: make([]int, len(items)+1),
	}

	for i, item := range items {
		switch item.Type {
		case format.ItemPoint10:
			p.fields[i] = NewPoint10Decompressor(dec)
		case format.ItemGPSTime11:
			p.fields[i] = NewGPSTimeDecompressor(dec)
		case format.ItemRGB12:
			p.fields[i] = NewRGBDecompressor(dec)
		case format.ItemByte:
			p.fields[i] = NewBytesDecompressor(dec, int(item.Size))
		}
		p.offsets[i+1] = p.offsets[i] + int(item.Size)
	}
	p.recordLen = p.offsets[len(items)]

	return p, nil
}

// RecordLength returns the decoded size of one point.
func (p *PointDecompressor) RecordLength() int {
	return p.recordLen
}

// Consumed returns the number of chunk bytes read so far.
func (p *PointDecompressor) Consumed() int {
	return p.dec.Pos()
}

// Decompress decodes the next point into dst.
//
// Returns:
//   - error: ErrOutOfBounds if dst is shorter than a record, ErrDecode if the chunk data ends early
func (p *PointDecompressor) Decompress(dst []byte) error {
	if len(dst) < p.recordLen {
		return fmt.Errorf("%w: point buffer %d bytes, record %d bytes", errs.ErrOutOfBounds, len(dst), p.recordLen)
	}
	dst = dst[:p.recordLen]

	if !p.started {
		if err := p.dec.ReadRaw(dst); err != nil {
			return fmt.Errorf("read first point: %w", err)
		}
		for i, f := range p.fields {
			f.Init(dst[p.offsets[i]:p.offsets[i+1]])
		}
		if err := p.dec.Init(); err != nil {
			return fmt.Errorf("start decoder: %w", err)
		}
		p.started = true

		return nil
	}

	for i, f := range p.fields {
		f.Decompress(dst[p.offsets[i]:p.offsets[i+1]])
	}

	if err := p.dec.Err(); err != nil {
		return fmt.Errorf("decode point: %w", err)
	}

	return nil
}

// PointCompressor encodes the points of one chunk. It mirrors PointDecompressor.
type PointCompressor struct {
	enc     *arith.Encoder
	fields  []Compressor
	offsets []int
	first   []byte
	count   int
}

// NewPointCompressor creates a compressor for one chunk of points with the given items.
func NewPointCompressor(items []section.Item) (*PointCompressor, error) {
	if err := ValidateItems(items); err != nil {
		return nil, err
	}

	enc := arith.NewEncoder()
	p := &PointCompressor{
		enc:     enc,
		fields:  make([]Compressor, len(items)),
		offsets: make([]int, len(items)+1),
	}

	for i, item := range items {
		switch item.Type {
		case format.ItemPoint10:
			p.fields[i] = NewPoint10Compressor(enc)
		case format.ItemGPSTime11:
			p.fields[i] = NewGPSTimeCompressor(enc)
		case format.ItemRGB12:
			p.fields[i] = NewRGBCompressor(enc)
		case format.ItemByte:
			p.fields[i] = NewBytesCompressor(enc, int(item.Size))
		}
		p.offsets[i+1] = p.offsets[i] + int(item.Size)
	}

	return p, nil
}

// Compress encodes the next point.
func (p *PointCompressor) Compress(point []byte) error {
	recordLen := p.offsets[len(p.offsets)-1]
	if len(point) < recordLen {
		return fmt.Errorf("%w: point %d bytes, record %d bytes", errs.ErrOutOfBounds, len(point), recordLen)
	}
	point = point[:recordLen]

	if p.count == 0 {
		p.first = append([]byte(nil), point...)
		for i, f := range p.fields {
			f.Init(point[p.offsets[i]:p.offsets[i+1]])
		}
	} else {
		for i, f := range p.fields {
			f.Compress(point[p.offsets[i]:p.offsets[i+1]])
		}
	}
	p.count++

	return nil
}

// Count returns the number of points compressed.
func (p *PointCompressor) Count() int {
	return p.count
}

// Finish flushes the coder and returns the chunk bytes: the raw first point
// followed by the range coded stream. The compressor must not be used afterwards.
func (p *PointCompressor) Finish() []byte {
	stream := p.enc.Done()
	out := make([]byte, 0, len(p.first)+len(stream))
	out = append(out, p.first...)

	return append(out, stream...)
}
