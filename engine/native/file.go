package native

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/arloliu/lazbridge/engine"
	"github.com/arloliu/lazbridge/errs"
	"github.com/arloliu/lazbridge/internal/fields"
	"github.com/arloliu/lazbridge/section"
)

// fileDecoder decodes a whole LAS or LAZ file held in engine memory.
type fileDecoder struct {
	mem    engine.Memory
	logger zerolog.Logger

	data      []byte
	header    section.Header
	items     []section.Item
	chunks    []section.ChunkEntry
	tableOff  uint64
	recordLen int

	chunk   int // index of the chunk being decoded, -1 before the first
	inChunk uint64
	dec     *fields.PointDecompressor
	read    uint64

	opened  bool
	deleted bool
}

func (d *fileDecoder) Open(addr uint64, length int) error {
	if d.deleted {
		return fmt.Errorf("%w: file decoder deleted", errs.ErrUseAfterFree)
	}
	if d.opened {
		return fmt.Errorf("%w: file decoder already open", errs.ErrInvalidState)
	}

	span, err := d.mem.Span(addr)
	if err != nil {
		return err
	}
	if length < 0 || length > len(span) {
		return fmt.Errorf("%w: length %d exceeds the %d byte region", errs.ErrOutOfBounds, length, len(span))
	}
	data := span[:length]

	h, err := section.ParseHeader(data)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrDecode, err)
	}

	d.data = data
	d.header = h
	d.recordLen = int(h.PointRecordLength)
	d.chunk = -1

	if !h.Compressed {
		var fit uint64
		if int(h.PointDataOffset) <= len(data) {
			fit = uint64(len(data)-int(h.PointDataOffset)) / uint64(d.recordLen) //nolint:gosec
		}
		if h.PointCount() > fit {
			return fmt.Errorf("%w: %w: %d points of %d bytes do not fit in %d bytes",
				errs.ErrDecode, errs.ErrInvalidHeader, h.PointCount(), d.recordLen, len(data))
		}
		d.opened = true

		return nil
	}

	laz, err := lasZipVLR(data, &h)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrDecode, err)
	}

	chunks, tableOff, err := readChunkTable(data, &h, &laz)
	if err != nil {
		return err
	}

	d.items = laz.Items
	d.chunks = chunks
	d.tableOff = tableOff
	d.opened = true

	d.logger.Debug().
		Uint64("points", h.PointCount()).
		Int("chunks", len(chunks)).
		Uint8("format", uint8(h.PointFormat)).
		Msg("file decoder opened")

	return nil
}

func (d *fileDecoder) GetPoint(addr uint64) error {
	if d.deleted {
		return fmt.Errorf("%w: file decoder deleted", errs.ErrUseAfterFree)
	}
	if !d.opened {
		return fmt.Errorf("%w: file decoder not open", errs.ErrInvalidState)
	}
	if d.read >= d.header.PointCount() {
		return fmt.Errorf("%w: all %d points read", errs.ErrExhaustedStream, d.read)
	}

	out, err := d.mem.Span(addr)
	if err != nil {
		return err
	}
	if len(out) < d.recordLen {
		return fmt.Errorf("%w: output region %d bytes, record %d bytes", errs.ErrOutOfBounds, len(out), d.recordLen)
	}
	out = out[:d.recordLen]

	if !d.header.Compressed {
		start := uint64(d.header.PointDataOffset) + d.read*uint64(d.recordLen)
		copy(out, d.data[start:])
		d.read++

		return nil
	}

	for d.dec == nil || d.inChunk == d.chunks[d.chunk].Count {
		if err := d.nextChunk(); err != nil {
			return err
		}
	}

	if err := d.dec.Decompress(out); err != nil {
		return fmt.Errorf("chunk %d point %d: %w", d.chunk, d.inChunk, err)
	}
	d.inChunk++
	d.read++

	return nil
}

func (d *fileDecoder) nextChunk() error {
	d.chunk++
	d.inChunk = 0
	if d.chunk >= len(d.chunks) {
		d.dec = nil
		return fmt.Errorf("%w: point %d lies past the last of %d chunks", errs.ErrDecode, d.read, len(d.chunks))
	}

	start := d.chunks[d.chunk].Offset
	end := d.tableOff
	if d.chunk+1 < len(d.chunks) {
		end = d.chunks[d.chunk+1].Offset
	}

	dec, err := fields.NewPointDecompressor(d.data[start:end], d.items)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrDecode, err)
	}
	d.dec = dec

	d.logger.Debug().
		Int("chunk", d.chunk).
		Uint64("count", d.chunks[d.chunk].Count).
		Uint64("offset", start).
		Msg("chunk started")

	return nil
}

func (d *fileDecoder) Count() uint64 {
	if !d.opened {
		return 0
	}

	return d.header.PointCount()
}

func (d *fileDecoder) PointLength() uint16 {
	if !d.opened {
		return 0
	}

	return d.header.PointRecordLength
}

func (d *fileDecoder) PointFormat() uint8 {
	if !d.opened {
		return 0
	}

	return uint8(d.header.PointFormat)
}

func (d *fileDecoder) Delete() {
	d.deleted = true
	d.data = nil
	d.dec = nil
	d.chunks = nil
}
