package native

import (
	"fmt"

	"github.com/arloliu/lazbridge/errs"
	"github.com/arloliu/lazbridge/internal/arith"
	"github.com/arloliu/lazbridge/internal/fields"
	"github.com/arloliu/lazbridge/section"
)

// ReadChunkTable returns the chunk layout of a LAZ file.
//
// Parameters:
//   - data: The complete file
//
// Returns:
//   - []section.ChunkEntry: Point count and absolute byte offset of every chunk
//   - error: ErrInvalidHeader for a bad header or a file that is not compressed,
//     ErrUnsupportedFormat for a LASzip layout this engine cannot decode,
//     ErrDecode for a missing or corrupt chunk table
func ReadChunkTable(data []byte) ([]section.ChunkEntry, error) {
	h, err := section.ParseHeader(data)
	if err != nil {
		return nil, err
	}

	if !h.Compressed {
		return nil, fmt.Errorf("%w: file is not compressed", errs.ErrInvalidHeader)
	}

	laz, err := lasZipVLR(data, &h)
	if err != nil {
		return nil, err
	}

	chunks, _, err := readChunkTable(data, &h, &laz)

	return chunks, err
}

// lasZipVLR finds the LASzip VLR and checks that this engine can decode its layout.
func lasZipVLR(data []byte, h *section.Header) (section.LASzipVLR, error) {
	laz, found, err := section.FindLASzipVLR(data, h)
	if err != nil {
		return section.LASzipVLR{}, err
	}
	if !found {
		return section.LASzipVLR{}, fmt.Errorf("%w: compressed file has no LASzip VLR", errs.ErrInvalidHeader)
	}

	if laz.Compressor != section.CompressorPointwiseChunked {
		return section.LASzipVLR{}, fmt.Errorf("%w: LASzip compressor %d", errs.ErrUnsupportedFormat, laz.Compressor)
	}

	if err := fields.ValidateItems(laz.Items); err != nil {
		return section.LASzipVLR{}, err
	}

	if got := laz.RecordLength(); got != int(h.PointRecordLength) {
		return section.LASzipVLR{}, fmt.Errorf("%w: LASzip items describe %d byte records, header says %d",
			errs.ErrInvalidHeader, got, h.PointRecordLength)
	}

	if !laz.VariableChunks() && laz.ChunkSize == 0 {
		return section.LASzipVLR{}, fmt.Errorf("%w: LASzip chunk size 0", errs.ErrInvalidHeader)
	}

	return laz, nil
}

// readChunkTable decodes the chunk table and returns the chunks together with
// the absolute table offset, which bounds the last chunk.
func readChunkTable(data []byte, h *section.Header, laz *section.LASzipVLR) ([]section.ChunkEntry, uint64, error) {
	tableOff, err := section.ChunkTableOffset(data, h)
	if err != nil {
		return nil, 0, err
	}

	var th section.ChunkTableHeader
	if err := th.Parse(data[tableOff:]); err != nil {
		return nil, 0, err
	}

	// Every chunk costs at least one byte of point data.
	if uint64(th.ChunkCount) > uint64(tableOff) {
		return nil, 0, fmt.Errorf("%w: chunk table lists %d chunks in %d bytes", errs.ErrDecode, th.ChunkCount, tableOff)
	}

	dec := arith.NewDecoder(data[tableOff+section.ChunkTableHeaderSize:])
	if err := dec.Init(); err != nil {
		return nil, 0, fmt.Errorf("chunk table: %w", err)
	}
	ic := arith.NewIntegerDecompressor(dec, 32, 2)

	chunks := make([]section.ChunkEntry, th.ChunkCount)
	remaining := h.PointCount()
	offset := uint64(h.PointDataOffset) + section.ChunkTableOffsetSize

	var prevCount, prevSize int32
	for i := range chunks {
		var count uint64
		if laz.VariableChunks() {
			prevCount = ic.Decompress(prevCount, 0)
			count = uint64(uint32(prevCount)) //nolint:gosec
		} else {
			count = min(uint64(laz.ChunkSize), remaining)
		}
		remaining -= min(count, remaining)

		prevSize = ic.Decompress(prevSize, 1)

		chunks[i] = section.ChunkEntry{Count: count, Offset: offset}
		offset += uint64(uint32(prevSize)) //nolint:gosec
	}

	if err := dec.Err(); err != nil {
		return nil, 0, fmt.Errorf("chunk table: %w", err)
	}

	if offset > uint64(tableOff) { //nolint:gosec
		return nil, 0, fmt.Errorf("%w: chunks end at %d, past the chunk table at %d", errs.ErrDecode, offset, tableOff)
	}

	return chunks, uint64(tableOff), nil //nolint:gosec
}
