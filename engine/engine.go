// Package engine defines the capability surface a LAS/LAZ decompression engine exposes.
//
// An engine never sees host byte slices. It works on addresses inside a Memory
// region that the host manages, mirroring an engine that lives behind a foreign
// memory boundary. The host stages input bytes into Memory, hands the engine the
// address and length, and reserves record-sized output regions the engine writes
// decoded points into.
//
// Decoders are NOT thread-safe and are NOT reusable: Delete releases every
// resource the decoder holds and the decoder must not be used afterwards.
package engine

// Memory is the byte-addressable region shared between host and engine.
//
// Address 0 is never a valid allocation.
type Memory interface {
	// Allocate reserves size zeroed bytes and returns their address.
	Allocate(size int) (uint64, error)
	// Free releases the allocation starting at addr.
	Free(addr uint64) error
	// Span returns the bytes from addr to the end of the allocation containing it.
	Span(addr uint64) ([]byte, error)
}

// FileDecoder decodes a complete LAS or LAZ file point by point.
type FileDecoder interface {
	// Open parses the file of length bytes at addr and prepares the first point.
	Open(addr uint64, length int) error
	// GetPoint decodes the next point into the record-sized region at addr.
	GetPoint(addr uint64) error
	// Count returns the number of points in the file.
	Count() uint64
	// PointLength returns the point record length in bytes.
	PointLength() uint16
	// PointFormat returns the point data record format.
	PointFormat() uint8
	// Delete releases the decoder.
	Delete()
}

// ChunkDecoder decodes a single compressed chunk.
type ChunkDecoder interface {
	// Open prepares decoding of the chunk at addr for the given point geometry.
	Open(pointFormat uint8, pointLength uint16, addr uint64) error
	// GetPoint decodes the next point into the record-sized region at addr.
	GetPoint(addr uint64) error
	// Delete releases the decoder.
	Delete()
}

// Engine constructs decoders over a Memory region.
type Engine interface {
	// Name identifies the engine in logs.
	Name() string
	NewFileDecoder(mem Memory) FileDecoder
	NewChunkDecoder(mem Memory) ChunkDecoder
}
