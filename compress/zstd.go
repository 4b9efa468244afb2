package compress

// ZstdCompressor provides Zstandard framing for wrapped LAS/LAZ inputs.
//
// The pure Go implementation from klauspost/compress is used by default. Building
// with the gozstd tag and cgo enabled switches to the valyala/gozstd bindings.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
//
// Example:
//
//	codec := NewZstdCompressor()
//	raw, err := codec.Decompress(wrapped)
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
