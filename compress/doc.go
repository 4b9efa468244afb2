// Package compress unwraps host input buffers that were delivered compressed.
//
// Point clouds often travel through object stores and message queues wrapped in a
// general-purpose codec on top of LASzip, for example a .laz.zst object. The
// lazbridge facade accepts such buffers directly when configured with
// lazbridge.WithInputCompression: the wrapper is removed on the host side and only
// the raw LAS/LAZ bytes are staged into the arena.
//
// # Available Codecs
//
//   - None: pass-through, returns the input slice as-is
//   - Zstd: Zstandard frames (klauspost/compress, or valyala/gozstd when built
//     with the gozstd tag and cgo enabled)
//   - S2: Snappy-compatible S2 blocks (klauspost/compress/s2)
//   - LZ4: raw LZ4 blocks (pierrec/lz4)
//
// # Basic Usage
//
//	codec, err := compress.CreateCodec(format.CompressionS2, "input")
//	if err != nil {
//	    return err
//	}
//	raw, err := codec.Decompress(wrapped)
//
// Codecs are stateless values. Zstd and LZ4 keep pooled encoder and decoder state
// internally, so a single codec may be shared across goroutines.
package compress
