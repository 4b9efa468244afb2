package compress

import (
	"fmt"

	"github.com/arloliu/lazbridge/format"
)

// Compressor wraps a host buffer before it is handed to lazbridge.
//
// lazbridge never compresses on its own behalf. Compressors exist so hosts and
// tests can produce the wrapped inputs that a Decompressor later unwraps.
type Compressor interface {
	// Compress compresses the input data and returns the compressed result.
	//
	// Memory management:
	//   - Returned slice is newly allocated and owned by the caller
	//   - Input slice is not modified
	Compress(data []byte) ([]byte, error)
}

// Decompressor unwraps a host buffer that arrived compressed with a general-purpose
// codec, yielding the raw LAS or LAZ bytes that are then staged into the arena.
//
// Example:
//
//	codec, err := compress.CreateCodec(format.CompressionZstd, "input")
//	if err != nil {
//	    return err
//	}
//	lazBytes, err := codec.Decompress(wrapped)
//	if err != nil {
//	    return fmt.Errorf("unwrap input: %w", err)
//	}
//
// Thread Safety: all built-in implementations are safe for concurrent use.
type Decompressor interface {
	// Decompress decompresses the input data and returns the original result.
	//
	// Error conditions:
	//   - Returns error if input data is corrupted or invalid
	//   - Returns error if data was compressed with an incompatible algorithm
	//
	// Memory management:
	//   - Returned slice is owned by the caller
	//   - Input slice is not modified
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

// CreateCodec is a factory function that creates a Codec based on the specified compression type.
//
// Parameters:
//   - compressionType: Type of compression (None, Zstd, S2, or LZ4)
//   - target: Description of target usage (for error messages)
//
// Returns:
//   - Codec: Codec instance for the specified type
//   - error: Invalid compression type error
func CreateCodec(compressionType format.CompressionType, target string) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCompressor(), nil
	case format.CompressionZstd:
		return NewZstdCompressor(), nil
	case format.CompressionS2:
		return NewS2Compressor(), nil
	case format.CompressionLZ4:
		return NewLZ4Compressor(), nil
	default:
		return nil, fmt.Errorf("invalid %s compression: %s", target, compressionType)
	}
}
