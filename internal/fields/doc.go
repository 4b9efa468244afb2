// Package fields implements the LASzip version 2 item codecs for point formats 0-3.
//
// A chunk starts with one raw point. Every codec is initialized from its slice of
// that point and then codes each following point as a prediction from the state
// it keeps. Decompressors run inside the native engine. Compressors are their
// mirror images and serve test fixtures.
package fields

import (
	"github.com/arloliu/lazbridge/internal/arith"
)

// Decompressor decodes one item of every point after the first.
type Decompressor interface {
	// Init seeds the codec state from the raw first item of a chunk.
	Init(first []byte)
	// Decompress decodes the next item into dst.
	Decompress(dst []byte)
}

// Compressor encodes one item of every point after the first.
type Compressor interface {
	// Init seeds the codec state from the raw first item of a chunk.
	Init(first []byte)
	// Compress encodes item.
	Compress(item []byte)
}

func u8Fold(n int) byte {
	switch {
	case n < 0:
		return byte(n + 256)
	case n > 255:
		return byte(n - 256)
	default:
		return byte(n)
	}
}

func u8Clamp(n int) int {
	switch {
	case n <= 0:
		return 0
	case n >= 255:
		return 255
	default:
		return n
	}
}

// lazyModel returns models[i], creating it on first use.
func lazyModel(models *[256]*arith.SymbolModel, i byte, compress bool) *arith.SymbolModel {
	if models[i] == nil {
		models[i] = arith.NewSymbolModel(256, compress)
	}

	return models[i]
}
