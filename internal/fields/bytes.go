package fields

import "github.com/arloliu/lazbridge/internal/arith"

// byteState holds one model per extra byte, each coding the change from the
// previous value of that byte.
type byteState struct {
	last   []byte
	models []*arith.SymbolModel
}

func newByteState(size int, compress bool) byteState {
	s := byteState{last: make([]byte, size), models: make([]*arith.SymbolModel, size)}
	for i := range s.models {
		s.models[i] = arith.NewSymbolModel(256, compress)
	}

	return s
}

// BytesDecompressor decodes BYTE items of a fixed size.
type BytesDecompressor struct {
	byteState
	dec *arith.Decoder
}

var _ Decompressor = (*BytesDecompressor)(nil)

// NewBytesDecompressor creates a decompressor for size extra bytes.
func NewBytesDecompressor(dec *arith.Decoder, size int) *BytesDecompressor {
	return &BytesDecompressor{byteState: newByteState(size, false), dec: dec}
}

func (d *BytesDecompressor) Init(first []byte) {
	copy(d.last, first)
}

func (d *BytesDecompressor) Decompress(dst []byte) {
	for i, m := range d.models {
		d.last[i] = u8Fold(int(d.last[i]) + int(d.dec.DecodeSymbol(m)))
	}
	copy(dst, d.last)
}

// BytesCompressor encodes BYTE items of a fixed size.
type BytesCompressor struct {
	byteState
	enc *arith.Encoder
}

var _ Compressor = (*BytesCompressor)(nil)

// NewBytesCompressor creates a compressor for size extra bytes.
func NewBytesCompressor(enc *arith.Encoder, size int) *BytesCompressor {
	return &BytesCompressor{byteState: newByteState(size, true), enc: enc}
}

func (c *BytesCompressor) Init(first []byte) {
	copy(c.last, first)
}

func (c *BytesCompressor) Compress(item []byte) {
	for i, m := range c.models {
		c.enc.EncodeSymbol(m, uint32(u8Fold(int(item[i])-int(c.last[i]))))
	}
	copy(c.last, item[:len(c.last)])
}
