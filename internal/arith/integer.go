package arith

import "math"

// integerCoding holds the parameters shared by IntegerCompressor and IntegerDecompressor.
type integerCoding struct {
	bits      uint32
	contexts  uint32
	bitsHigh  uint32
	corrBits  uint32
	corrRange uint32
	corrMin   int32
	corrMax   int32
	k         uint32

	mBits       []*SymbolModel
	mCorrector  []*SymbolModel // index 0 unused, see mCorrector0
	mCorrector0 *BitModel
}

func newIntegerCoding(bits, contexts, bitsHigh, rng uint32, compress bool) integerCoding {
	ic := integerCoding{bits: bits, contexts: contexts, bitsHigh: bitsHigh}

	switch {
	case rng != 0:
		ic.corrRange = rng
		for r := rng; r != 0; r >>= 1 {
			ic.corrBits++
		}
		if ic.corrRange == 1<<(ic.corrBits-1) {
			ic.corrBits--
		}
		ic.corrMin = -int32(ic.corrRange / 2) //nolint:gosec
		ic.corrMax = ic.corrMin + int32(ic.corrRange) - 1
	case bits != 0 && bits < 32:
		ic.corrBits = bits
		ic.corrRange = 1 << bits
		ic.corrMin = -int32(ic.corrRange / 2) //nolint:gosec
		ic.corrMax = ic.corrMin + int32(ic.corrRange) - 1
	default:
		ic.corrBits = 32
		ic.corrRange = 0
		ic.corrMin = math.MinInt32
		ic.corrMax = math.MaxInt32
	}

	ic.mBits = make([]*SymbolModel, contexts)
	for i := range ic.mBits {
		ic.mBits[i] = NewSymbolModel(ic.corrBits+1, compress)
	}

	ic.mCorrector0 = NewBitModel()
	ic.mCorrector = make([]*SymbolModel, ic.corrBits+1)
	for i := uint32(1); i <= ic.corrBits; i++ {
		if i <= bitsHigh {
			ic.mCorrector[i] = NewSymbolModel(1<<i, compress)
		} else {
			ic.mCorrector[i] = NewSymbolModel(1<<bitsHigh, compress)
		}
	}

	return ic
}

// K returns the magnitude class of the last coded corrector.
func (ic *integerCoding) K() uint32 {
	return ic.k
}

// wrap folds a predicted-plus-corrector value back into [0, corrRange).
func (ic *integerCoding) wrap(real int32) int32 {
	if ic.corrRange == 0 {
		return real
	}

	if real < 0 {
		return real + int32(ic.corrRange) //nolint:gosec
	}
	if uint32(real) >= ic.corrRange { //nolint:gosec
		return real - int32(ic.corrRange) //nolint:gosec
	}

	return real
}

// IntegerDecompressor decodes integers predicted from a context value.
type IntegerDecompressor struct {
	integerCoding
	dec *Decoder
}

// NewIntegerDecompressor creates a decompressor for bits-bit integers with contexts contexts.
//
// Corrector magnitude classes above 8 bits code their high 8 bits with a model and
// the rest raw. Use NewIntegerDecompressorRange for a custom range or split.
func NewIntegerDecompressor(dec *Decoder, bits, contexts uint32) *IntegerDecompressor {
	return NewIntegerDecompressorRange(dec, bits, contexts, 8, 0)
}

// NewIntegerDecompressorRange creates a decompressor with an explicit high-bit split and range.
func NewIntegerDecompressorRange(dec *Decoder, bits, contexts, bitsHigh, rng uint32) *IntegerDecompressor {
	return &IntegerDecompressor{
		integerCoding: newIntegerCoding(bits, contexts, bitsHigh, rng, false),
		dec:           dec,
	}
}

// Decompress decodes the integer predicted by pred in context.
func (ic *IntegerDecompressor) Decompress(pred int32, context uint32) int32 {
	return ic.wrap(pred + ic.readCorrector(ic.mBits[context]))
}

func (ic *IntegerDecompressor) readCorrector(mBits *SymbolModel) int32 {
	ic.k = ic.dec.DecodeSymbol(mBits)

	if ic.k == 0 {
		return int32(ic.dec.DecodeBit(ic.mCorrector0)) //nolint:gosec
	}

	if ic.k >= 32 {
		return ic.corrMin
	}

	var c int64
	if ic.k <= ic.bitsHigh {
		c = int64(ic.dec.DecodeSymbol(ic.mCorrector[ic.k]))
	} else {
		k1 := ic.k - ic.bitsHigh
		c = int64(ic.dec.DecodeSymbol(ic.mCorrector[ic.k]))
		c1 := int64(ic.dec.ReadBits(k1))
		c = c<<k1 | c1
	}

	if c >= 1<<(ic.k-1) {
		c++
	} else {
		c -= 1<<ic.k - 1
	}

	return int32(c) //nolint:gosec
}

// IntegerCompressor encodes integers against a prediction. It mirrors IntegerDecompressor.
type IntegerCompressor struct {
	integerCoding
	enc *Encoder
}

// NewIntegerCompressor creates a compressor for bits-bit integers with contexts contexts.
func NewIntegerCompressor(enc *Encoder, bits, contexts uint32) *IntegerCompressor {
	return &IntegerCompressor{
		integerCoding: newIntegerCoding(bits, contexts, 8, 0, true),
		enc:           enc,
	}
}

// Compress encodes real predicted by pred in context.
func (ic *IntegerCompressor) Compress(pred, real int32, context uint32) {
	corr := real - pred
	if ic.corrRange != 0 {
		if corr < ic.corrMin {
			corr += int32(ic.corrRange) //nolint:gosec
		} else if corr > ic.corrMax {
			corr -= int32(ic.corrRange) //nolint:gosec
		}
	}

	ic.writeCorrector(corr, ic.mBits[context])
}

func (ic *IntegerCompressor) writeCorrector(c int32, mBits *SymbolModel) {
	var c1 uint32
	if c <= 0 {
		c1 = uint32(-int64(c)) //nolint:gosec
	} else {
		c1 = uint32(c - 1) //nolint:gosec
	}

	ic.k = 0
	for c1 != 0 {
		c1 >>= 1
		ic.k++
	}

	ic.enc.EncodeSymbol(mBits, ic.k)

	if ic.k == 0 {
		ic.enc.EncodeBit(ic.mCorrector0, uint32(c)) //nolint:gosec
		return
	}

	if ic.k >= 32 {
		return
	}

	v := int64(c)
	if v < 0 {
		v += 1<<ic.k - 1
	} else {
		v--
	}

	if ic.k <= ic.bitsHigh {
		ic.enc.EncodeSymbol(ic.mCorrector[ic.k], uint32(v)) //nolint:gosec
		return
	}

	k1 := ic.k - ic.bitsHigh
	low := uint32(v) & (1<<k1 - 1) //nolint:gosec
	high := uint32(v >> k1)       //nolint:gosec
	ic.enc.EncodeSymbol(ic.mCorrector[ic.k], high)
	ic.enc.WriteBits(k1, low)
}
