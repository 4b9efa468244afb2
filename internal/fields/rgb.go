package fields

import (
	"github.com/arloliu/lazbridge/endian"
	"github.com/arloliu/lazbridge/internal/arith"
)

// rgbState holds the last color and the models of the RGB12 codec.
//
// The byteUsed symbol flags which of the six color bytes changed (bits 0-5,
// low then high byte of red, green and blue) and whether the channels differ
// from each other (bit 6). Green and blue are predicted from the change in red.
type rgbState struct {
	last     [3]uint16
	byteUsed *arith.SymbolModel
	diff     [6]*arith.SymbolModel
}

func newRGBState(compress bool) rgbState {
	s := rgbState{byteUsed: arith.NewSymbolModel(128, compress)}
	for i := range s.diff {
		s.diff[i] = arith.NewSymbolModel(256, compress)
	}

	return s
}

func (s *rgbState) init(first []byte) {
	engine := endian.GetLittleEndianEngine()
	for i := range s.last {
		s.last[i] = engine.Uint16(first[2*i:])
	}
}

func lo(v uint16) int { return int(v & 0xFF) }
func hi(v uint16) int { return int(v >> 8) }

// RGBDecompressor decodes RGB12 items.
type RGBDecompressor struct {
	rgbState
	dec *arith.Decoder
}

var _ Decompressor = (*RGBDecompressor)(nil)

// NewRGBDecompressor creates an RGB12 decompressor reading from dec.
func NewRGBDecompressor(dec *arith.Decoder) *RGBDecompressor {
	return &RGBDecompressor{rgbState: newRGBState(false), dec: dec}
}

func (d *RGBDecompressor) Init(first []byte) {
	d.init(first)
}

// corr decodes the corrector for color byte i when its flag is set in sym,
// returning fallback otherwise.
func (d *RGBDecompressor) corr(sym uint32, i int, pred int, fallback int) int {
	if sym&(1<<i) == 0 {
		return fallback
	}

	return int(u8Fold(int(d.dec.DecodeSymbol(d.diff[i])) + pred))
}

func (d *RGBDecompressor) Decompress(dst []byte) {
	last := d.last
	sym := d.dec.DecodeSymbol(d.byteUsed)

	rl := d.corr(sym, 0, lo(last[0]), lo(last[0]))
	rh := d.corr(sym, 1, hi(last[0]), hi(last[0]))

	var item [3]uint16
	item[0] = uint16(rh<<8 | rl) //nolint:gosec

	if sym&(1<<6) != 0 {
		diff := rl - lo(last[0])
		gl := d.corr(sym, 2, u8Clamp(diff+lo(last[1])), lo(last[1]))
		bl := lo(last[2])
		if sym&(1<<4) != 0 {
			diff = (diff + gl - lo(last[1])) / 2
			bl = d.corr(sym, 4, u8Clamp(diff+lo(last[2])), bl)
		}

		diff = rh - hi(last[0])
		gh := d.corr(sym, 3, u8Clamp(diff+hi(last[1])), hi(last[1]))
		bh := hi(last[2])
		if sym&(1<<5) != 0 {
			diff = (diff + gh - hi(last[1])) / 2
			bh = d.corr(sym, 5, u8Clamp(diff+hi(last[2])), bh)
		}

		item[1] = uint16(gh<<8 | gl) //nolint:gosec
		item[2] = uint16(bh<<8 | bl) //nolint:gosec
	} else {
		item[1] = item[0]
		item[2] = item[0]
	}

	d.last = item

	engine := endian.GetLittleEndianEngine()
	for i, v := range item {
		engine.PutUint16(dst[2*i:], v)
	}
}

// RGBCompressor encodes RGB12 items.
type RGBCompressor struct {
	rgbState
	enc *arith.Encoder
}

var _ Compressor = (*RGBCompressor)(nil)

// NewRGBCompressor creates an RGB12 compressor writing to enc.
func NewRGBCompressor(enc *arith.Encoder) *RGBCompressor {
	return &RGBCompressor{rgbState: newRGBState(true), enc: enc}
}

func (c *RGBCompressor) Init(first []byte) {
	c.init(first)
}

func (c *RGBCompressor) Compress(item []byte) {
	engine := endian.GetLittleEndianEngine()
	var cur [3]uint16
	for i := range cur {
		cur[i] = engine.Uint16(item[2*i:])
	}
	last := c.last

	var sym uint32
	for i := range 3 {
		if lo(last[i]) != lo(cur[i]) {
			sym |= 1 << (2 * i)
		}
		if hi(last[i]) != hi(cur[i]) {
			sym |= 1 << (2*i + 1)
		}
	}
	if cur[0] != cur[1] || cur[0] != cur[2] {
		sym |= 1 << 6
	}

	c.enc.EncodeSymbol(c.byteUsed, sym)

	diffLo := lo(cur[0]) - lo(last[0])
	diffHi := hi(cur[0]) - hi(last[0])
	if sym&(1<<0) != 0 {
		c.enc.EncodeSymbol(c.diff[0], uint32(u8Fold(diffLo)))
	}
	if sym&(1<<1) != 0 {
		c.enc.EncodeSymbol(c.diff[1], uint32(u8Fold(diffHi)))
	}

	if sym&(1<<6) != 0 {
		if sym&(1<<2) != 0 {
			c.enc.EncodeSymbol(c.diff[2], uint32(u8Fold(lo(cur[1])-u8Clamp(diffLo+lo(last[1])))))
		}
		if sym&(1<<4) != 0 {
			diffLo = (diffLo + lo(cur[1]) - lo(last[1])) / 2
			c.enc.EncodeSymbol(c.diff[4], uint32(u8Fold(lo(cur[2])-u8Clamp(diffLo+lo(last[2])))))
		}
		if sym&(1<<3) != 0 {
			c.enc.EncodeSymbol(c.diff[3], uint32(u8Fold(hi(cur[1])-u8Clamp(diffHi+hi(last[1])))))
		}
		if sym&(1<<5) != 0 {
			diffHi = (diffHi + hi(cur[1]) - hi(last[1])) / 2
			c.enc.EncodeSymbol(c.diff[5], uint32(u8Fold(hi(cur[2])-u8Clamp(diffHi+hi(last[2])))))
		}
	}

	c.last = cur
}
