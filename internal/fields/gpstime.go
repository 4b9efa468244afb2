package fields

import (
	"math"

	"github.com/arloliu/lazbridge/endian"
	"github.com/arloliu/lazbridge/internal/arith"
)

// Multiplier symbols of the GPSTIME11 codec.
const (
	gpsMulti          = 500
	gpsMultiMinus     = -10
	gpsMultiUnchanged = gpsMulti - gpsMultiMinus + 1
	gpsMultiCodeFull  = gpsMulti - gpsMultiMinus + 2
	gpsMultiTotal     = gpsMulti - gpsMultiMinus + 6

	gpsExtremeLimit = 3
)

// gpsTimeState tracks up to four interleaved time sequences. Times are handled
// as the int64 bit pattern of the double.
type gpsTimeState struct {
	last, next     uint32
	lastTime       [4]int64
	lastDiff       [4]int32
	extremeCounter [4]int32

	multi    *arith.SymbolModel
	zeroDiff *arith.SymbolModel
}

func newGPSTimeState(compress bool) gpsTimeState {
	return gpsTimeState{
		multi:    arith.NewSymbolModel(gpsMultiTotal, compress),
		zeroDiff: arith.NewSymbolModel(6, compress),
	}
}

func (s *gpsTimeState) init(first []byte) {
	s.last, s.next = 0, 0
	s.lastDiff = [4]int32{}
	s.extremeCounter = [4]int32{}
	s.lastTime = [4]int64{endian.Int64(endian.GetLittleEndianEngine(), first)}
}

// extreme counts an out-of-range multiplier and adopts diff as the new
// reference once they persist.
func (s *gpsTimeState) extreme(diff int32) {
	s.extremeCounter[s.last]++
	if s.extremeCounter[s.last] > gpsExtremeLimit {
		s.lastDiff[s.last] = diff
		s.extremeCounter[s.last] = 0
	}
}

// GPSTimeDecompressor decodes GPSTIME11 items.
type GPSTimeDecompressor struct {
	gpsTimeState
	dec *arith.Decoder
	ic  *arith.IntegerDecompressor
}

var _ Decompressor = (*GPSTimeDecompressor)(nil)

// NewGPSTimeDecompressor creates a GPSTIME11 decompressor reading from dec.
func NewGPSTimeDecompressor(dec *arith.Decoder) *GPSTimeDecompressor {
	return &GPSTimeDecompressor{
		gpsTimeState: newGPSTimeState(false),
		dec:          dec,
		ic:           arith.NewIntegerDecompressor(dec, 32, 9),
	}
}

func (d *GPSTimeDecompressor) Init(first []byte) {
	d.init(first)
}

func (d *GPSTimeDecompressor) Decompress(dst []byte) {
	// A sequence switch is followed by another symbol. Valid streams switch at
	// most once per item.
	for range 4 {
		if !d.step() || d.dec.Err() != nil {
			break
		}
	}

	engine := endian.GetLittleEndianEngine()
	engine.PutUint64(dst, uint64(d.lastTime[d.last])) //nolint:gosec
}

// step decodes one symbol and reports whether it switched sequences.
func (d *GPSTimeDecompressor) step() bool {
	if d.lastDiff[d.last] == 0 {
		switch sym := d.dec.DecodeSymbol(d.zeroDiff); {
		case sym == 0:
		case sym == 1:
			diff := d.ic.Decompress(0, 0)
			d.lastDiff[d.last] = diff
			d.lastTime[d.last] += int64(diff)
			d.extremeCounter[d.last] = 0
		case sym == 2:
			d.readFull()
		default:
			d.last = (d.last + sym - 2) & 3
			return true
		}

		return false
	}

	sym := d.dec.DecodeSymbol(d.multi)
	switch {
	case sym == 1:
		d.lastTime[d.last] += int64(d.ic.Decompress(d.lastDiff[d.last], 1))
		d.extremeCounter[d.last] = 0
	case sym < gpsMultiUnchanged:
		d.lastTime[d.last] += int64(d.multiplied(int32(sym))) //nolint:gosec
	case sym == gpsMultiUnchanged:
	case sym == gpsMultiCodeFull:
		d.readFull()
	default:
		d.last = (d.last + sym - gpsMultiCodeFull) & 3
		return true
	}

	return false
}

func (d *GPSTimeDecompressor) multiplied(multi int32) int32 {
	lastDiff := d.lastDiff[d.last]

	var diff int32
	switch {
	case multi == 0:
		diff = d.ic.Decompress(0, 7)
		d.extreme(diff)
	case multi < 10:
		diff = d.ic.Decompress(multi*lastDiff, 2)
	case multi < gpsMulti:
		diff = d.ic.Decompress(multi*lastDiff, 3)
	case multi == gpsMulti:
		diff = d.ic.Decompress(gpsMulti*lastDiff, 4)
		d.extreme(diff)
	default:
		multi = gpsMulti - multi
		if multi > gpsMultiMinus {
			diff = d.ic.Decompress(multi*lastDiff, 5)
		} else {
			diff = d.ic.Decompress(gpsMultiMinus*lastDiff, 6)
			d.extreme(diff)
		}
	}

	return diff
}

func (d *GPSTimeDecompressor) readFull() {
	d.next = (d.next + 1) & 3
	high := d.ic.Decompress(int32(d.lastTime[d.last]>>32), 8) //nolint:gosec
	low := d.dec.ReadInt()
	d.lastTime[d.next] = int64(uint64(uint32(high))<<32 | uint64(low)) //nolint:gosec
	d.last = d.next
	d.lastDiff[d.last] = 0
	d.extremeCounter[d.last] = 0
}

// GPSTimeCompressor encodes GPSTIME11 items.
type GPSTimeCompressor struct {
	gpsTimeState
	enc *arith.Encoder
	ic  *arith.IntegerCompressor
}

var _ Compressor = (*GPSTimeCompressor)(nil)

// NewGPSTimeCompressor creates a GPSTIME11 compressor writing to enc.
func NewGPSTimeCompressor(enc *arith.Encoder) *GPSTimeCompressor {
	return &GPSTimeCompressor{
		gpsTimeState: newGPSTimeState(true),
		enc:          enc,
		ic:           arith.NewIntegerCompressor(enc, 32, 9),
	}
}

func (c *GPSTimeCompressor) Init(first []byte) {
	c.init(first)
}

func (c *GPSTimeCompressor) Compress(item []byte) {
	t := endian.Int64(endian.GetLittleEndianEngine(), item)

	for {
		if !c.step(t) {
			return
		}
	}
}

// fits32 reports whether the difference between two times fits in an int32.
func fits32(diff int64) bool {
	return diff == int64(int32(diff)) //nolint:gosec
}

// step encodes t against the current sequence and reports whether it switched
// to another sequence instead.
func (c *GPSTimeCompressor) step(t int64) bool {
	if t == c.lastTime[c.last] {
		if c.lastDiff[c.last] == 0 {
			c.enc.EncodeSymbol(c.zeroDiff, 0)
		} else {
			c.enc.EncodeSymbol(c.multi, gpsMultiUnchanged)
		}

		return false
	}

	diff64 := t - c.lastTime[c.last]
	zero := c.lastDiff[c.last] == 0

	if !fits32(diff64) {
		for i := uint32(1); i < 4; i++ {
			if fits32(t - c.lastTime[(c.last+i)&3]) {
				if zero {
					c.enc.EncodeSymbol(c.zeroDiff, i+2)
				} else {
					c.enc.EncodeSymbol(c.multi, gpsMultiCodeFull+i)
				}
				c.last = (c.last + i) & 3

				return true
			}
		}

		if zero {
			c.enc.EncodeSymbol(c.zeroDiff, 2)
		} else {
			c.enc.EncodeSymbol(c.multi, gpsMultiCodeFull)
		}
		c.ic.Compress(int32(c.lastTime[c.last]>>32), int32(t>>32), 8) //nolint:gosec
		c.enc.WriteInt(uint32(t))                                   //nolint:gosec
		c.next = (c.next + 1) & 3
		c.last = c.next
		c.lastDiff[c.last] = 0
		c.extremeCounter[c.last] = 0
		c.lastTime[c.last] = t

		return false
	}

	diff := int32(diff64) //nolint:gosec
	if zero {
		c.enc.EncodeSymbol(c.zeroDiff, 1)
		c.ic.Compress(0, diff, 0)
		c.lastDiff[c.last] = diff
		c.extremeCounter[c.last] = 0
	} else {
		c.compressMulti(diff)
	}
	c.lastTime[c.last] = t

	return false
}

func (c *GPSTimeCompressor) compressMulti(diff int32) {
	lastDiff := c.lastDiff[c.last]
	multi := quantizeMulti(float32(diff) / float32(lastDiff))

	switch {
	case multi == 1:
		c.enc.EncodeSymbol(c.multi, 1)
		c.ic.Compress(lastDiff, diff, 1)
		c.extremeCounter[c.last] = 0
	case multi > 0 && multi < gpsMulti:
		c.enc.EncodeSymbol(c.multi, uint32(multi)) //nolint:gosec
		if multi < 10 {
			c.ic.Compress(multi*lastDiff, diff, 2)
		} else {
			c.ic.Compress(multi*lastDiff, diff, 3)
		}
	case multi >= gpsMulti:
		c.enc.EncodeSymbol(c.multi, gpsMulti)
		c.ic.Compress(gpsMulti*lastDiff, diff, 4)
		c.extreme(diff)
	case multi < 0 && multi > gpsMultiMinus:
		c.enc.EncodeSymbol(c.multi, uint32(gpsMulti-multi)) //nolint:gosec
		c.ic.Compress(multi*lastDiff, diff, 5)
	case multi < 0:
		c.enc.EncodeSymbol(c.multi, gpsMulti-gpsMultiMinus)
		c.ic.Compress(gpsMultiMinus*lastDiff, diff, 6)
		c.extreme(diff)
	default:
		c.enc.EncodeSymbol(c.multi, 0)
		c.ic.Compress(0, diff, 7)
		c.extreme(diff)
	}
}

// quantizeMulti rounds a difference ratio half away from zero, saturating
// outside the range the codec distinguishes.
func quantizeMulti(f float32) int32 {
	switch {
	case math.IsNaN(float64(f)):
		return 0
	case f >= gpsMulti:
		return gpsMulti
	case f <= gpsMultiMinus:
		return gpsMultiMinus
	case f >= 0:
		return int32(f + 0.5)
	default:
		return int32(f - 0.5)
	}
}
