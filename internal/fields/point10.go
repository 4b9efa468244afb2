package fields

import (
	"github.com/arloliu/lazbridge/endian"
	"github.com/arloliu/lazbridge/internal/arith"
)

// Byte offsets inside a POINT10 item.
const (
	p10X         = 0
	p10Y         = 4
	p10Z         = 8
	p10Intensity = 12
	p10Returns   = 14
	p10Class     = 15
	p10Scan      = 16
	p10User      = 17
	p10Source    = 18
)

// Changed-value flags coded ahead of every POINT10 item.
const (
	changedSource    = 1 << 0
	changedUserData  = 1 << 1
	changedScanAngle = 1 << 2
	changedClass     = 1 << 3
	changedIntensity = 1 << 4
	changedReturns   = 1 << 5
)

// returnMap collapses (number of returns, return number) into one of 16 contexts.
var returnMap = [8][8]uint8{
	{15, 14, 13, 12, 11, 10, 9, 8},
	{14, 0, 1, 3, 6, 10, 10, 9},
	{13, 1, 2, 4, 7, 11, 11, 10},
	{12, 3, 4, 5, 8, 12, 12, 11},
	{11, 6, 7, 8, 9, 13, 13, 12},
	{10, 10, 11, 12, 13, 14, 14, 13},
	{9, 10, 11, 12, 13, 14, 15, 14},
	{8, 9, 10, 11, 12, 13, 14, 15},
}

// returnLevel is the distance between return number and number of returns.
var returnLevel = [8][8]uint8{
	{0, 1, 2, 3, 4, 5, 6, 7},
	{1, 0, 1, 2, 3, 4, 5, 6},
	{2, 1, 0, 1, 2, 3, 4, 5},
	{3, 2, 1, 0, 1, 2, 3, 4},
	{4, 3, 2, 1, 0, 1, 2, 3},
	{5, 4, 3, 2, 1, 0, 1, 2},
	{6, 5, 4, 3, 2, 1, 0, 1},
	{7, 6, 5, 4, 3, 2, 1, 0},
}

// point10State is the prediction state shared by the POINT10 codec pair.
type point10State struct {
	last          [Point10Size]byte
	lastIntensity [16]uint16
	lastXDiff     [16]arith.Median5
	lastYDiff     [16]arith.Median5
	lastHeight    [8]int32

	changed        *arith.SymbolModel
	scanAngle      [2]*arith.SymbolModel
	bitByte        [256]*arith.SymbolModel
	classification [256]*arith.SymbolModel
	userData       [256]*arith.SymbolModel
	compress       bool
}

func newPoint10State(compress bool) point10State {
	return point10State{
		changed:   arith.NewSymbolModel(64, compress),
		scanAngle: [2]*arith.SymbolModel{arith.NewSymbolModel(256, compress), arith.NewSymbolModel(256, compress)},
		compress:  compress,
	}
}

func (s *point10State) init(first []byte) {
	copy(s.last[:], first[:Point10Size])
	s.last[p10Intensity] = 0
	s.last[p10Intensity+1] = 0
}

// contexts returns the return-map context m, the return level l and whether
// the pulse has a single return.
func (s *point10State) contexts(b14 byte) (m, l uint32, single uint32) {
	r := b14 & 0x07
	n := (b14 >> 3) & 0x07
	if n == 1 {
		single = 1
	}

	return uint32(returnMap[n][r]), uint32(returnLevel[n][r]), single
}

func yContext(single, k uint32) uint32 {
	if k < 20 {
		return single + k&^1
	}

	return single + 20
}

func zContext(single, k uint32) uint32 {
	if k < 18 {
		return single + k&^1
	}

	return single + 18
}

func minContext(m uint32) uint32 {
	if m < 3 {
		return m
	}

	return 3
}

// Point10Decompressor decodes POINT10 items.
type Point10Decompressor struct {
	point10State
	dec         *arith.Decoder
	icIntensity *arith.IntegerDecompressor
	icSource    *arith.IntegerDecompressor
	icDX        *arith.IntegerDecompressor
	icDY        *arith.IntegerDecompressor
	icZ         *arith.IntegerDecompressor
}

var _ Decompressor = (*Point10Decompressor)(nil)

// NewPoint10Decompressor creates a POINT10 decompressor reading from dec.
func NewPoint10Decompressor(dec *arith.Decoder) *Point10Decompressor {
	return &Point10Decompressor{
		point10State: newPoint10State(false),
		dec:          dec,
		icIntensity:  arith.NewIntegerDecompressor(dec, 16, 4),
		icSource:     arith.NewIntegerDecompressor(dec, 16, 1),
		icDX:         arith.NewIntegerDecompressor(dec, 32, 2),
		icDY:         arith.NewIntegerDecompressor(dec, 32, 22),
		icZ:          arith.NewIntegerDecompressor(dec, 32, 20),
	}
}

func (d *Point10Decompressor) Init(first []byte) {
	d.init(first)
}

func (d *Point10Decompressor) Decompress(dst []byte) {
	engine := endian.GetLittleEndianEngine()
	last := d.last[:]

	changed := d.dec.DecodeSymbol(d.changed)

	var m, l, single uint32
	if changed != 0 {
		if changed&changedReturns != 0 {
			model := lazyModel(&d.bitByte, last[p10Returns], false)
			last[p10Returns] = byte(d.dec.DecodeSymbol(model))
		}

		m, l, single = d.contexts(last[p10Returns])

		if changed&changedIntensity != 0 {
			v := d.icIntensity.Decompress(int32(d.lastIntensity[m]), minContext(m))
			d.lastIntensity[m] = uint16(v) //nolint:gosec
		}
		engine.PutUint16(last[p10Intensity:], d.lastIntensity[m])

		if changed&changedClass != 0 {
			model := lazyModel(&d.classification, last[p10Class], false)
			last[p10Class] = byte(d.dec.DecodeSymbol(model))
		}

		if changed&changedScanAngle != 0 {
			direction := (last[p10Returns] >> 6) & 1
			v := d.dec.DecodeSymbol(d.scanAngle[direction])
			last[p10Scan] = u8Fold(int(v) + int(last[p10Scan]))
		}

		if changed&changedUserData != 0 {
			model := lazyModel(&d.userData, last[p10User], false)
			last[p10User] = byte(d.dec.DecodeSymbol(model))
		}

		if changed&changedSource != 0 {
			v := d.icSource.Decompress(int32(engine.Uint16(last[p10Source:])), 0)
			engine.PutUint16(last[p10Source:], uint16(v)) //nolint:gosec
		}
	} else {
		m, l, single = d.contexts(last[p10Returns])
	}

	diff := d.icDX.Decompress(d.lastXDiff[m].Get(), single)
	endian.PutInt32(engine, last[p10X:], endian.Int32(engine, last[p10X:])+diff)
	d.lastXDiff[m].Add(diff)

	diff = d.icDY.Decompress(d.lastYDiff[m].Get(), yContext(single, d.icDX.K()))
	endian.PutInt32(engine, last[p10Y:], endian.Int32(engine, last[p10Y:])+diff)
	d.lastYDiff[m].Add(diff)

	k := (d.icDX.K() + d.icDY.K()) / 2
	z := d.icZ.Decompress(d.lastHeight[l], zContext(single, k))
	endian.PutInt32(engine, last[p10Z:], z)
	d.lastHeight[l] = z

	copy(dst, last)
}

// Point10Compressor encodes POINT10 items.
type Point10Compressor struct {
	point10State
	enc         *arith.Encoder
	icIntensity *arith.IntegerCompressor
	icSource    *arith.IntegerCompressor
	icDX        *arith.IntegerCompressor
	icDY        *arith.IntegerCompressor
	icZ         *arith.IntegerCompressor
}

var _ Compressor = (*Point10Compressor)(nil)

// NewPoint10Compressor creates a POINT10 compressor writing to enc.
func NewPoint10Compressor(enc *arith.Encoder) *Point10Compressor {
	return &Point10Compressor{
		point10State: newPoint10State(true),
		enc:          enc,
		icIntensity:  arith.NewIntegerCompressor(enc, 16, 4),
		icSource:     arith.NewIntegerCompressor(enc, 16, 1),
		icDX:         arith.NewIntegerCompressor(enc, 32, 2),
		icDY:         arith.NewIntegerCompressor(enc, 32, 22),
		icZ:          arith.NewIntegerCompressor(enc, 32, 20),
	}
}

func (c *Point10Compressor) Init(first []byte) {
	c.init(first)
}

func (c *Point10Compressor) Compress(item []byte) {
	engine := endian.GetLittleEndianEngine()
	last := c.last[:]

	m, l, single := c.contexts(item[p10Returns])
	intensity := engine.Uint16(item[p10Intensity:])

	var changed uint32
	if last[p10Returns] != item[p10Returns] {
		changed |= changedReturns
	}
	if c.lastIntensity[m] != intensity {
		changed |= changedIntensity
	}
	if last[p10Class] != item[p10Class] {
		changed |= changedClass
	}
	if last[p10Scan] != item[p10Scan] {
		changed |= changedScanAngle
	}
	if last[p10User] != item[p10User] {
		changed |= changedUserData
	}
	if engine.Uint16(last[p10Source:]) != engine.Uint16(item[p10Source:]) {
		changed |= changedSource
	}

	c.enc.EncodeSymbol(c.changed, changed)

	if changed&changedReturns != 0 {
		c.enc.EncodeSymbol(lazyModel(&c.bitByte, last[p10Returns], true), uint32(item[p10Returns]))
	}
	if changed&changedIntensity != 0 {
		c.icIntensity.Compress(int32(c.lastIntensity[m]), int32(intensity), minContext(m))
		c.lastIntensity[m] = intensity
	}
	if changed&changedClass != 0 {
		c.enc.EncodeSymbol(lazyModel(&c.classification, last[p10Class], true), uint32(item[p10Class]))
	}
	if changed&changedScanAngle != 0 {
		direction := (item[p10Returns] >> 6) & 1
		c.enc.EncodeSymbol(c.scanAngle[direction], uint32(u8Fold(int(item[p10Scan])-int(last[p10Scan]))))
	}
	if changed&changedUserData != 0 {
		c.enc.EncodeSymbol(lazyModel(&c.userData, last[p10User], true), uint32(item[p10User]))
	}
	if changed&changedSource != 0 {
		c.icSource.Compress(int32(engine.Uint16(last[p10Source:])), int32(engine.Uint16(item[p10Source:])), 0)
	}

	diff := endian.Int32(engine, item[p10X:]) - endian.Int32(engine, last[p10X:])
	c.icDX.Compress(c.lastXDiff[m].Get(), diff, single)
	c.lastXDiff[m].Add(diff)

	diff = endian.Int32(engine, item[p10Y:]) - endian.Int32(engine, last[p10Y:])
	c.icDY.Compress(c.lastYDiff[m].Get(), diff, yContext(single, c.icDX.K()))
	c.lastYDiff[m].Add(diff)

	k := (c.icDX.K() + c.icDY.K()) / 2
	z := endian.Int32(engine, item[p10Z:])
	c.icZ.Compress(c.lastHeight[l], z, zContext(single, k))
	c.lastHeight[l] = z

	copy(last, item[:Point10Size])
}
