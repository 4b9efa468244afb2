package arith

import (
	"fmt"

	"github.com/arloliu/lazbridge/errs"
)

// Decoder is a LASzip range decoder reading from an in-memory byte stream.
//
// Reading past the end of the stream does not panic. The missing bytes read as
// zero and Err reports the overrun, so callers check Err once per decoded point.
//
// Decoder is NOT thread-safe.
type Decoder struct {
	buf    []byte
	pos    int
	value  uint32
	length uint32
	err    error
}

// NewDecoder creates a decoder over buf. Init must be called before decoding.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Init reads the four initial bytes of the arithmetic stream.
func (d *Decoder) Init() error {
	d.length = maxLength
	d.value = uint32(d.getByte())<<24 | uint32(d.getByte())<<16 | uint32(d.getByte())<<8 | uint32(d.getByte())

	return d.err
}

// Err returns the first stream overrun, or nil.
func (d *Decoder) Err() error {
	return d.err
}

// Pos returns the number of stream bytes consumed.
func (d *Decoder) Pos() int {
	return d.pos
}

// ReadRaw copies len(dst) bytes from the stream without range decoding.
//
// It is used for the raw first point of a chunk, before Init.
func (d *Decoder) ReadRaw(dst []byte) error {
	if d.pos+len(dst) > len(d.buf) {
		d.fail()
		return d.err
	}

	copy(dst, d.buf[d.pos:])
	d.pos += len(dst)

	return nil
}

// DecodeBit decodes one bit with m.
func (d *Decoder) DecodeBit(m *BitModel) uint32 {
	x := m.bit0Prob * (d.length >> bmLengthShift)

	var sym uint32
	if d.value < x {
		d.length = x
		m.bit0Count++
	} else {
		sym = 1
		d.value -= x
		d.length -= x
	}

	if d.length < minLength {
		d.renorm()
	}

	m.bitsUntilUpdate--
	if m.bitsUntilUpdate == 0 {
		m.update()
	}

	return sym
}

// DecodeSymbol decodes one symbol with m.
func (d *Decoder) DecodeSymbol(m *SymbolModel) uint32 {
	var sym, x uint32
	y := d.length

	if m.decoderTable != nil {
		d.length >>= dmLengthShift
		dv := d.value / d.length
		t := dv >> m.tableShift

		sym = m.decoderTable[t]
		n := m.decoderTable[t+1] + 1

		for n > sym+1 {
			k := (sym + n) >> 1
			if m.distribution[k] > dv {
				n = k
			} else {
				sym = k
			}
		}

		x = m.distribution[sym] * d.length
		if sym != m.lastSymbol {
			y = m.distribution[sym+1] * d.length
		}
	} else {
		d.length >>= dmLengthShift
		n := m.symbols
		k := n >> 1

		for {
			z := d.length * m.distribution[k]
			if z > d.value {
				n = k
				y = z
			} else {
				sym = k
				x = z
			}

			k = (sym + n) >> 1
			if k == sym {
				break
			}
		}
	}

	d.value -= x
	d.length = y - x

	if d.length < minLength {
		d.renorm()
	}

	m.symbolCount[sym]++
	m.symbolsUntilUpdate--
	if m.symbolsUntilUpdate == 0 {
		m.update()
	}

	return sym
}

// ReadBits decodes bits raw bits (1..32).
func (d *Decoder) ReadBits(bits uint32) uint32 {
	if bits > 19 {
		lower := uint32(d.ReadShort())
		upper := d.ReadBits(bits-16) << 16

		return upper | lower
	}

	d.length >>= bits
	sym := d.value / d.length
	d.value -= d.length * sym

	if d.length < minLength {
		d.renorm()
	}

	return sym
}

// ReadShort decodes 16 raw bits.
func (d *Decoder) ReadShort() uint16 {
	d.length >>= 16
	sym := d.value / d.length
	d.value -= d.length * sym

	if d.length < minLength {
		d.renorm()
	}

	return uint16(sym) //nolint:gosec
}

// ReadInt decodes 32 raw bits, low half first.
func (d *Decoder) ReadInt() uint32 {
	lower := uint32(d.ReadShort())
	upper := uint32(d.ReadShort())

	return upper<<16 | lower
}

func (d *Decoder) renorm() {
	for {
		d.value = d.value<<8 | uint32(d.getByte())
		d.length <<= 8
		if d.length >= minLength {
			return
		}
	}
}

func (d *Decoder) getByte() byte {
	if d.pos >= len(d.buf) {
		d.fail()
		return 0
	}

	b := d.buf[d.pos]
	d.pos++

	return b
}

func (d *Decoder) fail() {
	if d.err == nil {
		d.err = fmt.Errorf("%w: arithmetic stream overrun after %d bytes", errs.ErrDecode, len(d.buf))
	}
}
