package arith

// Encoder is the LASzip range encoder. It writes into an in-memory buffer.
//
// Encoder is NOT thread-safe.
type Encoder struct {
	out    []byte
	base   uint32
	length uint32
}

// NewEncoder creates an encoder ready to code symbols.
func NewEncoder() *Encoder {
	return &Encoder{length: maxLength}
}

// EncodeBit encodes bit (0 or 1) with m.
func (e *Encoder) EncodeBit(m *BitModel, bit uint32) {
	x := m.bit0Prob * (e.length >> bmLengthShift)

	if bit == 0 {
		e.length = x
		m.bit0Count++
	} else {
		initBase := e.base
		e.base += x
		e.length -= x
		if initBase > e.base {
			e.propagateCarry()
		}
	}

	if e.length < minLength {
		e.renorm()
	}

	m.bitsUntilUpdate--
	if m.bitsUntilUpdate == 0 {
		m.update()
	}
}

// EncodeSymbol encodes sym with m.
func (e *Encoder) EncodeSymbol(m *SymbolModel, sym uint32) {
	initBase := e.base

	if sym == m.lastSymbol {
		x := m.distribution[sym] * (e.length >> dmLengthShift)
		e.base += x
		e.length -= x
	} else {
		e.length >>= dmLengthShift
		x := m.distribution[sym] * e.length
		e.base += x
		e.length = m.distribution[sym+1]*e.length - x
	}

	if initBase > e.base {
		e.propagateCarry()
	}
	if e.length < minLength {
		e.renorm()
	}

	m.symbolCount[sym]++
	m.symbolsUntilUpdate--
	if m.symbolsUntilUpdate == 0 {
		m.update()
	}
}

// WriteBits encodes the low bits bits of sym raw.
func (e *Encoder) WriteBits(bits uint32, sym uint32) {
	if bits > 19 {
		e.WriteShort(uint16(sym)) //nolint:gosec
		sym >>= 16
		bits -= 16
	}

	initBase := e.base
	e.length >>= bits
	e.base += sym * e.length

	if initBase > e.base {
		e.propagateCarry()
	}
	if e.length < minLength {
		e.renorm()
	}
}

// WriteShort encodes 16 raw bits.
func (e *Encoder) WriteShort(sym uint16) {
	initBase := e.base
	e.length >>= 16
	e.base += uint32(sym) * e.length

	if initBase > e.base {
		e.propagateCarry()
	}
	if e.length < minLength {
		e.renorm()
	}
}

// WriteInt encodes 32 raw bits, low half first.
func (e *Encoder) WriteInt(sym uint32) {
	e.WriteShort(uint16(sym))       //nolint:gosec
	e.WriteShort(uint16(sym >> 16)) //nolint:gosec
}

// Done flushes the coder state and returns the stream.
//
// The stream carries exactly as many bytes as a Decoder consumes, four of
// which it reads during Init. The encoder must not be used afterwards.
func (e *Encoder) Done() []byte {
	initBase := e.base
	anotherByte := true

	if e.length > 2*minLength {
		e.base += minLength
		e.length = minLength >> 1
	} else {
		e.base += minLength >> 1
		e.length = minLength >> 9
		anotherByte = false
	}

	if initBase > e.base {
		e.propagateCarry()
	}
	e.renorm()

	e.out = append(e.out, 0, 0)
	if anotherByte {
		e.out = append(e.out, 0)
	}

	return e.out
}

func (e *Encoder) propagateCarry() {
	i := len(e.out) - 1
	for i >= 0 && e.out[i] == 0xFF {
		e.out[i] = 0
		i--
	}
	if i >= 0 {
		e.out[i]++
	}
}

func (e *Encoder) renorm() {
	for {
		e.out = append(e.out, byte(e.base>>24))
		e.base <<= 8
		e.length <<= 8
		if e.length >= minLength {
			return
		}
	}
}
