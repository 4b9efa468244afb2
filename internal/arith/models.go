package arith

const (
	minLength = uint32(0x01000000) // renormalization threshold
	maxLength = uint32(0xFFFFFFFF)

	bmLengthShift = 13 // length bits discarded before bit model multiplication
	bmMaxCount    = 1 << bmLengthShift

	dmLengthShift = 15 // length bits discarded before symbol model multiplication
	dmMaxCount    = 1 << dmLengthShift

	maxSymbols = 1 << 11
)

// BitModel is an adaptive binary probability model.
type BitModel struct {
	bit0Count       uint32
	bitCount        uint32
	bit0Prob        uint32
	bitsUntilUpdate uint32
	updateCycle     uint32
}

// NewBitModel returns an equiprobable bit model.
func NewBitModel() *BitModel {
	m := &BitModel{}
	m.Init()

	return m
}

// Init resets the model to equiprobable with frequent updates.
func (m *BitModel) Init() {
	m.bit0Count = 1
	m.bitCount = 2
	m.bit0Prob = 1 << (bmLengthShift - 1)
	m.updateCycle = 4
	m.bitsUntilUpdate = 4
}

func (m *BitModel) update() {
	m.bitCount += m.updateCycle
	if m.bitCount > bmMaxCount {
		m.bitCount = (m.bitCount + 1) >> 1
		m.bit0Count = (m.bit0Count + 1) >> 1
		if m.bit0Count == m.bitCount {
			m.bitCount++
		}
	}

	scale := uint32(0x80000000) / m.bitCount
	m.bit0Prob = (m.bit0Count * scale) >> (31 - bmLengthShift)

	m.updateCycle = min((5*m.updateCycle)>>2, 64)
	m.bitsUntilUpdate = m.updateCycle
}

// SymbolModel is an adaptive model over a fixed alphabet of 2..2048 symbols.
type SymbolModel struct {
	symbols            uint32
	lastSymbol         uint32
	distribution       []uint32
	symbolCount        []uint32
	decoderTable       []uint32
	tableSize          uint32
	tableShift         uint32
	totalCount         uint32
	updateCycle        uint32
	symbolsUntilUpdate uint32
}

// NewSymbolModel returns a uniform model over symbols symbols.
//
// A decoder lookup table is built for alphabets larger than 16 symbols when
// decoding. Encoders skip it since they never search the distribution.
// NewSymbolModel panics when symbols is outside [2, 2048].
func NewSymbolModel(symbols uint32, compress bool) *SymbolModel {
	if symbols < 2 || symbols > maxSymbols {
		panic("arith: symbol model size out of range")
	}

	m := &SymbolModel{
		symbols:      symbols,
		lastSymbol:   symbols - 1,
		distribution: make([]uint32, symbols),
		symbolCount:  make([]uint32, symbols),
	}

	if !compress && symbols > 16 {
		tableBits := uint32(3)
		for symbols > 1<<(tableBits+2) {
			tableBits++
		}
		m.tableSize = 1 << tableBits
		m.tableShift = dmLengthShift - tableBits
		m.decoderTable = make([]uint32, m.tableSize+2)
	}

	m.Init()

	return m
}

// Init resets the model to a uniform distribution.
func (m *SymbolModel) Init() {
	m.totalCount = 0
	m.updateCycle = m.symbols
	for k := range m.symbolCount {
		m.symbolCount[k] = 1
	}

	m.update()
	m.updateCycle = (m.symbols + 6) >> 1
	m.symbolsUntilUpdate = m.updateCycle
}

// Symbols returns the alphabet size.
func (m *SymbolModel) Symbols() uint32 {
	return m.symbols
}

func (m *SymbolModel) update() {
	m.totalCount += m.updateCycle
	if m.totalCount > dmMaxCount {
		m.totalCount = 0
		for n := range m.symbolCount {
			m.symbolCount[n] = (m.symbolCount[n] + 1) >> 1
			m.totalCount += m.symbolCount[n]
		}
	}

	var sum uint32
	scale := uint32(0x80000000) / m.totalCount

	if m.tableSize == 0 {
		for k := range m.distribution {
			m.distribution[k] = (scale * sum) >> (31 - dmLengthShift)
			sum += m.symbolCount[k]
		}
	} else {
		var s uint32
		for k := uint32(0); k < m.symbols; k++ {
			m.distribution[k] = (scale * sum) >> (31 - dmLengthShift)
			sum += m.symbolCount[k]

			w := m.distribution[k] >> m.tableShift
			for s < w {
				s++
				m.decoderTable[s] = k - 1
			}
		}

		m.decoderTable[0] = 0
		for s <= m.tableSize {
			s++
			m.decoderTable[s] = m.symbols - 1
		}
	}

	m.updateCycle = min((5*m.updateCycle)>>2, (m.symbols+6)<<3)
	m.symbolsUntilUpdate = m.updateCycle
}
