// Package arith implements the LASzip range coder.
//
// The decoder side (Decoder, BitModel, SymbolModel, IntegerDecompressor) is what
// the native engine runs. The Encoder and IntegerCompressor mirror it bit for bit
// and exist so tests can produce compressed fixtures.
//
// Models are adaptive: every coded symbol updates the model, so an encoder and a
// decoder stay in sync only when they code the same symbols against identically
// initialized models in the same order.
package arith
