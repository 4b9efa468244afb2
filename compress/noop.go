package compress

// NoOpCompressor passes buffers through unchanged.
//
// It is the codec selected for format.CompressionNone, which keeps the input
// staging path uniform whether or not the host wrapped its buffer.
type NoOpCompressor struct{}

var _ Codec = (*NoOpCompressor)(nil)

// NewNoOpCompressor creates a new no-operation codec.
func NewNoOpCompressor() NoOpCompressor {
	return NoOpCompressor{}
}

// Compress returns the input slice as-is, without copying.
//
// Note: The returned slice shares the same underlying memory as the input.
func (c NoOpCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns the input slice as-is, without copying.
//
// Note: The returned slice shares the same underlying memory as the input. The
// staging path copies it into the arena, so the host may reuse its buffer once
// the copy-in has returned.
func (c NoOpCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
