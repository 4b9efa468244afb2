package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestByteBuffer(t *testing.T) {
	t.Run("Write and reset", func(t *testing.T) {
		bb := NewByteBuffer(4)
		bb.MustWrite([]byte{1, 2, 3})
		n, err := bb.Write([]byte{4, 5})
		require.NoError(t, err)
		require.Equal(t, 2, n)
		require.Equal(t, []byte{1, 2, 3, 4, 5}, bb.Bytes())
		require.Equal(t, 5, bb.Len())

		capBefore := bb.Cap()
		bb.Reset()
		require.Equal(t, 0, bb.Len())
		require.Equal(t, capBefore, bb.Cap())
	})

	t.Run("Resize grows", func(t *testing.T) {
		bb := NewByteBuffer(2)
		bb.MustWrite([]byte{9, 8})

		b := bb.Resize(300)
		require.Len(t, b, 300)
		require.Equal(t, byte(9), b[0])
		require.Equal(t, byte(8), b[1])

		b = bb.Resize(10)
		require.Len(t, b, 10)
	})

	t.Run("Resize negative panics", func(t *testing.T) {
		bb := NewByteBuffer(2)
		require.Panics(t, func() { bb.Resize(-1) })
	})

	t.Run("Grow keeps contents", func(t *testing.T) {
		bb := NewByteBuffer(0)
		bb.MustWrite([]byte{7})
		bb.Grow(1000)
		require.GreaterOrEqual(t, bb.Cap()-bb.Len(), 1000)
		require.Equal(t, []byte{7}, bb.Bytes())
	})
}

func TestByteBufferPool(t *testing.T) {
	t.Run("Get returns empty buffer", func(t *testing.T) {
		bbp := NewByteBufferPool(16, 64)
		bb := bbp.Get()
		require.NotNil(t, bb)
		require.Equal(t, 0, bb.Len())

		bb.MustWrite([]byte{1, 2, 3})
		bbp.Put(bb)

		again := bbp.Get()
		require.Equal(t, 0, again.Len())
	})

	t.Run("Put nil is ignored", func(t *testing.T) {
		bbp := NewByteBufferPool(16, 64)
		require.NotPanics(t, func() { bbp.Put(nil) })
	})

	t.Run("Oversized buffers are dropped", func(t *testing.T) {
		bbp := NewByteBufferPool(16, 64)
		bb := bbp.Get()
		bb.Resize(1024)
		require.NotPanics(t, func() { bbp.Put(bb) })
	})

	t.Run("Default pools", func(t *testing.T) {
		rb := GetRecordBuffer()
		require.GreaterOrEqual(t, rb.Cap(), 0)
		PutRecordBuffer(rb)

		sb := GetStagingBuffer()
		require.Equal(t, 0, sb.Len())
		PutStagingBuffer(sb)
	})
}
