package arena

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/lazbridge/errs"
)

func newTestArena(t *testing.T, capacity int) *Arena {
	t.Helper()

	a, err := New(WithCapacity(capacity))
	require.NoError(t, err)

	return a
}

func TestNew(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		a, err := New()
		require.NoError(t, err)
		require.Equal(t, DefaultCapacity, a.Stats().Capacity)
		require.Equal(t, 0, a.Occupancy())
	})

	t.Run("Capacity rounded to alignment", func(t *testing.T) {
		a, err := New(WithCapacity(10), WithAlignment(16))
		require.NoError(t, err)
		require.Equal(t, 16, a.Stats().Capacity)
	})

	t.Run("Invalid options", func(t *testing.T) {
		_, err := New(WithCapacity(0))
		require.ErrorIs(t, err, errs.ErrInvalidSize)

		_, err = New(WithAlignment(3))
		require.ErrorIs(t, err, errs.ErrInvalidSize)
	})
}

func TestArena_Allocate(t *testing.T) {
	t.Run("Never returns address zero and aligns", func(t *testing.T) {
		a := newTestArena(t, 1024)

		for _, size := range []int{1, 3, 8, 13} {
			h, err := a.Allocate(size)
			require.NoError(t, err)
			require.NotZero(t, h.Addr())
			require.Zero(t, h.Addr()%DefaultAlignment)
			require.Equal(t, size, h.Size())
		}
	})

	t.Run("Invalid size", func(t *testing.T) {
		a := newTestArena(t, 64)
		_, err := a.Allocate(0)
		require.ErrorIs(t, err, errs.ErrInvalidSize)
		require.Equal(t, errs.StageAllocation, errs.Stage(err))
	})

	t.Run("Exhaustion", func(t *testing.T) {
		a := newTestArena(t, 64)
		_, err := a.Allocate(48)
		require.NoError(t, err)

		_, err = a.Allocate(24)
		require.ErrorIs(t, err, errs.ErrAllocationFailure)
	})

	t.Run("Zeroed after reuse", func(t *testing.T) {
		a := newTestArena(t, 64)
		h, err := a.Allocate(16)
		require.NoError(t, err)
		require.NoError(t, a.Write(h, []byte{1, 2, 3, 4}))
		require.NoError(t, a.Free(h))

		h2, err := a.Allocate(16)
		require.NoError(t, err)
		require.Equal(t, h.Addr(), h2.Addr())

		got, err := a.Read(h2, 4)
		require.NoError(t, err)
		require.Equal(t, []byte{0, 0, 0, 0}, got)
	})

	t.Run("Coalesces freed neighbours", func(t *testing.T) {
		a := newTestArena(t, 96)
		h1, err := a.Allocate(32)
		require.NoError(t, err)
		h2, err := a.Allocate(32)
		require.NoError(t, err)
		h3, err := a.Allocate(32)
		require.NoError(t, err)

		require.NoError(t, a.Free(h1))
		require.NoError(t, a.Free(h3))
		require.NoError(t, a.Free(h2))

		big, err := a.Allocate(96)
		require.NoError(t, err)
		require.Equal(t, h1.Addr(), big.Addr())
	})
}

func TestArena_WriteRead(t *testing.T) {
	a := newTestArena(t, 256)
	h, err := a.Allocate(8)
	require.NoError(t, err)

	require.NoError(t, a.Write(h, []byte("LASF")))
	require.NoError(t, a.WriteAt(h, 4, []byte("1234")))

	got, err := a.Read(h, 8)
	require.NoError(t, err)
	require.Equal(t, []byte("LASF1234"), got)

	dst := make([]byte, 4)
	n, err := a.ReadInto(h, dst)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, []byte("LASF"), dst)

	view, err := a.Bytes(h)
	require.NoError(t, err)
	require.Len(t, view, 8)

	t.Run("Out of bounds", func(t *testing.T) {
		require.ErrorIs(t, a.Write(h, make([]byte, 9)), errs.ErrOutOfBounds)
		require.ErrorIs(t, a.WriteAt(h, 5, make([]byte, 4)), errs.ErrOutOfBounds)
		require.ErrorIs(t, a.WriteAt(h, -1, nil), errs.ErrOutOfBounds)

		_, err := a.Read(h, 9)
		require.ErrorIs(t, err, errs.ErrOutOfBounds)
	})
}

func TestArena_UseAfterFree(t *testing.T) {
	a := newTestArena(t, 128)
	h, err := a.Allocate(16)
	require.NoError(t, err)
	require.NoError(t, a.Free(h))

	require.ErrorIs(t, a.Free(h), errs.ErrUseAfterFree)
	require.ErrorIs(t, a.Write(h, []byte{1}), errs.ErrUseAfterFree)
	_, err = a.Read(h, 1)
	require.ErrorIs(t, err, errs.ErrUseAfterFree)
	require.False(t, a.Live(h))

	t.Run("Stale handle after address reuse", func(t *testing.T) {
		h2, err := a.Allocate(16)
		require.NoError(t, err)
		require.Equal(t, h.Addr(), h2.Addr())

		require.ErrorIs(t, a.Write(h, []byte{1}), errs.ErrUseAfterFree)
		require.ErrorIs(t, a.Free(h), errs.ErrUseAfterFree)
		require.True(t, a.Live(h2))
	})

	t.Run("Zero handle", func(t *testing.T) {
		require.ErrorIs(t, a.Free(Handle{}), errs.ErrUseAfterFree)
	})
}

func TestArena_Span(t *testing.T) {
	a := newTestArena(t, 128)
	h, err := a.Allocate(20)
	require.NoError(t, err)
	require.NoError(t, a.Write(h, []byte("0123456789")))

	span, err := a.Span(h.Addr())
	require.NoError(t, err)
	require.Len(t, span, 20)

	span, err = a.Span(h.Addr() + 4)
	require.NoError(t, err)
	require.Len(t, span, 16)
	require.Equal(t, byte('4'), span[0])

	_, err = a.Span(h.Addr() + 64)
	require.ErrorIs(t, err, errs.ErrUseAfterFree)
}

func TestArena_Memory(t *testing.T) {
	a := newTestArena(t, 128)
	mem := a.Memory()

	addr, err := mem.Allocate(10)
	require.NoError(t, err)
	require.NotZero(t, addr)
	require.Equal(t, 16, a.Occupancy())

	span, err := mem.Span(addr)
	require.NoError(t, err)
	require.Len(t, span, 10)

	require.NoError(t, mem.Free(addr))
	require.ErrorIs(t, mem.Free(addr), errs.ErrUseAfterFree)
	require.Equal(t, 0, a.Occupancy())
}

func TestArena_Stats(t *testing.T) {
	a := newTestArena(t, 128)
	h1, err := a.Allocate(10)
	require.NoError(t, err)
	_, err = a.Allocate(30)
	require.NoError(t, err)
	require.NoError(t, a.Free(h1))

	stats := a.Stats()
	require.Equal(t, 32, stats.Occupancy)
	require.Equal(t, 1, stats.Live)
	require.Equal(t, 48, stats.HighWater)
	require.Equal(t, 1, a.LiveCount())
}

func TestArena_Concurrent(t *testing.T) {
	a := newTestArena(t, 64*1024)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				scope := a.NewScope()
				h, err := scope.Allocate(100)
				if err != nil {
					t.Error(err)
					return
				}
				if err := a.Write(h, make([]byte, 100)); err != nil {
					t.Error(err)
				}
				if err := scope.Release(); err != nil {
					t.Error(err)
				}
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 0, a.Occupancy())
	require.Equal(t, 0, a.LiveCount())
}
