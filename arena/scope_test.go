package arena

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/lazbridge/errs"
)

func TestScope_Release(t *testing.T) {
	a := newTestArena(t, 1024)
	start := a.Occupancy()

	for range 10 {
		scope := a.NewScope()
		in, err := scope.Stage([]byte("LASF header bytes"))
		require.NoError(t, err)
		_, err = scope.Allocate(34)
		require.NoError(t, err)
		require.Equal(t, 2, scope.Len())

		got, err := a.Read(in, 4)
		require.NoError(t, err)
		require.Equal(t, []byte("LASF"), got)

		require.NoError(t, scope.Release())
		require.NoError(t, scope.Release())
		require.False(t, a.Live(in))
	}

	require.Equal(t, start, a.Occupancy())
}

func TestScope_Adopt(t *testing.T) {
	a := newTestArena(t, 1024)

	h, err := a.Allocate(16)
	require.NoError(t, err)

	first := a.NewScope()
	second := a.NewScope()

	require.NoError(t, first.Adopt(h))
	require.NoError(t, first.Adopt(h))
	require.True(t, first.Owns(h))
	require.Equal(t, 1, first.Len())

	err = second.Adopt(h)
	require.ErrorIs(t, err, errs.ErrHandleShared)
	require.False(t, second.Owns(h))

	require.NoError(t, second.Release())
	require.True(t, a.Live(h))

	require.NoError(t, first.Release())
	require.False(t, a.Live(h))

	t.Run("Stale handle", func(t *testing.T) {
		s := a.NewScope()
		require.ErrorIs(t, s.Adopt(h), errs.ErrUseAfterFree)
	})
}

func TestScope_SkipsHandlesFreedElsewhere(t *testing.T) {
	a := newTestArena(t, 1024)
	scope := a.NewScope()

	h, err := scope.Allocate(8)
	require.NoError(t, err)
	require.NoError(t, a.Free(h))

	require.NoError(t, scope.Release())
	require.Equal(t, 0, a.Occupancy())
}

func TestScope_UseAfterRelease(t *testing.T) {
	a := newTestArena(t, 1024)
	scope := a.NewScope()
	require.NoError(t, scope.Release())

	_, err := scope.Allocate(8)
	require.ErrorIs(t, err, errs.ErrUseAfterFree)

	_, err = scope.Stage([]byte{1})
	require.ErrorIs(t, err, errs.ErrUseAfterFree)

	h, err := a.Allocate(8)
	require.NoError(t, err)
	require.ErrorIs(t, scope.Adopt(h), errs.ErrUseAfterFree)
	require.Same(t, a, scope.Arena())
}

func TestScope_StageEmpty(t *testing.T) {
	a := newTestArena(t, 64)
	scope := a.NewScope()
	defer scope.Release()

	_, err := scope.Stage(nil)
	require.ErrorIs(t, err, errs.ErrInvalidSize)
}
