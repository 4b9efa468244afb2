package logctx

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	t.Run("Default is silent", func(t *testing.T) {
		logger := FromContext(context.Background())
		require.Equal(t, zerolog.Disabled, logger.GetLevel())
	})

	t.Run("Nil context", func(t *testing.T) {
		//nolint:staticcheck
		logger := FromContext(nil)
		require.Equal(t, zerolog.Disabled, logger.GetLevel())
	})

	t.Run("Injected logger", func(t *testing.T) {
		var buf bytes.Buffer
		ctx := WithLogger(context.Background(), zerolog.New(&buf))
		ctx = WithStr(ctx, "session_id", "abc")

		logger := FromContext(ctx)
		logger.Info().Msg("opened")

		require.Contains(t, buf.String(), `"session_id":"abc"`)
		require.Contains(t, buf.String(), `"message":"opened"`)
	})
}

func TestNewConfiguredLogger(t *testing.T) {
	require.Equal(t, zerolog.DebugLevel, NewConfiguredLogger(true, false).GetLevel())
	require.Equal(t, zerolog.InfoLevel, NewConfiguredLogger(false, true).GetLevel())
}
