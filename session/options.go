package session

import (
	"github.com/rs/zerolog"

	"github.com/arloliu/lazbridge/internal/options"
)

type config struct {
	logger     zerolog.Logger
	checksum   bool
	pointLimit uint64
	limited    bool
}

func newConfig(opts []Option) (*config, error) {
	cfg := &config{logger: zerolog.Nop()}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Option configures a session.
type Option = options.Option[*config]

// WithLogger sets the session logger. Every entry carries the session id.
func WithLogger(l zerolog.Logger) Option {
	return options.NoError(func(c *config) {
		c.logger = l
	})
}

// WithInputChecksum records the xxHash64 of the input at Open and verifies it at Close.
//
// A mismatch makes Close return ErrInputMutated. The buffers are released regardless.
func WithInputChecksum() Option {
	return options.NoError(func(c *config) {
		c.checksum = true
	})
}

// WithPointLimit caps the number of points a ChunkSession hands out.
//
// The count usually comes from the chunk table. Reading past it fails with
// ErrExhaustedStream instead of running the engine off the end of the chunk.
// FileSession ignores it.
func WithPointLimit(n uint64) Option {
	return options.NoError(func(c *config) {
		c.pointLimit = n
		c.limited = true
	})
}
