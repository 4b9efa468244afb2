package lazbridge

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/arloliu/lazbridge/arena"
	"github.com/arloliu/lazbridge/engine"
	"github.com/arloliu/lazbridge/errs"
	"github.com/arloliu/lazbridge/format"
	"github.com/arloliu/lazbridge/internal/options"
)

// arenaSlack covers alignment padding and the output record on top of the input size.
const arenaSlack = 64 * 1024

type config struct {
	arena            *arena.Arena
	capacity         int
	engine           engine.Engine
	logger           zerolog.Logger
	hasLogger        bool
	inputCompression format.CompressionType
	checksum         bool
}

// Option configures DecodeFile and DecodeChunk.
type Option = options.Option[*config]

// WithArena decodes inside an existing arena instead of creating one per call.
//
// The arena must have room for the input plus one point record. Sharing an
// arena between concurrent calls is allowed.
func WithArena(a *arena.Arena) Option {
	return options.New(func(c *config) error {
		if a == nil {
			return fmt.Errorf("%w: nil arena", errs.ErrInvalidState)
		}
		c.arena = a

		return nil
	})
}

// WithArenaCapacity sets the capacity of the arena created for the call.
//
// By default the arena is sized to the input. Ignored when WithArena is given.
func WithArenaCapacity(bytes int) Option {
	return options.New(func(c *config) error {
		if bytes <= 0 {
			return fmt.Errorf("%w: arena capacity %d", errs.ErrInvalidSize, bytes)
		}
		c.capacity = bytes

		return nil
	})
}

// WithEngine selects the decompression engine. The default is native.New().
func WithEngine(e engine.Engine) Option {
	return options.New(func(c *config) error {
		if e == nil {
			return fmt.Errorf("%w: nil engine", errs.ErrInvalidState)
		}
		c.engine = e

		return nil
	})
}

// WithLogger sets the logger. The default is the logger carried by the context.
func WithLogger(l zerolog.Logger) Option {
	return options.NoError(func(c *config) {
		c.logger = l
		c.hasLogger = true
	})
}

// WithInputCompression declares that the input buffer is wrapped with a
// general-purpose codec. The wrapper is removed before the bytes are staged.
func WithInputCompression(t format.CompressionType) Option {
	return options.NoError(func(c *config) {
		c.inputCompression = t
	})
}

// WithInputChecksum verifies that the staged input is unchanged when the session closes.
func WithInputChecksum() Option {
	return options.NoError(func(c *config) {
		c.checksum = true
	})
}
