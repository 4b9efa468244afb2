package arena

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/arloliu/lazbridge/errs"
	"github.com/arloliu/lazbridge/internal/options"
)

const (
	// DefaultCapacity is the arena capacity used when WithCapacity is not given.
	DefaultCapacity = 16 * 1024 * 1024
	// DefaultAlignment is the allocation alignment used when WithAlignment is not given.
	DefaultAlignment = 8
)

type config struct {
	capacity  int
	alignment int
	logger    zerolog.Logger
}

// Option configures an Arena.
type Option = options.Option[*config]

// WithCapacity sets the number of usable bytes in the arena.
func WithCapacity(bytes int) Option {
	return options.New(func(c *config) error {
		if bytes <= 0 {
			return fmt.Errorf("%w: capacity %d", errs.ErrInvalidSize, bytes)
		}
		c.capacity = bytes

		return nil
	})
}

// WithAlignment sets the alignment of every allocation. It must be a power of two.
func WithAlignment(n int) Option {
	return options.New(func(c *config) error {
		if n <= 0 || n&(n-1) != 0 {
			return fmt.Errorf("%w: alignment %d is not a power of two", errs.ErrInvalidSize, n)
		}
		c.alignment = n

		return nil
	})
}

// WithLogger sets the logger used for allocation failures and leak reports.
func WithLogger(l zerolog.Logger) Option {
	return options.NoError(func(c *config) {
		c.logger = l
	})
}
