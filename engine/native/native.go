// Package native is the pure Go decompression engine behind the engine capability surface.
//
// It decodes LASzip pointwise-chunked files (compressor 2, item version 2) for point
// formats 0-3 with optional extra bytes, and serves uncompressed LAS point records
// verbatim. Layered LASzip (formats 6-10) is reported as ErrUnsupportedFormat.
//
// The engine only touches bytes through engine.Memory: every input and output is an
// address into host-managed memory.
package native

import (
	"github.com/rs/zerolog"

	"github.com/arloliu/lazbridge/engine"
	"github.com/arloliu/lazbridge/internal/options"
)

// Name is the engine name reported by Engine.Name.
const Name = "native"

type config struct {
	logger zerolog.Logger
}

// Option configures an Engine.
type Option = options.Option[*config]

// WithLogger sets the logger used for chunk transitions and decode failures.
func WithLogger(l zerolog.Logger) Option {
	return options.NoError(func(c *config) {
		c.logger = l
	})
}

// Engine creates native decoders. It holds no per-file state and is safe for concurrent use.
type Engine struct {
	logger zerolog.Logger
}

var _ engine.Engine = (*Engine)(nil)

// New creates a native engine.
func New(opts ...Option) *Engine {
	cfg := &config{logger: zerolog.Nop()}
	_ = options.Apply(cfg, opts...)

	return &Engine{logger: cfg.logger.With().Str("engine", Name).Logger()}
}

func (e *Engine) Name() string {
	return Name
}

// NewFileDecoder creates a whole-file decoder over mem.
func (e *Engine) NewFileDecoder(mem engine.Memory) engine.FileDecoder {
	return &fileDecoder{mem: mem, logger: e.logger}
}

// NewChunkDecoder creates a single-chunk decoder over mem.
func (e *Engine) NewChunkDecoder(mem engine.Memory) engine.ChunkDecoder {
	return &chunkDecoder{mem: mem}
}
