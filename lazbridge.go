// Package lazbridge decodes LAS and LAZ point clouds through an engine that lives
// behind a foreign memory boundary.
//
// The engine never sees host byte slices. Input is staged into an arena, the
// engine decodes one point at a time into an arena-owned output record, and the
// host reads the record back out. Every buffer crossing the boundary is released
// exactly once on every exit path.
//
// # Basic Usage
//
// Decoding a whole file:
//
//	err := lazbridge.DecodeFile(ctx, data, func(i uint64, r pointview.Record) error {
//	    x, y, z := r.Coordinate()
//	    fmt.Printf("%d: %.2f %.2f %.2f\n", i, x, y, z)
//	    return nil
//	})
//
// Decoding chunks independently, for example on separate goroutines:
//
//	h, _ := lazbridge.ParseHeader(data)
//	chunks, _ := lazbridge.ReadChunkTable(data)
//	for _, c := range chunks {
//	    err := lazbridge.DecodeChunk(ctx, data[c.Offset:], uint8(h.PointFormat),
//	        h.PointRecordLength, c.Count, &h, fn)
//	    ...
//	}
//
// The Record handed to the callback is only valid during the call. Copy Raw to
// keep a point.
//
// # Package Structure
//
// This package wraps the arena, session and engine packages for the common case.
// Use the session package directly for manual lifecycle control, for example to
// reuse a session-owned input handle or to interleave several sessions.
package lazbridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/arloliu/lazbridge/arena"
	"github.com/arloliu/lazbridge/compress"
	"github.com/arloliu/lazbridge/engine/native"
	"github.com/arloliu/lazbridge/errs"
	"github.com/arloliu/lazbridge/format"
	"github.com/arloliu/lazbridge/internal/logctx"
	"github.com/arloliu/lazbridge/internal/options"
	"github.com/arloliu/lazbridge/internal/pool"
	"github.com/arloliu/lazbridge/pointview"
	"github.com/arloliu/lazbridge/section"
	"github.com/arloliu/lazbridge/session"
)

// PointFunc receives each decoded point in order. Returning an error stops decoding.
type PointFunc func(index uint64, r pointview.Record) error

// pointSource is the part of a session the decode loop drives.
type pointSource interface {
	AllocateOutput() (arena.Handle, error)
	NextPoint(out arena.Handle) error
}

// ParseHeader parses the public header block at the start of data.
//
// Returns:
//   - section.Header: The parsed header
//   - error: ErrInvalidHeader for a short or inconsistent header, ErrUnsupportedFormat
//     for an unknown point format
func ParseHeader(data []byte) (section.Header, error) {
	return section.ParseHeader(data)
}

// ReadChunkTable returns the point count and absolute byte offset of every chunk
// in a compressed LAZ file.
//
// The offsets index data directly: data[c.Offset:] is the input DecodeChunk expects.
func ReadChunkTable(data []byte) ([]section.ChunkEntry, error) {
	return native.ReadChunkTable(data)
}

// DecodeFile decodes every point of a LAS or LAZ file.
//
// The context is checked before each point. Cancellation returns ctx.Err() after
// the session has been closed.
//
// Parameters:
//   - ctx: Cancellation and, through logctx, the default logger
//   - data: Complete file bytes, wrapped when WithInputCompression is given
//   - fn: Called once per point, in file order
//   - opts: WithArena, WithArenaCapacity, WithEngine, WithLogger, WithInputCompression,
//     WithInputChecksum
func DecodeFile(ctx context.Context, data []byte, fn PointFunc, opts ...Option) (err error) {
	cfg, err := newConfig(ctx, opts)
	if err != nil {
		return err
	}

	raw, err := unwrapInput(data, cfg)
	if err != nil {
		return err
	}

	h, err := section.ParseHeader(raw)
	if err != nil {
		return err
	}

	a, err := cfg.arenaFor(len(raw))
	if err != nil {
		return err
	}

	s, err := session.NewFileSession(a, cfg.engine, cfg.sessionOptions()...)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, s.Close())
	}()

	in, err := s.Stage(raw)
	if err != nil {
		return err
	}
	if err := s.Open(in, len(raw)); err != nil {
		return err
	}

	cfg.logger.Debug().
		Stringer("session", s.ID()).
		Uint64("count", s.Count()).
		Uint8("format", s.PointFormat()).
		Msg("decoding file")

	return drain(ctx, a, s, s.Count(), int(s.PointRecordLength()), &h, fn)
}

// DecodeChunk decodes count points from a single compressed chunk.
//
// Parameters:
//   - ctx: Cancellation and, through logctx, the default logger
//   - chunk: Compressed chunk bytes, starting at the chunk's raw first point
//   - pointFormat, recordLength: Geometry of the file the chunk came from
//   - count: Points in the chunk, usually from ReadChunkTable
//   - h: Header used to interpret the records. When nil, records carry
//     pointview.UnitHeader of the chunk geometry and Coordinate returns raw values
//   - fn: Called once per point, in chunk order
//   - opts: Same as DecodeFile
func DecodeChunk(ctx context.Context, chunk []byte, pointFormat uint8, recordLength uint16,
	count uint64, h *section.Header, fn PointFunc, opts ...Option,
) (err error) {
	cfg, err := newConfig(ctx, opts)
	if err != nil {
		return err
	}

	raw, err := unwrapInput(chunk, cfg)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return fmt.Errorf("%w: empty chunk", errs.ErrInvalidSize)
	}

	a, err := cfg.arenaFor(len(raw))
	if err != nil {
		return err
	}

	sopts := append(cfg.sessionOptions(), session.WithPointLimit(count))
	s, err := session.NewChunkSession(a, cfg.engine, sopts...)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, s.Close())
	}()

	in, err := s.Stage(raw)
	if err != nil {
		return err
	}
	if err := s.Open(pointFormat, recordLength, in); err != nil {
		return err
	}

	if h == nil {
		h = pointview.UnitHeader(format.PointFormat(pointFormat), recordLength)
	}

	return drain(ctx, a, s, count, int(recordLength), h, fn)
}

// drain pulls count points out of src and hands a host-side snapshot of each to fn.
func drain(ctx context.Context, a *arena.Arena, src pointSource, count uint64, recordLen int,
	h *section.Header, fn PointFunc,
) error {
	out, err := src.AllocateOutput()
	if err != nil {
		return err
	}

	buf := pool.GetRecordBuffer()
	defer pool.PutRecordBuffer(buf)
	rec := buf.Resize(recordLen)

	for i := range count {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := src.NextPoint(out); err != nil {
			return err
		}
		if _, err := a.ReadInto(out, rec); err != nil {
			return fmt.Errorf("read point %d: %w", i, err)
		}
		if err := fn(i, pointview.New(rec, h)); err != nil {
			return err
		}
	}

	return nil
}

func newConfig(ctx context.Context, opts []Option) (*config, error) {
	cfg := &config{inputCompression: format.CompressionNone}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	if !cfg.hasLogger {
		cfg.logger = logctx.FromContext(ctx)
	}
	if cfg.engine == nil {
		cfg.engine = native.New(native.WithLogger(cfg.logger))
	}

	return cfg, nil
}

func (c *config) sessionOptions() []session.Option {
	opts := []session.Option{session.WithLogger(c.logger)}
	if c.checksum {
		opts = append(opts, session.WithInputChecksum())
	}

	return opts
}

// arenaFor returns the configured arena, or a new one with room for inputLen bytes.
func (c *config) arenaFor(inputLen int) (*arena.Arena, error) {
	if c.arena != nil {
		return c.arena, nil
	}

	capacity := c.capacity
	if capacity == 0 {
		capacity = inputLen + arenaSlack
	}

	return arena.New(arena.WithCapacity(capacity), arena.WithLogger(c.logger))
}

func unwrapInput(data []byte, cfg *config) ([]byte, error) {
	if cfg.inputCompression == format.CompressionNone {
		return data, nil
	}

	codec, err := compress.CreateCodec(cfg.inputCompression, "input")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidHeader, err)
	}

	raw, err := codec.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("%w: unwrap %s input: %w", errs.ErrInvalidHeader, cfg.inputCompression, err)
	}

	cfg.logger.Debug().
		Stringer("codec", cfg.inputCompression).
		Int("wrapped", len(data)).
		Int("raw", len(raw)).
		Msg("input unwrapped")

	return raw, nil
}
