package session

import (
	"fmt"

	"github.com/arloliu/lazbridge/arena"
	"github.com/arloliu/lazbridge/engine"
	"github.com/arloliu/lazbridge/errs"
	"github.com/arloliu/lazbridge/format"
)

// ChunkSession decodes a single compressed chunk.
//
// The chunk carries no header, so the caller supplies the point geometry and,
// optionally, the number of points through WithPointLimit.
type ChunkSession struct {
	lifecycle
	eng engine.Engine
	dec engine.ChunkDecoder

	pointFormat uint8
	recordLen   uint16
}

// NewChunkSession creates a session in the Created state.
//
// Parameters:
//   - a: Arena holding input and output buffers
//   - eng: Engine that decodes the chunk
//   - opts: WithLogger, WithInputChecksum, WithPointLimit
func NewChunkSession(a *arena.Arena, eng engine.Engine, opts ...Option) (*ChunkSession, error) {
	if eng == nil {
		return nil, fmt.Errorf("%w: nil engine", errs.ErrInvalidState)
	}

	l, err := newLifecycle(a, "chunk", opts)
	if err != nil {
		return nil, err
	}

	return &ChunkSession{lifecycle: l, eng: eng}, nil
}

// Open adopts input and opens the engine chunk decoder.
//
// Parameters:
//   - pointFormat: Point data record format of the chunk
//   - recordLength: Point record length, including extra bytes
//   - input: Compressed chunk, starting at its raw first point
//
// Returns:
//   - error: ErrUnsupportedFormat for an unknown format, ErrInvalidHeader for a record
//     length below the format's base length, ErrDecode (state Failed) when the engine
//     rejects the chunk
func (s *ChunkSession) Open(pointFormat uint8, recordLength uint16, input arena.Handle) error {
	if err := s.usable("open", StateCreated); err != nil {
		return err
	}

	f := format.PointFormat(pointFormat)
	if !f.Valid() {
		return fmt.Errorf("open: %w: %w: point format %d", errs.ErrInvalidHeader, errs.ErrUnsupportedFormat, pointFormat)
	}
	if base := f.BaseRecordLength(); recordLength < base {
		return fmt.Errorf("open: %w: record length %d is shorter than %d for format %d",
			errs.ErrInvalidHeader, recordLength, base, pointFormat)
	}

	if err := s.adoptInput(input, input.Size()); err != nil {
		return fmt.Errorf("open: %w", err)
	}

	dec := s.eng.NewChunkDecoder(s.arena.Memory())
	if err := dec.Open(pointFormat, recordLength, input.Addr()); err != nil {
		dec.Delete()
		return s.fail("open", err)
	}

	s.dec = dec
	s.pointFormat = pointFormat
	s.recordLen = recordLength
	s.state = StateOpen

	ev := s.logger.Debug().
		Str("engine", s.eng.Name()).
		Uint8("format", pointFormat).
		Uint16("record_length", recordLength).
		Int("input_bytes", input.Size())
	if s.cfg.limited {
		ev = ev.Uint64("limit", s.cfg.pointLimit)
	}
	ev.Msg("chunk session opened")

	return nil
}

// PointFormat returns the point format given to Open.
func (s *ChunkSession) PointFormat() uint8 {
	return s.pointFormat
}

// PointRecordLength returns the record length given to Open.
func (s *ChunkSession) PointRecordLength() uint16 {
	return s.recordLen
}

// AllocateOutput reserves a session-owned handle that holds one point record.
func (s *ChunkSession) AllocateOutput() (arena.Handle, error) {
	return s.allocateOutput(int(s.recordLen))
}

// NextPoint decodes the next point of the chunk into out.
//
// Without a point limit the session cannot know where the chunk ends. Reading
// past the chunk data then fails with ErrDecode and the session enters Failed.
func (s *ChunkSession) NextPoint(out arena.Handle) error {
	if err := s.usable("next point", StateOpen); err != nil {
		return err
	}

	if s.cfg.limited && s.position >= s.cfg.pointLimit {
		return fmt.Errorf("next point: %w: limit of %d points reached", errs.ErrExhaustedStream, s.cfg.pointLimit)
	}

	if err := s.checkOutput(out, int(s.recordLen)); err != nil {
		return fmt.Errorf("next point: %w", err)
	}

	if err := s.dec.GetPoint(out.Addr()); err != nil {
		return s.fail(fmt.Sprintf("point %d", s.position), err)
	}
	s.position++

	return nil
}

// Close deletes the engine decoder and frees every handle the session owns.
func (s *ChunkSession) Close() error {
	return s.close(func() {
		if s.dec != nil {
			s.dec.Delete()
			s.dec = nil
		}
	})
}
