package session

import (
	"fmt"

	"github.com/arloliu/lazbridge/arena"
	"github.com/arloliu/lazbridge/engine"
	"github.com/arloliu/lazbridge/errs"
)

// FileSession decodes a complete LAS or LAZ file staged in an arena.
//
// Typical use:
//
//	s, _ := session.NewFileSession(a, native.New())
//	defer s.Close()
//	in, _ := s.Stage(data)
//	_ = s.Open(in, len(data))
//	out, _ := s.AllocateOutput()
//	for range s.Count() {
//	    _ = s.NextPoint(out)
//	}
type FileSession struct {
	lifecycle
	eng engine.Engine
	dec engine.FileDecoder

	count       uint64
	pointFormat uint8
	recordLen   uint16
}

// NewFileSession creates a session in the Created state.
//
// Parameters:
//   - a: Arena holding input and output buffers
//   - eng: Engine that decodes the file
//   - opts: WithLogger, WithInputChecksum
func NewFileSession(a *arena.Arena, eng engine.Engine, opts ...Option) (*FileSession, error) {
	if eng == nil {
		return nil, fmt.Errorf("%w: nil engine", errs.ErrInvalidState)
	}

	l, err := newLifecycle(a, "file", opts)
	if err != nil {
		return nil, err
	}

	return &FileSession{lifecycle: l, eng: eng}, nil
}

// Open adopts input and opens the engine decoder on its first length bytes.
//
// Returns:
//   - error: ErrOutOfBounds when length exceeds the handle, ErrHandleShared when another
//     scope owns input, ErrDecode (state Failed) when the engine rejects the file
func (s *FileSession) Open(input arena.Handle, length int) error {
	if err := s.usable("open", StateCreated); err != nil {
		return err
	}

	if err := s.adoptInput(input, length); err != nil {
		return fmt.Errorf("open: %w", err)
	}

	dec := s.eng.NewFileDecoder(s.arena.Memory())
	if err := dec.Open(input.Addr(), length); err != nil {
		dec.Delete()
		return s.fail("open", err)
	}

	s.dec = dec
	s.count = dec.Count()
	s.pointFormat = dec.PointFormat()
	s.recordLen = dec.PointLength()
	s.state = StateOpen

	s.logger.Debug().
		Str("engine", s.eng.Name()).
		Uint64("count", s.count).
		Uint8("format", s.pointFormat).
		Uint16("record_length", s.recordLen).
		Msg("file session opened")

	return nil
}

// Count returns the number of points in the file, or 0 before Open.
func (s *FileSession) Count() uint64 {
	return s.count
}

// PointFormat returns the point data record format, or 0 before Open.
func (s *FileSession) PointFormat() uint8 {
	return s.pointFormat
}

// PointRecordLength returns the record length in bytes, or 0 before Open.
func (s *FileSession) PointRecordLength() uint16 {
	return s.recordLen
}

// AllocateOutput reserves a session-owned handle that holds one point record.
func (s *FileSession) AllocateOutput() (arena.Handle, error) {
	return s.allocateOutput(int(s.recordLen))
}

// NextPoint decodes the next point into out.
//
// Returns:
//   - error: ErrExhaustedStream after Count points (the session stays Open),
//     ErrOutOfBounds for a short out, ErrDecode (state Failed) on engine failure
func (s *FileSession) NextPoint(out arena.Handle) error {
	if err := s.usable("next point", StateOpen); err != nil {
		return err
	}

	if s.position >= s.count {
		return fmt.Errorf("next point: %w: %d of %d points read", errs.ErrExhaustedStream, s.position, s.count)
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
func (s *FileSession) Close() error {
	return s.close(func() {
		if s.dec != nil {
			s.dec.Delete()
			s.dec = nil
		}
	})
}
