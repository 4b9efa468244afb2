package session

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arloliu/lazbridge/arena"
	"github.com/arloliu/lazbridge/errs"
	"github.com/arloliu/lazbridge/internal/hash"
)

// lifecycle is the state machine and buffer ownership shared by both session kinds.
type lifecycle struct {
	id     uuid.UUID
	arena  *arena.Arena
	scope  *arena.Scope
	cfg    *config
	logger zerolog.Logger

	state   State
	failure error

	input    arena.Handle
	inputLen int
	inputSum uint64

	position uint64
}

func newLifecycle(a *arena.Arena, kind string, opts []Option) (lifecycle, error) {
	if a == nil {
		return lifecycle{}, fmt.Errorf("%w: nil arena", errs.ErrInvalidState)
	}

	cfg, err := newConfig(opts)
	if err != nil {
		return lifecycle{}, err
	}

	id := uuid.New()

	return lifecycle{
		id:     id,
		arena:  a,
		scope:  a.NewScope(),
		cfg:    cfg,
		logger: cfg.logger.With().Str("session", id.String()).Str("kind", kind).Logger(),
		state:  StateCreated,
	}, nil
}

// ID returns the session id that tags every log entry.
func (l *lifecycle) ID() uuid.UUID {
	return l.id
}

// State returns the current lifecycle state.
func (l *lifecycle) State() State {
	return l.state
}

// Position returns the number of points decoded so far.
func (l *lifecycle) Position() uint64 {
	return l.position
}

// Err returns the failure recorded when the session entered Failed, or nil.
func (l *lifecycle) Err() error {
	return l.failure
}

// usable returns the error for calling op in the current state, or nil when the
// session is in one of the allowed states.
func (l *lifecycle) usable(op string, allowed ...State) error {
	switch l.state {
	case StateClosed:
		return fmt.Errorf("%s: %w: %w", op, errs.ErrSessionClosed, errs.ErrUseAfterFree)
	case StateFailed:
		return fmt.Errorf("%s: %w: %w", op, errs.ErrSessionFailed, l.failure)
	}

	for _, s := range allowed {
		if l.state == s {
			return nil
		}
	}

	return fmt.Errorf("%s: %w: session is %s", op, errs.ErrInvalidState, l.state)
}

// fail moves the session to Failed and records err.
func (l *lifecycle) fail(op string, err error) error {
	if !errors.Is(err, errs.ErrDecode) {
		err = fmt.Errorf("%w: %w", errs.ErrDecode, err)
	}
	err = fmt.Errorf("%s: %w", op, err)

	l.state = StateFailed
	l.failure = err

	l.logger.Warn().
		Err(err).
		Uint64("position", l.position).
		Str("stage", errs.Stage(err).String()).
		Msg("session failed")

	return err
}

// Stage copies data into a session-owned handle.
func (l *lifecycle) Stage(data []byte) (arena.Handle, error) {
	if err := l.usable("stage", StateCreated, StateOpen); err != nil {
		return arena.Handle{}, err
	}

	h, err := l.scope.Stage(data)
	if err != nil {
		return arena.Handle{}, fmt.Errorf("stage %d bytes: %w", len(data), err)
	}

	return h, nil
}

// adoptInput claims input and remembers the first length bytes as the session input.
func (l *lifecycle) adoptInput(input arena.Handle, length int) error {
	if length <= 0 {
		return fmt.Errorf("%w: input length %d", errs.ErrInvalidSize, length)
	}
	if !l.arena.Live(input) {
		return fmt.Errorf("%w: input handle", errs.ErrUseAfterFree)
	}
	if length > input.Size() {
		return fmt.Errorf("%w: input length %d exceeds the %d byte handle", errs.ErrOutOfBounds, length, input.Size())
	}

	if err := l.scope.Adopt(input); err != nil {
		return fmt.Errorf("adopt input: %w", err)
	}

	l.input = input
	l.inputLen = length

	if l.cfg.checksum {
		b, err := l.arena.Bytes(input)
		if err != nil {
			return err
		}
		l.inputSum = hash.Checksum(b[:length])
	}

	return nil
}

// allocateOutput reserves a record-sized handle owned by the session.
func (l *lifecycle) allocateOutput(recordLen int) (arena.Handle, error) {
	if err := l.usable("allocate output", StateOpen); err != nil {
		return arena.Handle{}, err
	}

	h, err := l.scope.Allocate(recordLen)
	if err != nil {
		return arena.Handle{}, fmt.Errorf("allocate output: %w", err)
	}

	return h, nil
}

// checkOutput verifies that out can hold one record and claims it for the session.
//
// An unowned handle is adopted and freed at Close. A handle owned by another
// scope fails with ErrHandleShared.
func (l *lifecycle) checkOutput(out arena.Handle, recordLen int) error {
	if !l.arena.Live(out) {
		return fmt.Errorf("%w: output handle", errs.ErrUseAfterFree)
	}
	if out.Size() < recordLen {
		return fmt.Errorf("%w: output handle %d bytes, record %d bytes", errs.ErrOutOfBounds, out.Size(), recordLen)
	}

	if err := l.scope.Adopt(out); err != nil {
		return fmt.Errorf("adopt output: %w", err)
	}

	return nil
}

// close runs release, verifies the input checksum and frees every owned handle.
func (l *lifecycle) close(release func()) error {
	if l.state == StateClosed {
		return fmt.Errorf("close: %w: %w", errs.ErrDoubleClose, errs.ErrUseAfterFree)
	}

	release()

	var errList []error
	if l.cfg.checksum && !l.input.IsZero() {
		b, err := l.arena.Bytes(l.input)
		switch {
		case err != nil:
			errList = append(errList, fmt.Errorf("%w: input handle freed: %w", errs.ErrInputMutated, err))
		case hash.Checksum(b[:l.inputLen]) != l.inputSum:
			errList = append(errList, fmt.Errorf("%w: checksum changed", errs.ErrInputMutated))
		}
	}

	if err := l.scope.Release(); err != nil {
		errList = append(errList, err)
	}

	prev := l.state
	l.state = StateClosed

	l.logger.Debug().
		Str("from", prev.String()).
		Uint64("points", l.position).
		Int("occupancy", l.arena.Occupancy()).
		Msg("session closed")

	return errors.Join(errList...)
}
