package arena

import (
	"errors"
	"fmt"

	"github.com/arloliu/lazbridge/errs"
)

// Scope owns a set of handles and frees them together.
//
// A Scope is NOT thread-safe. It belongs to the single session or call that created it.
type Scope struct {
	a        *Arena
	id       uint64
	handles  []Handle
	released bool
}

// NewScope creates an empty scope on a.
func (a *Arena) NewScope() *Scope {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.scopeSeq++

	return &Scope{a: a, id: a.scopeSeq}
}

// Arena returns the arena the scope allocates from.
func (s *Scope) Arena() *Arena {
	return s.a
}

// Allocate reserves size zeroed bytes owned by the scope.
func (s *Scope) Allocate(size int) (Handle, error) {
	if s.released {
		return Handle{}, fmt.Errorf("%w: scope released", errs.ErrUseAfterFree)
	}

	s.a.mu.Lock()
	h, err := s.a.allocateLocked(size, s.id)
	s.a.mu.Unlock()
	if err != nil {
		return Handle{}, err
	}

	s.handles = append(s.handles, h)

	return h, nil
}

// Stage allocates a region owned by the scope and copies b into it.
func (s *Scope) Stage(b []byte) (Handle, error) {
	h, err := s.Allocate(len(b))
	if err != nil {
		return Handle{}, err
	}

	if err := s.a.Write(h, b); err != nil {
		return Handle{}, err
	}

	return h, nil
}

// Adopt claims ownership of h.
//
// Adopting a handle the scope already owns is a no-op.
//
// Returns:
//   - error: ErrUseAfterFree for a stale handle, ErrHandleShared when another scope owns h
func (s *Scope) Adopt(h Handle) error {
	if s.released {
		return fmt.Errorf("%w: scope released", errs.ErrUseAfterFree)
	}

	s.a.mu.Lock()
	defer s.a.mu.Unlock()

	alloc, err := s.a.lookupLocked(h)
	if err != nil {
		return err
	}

	switch alloc.owner {
	case s.id:
		return nil
	case 0:
		alloc.owner = s.id
		s.handles = append(s.handles, h)

		return nil
	default:
		return fmt.Errorf("%w: handle %#x", errs.ErrHandleShared, h.addr)
	}
}

// Owns reports whether h is live and owned by the scope.
func (s *Scope) Owns(h Handle) bool {
	s.a.mu.Lock()
	defer s.a.mu.Unlock()

	alloc, err := s.a.lookupLocked(h)

	return err == nil && alloc.owner == s.id
}

// Len returns the number of live handles the scope owns.
func (s *Scope) Len() int {
	n := 0
	for _, h := range s.handles {
		if s.Owns(h) {
			n++
		}
	}

	return n
}

// Release frees every live handle the scope owns.
//
// Handles already freed through the arena are skipped. Calling Release again is a no-op.
func (s *Scope) Release() error {
	if s.released {
		return nil
	}
	s.released = true

	s.a.mu.Lock()
	defer s.a.mu.Unlock()

	var errList []error
	freed := 0
	for _, h := range s.handles {
		alloc, err := s.a.lookupLocked(h)
		if err != nil {
			continue
		}
		if alloc.owner != s.id {
			errList = append(errList, fmt.Errorf("%w: handle %#x changed owner", errs.ErrHandleShared, h.addr))
			continue
		}

		s.a.freeLocked(h.addr)
		freed++
	}
	s.handles = nil

	s.a.logger.Debug().
		Uint64("scope", s.id).
		Int("freed", freed).
		Int("occupancy", s.a.occupancy).
		Msg("scope released")

	return errors.Join(errList...)
}
