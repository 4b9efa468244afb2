// Package arena implements the foreign memory region shared with a decode engine.
//
// An Arena is a fixed-capacity linear byte region. Allocations are handed out
// as Handles: an address, a size and a generation number. Freeing a handle
// tombstones it, so every later use of the same handle fails with
// errs.ErrUseAfterFree even after its address has been reused by a newer
// allocation.
//
// Scopes group the handles of one owner and release them together:
//
//	scope := a.NewScope()
//	defer scope.Release()
//
//	in, err := scope.Stage(fileBytes)
//	...
//
// The arena guards its allocator with a mutex and may be shared by sessions on
// different goroutines. Each handle still has exactly one owner.
package arena

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/arloliu/lazbridge/engine"
	"github.com/arloliu/lazbridge/errs"
	"github.com/arloliu/lazbridge/internal/options"
)

// Handle identifies one allocation in an Arena.
//
// The zero Handle is never valid.
type Handle struct {
	addr uint64
	size int
	gen  uint64
}

// Addr returns the address of the allocation.
func (h Handle) Addr() uint64 { return h.addr }

// Size returns the number of bytes requested for the allocation.
func (h Handle) Size() int { return h.size }

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool { return h.addr == 0 }

// Stats is a snapshot of arena usage.
type Stats struct {
	Capacity  int // usable bytes
	Occupancy int // bytes reserved by live allocations, alignment padding included
	Live      int // live allocations
	HighWater int // highest Occupancy observed
}

type block struct {
	addr uint64
	size int
}

type allocation struct {
	size     int    // requested
	reserved int    // aligned
	gen      uint64 // generation of the live handle
	owner    uint64 // owning scope, 0 when unowned
}

// Arena is a fixed-capacity linear memory region with first-fit allocation.
type Arena struct {
	mu     sync.Mutex
	mem    []byte
	base   uint64
	align  int
	free   []block // sorted by addr, never adjacent
	allocs map[uint64]*allocation

	gen       uint64
	scopeSeq  uint64
	occupancy int
	highWater int
	capacity  int

	logger zerolog.Logger
}

// New creates an arena.
//
// Parameters:
//   - opts: WithCapacity, WithAlignment, WithLogger
//
// Returns:
//   - *Arena: The arena, with all capacity free
//   - error: ErrInvalidSize for a bad capacity or alignment
func New(opts ...Option) (*Arena, error) {
	cfg := &config{
		capacity:  DefaultCapacity,
		alignment: DefaultAlignment,
		logger:    zerolog.Nop(),
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	capacity := alignUp(cfg.capacity, cfg.alignment)
	// The first alignment unit is never handed out, so address 0 stays invalid.
	base := uint64(cfg.alignment) //nolint:gosec

	return &Arena{
		mem:      make([]byte, int(base)+capacity),
		base:     base,
		align:    cfg.alignment,
		free:     []block{{addr: base, size: capacity}},
		allocs:   make(map[uint64]*allocation),
		capacity: capacity,
		logger:   cfg.logger,
	}, nil
}

// Allocate reserves size zeroed bytes.
//
// Returns:
//   - Handle: The new allocation, unowned
//   - error: ErrInvalidSize for size <= 0, ErrAllocationFailure when no free block fits
func (a *Arena) Allocate(size int) (Handle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.allocateLocked(size, 0)
}

// Write copies b into the allocation of h, starting at its first byte.
func (a *Arena) Write(h Handle, b []byte) error {
	return a.WriteAt(h, 0, b)
}

// WriteAt copies b into the allocation of h starting at byte off.
func (a *Arena) WriteAt(h Handle, off int, b []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := a.lookupLocked(h); err != nil {
		return err
	}
	if off < 0 || off+len(b) > h.size {
		return fmt.Errorf("%w: write of %d bytes at %d into %d byte allocation", errs.ErrOutOfBounds, len(b), off, h.size)
	}

	copy(a.mem[h.addr+uint64(off):], b) //nolint:gosec

	return nil
}

// Read returns a copy of the first n bytes of the allocation of h.
func (a *Arena) Read(h Handle, n int) ([]byte, error) {
	out := make([]byte, n)
	if _, err := a.ReadInto(h, out); err != nil {
		return nil, err
	}

	return out, nil
}

// ReadInto copies the first len(dst) bytes of the allocation of h into dst.
func (a *Arena) ReadInto(h Handle, dst []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := a.lookupLocked(h); err != nil {
		return 0, err
	}
	if len(dst) > h.size {
		return 0, fmt.Errorf("%w: read of %d bytes from %d byte allocation", errs.ErrOutOfBounds, len(dst), h.size)
	}

	return copy(dst, a.mem[h.addr:h.addr+uint64(len(dst))]), nil
}

// Bytes returns the live view of the allocation of h.
//
// The view aliases arena memory and is only valid until h is freed.
func (a *Arena) Bytes(h Handle) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := a.lookupLocked(h); err != nil {
		return nil, err
	}

	return a.mem[h.addr : h.addr+uint64(h.size) : h.addr+uint64(h.size)], nil //nolint:gosec
}

// Free releases the allocation of h. Every later use of h fails with ErrUseAfterFree.
func (a *Arena) Free(h Handle) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := a.lookupLocked(h); err != nil {
		return err
	}
	a.freeLocked(h.addr)

	return nil
}

// Live reports whether h refers to a live allocation.
func (a *Arena) Live(h Handle) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, err := a.lookupLocked(h)

	return err == nil
}

// Span returns the bytes from addr to the end of the allocation containing addr.
func (a *Arena) Span(addr uint64) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.spanLocked(addr)
}

// Occupancy returns the bytes reserved by live allocations.
func (a *Arena) Occupancy() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.occupancy
}

// LiveCount returns the number of live allocations.
func (a *Arena) LiveCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.allocs)
}

// Stats returns a snapshot of arena usage.
func (a *Arena) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	return Stats{
		Capacity:  a.capacity,
		Occupancy: a.occupancy,
		Live:      len(a.allocs),
		HighWater: a.highWater,
	}
}

// Memory returns the address-level view of the arena that engines consume.
func (a *Arena) Memory() engine.Memory {
	return memory{a: a}
}

func (a *Arena) allocateLocked(size int, owner uint64) (Handle, error) {
	if size <= 0 {
		return Handle{}, fmt.Errorf("%w: %d", errs.ErrInvalidSize, size)
	}

	reserved := alignUp(size, a.align)
	for i, b := range a.free {
		if b.size < reserved {
			continue
		}

		addr := b.addr
		if b.size == reserved {
			a.free = append(a.free[:i], a.free[i+1:]...)
		} else {
			a.free[i] = block{addr: b.addr + uint64(reserved), size: b.size - reserved} //nolint:gosec
		}

		clear(a.mem[addr : addr+uint64(reserved)]) //nolint:gosec

		a.gen++
		a.allocs[addr] = &allocation{size: size, reserved: reserved, gen: a.gen, owner: owner}
		a.occupancy += reserved
		a.highWater = max(a.highWater, a.occupancy)

		return Handle{addr: addr, size: size, gen: a.gen}, nil
	}

	a.logger.Debug().
		Int("size", size).
		Int("occupancy", a.occupancy).
		Int("capacity", a.capacity).
		Msg("arena allocation failed")

	return Handle{}, fmt.Errorf("%w: %d bytes requested, %d of %d bytes in use",
		errs.ErrAllocationFailure, size, a.occupancy, a.capacity)
}

func (a *Arena) lookupLocked(h Handle) (*allocation, error) {
	if h.IsZero() {
		return nil, fmt.Errorf("%w: zero handle", errs.ErrUseAfterFree)
	}

	alloc, ok := a.allocs[h.addr]
	if !ok || alloc.gen != h.gen {
		return nil, fmt.Errorf("%w: handle %#x generation %d", errs.ErrUseAfterFree, h.addr, h.gen)
	}

	return alloc, nil
}

func (a *Arena) freeLocked(addr uint64) {
	alloc := a.allocs[addr]
	delete(a.allocs, addr)
	a.occupancy -= alloc.reserved

	nb := block{addr: addr, size: alloc.reserved}
	i := sort.Search(len(a.free), func(i int) bool { return a.free[i].addr > addr })

	// coalesce with the following block
	if i < len(a.free) && nb.addr+uint64(nb.size) == a.free[i].addr { //nolint:gosec
		nb.size += a.free[i].size
		a.free = append(a.free[:i], a.free[i+1:]...)
	}
	// coalesce with the preceding block
	if i > 0 && a.free[i-1].addr+uint64(a.free[i-1].size) == nb.addr { //nolint:gosec
		a.free[i-1].size += nb.size
		return
	}

	a.free = append(a.free, block{})
	copy(a.free[i+1:], a.free[i:])
	a.free[i] = nb
}

func (a *Arena) spanLocked(addr uint64) ([]byte, error) {
	if alloc, ok := a.allocs[addr]; ok {
		return a.mem[addr : addr+uint64(alloc.size) : addr+uint64(alloc.size)], nil //nolint:gosec
	}

	for start, alloc := range a.allocs {
		end := start + uint64(alloc.size) //nolint:gosec
		if addr > start && addr < end {
			return a.mem[addr:end:end], nil
		}
	}

	return nil, fmt.Errorf("%w: address %#x is not inside a live allocation", errs.ErrUseAfterFree, addr)
}

func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

// memory adapts an Arena to engine.Memory.
type memory struct {
	a *Arena
}

var _ engine.Memory = memory{}

func (m memory) Allocate(size int) (uint64, error) {
	h, err := m.a.Allocate(size)
	if err != nil {
		return 0, err
	}

	return h.addr, nil
}

func (m memory) Free(addr uint64) error {
	m.a.mu.Lock()
	defer m.a.mu.Unlock()

	if _, ok := m.a.allocs[addr]; !ok {
		return fmt.Errorf("%w: address %#x", errs.ErrUseAfterFree, addr)
	}
	m.a.freeLocked(addr)

	return nil
}

func (m memory) Span(addr uint64) ([]byte, error) {
	return m.a.Span(addr)
}
