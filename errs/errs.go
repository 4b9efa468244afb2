// Package errs defines the sentinel errors returned by lazbridge packages.
//
// Errors are wrapped with context using fmt.Errorf and the %w verb, so callers
// should always compare with errors.Is:
//
//	if errors.Is(err, errs.ErrInvalidHeader) {
//	    // bad input file
//	}
//
// Some failures belong to more than one class. For example, an unrecognized point
// format is both ErrUnsupportedFormat and ErrInvalidHeader, and a second Close is
// both ErrDoubleClose and ErrUseAfterFree. Stage collapses any error into the
// pipeline stage that produced it.
package errs

import "errors"

// Header errors.
var (
	// ErrInvalidHeader indicates the buffer is too short or the header is structurally inconsistent.
	ErrInvalidHeader = errors.New("invalid LAS header")
	// ErrUnsupportedFormat indicates an unrecognized or unsupported point data record format.
	ErrUnsupportedFormat = errors.New("unsupported point format")
)

// Arena errors.
var (
	// ErrAllocationFailure indicates the arena has no free block large enough.
	ErrAllocationFailure = errors.New("arena allocation failure")
	// ErrOutOfBounds indicates a copy exceeds the reserved size of a handle.
	ErrOutOfBounds = errors.New("out of bounds")
	// ErrInvalidSize indicates a zero or negative allocation size.
	ErrInvalidSize = errors.New("invalid allocation size")
	// ErrHandleShared indicates a handle is already owned by another scope.
	ErrHandleShared = errors.New("handle owned by another scope")
)

// Decode errors.
var (
	// ErrDecode indicates the engine rejected the compressed data.
	ErrDecode = errors.New("decode error")
	// ErrExhaustedStream indicates more points were requested than are available.
	ErrExhaustedStream = errors.New("point stream exhausted")
	// ErrInputMutated indicates the staged input changed while a session was open.
	ErrInputMutated = errors.New("input buffer mutated during session")
)

// Lifecycle errors.
var (
	// ErrUseAfterFree indicates a handle or session was used after it was released.
	ErrUseAfterFree = errors.New("use after free")
	// ErrDoubleClose indicates Close was called on an already closed session.
	ErrDoubleClose = errors.New("session already closed")
	// ErrSessionClosed indicates an operation on a closed session.
	ErrSessionClosed = errors.New("session closed")
	// ErrSessionFailed indicates an operation on a session that has already failed.
	ErrSessionFailed = errors.New("session failed")
	// ErrInvalidState indicates an operation that is not valid in the current session state.
	ErrInvalidState = errors.New("invalid session state")
)

// StageKind identifies the pipeline stage an error originated from.
type StageKind uint8

const (
	StageUnknown    StageKind = iota // StageUnknown is returned for nil or foreign errors.
	StageHeader                      // StageHeader means the input file is bad.
	StageAllocation                  // StageAllocation means the arena ran out of space.
	StageDecode                      // StageDecode means the engine rejected the compressed data.
	StageLifecycle                   // StageLifecycle means a programming error in buffer or session use.
)

func (s StageKind) String() string {
	switch s {
	case StageHeader:
		return "Header"
	case StageAllocation:
		return "Allocation"
	case StageDecode:
		return "Decode"
	case StageLifecycle:
		return "Lifecycle"
	default:
		return "Unknown"
	}
}

// Stage classifies err into the stage that produced it.
//
// Lifecycle errors take precedence, followed by allocation, header and decode
// errors. An engine failure caused by a malformed embedded header matches both
// ErrDecode and ErrInvalidHeader and is reported as StageHeader.
func Stage(err error) StageKind {
	switch {
	case err == nil:
		return StageUnknown
	case errors.Is(err, ErrUseAfterFree),
		errors.Is(err, ErrDoubleClose),
		errors.Is(err, ErrSessionClosed),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrHandleShared),
		errors.Is(err, ErrOutOfBounds),
		errors.Is(err, ErrExhaustedStream):
		return StageLifecycle
	case errors.Is(err, ErrAllocationFailure), errors.Is(err, ErrInvalidSize):
		return StageAllocation
	case errors.Is(err, ErrInvalidHeader), errors.Is(err, ErrUnsupportedFormat):
		return StageHeader
	case errors.Is(err, ErrDecode), errors.Is(err, ErrInputMutated), errors.Is(err, ErrSessionFailed):
		return StageDecode
	default:
		return StageUnknown
	}
}
