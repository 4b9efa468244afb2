// Package session drives engine decoders through a strict lifecycle.
//
// A session owns every arena handle it stages, allocates or adopts and frees all
// of them on Close, on every exit path. Its state moves one way:
//
//	Created ──Open──▶ Open ──Close──▶ Closed
//	   │                │
//	   │ engine error   │ engine error
//	   ▼                ▼
//	 Failed ─────Close─────▶ Closed
//
// From Failed every call except Close returns the recorded failure without
// reaching the engine. Close succeeds once. A second Close fails with
// ErrDoubleClose, and any other call after Close fails with ErrSessionClosed.
// Both also match ErrUseAfterFree.
//
// Sessions are NOT thread-safe and are NOT reusable. Independent sessions may
// share one arena from different goroutines.
package session
