package engine

import "github.com/oklog/ulid/v2"

// Phase tags which half of a block step an event reports.
type Phase string

const (
	PhaseRead    Phase = "read"
	PhaseWrite   Phase = "write"
	PhaseCompare Phase = "compare"
)

// Event is one observable progress step. Backup and Restore emit a read event
// and then a write event per block; Check emits a read event and then a
// compare event per block.
type Event struct {
	Session ulid.ULID
	Op      Op
	Phase   Phase
	// Block is the zero-based index of the block just processed.
	Block int64
	// Blocks is the total block count for the session.
	Blocks int64
	// Bytes is the cumulative byte count on this phase's side of the
	// transfer.
	Bytes int64
}

// ProgressFunc receives events synchronously from the transfer loop, in
// block order. An implementation that wants to render elsewhere should hand
// the event off without blocking.
type ProgressFunc func(Event)
