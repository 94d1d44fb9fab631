package ports

import "github.com/bft-labs/framecast/internal/domain"

// FrameStore is a durable FIFO of fixed-size frames.
//
// Implementations own the next-sequence counter. It starts unset, is derived
// from storage on the first Enqueue, and is cleared by PurgeAll and by
// HasEntries returning false.
type FrameStore interface {
	// HasEntries reports whether at least one entry is resident.
	HasEntries() bool

	// HasCapacityForOneMore reports whether free space exceeds one frame plus
	// the safety headroom.
	HasCapacityForOneMore() bool

	// Enqueue persists frame under the next sequence number and returns it.
	// A failed write erases every entry and wraps domain.ErrStorageCorrupted.
	Enqueue(frame domain.Frame) (uint64, error)

	// Dequeue reads and deletes the entry with the smallest sequence number.
	// It wraps domain.ErrQueueEmpty or domain.ErrEntryUnreadable on failure.
	Dequeue() (domain.Entry, error)

	// PurgeAll erases every entry and resets the sequence counter.
	PurgeAll() error

	// Len returns the number of resident entries.
	Len() int
}
