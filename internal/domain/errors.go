package domain

import "errors"

// Domain errors represent error conditions in the framecast domain.
// They are wrapped with context by adapters and checked with errors.Is.
var (
	// ErrQueueEmpty is returned by Dequeue when no entry is resident.
	ErrQueueEmpty = errors.New("framecast: queue empty")

	// ErrEntryUnreadable is returned by Dequeue when the oldest entry could not
	// be read in full. That single entry has been deleted.
	ErrEntryUnreadable = errors.New("framecast: entry unreadable")

	// ErrStorageCorrupted is returned by Enqueue when a write could not be
	// completed. Every entry has been erased.
	ErrStorageCorrupted = errors.New("framecast: storage corrupted")

	// ErrFrameSize is returned when a payload is not exactly FrameSize bytes.
	ErrFrameSize = errors.New("framecast: invalid frame size")

	// ErrNoConnectivity is returned when the network could not be brought up.
	ErrNoConnectivity = errors.New("framecast: no connectivity")

	// ErrSourceUnavailable is returned when the producer cannot supply a frame.
	ErrSourceUnavailable = errors.New("framecast: frame source unavailable")

	// ErrPartitionNotFound is returned when no declared partition matches.
	ErrPartitionNotFound = errors.New("framecast: partition not found")

	// ErrBootSelection is returned when the boot selection cannot be read or written.
	ErrBootSelection = errors.New("framecast: boot selection failed")

	// ErrRestart signals that the running image asked for a restart.
	// It is the normal way a work cycle or the selector stage ends.
	ErrRestart = errors.New("framecast: restart requested")

	// ErrBootFault is returned when a booted image ends in an unexpected way.
	ErrBootFault = errors.New("framecast: boot fault")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("framecast: invalid configuration")

	// ErrInvalidTransition is returned when a cycle phase change is not allowed.
	ErrInvalidTransition = errors.New("framecast: invalid phase transition")
)
