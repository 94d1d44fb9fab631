package domain

import "time"

// CycleStatus summarises the most recent work cycle.
type CycleStatus struct {
	CycleID   string    `json:"cycle_id"`
	Partition string    `json:"partition,omitempty"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at,omitempty"`
	Wake      string    `json:"wake"`

	// DisplayedSeq is the sequence number of the frame on screen, -1 when the
	// cycle rendered nothing.
	DisplayedSeq   int64  `json:"displayed_seq"`
	FramesStored   int    `json:"frames_stored"`
	DequeueErrors  int    `json:"dequeue_errors"`
	Purges         int    `json:"purges"`
	QueueDepth     int    `json:"queue_depth"`
	LastError      string `json:"last_error,omitempty"`
	SuspendSeconds int64  `json:"suspend_seconds"`
}
