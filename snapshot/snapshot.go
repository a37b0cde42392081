package snapshot

import "time"

// Snapshot is a checkpoint of the stack contents.
type Snapshot struct {
	// Seq is the highest item ID issued when the checkpoint was taken.
	Seq uint64
	// Segment is the first journal segment not covered by the checkpoint.
	Segment int
	Created time.Time
	// Items from top to bottom.
	Items []Entry
}

type Entry struct {
	ID      uint64
	Payload []byte
}
