// Package snapshot stores checkpoints of the stack contents.
//
// A checkpoint records the items still on the stack together with the
// journal segment it was taken at. Recovery loads the checkpoint and
// replays only the journal segments from that point on, so older
// segments can be compacted away.
//
// Checkpoints are taken when the stack is quiescent (at shutdown); a
// checkpoint taken under traffic would only be weakly consistent.
package snapshot
