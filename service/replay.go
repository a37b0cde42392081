package service

import (
	"log"
	"sort"

	"github.com/cockroachdb/errors"

	entrywal "lifo/infra/wal/entry"
	"lifo/snapshot"
)

// ErrReplayConflict reports a journal that contradicts itself.
var ErrReplayConflict = errors.New("journal replay conflict")

/*
ReplayFromWAL rebuilds the stack from the push/pop journal.

IMPORTANT:
- This MUST run before accepting traffic
- The outbox is NOT replayed; the broadcaster resumes it on its own
- Items are re-pushed in ID order, so the oldest ends up at the bottom
*/
func ReplayFromWAL(walDir string, svc *StackService) error {
	return replay(walDir, nil, svc)
}

// Recover loads the checkpoint at snapshotPath, if any, and replays the
// journal segments written after it.
func Recover(walDir, snapshotPath string, svc *StackService) error {
	snap, err := snapshot.Load(snapshotPath)
	if err != nil {
		return err
	}
	return replay(walDir, snap, svc)
}

func replay(walDir string, snap *snapshot.Snapshot, svc *StackService) error {
	live := make(map[uint64][]byte)
	from := 0
	var floor uint64
	if snap != nil {
		for _, e := range snap.Items {
			live[e.ID] = e.Payload
		}
		from = snap.Segment
		floor = snap.Seq
	}

	lastSeq, err := entrywal.ReplayFrom(walDir, from, func(rec *entrywal.Record) error {
		switch rec.Type {
		case entrywal.RecordPush:
			if _, dup := live[rec.Seq]; dup {
				return errors.Wrapf(ErrReplayConflict, "duplicate push %d", rec.Seq)
			}
			live[rec.Seq] = rec.Data
		case entrywal.RecordPop:
			if _, ok := live[rec.Seq]; !ok {
				return errors.Wrapf(ErrReplayConflict, "pop of unknown item %d", rec.Seq)
			}
			delete(live, rec.Seq)
		}
		return nil
	})
	if err != nil {
		return err
	}

	ids := make([]uint64, 0, len(live))
	for id := range live {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		svc.stack.Push(Item{ID: id, Payload: live[id]})
	}

	// Resume sequencing AFTER replay
	svc.seq.Observe(floor)
	svc.seq.Observe(lastSeq)

	log.Printf("[service] journal replay complete: %d items restored from segment %d, last seq = %d",
		len(ids), from, svc.seq.Current())
	return nil
}
