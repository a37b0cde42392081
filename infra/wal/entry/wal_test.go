package entry

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
)

func TestWAL_AppendAndReplay(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(Config{Dir: dir})
	if err != nil {
		t.Fatalf("open wal: %v", err)
	}

	const n = 100
	for i := 1; i <= n; i++ {
		if err := w.Append(NewRecord(RecordPush, uint64(i), []byte(fmt.Sprintf("item-%d", i)))); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := w.Append(NewRecord(RecordPop, 7, nil)); err != nil {
		t.Fatalf("append pop: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var pushes, pops int
	last, err := Replay(dir, func(rec *Record) error {
		switch rec.Type {
		case RecordPush:
			pushes++
			if want := fmt.Sprintf("item-%d", rec.Seq); string(rec.Data) != want {
				t.Fatalf("payload %q, want %q", rec.Data, want)
			}
		case RecordPop:
			pops++
			if rec.Seq != 7 {
				t.Fatalf("pop seq %d, want 7", rec.Seq)
			}
		default:
			t.Fatalf("unexpected record type: %v", rec.Type)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if pushes != n || pops != 1 {
		t.Fatalf("replayed %d pushes / %d pops, want %d / 1", pushes, pops, n)
	}
	if last != n {
		t.Fatalf("last seq %d, want %d", last, n)
	}
}

func TestWAL_RotationKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(Config{Dir: dir, SegmentSize: 64})
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 20; i++ {
		if err := w.Append(NewRecord(RecordPush, uint64(i), []byte("0123456789"))); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	_ = w.Close()

	files, _ := filepath.Glob(filepath.Join(dir, segmentPattern))
	if len(files) < 2 {
		t.Fatalf("expected rotated segments, found %d", len(files))
	}

	var prev uint64
	if _, err := Replay(dir, func(rec *Record) error {
		if rec.Seq != prev+1 {
			t.Fatalf("replay out of order: %d after %d", rec.Seq, prev)
		}
		prev = rec.Seq
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if prev != 20 {
		t.Fatalf("replayed up to %d, want 20", prev)
	}
}

func TestWAL_ReopenResumesNewestSegment(t *testing.T) {
	dir := t.TempDir()
	w, _ := Open(Config{Dir: dir, SegmentSize: 64})
	for i := 1; i <= 10; i++ {
		_ = w.Append(NewRecord(RecordPush, uint64(i), []byte("0123456789")))
	}
	_ = w.Close()
	_, before, _ := listSegments(dir)

	w, err := Open(Config{Dir: dir, SegmentSize: 1 << 20})
	if err != nil {
		t.Fatal(err)
	}
	if w.segIndex != before {
		t.Fatalf("reopened at segment %d, want %d", w.segIndex, before)
	}
	_ = w.Append(NewRecord(RecordPush, 11, []byte("after-reopen")))
	_ = w.Close()

	last, err := Replay(dir, func(*Record) error { return nil })
	if err != nil {
		t.Fatal(err)
	}
	if last != 11 {
		t.Fatalf("last seq %d, want 11", last)
	}
}

func TestWAL_TornTailIsIgnored(t *testing.T) {
	dir := t.TempDir()
	w, _ := Open(Config{Dir: dir})
	_ = w.Append(NewRecord(RecordPush, 1, []byte("complete")))
	_ = w.Append(NewRecord(RecordPush, 2, []byte("torn")))
	_ = w.Close()

	path := segmentPath(dir, 0)
	info, _ := os.Stat(path)
	if err := os.Truncate(path, info.Size()-3); err != nil {
		t.Fatal(err)
	}

	count := 0
	last, err := Replay(dir, func(*Record) error { count++; return nil })
	if err != nil {
		t.Fatalf("torn tail should not fail replay: %v", err)
	}
	if count != 1 || last != 1 {
		t.Fatalf("replayed %d records up to %d, want 1 up to 1", count, last)
	}
}

func TestWAL_CRCIntegrity(t *testing.T) {
	dir := t.TempDir()
	w, _ := Open(Config{Dir: dir})
	_ = w.Append(NewRecord(RecordPush, 1, []byte("valid-record")))
	_ = w.Close()

	f, err := os.OpenFile(segmentPath(dir, 0), os.O_RDWR, 0)
	if err != nil {
		t.Fatal(err)
	}
	// corrupt the payload to break CRC
	_, _ = f.WriteAt([]byte{0xFF, 0xFF}, headerSize+1)
	f.Close()

	_, err = Replay(dir, func(*Record) error {
		t.Fatal("corrupt record delivered")
		return nil
	})
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected crc mismatch, got %v", err)
	}
}

func TestWAL_AppendAfterClose(t *testing.T) {
	w, _ := Open(Config{Dir: t.TempDir()})
	_ = w.Close()
	if err := w.Append(NewRecord(RecordPush, 1, nil)); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestWAL_CheckpointAndCompact(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(Config{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	_ = w.Append(NewRecord(RecordPush, 1, []byte("before")))

	seg, err := w.Checkpoint()
	if err != nil {
		t.Fatal(err)
	}
	if seg != 1 {
		t.Fatalf("checkpoint segment %d, want 1", seg)
	}
	_ = w.Append(NewRecord(RecordPush, 2, []byte("after")))
	_ = w.Close()

	var seen []uint64
	last, err := ReplayFrom(dir, seg, func(rec *Record) error {
		seen = append(seen, rec.Seq)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != 1 || seen[0] != 2 || last != 2 {
		t.Fatalf("replayed %v up to %d, want [2] up to 2", seen, last)
	}

	n, err := Compact(dir, seg)
	if err != nil || n != 1 {
		t.Fatalf("compact removed %d err %v", n, err)
	}
	if _, err := os.Stat(segmentPath(dir, 0)); !os.IsNotExist(err) {
		t.Fatalf("segment 0 still present: %v", err)
	}
	if _, err := Replay(dir, func(*Record) error { return nil }); err != nil {
		t.Fatalf("replay after compact: %v", err)
	}
}

func TestWAL_FailedRotationKeepsAppending(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(Config{Dir: dir, SegmentSize: 32})
	if err != nil {
		t.Fatal(err)
	}
	// a directory where the next segment belongs makes rotation fail
	blocker := segmentPath(dir, 1)
	if err := os.Mkdir(blocker, 0o755); err != nil {
		t.Fatal(err)
	}

	for seq := uint64(1); seq <= 2; seq++ {
		if err := w.Append(NewRecord(RecordPush, seq, []byte("0123456789"))); err != nil {
			t.Fatalf("append %d with blocked rotation: %v", seq, err)
		}
	}
	if w.segIndex != 0 {
		t.Fatalf("segment index %d after failed rotation, want 0", w.segIndex)
	}
	if _, err := w.Checkpoint(); err == nil {
		t.Fatal("checkpoint should fail while the next segment is blocked")
	}

	if err := os.Remove(blocker); err != nil {
		t.Fatal(err)
	}
	for seq := uint64(3); seq <= 4; seq++ {
		if err := w.Append(NewRecord(RecordPush, seq, []byte("0123456789"))); err != nil {
			t.Fatalf("append %d after unblocking: %v", seq, err)
		}
	}
	if w.segIndex < 1 {
		t.Fatalf("rotation was not retried, still at segment %d", w.segIndex)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	var seqs []uint64
	if _, err := Replay(dir, func(rec *Record) error {
		seqs = append(seqs, rec.Seq)
		return nil
	}); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(seqs) != 4 {
		t.Fatalf("replayed %v, want 1..4", seqs)
	}
	for i, seq := range seqs {
		if seq != uint64(i+1) {
			t.Fatalf("replayed %v, want 1..4", seqs)
		}
	}
}
