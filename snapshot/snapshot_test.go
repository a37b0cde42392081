package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWriteLoadRoundTrip(t *testing.T) {
	w := &Writer{Dir: filepath.Join(t.TempDir(), "snap")}
	in := &Snapshot{
		Seq:     42,
		Segment: 3,
		Created: time.Now(),
		Items:   []Entry{{ID: 42, Payload: []byte("top")}, {ID: 7, Payload: []byte("bottom")}},
	}
	if err := w.Write(in); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, err := Load(w.Path())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out.Seq != 42 || out.Segment != 3 || len(out.Items) != 2 {
		t.Fatalf("unexpected snapshot %+v", out)
	}
	if out.Items[0].ID != 42 || string(out.Items[1].Payload) != "bottom" {
		t.Fatalf("items %+v", out.Items)
	}

	// no temp files left behind
	files, _ := os.ReadDir(w.Dir)
	if len(files) != 1 {
		t.Fatalf("expected only %s, found %d files", fileName, len(files))
	}
}

func TestLoadMissingIsEmpty(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), fileName))
	if err != nil || s != nil {
		t.Fatalf("missing snapshot: %+v err %v", s, err)
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), fileName)
	if err := os.WriteFile(path, []byte("not gob"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected decode error")
	}
}
