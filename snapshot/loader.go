package snapshot

import (
	"encoding/gob"
	"os"

	"github.com/cockroachdb/errors"
)

// Load reads the checkpoint at path. A missing file is not an error: it
// returns nil and recovery replays the whole journal.
func Load(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil // snapshot optional
	}
	if err != nil {
		return nil, errors.Wrap(err, "open snapshot")
	}
	defer f.Close()

	var s Snapshot
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		return nil, errors.Wrapf(err, "decode snapshot %s", path)
	}
	return &s, nil
}
