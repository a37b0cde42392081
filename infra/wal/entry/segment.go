package entry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const segmentPattern = "segment-*.wal"

type segment struct {
	file   *os.File
	offset int64
}

func segmentPath(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("segment-%06d.wal", index))
}

func openSegment(dir string, index int) (*segment, error) {
	f, err := os.OpenFile(segmentPath(dir, index), os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &segment{file: f, offset: info.Size()}, nil
}

func (s *segment) append(b []byte) error {
	n, err := s.file.Write(b)
	s.offset += int64(n)
	return err
}

func (s *segment) sync() error {
	return s.file.Sync()
}

func (s *segment) close() error {
	return s.file.Close()
}

// listSegments returns segment paths in index order and the highest
// index found, or -1 when the directory holds none.
func listSegments(dir string) ([]string, int, error) {
	files, err := filepath.Glob(filepath.Join(dir, segmentPattern))
	if err != nil {
		return nil, -1, err
	}
	sort.Strings(files)

	last := -1
	for _, path := range files {
		if idx, ok := segmentIndex(path); ok && idx > last {
			last = idx
		}
	}
	return files, last, nil
}

func segmentIndex(path string) (int, bool) {
	var idx int
	if _, err := fmt.Sscanf(filepath.Base(path), "segment-%06d.wal", &idx); err != nil {
		return 0, false
	}
	return idx, true
}

// Compact removes every segment whose index is below before and reports
// how many it removed.
func Compact(dir string, before int) (int, error) {
	files, _, err := listSegments(dir)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, path := range files {
		idx, ok := segmentIndex(path)
		if !ok || idx >= before {
			continue
		}
		if err := os.Remove(path); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
