package entry

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/cockroachdb/errors"
)

var ErrCorrupt = errors.New("entry wal: crc mismatch")

type ReplayHandler func(*Record) error

// Replay feeds every record in dir to fn in journal order and returns the
// highest sequence seen. A frame cut short at the end of the newest
// segment is a torn write from a crash and ends the replay quietly; a
// checksum mismatch anywhere is an error.
func Replay(dir string, fn ReplayHandler) (lastSeq uint64, err error) {
	return ReplayFrom(dir, 0, fn)
}

// ReplayFrom is Replay restricted to segments with index >= from, the
// value returned by a Checkpoint.
func ReplayFrom(dir string, from int, fn ReplayHandler) (lastSeq uint64, err error) {
	all, _, err := listSegments(dir)
	if err != nil {
		return 0, err
	}
	var files []string
	for _, path := range all {
		if idx, ok := segmentIndex(path); ok && idx >= from {
			files = append(files, path)
		}
	}

	for i, path := range files {
		newest := i == len(files)-1
		lastSeq, err = replaySegment(path, newest, lastSeq, fn)
		if err != nil {
			return lastSeq, errors.Wrapf(err, "replay %s", path)
		}
	}
	return lastSeq, nil
}

func replaySegment(path string, newest bool, lastSeq uint64, fn ReplayHandler) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return lastSeq, err
	}
	defer f.Close()

	for {
		rec, err := readRecord(f)
		if err != nil {
			if err == io.EOF {
				return lastSeq, nil
			}
			if newest && errors.Is(err, io.ErrUnexpectedEOF) {
				return lastSeq, nil
			}
			return lastSeq, err
		}

		if rec.Seq > lastSeq {
			lastSeq = rec.Seq
		}
		if err := fn(rec); err != nil {
			return lastSeq, err
		}
	}
}

func readRecord(r io.Reader) (*Record, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	t := RecordType(header[0])
	seq := binary.BigEndian.Uint64(header[1:9])
	ts := binary.BigEndian.Uint64(header[9:17])
	l := binary.BigEndian.Uint32(header[17:21])

	data := make([]byte, int(l)+crcSize)
	if _, err := io.ReadFull(r, data); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}

	payload := data[:l]
	crc := binary.BigEndian.Uint32(data[l:])

	if !CRC32Valid(append(header, payload...), crc) {
		return nil, errors.Wrapf(ErrCorrupt, "seq=%d", seq)
	}

	return &Record{
		Type: t,
		Seq:  seq,
		Time: int64(ts),
		Data: payload,
	}, nil
}
