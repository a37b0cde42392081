package entry

import (
	"encoding/binary"
	"time"
)

type RecordType uint8

const (
	// RecordPush journals an item entering the stack: Seq is the item
	// ID, Data its payload.
	RecordPush RecordType = iota + 1
	// RecordPop journals an item leaving the stack: Seq is the popped
	// item's ID, Data is empty.
	RecordPop
)

func (t RecordType) String() string {
	switch t {
	case RecordPush:
		return "PUSH"
	case RecordPop:
		return "POP"
	default:
		return "UNKNOWN"
	}
}

type Record struct {
	Type RecordType
	Seq  uint64
	Time int64
	Data []byte
}

func NewRecord(t RecordType, seq uint64, data []byte) *Record {
	return &Record{
		Type: t,
		Seq:  seq,
		Time: time.Now().UnixNano(),
		Data: data,
	}
}

// Frame:
// [type:1][seq:8][time:8][len:4][payload][crc:4]
// crc covers header and payload.
const (
	headerSize = 1 + 8 + 8 + 4
	crcSize    = 4
)

func encodeFrame(r *Record) []byte {
	payloadLen := uint32(len(r.Data))
	buf := make([]byte, headerSize+int(payloadLen)+crcSize)

	buf[0] = byte(r.Type)
	binary.BigEndian.PutUint64(buf[1:9], r.Seq)
	binary.BigEndian.PutUint64(buf[9:17], uint64(r.Time))
	binary.BigEndian.PutUint32(buf[17:21], payloadLen)
	copy(buf[headerSize:], r.Data)

	end := headerSize + int(payloadLen)
	binary.BigEndian.PutUint32(buf[end:], CRC32(buf[:end]))
	return buf
}
