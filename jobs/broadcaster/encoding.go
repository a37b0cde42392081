package broadcaster

import (
	"encoding/base64"
	"encoding/json"
	"strconv"

	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Encoder turns an Event into a message value.
type Encoder interface {
	Encode(Event) ([]byte, error)
	Decode([]byte) (Event, error)
}

// EncoderFor maps a format name ("json" or "proto") to an Encoder.
func EncoderFor(format string) (Encoder, error) {
	switch format {
	case "", "json":
		return JSONEncoder{}, nil
	case "proto":
		return ProtoEncoder{}, nil
	default:
		return nil, errors.Newf("unknown event format %q", format)
	}
}

// ---------- JSON ----------

type JSONEncoder struct{}

func (JSONEncoder) Encode(ev Event) ([]byte, error) {
	return json.Marshal(ev)
}

func (JSONEncoder) Decode(b []byte) (Event, error) {
	var ev Event
	err := json.Unmarshal(b, &ev)
	return ev, err
}

// ---------- Protobuf ----------

// ProtoEncoder writes the event as a google.protobuf.Struct. The ID is a
// decimal string and the payload base64, since Struct numbers are doubles
// and it has no bytes kind.
type ProtoEncoder struct{}

func (ProtoEncoder) Encode(ev Event) ([]byte, error) {
	s, err := structpb.NewStruct(map[string]interface{}{
		"v":       ev.V,
		"type":    ev.Type,
		"id":      strconv.FormatUint(ev.ID, 10),
		"payload": base64.StdEncoding.EncodeToString(ev.Payload),
	})
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

func (ProtoEncoder) Decode(b []byte) (Event, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(b, &s); err != nil {
		return Event{}, err
	}
	f := s.GetFields()

	id, err := strconv.ParseUint(f["id"].GetStringValue(), 10, 64)
	if err != nil {
		return Event{}, errors.Wrap(err, "event id")
	}
	payload, err := base64.StdEncoding.DecodeString(f["payload"].GetStringValue())
	if err != nil {
		return Event{}, errors.Wrap(err, "event payload")
	}
	if len(payload) == 0 {
		payload = nil
	}
	return Event{
		V:       int(f["v"].GetNumberValue()),
		Type:    f["type"].GetStringValue(),
		ID:      id,
		Payload: payload,
	}, nil
}
