package repositories

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// record is the decoded form of a badger value.
// Values are stored as protobuf Structs so that rows stay self-describing
// without a generated schema.
type record map[string]*structpb.Value

func encodeRecord(fields map[string]any) ([]byte, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return proto.Marshal(s)
}

func decodeRecord(b []byte) (record, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return s.GetFields(), nil
}

func (r record) str(name string) string {
	return r[name].GetStringValue()
}

func (r record) boolean(name string) bool {
	return r[name].GetBoolValue()
}

func (r record) timestamp(name string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, r.str(name))
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
