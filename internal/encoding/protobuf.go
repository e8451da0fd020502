package encoding

import (
	"fmt"
	"strconv"

	"github.com/synheart/physiosim/internal/models"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ProtobufEncoder encodes events as a google.protobuf.Struct whose fields
// mirror the JSON envelope. The seed is carried as a decimal string so it
// survives the double-precision number type.
type ProtobufEncoder struct{}

func NewProtobufEncoder() *ProtobufEncoder {
	return &ProtobufEncoder{}
}

func (e *ProtobufEncoder) Encode(event models.Event) ([]byte, error) {
	pb, err := eventToProto(event)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(pb)
}

func (e *ProtobufEncoder) ContentType() string {
	return "application/x-protobuf"
}

func eventToProto(e models.Event) (*structpb.Struct, error) {
	value, err := toSignalValue(e.Signal.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode signal %s: %w", e.Signal.Name, err)
	}

	session := map[string]*structpb.Value{
		"run_id":   structpb.NewStringValue(e.Session.RunID),
		"scenario": structpb.NewStringValue(e.Session.Scenario),
		"seed":     structpb.NewStringValue(strconv.FormatInt(e.Session.Seed, 10)),
	}
	if e.Session.Case != "" {
		session["case"] = structpb.NewStringValue(e.Session.Case)
	}

	meta := map[string]*structpb.Value{
		"sequence": structpb.NewNumberValue(float64(e.Meta.Sequence)),
	}
	if e.Meta.Phase != "" {
		meta["phase"] = structpb.NewStringValue(e.Meta.Phase)
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"schema_version": structpb.NewStringValue(e.SchemaVersion),
		"event_id":       structpb.NewStringValue(e.EventID),
		"ts":             structpb.NewStringValue(e.Timestamp),
		"sim_time":       structpb.NewNumberValue(e.SimTime),
		"source": structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"type": structpb.NewStringValue(e.Source.Type),
			"id":   structpb.NewStringValue(e.Source.ID),
		}}),
		"session": structpb.NewStructValue(&structpb.Struct{Fields: session}),
		"signal": structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"name":    structpb.NewStringValue(e.Signal.Name),
			"unit":    structpb.NewStringValue(e.Signal.Unit),
			"value":   value,
			"quality": structpb.NewNumberValue(e.Signal.Quality),
		}}),
		"meta": structpb.NewStructValue(&structpb.Struct{Fields: meta}),
	}}, nil
}

func toSignalValue(v any) (*structpb.Value, error) {
	switch val := v.(type) {
	case nil:
		return structpb.NewNullValue(), nil
	case []float64:
		list := make([]*structpb.Value, len(val))
		for i, f := range val {
			list[i] = structpb.NewNumberValue(f)
		}
		return structpb.NewListValue(&structpb.ListValue{Values: list}), nil
	}
	// Scalars, strings, bools and decoded JSON arrays.
	return structpb.NewValue(v)
}
