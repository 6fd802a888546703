// Package events holds the wire shapes exchanged with the browser: the Event a
// UI element emits, the Result sent back, and the Key a handler is bound to.
package events

import (
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	errspkg "github.com/drblury/webui/internal/runtime/errors"
	jsoncodec "github.com/drblury/webui/internal/runtime/jsoncodec"
)

var (
	errMissingElementID = errors.New("missing element_id")
	errMissingEventType = errors.New("missing event_type")
)

// Event is a single UI occurrence such as a click or a change.
type Event struct {
	ElementID        string `json:"element_id"`
	EventType        string `json:"event_type"`
	Data             any    `json:"data"`
	CorrelationToken *int64 `json:"correlation_token,omitempty"`
}

// wireEvent distinguishes a missing key from an empty string.
type wireEvent struct {
	ElementID        *string `json:"element_id"`
	EventType        *string `json:"event_type"`
	Data             any     `json:"data"`
	CorrelationToken *int64  `json:"correlation_token"`
}

// Key returns the binding key of the event.
func (e Event) Key() Key {
	return Key{ElementID: e.ElementID, EventType: e.EventType}
}

// Field looks up name when Data is an object.
func (e Event) Field(name string) (any, bool) {
	obj, ok := e.Data.(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := obj[name]
	return v, ok
}

// String returns the named field of Data when it is a string, or "".
func (e Event) String(name string) string {
	v, _ := e.Field(name)
	s, _ := v.(string)
	return s
}

// Int64 returns the named field of Data when it is an integral number.
func (e Event) Int64(name string) (int64, bool) {
	v, _ := e.Field(name)
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case int64:
		return n, true
	case int:
		return int64(n), true
	}
	return 0, false
}

// DecodeData re-encodes Data into target, which must be a pointer.
func (e Event) DecodeData(target any) error {
	raw, err := jsoncodec.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("encode data: %w", err)
	}
	if err := jsoncodec.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

// DataProto decodes Data into a protobuf message using the protojson mapping.
func (e Event) DataProto(target proto.Message) error {
	if target == nil {
		return errspkg.ErrEventRequired
	}
	raw, err := jsoncodec.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("encode data: %w", err)
	}
	if err := (protojson.UnmarshalOptions{DiscardUnknown: true}).Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

// DataValue returns Data as a google.protobuf.Value.
func (e Event) DataValue() (*structpb.Value, error) {
	raw, err := jsoncodec.Marshal(e.Data)
	if err != nil {
		return nil, fmt.Errorf("encode data: %w", err)
	}
	value := &structpb.Value{}
	if err := protojson.Unmarshal(raw, value); err != nil {
		return nil, fmt.Errorf("decode data: %w", err)
	}
	return value, nil
}

// Decode parses one encoded Event. Both element_id and event_type must be
// present; every failure is a *errors.DecodeError. Numbers inside data are
// kept as json.Number.
func Decode(raw []byte) (Event, error) {
	var w wireEvent
	if err := jsoncodec.UnmarshalNumbers(raw, &w); err != nil {
		return Event{}, &errspkg.DecodeError{Err: err}
	}
	return w.event()
}

// DecodeString parses a text frame.
func DecodeString(frame string) (Event, error) {
	var w wireEvent
	if err := jsoncodec.UnmarshalNumbersFromString(frame, &w); err != nil {
		return Event{}, &errspkg.DecodeError{Err: err}
	}
	return w.event()
}

func (w wireEvent) event() (Event, error) {
	switch {
	case w.ElementID == nil:
		return Event{}, &errspkg.DecodeError{Err: errMissingElementID}
	case w.EventType == nil:
		return Event{}, &errspkg.DecodeError{Err: errMissingEventType}
	}
	return Event{
		ElementID:        *w.ElementID,
		EventType:        *w.EventType,
		Data:             w.Data,
		CorrelationToken: w.CorrelationToken,
	}, nil
}

// Token returns a pointer to v for building events with a correlation token.
func Token(v int64) *int64 {
	return &v
}
