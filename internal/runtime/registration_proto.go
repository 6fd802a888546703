package runtime

import (
	"context"
	"fmt"

	"google.golang.org/protobuf/proto"

	errspkg "github.com/drblury/webui/internal/runtime/errors"
	"github.com/drblury/webui/internal/runtime/events"
)

// ProtoHandler receives the event data decoded into a fresh T.
type ProtoHandler[T proto.Message] func(ctx context.Context, ev events.Event, data T) (events.Result, error)

// BindProto binds a handler whose event data is decoded into T with the
// protojson mapping. Unknown fields are ignored.
func BindProto[T proto.Message](svc *Service, elementID, eventType string, fn ProtoHandler[T]) error {
	if svc == nil {
		return errspkg.ErrServiceRequired
	}
	if fn == nil {
		return errspkg.ErrHandlerRequired
	}
	var zero T
	msgType := zero.ProtoReflect().Type()

	svc.BindEvent(elementID, eventType, events.HandlerFunc(func(ctx context.Context, ev events.Event) (events.Result, error) {
		data, ok := msgType.New().Interface().(T)
		if !ok {
			return events.Result{}, fmt.Errorf("unexpected message type %s", msgType.Descriptor().FullName())
		}
		if err := ev.DataProto(data); err != nil {
			return events.Result{}, fmt.Errorf("invalid data for %s: %w", ev.Key(), err)
		}
		return fn(ctx, ev, data)
	}))
	return nil
}
