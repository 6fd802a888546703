package runtime

import (
	"context"
	"fmt"

	errspkg "github.com/drblury/webui/internal/runtime/errors"
	"github.com/drblury/webui/internal/runtime/events"
)

// JSONHandler receives the event data decoded into T.
type JSONHandler[T any] func(ctx context.Context, ev events.Event, data T) (events.Result, error)

// BindJSON binds a handler whose event data is decoded into T first. Data
// that does not fit T fails the event with "invalid data for <key>: ...".
func BindJSON[T any](svc *Service, elementID, eventType string, fn JSONHandler[T]) error {
	if svc == nil {
		return errspkg.ErrServiceRequired
	}
	if fn == nil {
		return errspkg.ErrHandlerRequired
	}
	svc.BindEvent(elementID, eventType, events.HandlerFunc(func(ctx context.Context, ev events.Event) (events.Result, error) {
		var data T
		if err := ev.DecodeData(&data); err != nil {
			return events.Result{}, fmt.Errorf("invalid data for %s: %w", ev.Key(), err)
		}
		return fn(ctx, ev, data)
	}))
	return nil
}
