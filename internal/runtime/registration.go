package runtime

import (
	"context"

	errspkg "github.com/drblury/webui/internal/runtime/errors"
	"github.com/drblury/webui/internal/runtime/events"
	loggingpkg "github.com/drblury/webui/internal/runtime/logging"
)

// missingHandler stands in for a nil handler so registration never fails.
var missingHandler = events.HandlerFunc(func(context.Context, events.Event) (events.Result, error) {
	return events.Result{}, errspkg.ErrHandlerRequired
})

// BindEvent binds h to the element and event type, replacing any earlier
// binding. It may be called while serving, including from a running handler;
// the new binding applies to later events.
func (s *Service) BindEvent(elementID, eventType string, h events.Handler) {
	key := events.NewKey(elementID, eventType)
	if h == nil {
		s.Logger.Error("Binding without handler", errspkg.ErrHandlerRequired, loggingpkg.LogFields{"binding_key": key.String()})
		h = missingHandler
	}
	if replaced := s.dispatcher.bind(key, h); replaced {
		s.Logger.Debug("Replaced binding", loggingpkg.LogFields{"binding_key": key.String()})
	} else {
		s.Logger.Debug("Bound event", loggingpkg.LogFields{"binding_key": key.String()})
	}
}

// BindEventFunc binds a plain function.
func (s *Service) BindEventFunc(elementID, eventType string, fn func(context.Context, events.Event) (events.Result, error)) {
	if fn == nil {
		s.BindEvent(elementID, eventType, nil)
		return
	}
	s.BindEvent(elementID, eventType, events.HandlerFunc(fn))
}

// BindClick binds action to the click event of elementID. The Result is
// always a bare success.
func (s *Service) BindClick(elementID string, action func()) {
	if action == nil {
		s.BindEvent(elementID, "click", nil)
		return
	}
	s.BindEvent(elementID, "click", events.HandlerFunc(func(context.Context, events.Event) (events.Result, error) {
		action()
		return events.Empty(), nil
	}))
}
