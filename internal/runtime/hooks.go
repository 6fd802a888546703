package runtime

import (
	"context"
	"time"

	"github.com/drblury/webui/internal/runtime/events"
	loggingpkg "github.com/drblury/webui/internal/runtime/logging"
)

// DispatchContext describes one handler invocation to hooks.
type DispatchContext struct {
	Key          events.Key
	Channel      events.Channel
	ConnectionID string
	Context      context.Context
	StartedAt    time.Time
	// Duration is only set in OnDispatchDone and OnDispatchError.
	Duration time.Duration
}

// DispatchHooks are optional callbacks around bound handlers. Nil hooks are
// skipped. Unbound events never reach them.
type DispatchHooks struct {
	OnDispatchStart func(ctx DispatchContext)
	// OnDispatchDone runs when the handler returned a Result, successful or not.
	OnDispatchDone func(ctx DispatchContext, res events.Result)
	// OnDispatchError runs when the handler returned an error or panicked
	// inside the recoverer.
	OnDispatchError func(ctx DispatchContext, err error)
}

// Merge returns hooks calling h first and then other.
func (h DispatchHooks) Merge(other DispatchHooks) DispatchHooks {
	return DispatchHooks{
		OnDispatchStart: chainStartHooks(h.OnDispatchStart, other.OnDispatchStart),
		OnDispatchDone:  chainDoneHooks(h.OnDispatchDone, other.OnDispatchDone),
		OnDispatchError: chainErrorHooks(h.OnDispatchError, other.OnDispatchError),
	}
}

func chainStartHooks(a, b func(DispatchContext)) func(DispatchContext) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx DispatchContext) {
		a(ctx)
		b(ctx)
	}
}

func chainDoneHooks(a, b func(DispatchContext, events.Result)) func(DispatchContext, events.Result) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx DispatchContext, res events.Result) {
		a(ctx, res)
		b(ctx, res)
	}
}

func chainErrorHooks(a, b func(DispatchContext, error)) func(DispatchContext, error) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx DispatchContext, err error) {
		a(ctx, err)
		b(ctx, err)
	}
}

// HooksMiddleware invokes hooks around every bound handler.
func HooksMiddleware(hooks DispatchHooks) MiddlewareRegistration {
	return MiddlewareRegistration{
		Name:       "dispatch_hooks",
		Middleware: hooksMiddleware(hooks),
	}
}

func hooksMiddleware(hooks DispatchHooks) HandlerMiddleware {
	return func(h events.Handler) events.Handler {
		return events.HandlerFunc(func(ctx context.Context, ev events.Event) (events.Result, error) {
			origin := events.OriginFromContext(ctx)
			dc := DispatchContext{
				Key:          ev.Key(),
				Channel:      origin.Channel,
				ConnectionID: origin.ConnectionID,
				Context:      ctx,
				StartedAt:    time.Now(),
			}

			if hooks.OnDispatchStart != nil {
				hooks.OnDispatchStart(dc)
			}

			res, err := h.Handle(ctx, ev)
			dc.Duration = time.Since(dc.StartedAt)

			if err != nil {
				if hooks.OnDispatchError != nil {
					hooks.OnDispatchError(dc, err)
				}
			} else if hooks.OnDispatchDone != nil {
				hooks.OnDispatchDone(dc, res)
			}
			return res, err
		})
	}
}

// LoggingHooks returns hooks that log the handler lifecycle.
func LoggingHooks(logger loggingpkg.ServiceLogger) DispatchHooks {
	return DispatchHooks{
		OnDispatchStart: func(ctx DispatchContext) {
			logger.Info("Dispatch started", loggingpkg.LogFields{
				"binding_key":   ctx.Key.String(),
				"channel":       string(ctx.Channel),
				"connection_id": ctx.ConnectionID,
			})
		},
		OnDispatchDone: func(ctx DispatchContext, res events.Result) {
			logger.Info("Dispatch completed", loggingpkg.LogFields{
				"binding_key": ctx.Key.String(),
				"channel":     string(ctx.Channel),
				"succeeded":   res.Succeeded,
				"duration_ms": ctx.Duration.Milliseconds(),
			})
		},
		OnDispatchError: func(ctx DispatchContext, err error) {
			logger.Error("Dispatch failed", err, loggingpkg.LogFields{
				"binding_key": ctx.Key.String(),
				"channel":     string(ctx.Channel),
				"duration_ms": ctx.Duration.Milliseconds(),
			})
		},
	}
}

// AlertingHooks returns hooks that call alertFunc on handler errors.
func AlertingHooks(alertFunc func(ctx DispatchContext, err error)) DispatchHooks {
	return DispatchHooks{OnDispatchError: alertFunc}
}
