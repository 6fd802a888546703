package runtime

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/drblury/webui/internal/runtime/events"
	loggingpkg "github.com/drblury/webui/internal/runtime/logging"
)

const tracerName = "github.com/drblury/webui"

// HandlerMiddleware wraps a bound handler. Middlewares run in registration
// order, the first one outermost.
type HandlerMiddleware func(events.Handler) events.Handler

// MiddlewareBuilder constructs a handler middleware using the provided service instance.
type MiddlewareBuilder func(*Service) (HandlerMiddleware, error)

// MiddlewareRegistration captures how a middleware is added to a Service.
// Exactly one of Middleware or Builder is used; a Builder returning a nil
// middleware registers nothing.
type MiddlewareRegistration struct {
	Name       string
	Middleware HandlerMiddleware
	Builder    MiddlewareBuilder
}

// DefaultMiddlewares returns the chain NewService installs unless
// DisableDefaultMiddlewares is set.
func DefaultMiddlewares() []MiddlewareRegistration {
	return []MiddlewareRegistration{
		RecovererMiddleware(),
		TracerMiddleware(),
		LogEventsMiddleware(nil),
		MetricsMiddleware(),
	}
}

// RecovererMiddleware turns a handler panic into a *PanicError so the
// connection that delivered the event stays open.
func RecovererMiddleware() MiddlewareRegistration {
	return MiddlewareRegistration{
		Name:       "recoverer",
		Middleware: recoverer,
	}
}

// TracerMiddleware wraps handler execution in an OpenTelemetry span.
func TracerMiddleware() MiddlewareRegistration {
	return MiddlewareRegistration{
		Name:       "tracer",
		Middleware: tracerMiddleware(otel.Tracer(tracerName)),
	}
}

// LogEventsMiddleware logs every event reaching a handler at debug level.
// A nil logger uses the service logger.
func LogEventsMiddleware(logger loggingpkg.ServiceLogger) MiddlewareRegistration {
	return MiddlewareRegistration{
		Name: "log_events",
		Builder: func(s *Service) (HandlerMiddleware, error) {
			l := logger
			if l == nil {
				l = s.Logger
			}
			if l == nil {
				return nil, errors.New("log events middleware requires a logger")
			}
			return logEventsMiddleware(l), nil
		},
	}
}

// MetricsMiddleware observes handler latency when metrics are enabled.
func MetricsMiddleware() MiddlewareRegistration {
	return MiddlewareRegistration{
		Name: "metrics",
		Builder: func(s *Service) (HandlerMiddleware, error) {
			if !s.Conf.MetricsEnabled {
				return nil, nil
			}
			return s.metricsMiddleware(), nil
		},
	}
}

// RegisterMiddleware appends a middleware to the dispatch chain.
func (s *Service) RegisterMiddleware(cfg MiddlewareRegistration) error {
	var mw HandlerMiddleware
	switch {
	case cfg.Middleware != nil:
		mw = cfg.Middleware
	case cfg.Builder != nil:
		var err error
		mw, err = cfg.Builder(s)
		if err != nil {
			return err
		}
	default:
		return errors.New("middleware registration requires Middleware or Builder")
	}

	if mw == nil {
		return nil
	}
	s.dispatcher.use(mw)
	return nil
}

func recoverer(h events.Handler) events.Handler {
	return events.HandlerFunc(func(ctx context.Context, ev events.Event) (res events.Result, err error) {
		defer func() {
			if r := recover(); r != nil {
				res = events.Result{}
				err = &PanicError{Value: r}
			}
		}()
		return h.Handle(ctx, ev)
	})
}

func tracerMiddleware(tracer trace.Tracer) HandlerMiddleware {
	return func(h events.Handler) events.Handler {
		return events.HandlerFunc(func(ctx context.Context, ev events.Event) (events.Result, error) {
			origin := events.OriginFromContext(ctx)
			ctx, span := tracer.Start(ctx, "webui.Handle", trace.WithSpanKind(trace.SpanKindServer))
			defer span.End()

			span.SetAttributes(
				attribute.String("webui.element_id", ev.ElementID),
				attribute.String("webui.event_type", ev.EventType),
				attribute.String("webui.channel", string(origin.Channel)),
			)
			if origin.ConnectionID != "" {
				span.SetAttributes(attribute.String("webui.connection_id", origin.ConnectionID))
			}

			res, err := h.Handle(ctx, ev)
			switch {
			case err != nil:
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			case !res.Succeeded:
				span.SetStatus(codes.Error, res.Message)
			}
			return res, err
		})
	}
}

func logEventsMiddleware(logger loggingpkg.ServiceLogger) HandlerMiddleware {
	return func(h events.Handler) events.Handler {
		return events.HandlerFunc(func(ctx context.Context, ev events.Event) (events.Result, error) {
			origin := events.OriginFromContext(ctx)
			logger.Debug("Dispatching event", loggingpkg.LogFields{
				"binding_key":   ev.Key().String(),
				"channel":       string(origin.Channel),
				"connection_id": origin.ConnectionID,
				"data":          ev.Data,
			})
			return h.Handle(ctx, ev)
		})
	}
}

func (s *Service) metricsMiddleware() HandlerMiddleware {
	return func(h events.Handler) events.Handler {
		return events.HandlerFunc(func(ctx context.Context, ev events.Event) (events.Result, error) {
			start := time.Now()
			res, err := h.Handle(ctx, ev)
			s.metrics.handlerDuration.WithLabelValues(ev.Key().String()).Observe(time.Since(start).Seconds())
			return res, err
		})
	}
}
