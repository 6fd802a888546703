package runtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/drblury/webui/internal/runtime/events"
	loggingpkg "github.com/drblury/webui/internal/runtime/logging"
	"github.com/drblury/webui/internal/runtime/registry"
)

// Dispatcher resolves an Event to its bound handler and turns the outcome
// into a Result. It is shared by every channel.
type Dispatcher struct {
	registry   *registry.Registry
	logger     loggingpkg.ServiceLogger
	metrics    *serviceMetrics
	classifier ErrorClassifier
	tap        *DispatchTap

	mu          sync.RWMutex
	middlewares []HandlerMiddleware
	stats       map[events.Key]*BindingStats
}

func newDispatcher(reg *registry.Registry, logger loggingpkg.ServiceLogger, metrics *serviceMetrics, classifier ErrorClassifier) *Dispatcher {
	if classifier == nil {
		classifier = defaultErrorClassifier
	}
	return &Dispatcher{
		registry:   reg,
		logger:     logger,
		metrics:    metrics,
		classifier: classifier,
		stats:      make(map[events.Key]*BindingStats),
	}
}

func (d *Dispatcher) use(mw HandlerMiddleware) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.middlewares = append(d.middlewares, mw)
}

func (d *Dispatcher) chain(h events.Handler) events.Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for i := len(d.middlewares) - 1; i >= 0; i-- {
		h = d.middlewares[i](h)
	}
	return h
}

// bind registers h and makes sure the binding has stats.
func (d *Dispatcher) bind(key events.Key, h events.Handler) bool {
	replaced := d.registry.Register(key, h)
	d.statsFor(key)
	return replaced
}

func (d *Dispatcher) statsFor(key events.Key) *BindingStats {
	d.mu.RLock()
	stats, ok := d.stats[key]
	d.mu.RUnlock()
	if ok {
		return stats
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if stats, ok = d.stats[key]; !ok {
		stats = newBindingStats()
		d.stats[key] = stats
	}
	return stats
}

// Dispatch runs the handler bound to ev.Key. The returned Result always
// carries ev's correlation token, whatever the handler set.
func (d *Dispatcher) Dispatch(ctx context.Context, ev events.Event) events.Result {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	origin := events.OriginFromContext(ctx)
	key := ev.Key()
	log := d.logger.With(loggingpkg.LogFields{
		"binding_key":   key.String(),
		"channel":       string(origin.Channel),
		"connection_id": origin.ConnectionID,
	})

	var (
		res events.Result
		err error
	)
	h, bound := d.registry.Lookup(key)
	if !bound {
		res = events.Fail("no handler for " + key.String())
		log.Debug("No handler bound", nil)
	} else {
		stats := d.statsFor(key)
		stats.onDispatchStart()
		res, err = d.chain(h).Handle(ctx, ev)
		if err != nil {
			res = events.Fail(err.Error())
			var panicErr *PanicError
			if errors.As(err, &panicErr) {
				log.Error("Handler panicked", err, nil)
			} else {
				log.Debug("Handler failed", loggingpkg.LogFields{"error": err.Error()})
			}
		}
		stats.onDispatchFinish(origin.Channel, time.Since(start), res, err, d.classifier)
	}
	res.CorrelationToken = ev.CorrelationToken

	d.metrics.dispatches.WithLabelValues(string(origin.Channel), outcomeOf(bound, res, err)).Inc()
	if d.tap != nil {
		d.tap.Record(ctx, DispatchRecord{
			Channel:      origin.Channel,
			ConnectionID: origin.ConnectionID,
			Key:          key.String(),
			Event:        ev,
			Result:       res,
			DurationNs:   int64(time.Since(start)),
			DispatchedAt: start.UTC(),
		})
	}
	return res
}

// Bindings lists every bound key with its stats, ordered by key.
func (d *Dispatcher) Bindings() []BindingInfo {
	keys := d.registry.Keys()
	out := make([]BindingInfo, 0, len(keys))
	for _, key := range keys {
		out = append(out, BindingInfo{
			Key:       key.String(),
			ElementID: key.ElementID,
			EventType: key.EventType,
			Stats:     d.statsFor(key),
		})
	}
	return out
}
