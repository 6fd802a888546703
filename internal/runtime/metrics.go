package runtime

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/drblury/webui/internal/runtime/events"
)

const metricsNamespace = "webui"

// Dispatch outcomes used as the "outcome" label.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
	OutcomeUnbound   = "unbound"
)

// serviceMetrics are the Prometheus collectors of one Service.
type serviceMetrics struct {
	dispatches      *prometheus.CounterVec
	handlerDuration *prometheus.HistogramVec
	connections     prometheus.Gauge
	droppedFrames   prometheus.Counter
	tapFailures     prometheus.Counter
}

func newServiceMetrics(reg prometheus.Registerer) (*serviceMetrics, error) {
	m := &serviceMetrics{
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "dispatches_total",
			Help:      "Dispatched events by channel and outcome.",
		}, []string{"channel", "outcome"}),
		handlerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "handler_duration_seconds",
			Help:      "Time spent in bound handlers.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"binding_key"}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "duplex_connections",
			Help:      "Open socket connections.",
		}),
		droppedFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "dropped_frames_total",
			Help:      "Socket frames dropped because they did not decode into an event.",
		}),
		tapFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "tap_publish_failures_total",
			Help:      "Dispatch records the tap could not publish.",
		}),
	}

	var err error
	if m.dispatches, err = register(reg, m.dispatches); err != nil {
		return nil, err
	}
	if m.handlerDuration, err = register(reg, m.handlerDuration); err != nil {
		return nil, err
	}
	if m.connections, err = register(reg, m.connections); err != nil {
		return nil, err
	}
	if m.droppedFrames, err = register(reg, m.droppedFrames); err != nil {
		return nil, err
	}
	if m.tapFailures, err = register(reg, m.tapFailures); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg, reusing an identical collector registered earlier.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func outcomeOf(bound bool, res events.Result, err error) string {
	switch {
	case !bound:
		return OutcomeUnbound
	case err != nil:
		return OutcomeFailed
	case !res.Succeeded:
		return OutcomeRejected
	default:
		return OutcomeSucceeded
	}
}
