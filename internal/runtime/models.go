package runtime

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/drblury/webui/internal/runtime/events"
	jsoncodec "github.com/drblury/webui/internal/runtime/jsoncodec"
)

const (
	latencySampleSize    = 256
	throughputWindowSize = time.Minute
)

// PanicError is what a recovered handler panic turns into.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panicked: %v", e.Value)
}

// BindingStats aggregates the dispatches of one binding.
type BindingStats struct {
	mu sync.Mutex `json:"-"`

	EventsDispatched    uint64    `json:"events_dispatched"`
	EventsFailed        uint64    `json:"events_failed"`
	TotalProcessingTime int64     `json:"total_processing_time_ns"`
	LastDispatchedAt    time.Time `json:"last_dispatched_at"`
	InFlight            uint64    `json:"in_flight"`
	MaxInFlight         uint64    `json:"max_in_flight"`

	Channels   ChannelCounts     `json:"channels"`
	Latency    LatencyMetrics    `json:"latency"`
	Throughput ThroughputMetrics `json:"throughput"`
	Errors     ErrorBreakdown    `json:"errors"`

	latencyWindow    *latencyWindow    `json:"-"`
	throughputWindow *throughputWindow `json:"-"`
}

// BindingInfo is one entry of the introspection listing.
type BindingInfo struct {
	Key       string        `json:"key"`
	ElementID string        `json:"element_id"`
	EventType string        `json:"event_type"`
	Stats     *BindingStats `json:"stats"`
}

type ChannelCounts struct {
	Socket uint64 `json:"socket"`
	HTTP   uint64 `json:"http"`
	Direct uint64 `json:"direct"`
}

type LatencyMetrics struct {
	AverageNs  int64 `json:"average_ns"`
	P50Ns      int64 `json:"p50_ns"`
	P95Ns      int64 `json:"p95_ns"`
	P99Ns      int64 `json:"p99_ns"`
	LastNs     int64 `json:"last_ns"`
	SampleSize int   `json:"sample_size"`
}

type ThroughputMetrics struct {
	CurrentRPS     float64 `json:"current_rps"`
	WindowSeconds  float64 `json:"window_seconds"`
	EventsInWindow uint64  `json:"events_in_window"`
}

// ErrorBreakdown counts failed dispatches by category.
type ErrorBreakdown struct {
	Rejected  uint64 `json:"rejected"`
	Handler   uint64 `json:"handler"`
	Panic     uint64 `json:"panic"`
	Canceled  uint64 `json:"canceled"`
	LastError string `json:"last_error,omitempty"`
}

type ErrorCategory string

const (
	ErrorCategoryNone     ErrorCategory = "none"
	ErrorCategoryRejected ErrorCategory = "rejected"
	ErrorCategoryHandler  ErrorCategory = "handler"
	ErrorCategoryPanic    ErrorCategory = "panic"
	ErrorCategoryCanceled ErrorCategory = "canceled"
)

// ErrorClassifier maps a handler error to a category. It is only called with
// non-nil errors.
type ErrorClassifier func(error) ErrorCategory

func newBindingStats() *BindingStats {
	return &BindingStats{
		latencyWindow:    newLatencyWindow(latencySampleSize),
		throughputWindow: newThroughputWindow(throughputWindowSize),
	}
}

func (b *BindingStats) onDispatchStart() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.InFlight++
	if b.InFlight > b.MaxInFlight {
		b.MaxInFlight = b.InFlight
	}
}

func (b *BindingStats) onDispatchFinish(channel events.Channel, duration time.Duration, res events.Result, err error, classifier ErrorClassifier) {
	now := time.Now()

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.InFlight > 0 {
		b.InFlight--
	}
	b.EventsDispatched++
	b.TotalProcessingTime += int64(duration)
	b.LastDispatchedAt = now.UTC()
	b.Channels.record(channel)

	b.latencyWindow.Add(duration)
	b.Latency = b.latencyWindow.Snapshot()
	b.Latency.AverageNs = b.TotalProcessingTime / int64(b.EventsDispatched)

	tp := b.throughputWindow.AddAndSnapshot(now)
	b.Throughput = ThroughputMetrics{
		CurrentRPS:     tp.CurrentRPS,
		WindowSeconds:  tp.WindowSeconds,
		EventsInWindow: uint64(tp.Count),
	}

	switch {
	case err != nil:
		b.EventsFailed++
		if classifier == nil {
			classifier = defaultErrorClassifier
		}
		b.Errors.Record(classifier(err), err.Error())
	case !res.Succeeded:
		b.EventsFailed++
		b.Errors.Record(ErrorCategoryRejected, res.Message)
	}
}

func (c *ChannelCounts) record(channel events.Channel) {
	switch channel {
	case events.ChannelSocket:
		c.Socket++
	case events.ChannelHTTP:
		c.HTTP++
	default:
		c.Direct++
	}
}

func (b *BindingStats) MarshalJSON() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	type alias BindingStats
	return jsoncodec.Marshal((*alias)(b))
}

func (e *ErrorBreakdown) Record(category ErrorCategory, message string) {
	switch category {
	case ErrorCategoryNone:
		return
	case ErrorCategoryRejected:
		e.Rejected++
	case ErrorCategoryPanic:
		e.Panic++
	case ErrorCategoryCanceled:
		e.Canceled++
	default:
		e.Handler++
	}
	e.LastError = message
}

func defaultErrorClassifier(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryNone
	}
	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		return ErrorCategoryPanic
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorCategoryCanceled
	}
	return ErrorCategoryHandler
}

// latencyWindow is a ring of the most recent dispatch durations.
type latencyWindow struct {
	samples []int64
	next    int
	filled  int
	last    int64
}

func newLatencyWindow(size int) *latencyWindow {
	if size <= 0 {
		size = latencySampleSize
	}
	return &latencyWindow{samples: make([]int64, size)}
}

func (lw *latencyWindow) Add(d time.Duration) {
	lw.samples[lw.next] = int64(d)
	lw.last = int64(d)
	lw.next = (lw.next + 1) % len(lw.samples)
	if lw.filled < len(lw.samples) {
		lw.filled++
	}
}

func (lw *latencyWindow) Snapshot() LatencyMetrics {
	out := LatencyMetrics{LastNs: lw.last, SampleSize: lw.filled}
	if lw.filled == 0 {
		return out
	}
	sorted := make([]int64, lw.filled)
	if lw.filled < len(lw.samples) {
		copy(sorted, lw.samples[:lw.filled])
	} else {
		copy(sorted, lw.samples)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	out.P50Ns = percentile(sorted, 0.50)
	out.P95Ns = percentile(sorted, 0.95)
	out.P99Ns = percentile(sorted, 0.99)
	return out
}

func percentile(sorted []int64, quantile float64) int64 {
	switch {
	case len(sorted) == 0:
		return 0
	case quantile <= 0:
		return sorted[0]
	case quantile >= 1:
		return sorted[len(sorted)-1]
	}
	pos := quantile * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	frac := pos - float64(lower)
	return sorted[lower] + int64(float64(sorted[upper]-sorted[lower])*frac)
}

// throughputWindow keeps dispatch times within horizon.
type throughputWindow struct {
	horizon time.Duration
	samples []time.Time
}

type throughputSnapshot struct {
	Count         int
	WindowSeconds float64
	CurrentRPS    float64
}

func newThroughputWindow(horizon time.Duration) *throughputWindow {
	return &throughputWindow{horizon: horizon, samples: make([]time.Time, 0, 64)}
}

func (tw *throughputWindow) AddAndSnapshot(now time.Time) throughputSnapshot {
	tw.samples = append(tw.samples, now)

	cutoff := now.Add(-tw.horizon)
	idx := sort.Search(len(tw.samples), func(i int) bool { return !tw.samples[i].Before(cutoff) })
	if idx > 0 {
		tw.samples = append(tw.samples[:0], tw.samples[idx:]...)
	}

	span := now.Sub(tw.samples[0])
	if span <= 0 {
		span = time.Nanosecond
	}
	count := len(tw.samples)
	return throughputSnapshot{
		Count:         count,
		WindowSeconds: span.Seconds(),
		CurrentRPS:    float64(count) / span.Seconds(),
	}
}
