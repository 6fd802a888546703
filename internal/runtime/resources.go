package runtime

import (
	"runtime"
	"runtime/metrics"
	"sync"
	"time"
)

// ResourceUsage is the process snapshot reported by the introspection API.
type ResourceUsage struct {
	CPUPercent  float64 `json:"cpu_percent"`
	MemoryBytes uint64  `json:"memory_bytes"`
	Goroutines  int     `json:"goroutines"`
}

const (
	cpuTotalMetric = "/cpu/classes/total:cpu-seconds"
	cpuIdleMetric  = "/cpu/classes/idle:cpu-seconds"
)

// resourceTracker computes CPU usage between two consecutive snapshots.
type resourceTracker struct {
	mu             sync.Mutex
	sample         []metrics.Sample
	lastCPUSeconds float64
	lastSampleAt   time.Time
	numCPU         float64
}

func newResourceTracker() *resourceTracker {
	return &resourceTracker{
		sample: []metrics.Sample{{Name: cpuTotalMetric}, {Name: cpuIdleMetric}},
		numCPU: float64(runtime.NumCPU()),
	}
}

func (r *resourceTracker) Snapshot() ResourceUsage {
	r.mu.Lock()
	defer r.mu.Unlock()

	metrics.Read(r.sample)
	now := time.Now()

	var usage ResourceUsage
	total, idle := r.sample[0].Value, r.sample[1].Value
	if total.Kind() == metrics.KindFloat64 && idle.Kind() == metrics.KindFloat64 {
		cpuSeconds := total.Float64() - idle.Float64()
		if !r.lastSampleAt.IsZero() {
			wall := now.Sub(r.lastSampleAt).Seconds()
			if wall > 0 && r.numCPU > 0 {
				usage.CPUPercent = max(0, (cpuSeconds-r.lastCPUSeconds)/wall/r.numCPU*100)
			}
		}
		r.lastCPUSeconds = cpuSeconds
	}
	r.lastSampleAt = now

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	usage.MemoryBytes = mem.Alloc
	usage.Goroutines = runtime.NumGoroutine()
	return usage
}
