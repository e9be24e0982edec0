package observability

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

// StageStats summarizes recent latencies for one dispatch stage.
type StageStats struct {
	Stage       string  `json:"stage"`
	Samples     int     `json:"samples"`
	LastMS      float64 `json:"last_ms"`
	AvgMS       float64 `json:"avg_ms"`
	P50MS       float64 `json:"p50_ms"`
	P95MS       float64 `json:"p95_ms"`
	P99MS       float64 `json:"p99_ms"`
	TargetP95MS float64 `json:"target_p95_ms,omitempty"`
}

// ReasonCount tallies decision reasons inside the window.
type ReasonCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// PipelineSnapshot is the serializable view served by the perf endpoint.
type PipelineSnapshot struct {
	GeneratedAt time.Time     `json:"generated_at"`
	WindowSize  int           `json:"window_size"`
	Stages      []StageStats  `json:"stages"`
	Reasons     []ReasonCount `json:"reasons,omitempty"`
}

// PipelineWindow keeps a bounded sliding window of per-stage latencies for
// the message-dispatch pipeline, plus reason-code tallies.
type PipelineWindow struct {
	mu         sync.RWMutex
	maxSamples int
	stages     map[string]*stageBuffer
	reasons    map[string]int
}

type stageBuffer struct {
	values []float64
	next   int
	filled bool
	last   float64
}

func NewPipelineWindow(maxSamples int) *PipelineWindow {
	if maxSamples <= 0 {
		maxSamples = 256
	}
	return &PipelineWindow{
		maxSamples: maxSamples,
		stages:     make(map[string]*stageBuffer),
		reasons:    make(map[string]int),
	}
}

func (w *PipelineWindow) Observe(stage string, ms float64) {
	if stage == "" || ms < 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	buf, ok := w.stages[stage]
	if !ok {
		buf = &stageBuffer{
			values: make([]float64, w.maxSamples),
		}
		w.stages[stage] = buf
	}
	buf.values[buf.next] = ms
	buf.last = ms
	buf.next++
	if buf.next >= len(buf.values) {
		buf.next = 0
		buf.filled = true
	}
}

func (w *PipelineWindow) ObserveReason(name string) {
	if w == nil {
		return
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reasons[name]++
}

func (w *PipelineWindow) Snapshot() PipelineSnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	stages := make([]StageStats, 0, len(w.stages))
	keys := make([]string, 0, len(w.stages))
	for stage := range w.stages {
		keys = append(keys, stage)
	}
	sort.Strings(keys)

	for _, stage := range keys {
		buf := w.stages[stage]
		if buf == nil {
			continue
		}
		n := buf.next
		if buf.filled {
			n = len(buf.values)
		}
		if n <= 0 {
			continue
		}
		samples := make([]float64, n)
		copy(samples, buf.values[:n])
		sort.Float64s(samples)

		sum := 0.0
		for _, v := range samples {
			sum += v
		}

		stages = append(stages, StageStats{
			Stage:       stage,
			Samples:     n,
			LastMS:      round2(buf.last),
			AvgMS:       round2(sum / float64(n)),
			P50MS:       round2(quantile(samples, 0.50)),
			P95MS:       round2(quantile(samples, 0.95)),
			P99MS:       round2(quantile(samples, 0.99)),
			TargetP95MS: stageTargetP95MS(stage),
		})
	}

	reasons := make([]ReasonCount, 0, len(w.reasons))
	reasonKeys := make([]string, 0, len(w.reasons))
	for name := range w.reasons {
		reasonKeys = append(reasonKeys, name)
	}
	sort.Strings(reasonKeys)
	for _, name := range reasonKeys {
		count := w.reasons[name]
		if count <= 0 {
			continue
		}
		reasons = append(reasons, ReasonCount{Name: name, Count: count})
	}

	return PipelineSnapshot{
		GeneratedAt: time.Now().UTC(),
		WindowSize:  w.maxSamples,
		Stages:      stages,
		Reasons:     reasons,
	}
}

func (w *PipelineWindow) Reset() {
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stages = make(map[string]*stageBuffer)
	w.reasons = make(map[string]int)
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := q * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Per-stage latency targets; zero means no target published.
func stageTargetP95MS(stage string) float64 {
	switch stage {
	case "director_parse":
		return 2
	case "extract":
		return 5
	case "decide":
		return 5
	case "reply_generate":
		return 2500
	case "turn_total":
		return 3000
	default:
		return 0
	}
}
