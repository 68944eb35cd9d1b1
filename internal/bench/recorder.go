package bench

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/wesleyorama2/fetchx/http"
)

// Histogram bounds in microseconds: 1µs to 1 hour, 3 significant figures.
const (
	histogramMin     = 1
	histogramMax     = 3600000000
	histogramSigFigs = 3
)

// Recorder aggregates call outcomes. It is safe for concurrent use.
type Recorder struct {
	// HDR histogram RecordValue is not thread-safe
	latencyHist   *hdrhistogram.Histogram
	latencyHistMu sync.Mutex

	total     atomic.Int64
	succeeded atomic.Int64

	kindsMu sync.Mutex
	kinds   map[string]int64
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		latencyHist: hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs),
		kinds:       make(map[string]int64),
	}
}

// Record adds one completed call. err is the error returned by the client,
// nil for a success. Failures that are not an *http.Error count as "other".
func (r *Recorder) Record(latency time.Duration, err error) {
	micros := latency.Microseconds()
	if micros < histogramMin {
		micros = histogramMin
	}
	if micros > histogramMax {
		micros = histogramMax
	}

	r.latencyHistMu.Lock()
	r.latencyHist.RecordValue(micros)
	r.latencyHistMu.Unlock()

	r.total.Add(1)
	if err == nil {
		r.succeeded.Add(1)
		return
	}

	kind := "other"
	if e, ok := http.AsError(err); ok {
		kind = string(e.Kind)
	}
	r.kindsMu.Lock()
	r.kinds[kind]++
	r.kindsMu.Unlock()
}

// LatencyStats summarizes the latency distribution.
type LatencyStats struct {
	Min  time.Duration `json:"min" yaml:"min"`
	Max  time.Duration `json:"max" yaml:"max"`
	Mean time.Duration `json:"mean" yaml:"mean"`
	P50  time.Duration `json:"p50" yaml:"p50"`
	P90  time.Duration `json:"p90" yaml:"p90"`
	P95  time.Duration `json:"p95" yaml:"p95"`
	P99  time.Duration `json:"p99" yaml:"p99"`
}

// KindCount is the number of failures of one kind.
type KindCount struct {
	Kind  string `json:"kind" yaml:"kind"`
	Count int64  `json:"count" yaml:"count"`
}

// Snapshot is a point-in-time view of a Recorder.
type Snapshot struct {
	Total     int64         `json:"total" yaml:"total"`
	Succeeded int64         `json:"succeeded" yaml:"succeeded"`
	Failed    int64         `json:"failed" yaml:"failed"`
	Failures  []KindCount   `json:"failures,omitempty" yaml:"failures,omitempty"`
	Latency   LatencyStats  `json:"latency" yaml:"latency"`
	Elapsed   time.Duration `json:"elapsed" yaml:"elapsed"`
	RPS       float64       `json:"rps" yaml:"rps"`
}

// Snapshot returns the current totals. elapsed is the wall time of the run,
// used for the request rate.
func (r *Recorder) Snapshot(elapsed time.Duration) Snapshot {
	r.latencyHistMu.Lock()
	latency := LatencyStats{
		Min:  time.Duration(r.latencyHist.Min()) * time.Microsecond,
		Max:  time.Duration(r.latencyHist.Max()) * time.Microsecond,
		Mean: time.Duration(r.latencyHist.Mean()) * time.Microsecond,
		P50:  time.Duration(r.latencyHist.ValueAtQuantile(50)) * time.Microsecond,
		P90:  time.Duration(r.latencyHist.ValueAtQuantile(90)) * time.Microsecond,
		P95:  time.Duration(r.latencyHist.ValueAtQuantile(95)) * time.Microsecond,
		P99:  time.Duration(r.latencyHist.ValueAtQuantile(99)) * time.Microsecond,
	}
	r.latencyHistMu.Unlock()

	r.kindsMu.Lock()
	failures := make([]KindCount, 0, len(r.kinds))
	for kind, count := range r.kinds {
		failures = append(failures, KindCount{Kind: kind, Count: count})
	}
	r.kindsMu.Unlock()
	sort.Slice(failures, func(i, j int) bool { return failures[i].Kind < failures[j].Kind })

	total := r.total.Load()
	succeeded := r.succeeded.Load()

	rps := 0.0
	if elapsed.Seconds() > 0 {
		rps = float64(total) / elapsed.Seconds()
	}

	return Snapshot{
		Total:     total,
		Succeeded: succeeded,
		Failed:    total - succeeded,
		Failures:  failures,
		Latency:   latency,
		Elapsed:   elapsed,
		RPS:       rps,
	}
}
