package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/samvad-hq/restclient/internal/domain"
)

const (
	namespace = "restclient"

	// latency histogram range: 1us to 60s
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
)

// Recorder collects per-exchange counters and latencies. It owns a private
// prometheus registry so several recorders can coexist in one process.
type Recorder struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	latency *Latency
}

// Latency is a concurrency-safe HdrHistogram of exchange durations.
type Latency struct {
	mu        sync.Mutex
	histogram *hdrhistogram.Histogram
}

// NewLatency returns an empty latency histogram.
func NewLatency() *Latency {
	return &Latency{histogram: hdrhistogram.New(minLatencyUs, maxLatencyUs, 3)}
}

// Record adds one duration, clamped to the histogram range.
func (l *Latency) Record(d time.Duration) {
	if l == nil {
		return
	}
	latencyUs := d.Microseconds()
	if latencyUs < minLatencyUs {
		latencyUs = minLatencyUs
	}
	if latencyUs > maxLatencyUs {
		latencyUs = maxLatencyUs
	}

	l.mu.Lock()
	_ = l.histogram.RecordValue(latencyUs)
	l.mu.Unlock()
}

// Summary returns percentiles over the recorded durations.
func (l *Latency) Summary() Summary {
	if l == nil {
		return Summary{}
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.histogram.TotalCount() == 0 {
		return Summary{}
	}
	return Summary{
		Count: l.histogram.TotalCount(),
		P50:   usToDuration(l.histogram.ValueAtQuantile(50)),
		P95:   usToDuration(l.histogram.ValueAtQuantile(95)),
		P99:   usToDuration(l.histogram.ValueAtQuantile(99)),
		Max:   usToDuration(l.histogram.Max()),
	}
}

// Summary is a latency digest.
type Summary struct {
	Count int64
	P50   time.Duration
	P95   time.Duration
	P99   time.Duration
	Max   time.Duration
}

// New creates a Recorder and registers its collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of dispatched requests by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Request latency histogram",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
			},
			[]string{"method"},
		),
		latency: NewLatency(),
	}
}

// Observe records one finished exchange.
func (r *Recorder) Observe(ex domain.Exchange) {
	if r == nil {
		return
	}
	r.RequestsTotal.WithLabelValues(ex.Method, string(ex.Outcome)).Inc()
	r.RequestDuration.WithLabelValues(ex.Method).Observe(ex.Duration.Seconds())

	r.latency.Record(ex.Duration)
}

// Summary returns latency percentiles over every exchange since New.
func (r *Recorder) Summary() Summary {
	if r == nil {
		return Summary{}
	}
	return r.latency.Summary()
}

// Gatherer exposes the recorder's registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the current metrics in the text exposition format,
// suitable for the node_exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func usToDuration(us int64) time.Duration {
	return time.Duration(us) * time.Microsecond
}
