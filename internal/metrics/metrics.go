package metrics

import (
	"time"

	"BandSentinel/internal/model"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder exposes evaluation, fetch and cache metrics through Prometheus.
type Recorder struct {
	evaluations   *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
	signal        *prometheus.GaugeVec
	fetchDuration *prometheus.HistogramVec
	fetchErrors   *prometheus.CounterVec
	cacheRequests *prometheus.CounterVec
	cycleDuration prometheus.Histogram
}

// New creates a Recorder and registers its collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bandsentinel_evaluations_total",
				Help: "Pair evaluations by outcome (signal name or error kind)",
			},
			[]string{"symbol", "outcome"},
		),
		lastPrice: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bandsentinel_last_price",
				Help: "Close of the most recent candle for a symbol",
			},
			[]string{"symbol"},
		),
		signal: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bandsentinel_signal",
				Help: "Current breakout signal: 1 upper, -1 lower, 0 none",
			},
			[]string{"symbol"},
		),
		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bandsentinel_fetch_duration_seconds",
				Help:    "Duration of upstream payload fetches",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		fetchErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bandsentinel_fetch_errors_total",
				Help: "Failed upstream fetches",
			},
			[]string{"source"},
		),
		cacheRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bandsentinel_cache_requests_total",
				Help: "Payload cache lookups by result",
			},
			[]string{"result"},
		),
		cycleDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bandsentinel_cycle_duration_seconds",
				Help:    "Duration of a full refresh cycle",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
	reg.MustRegister(r.evaluations, r.lastPrice, r.signal, r.fetchDuration,
		r.fetchErrors, r.cacheRequests, r.cycleDuration)
	return r
}

// ObserveFetch records one upstream fetch.
func (r *Recorder) ObserveFetch(source string, d time.Duration, err error) {
	r.fetchDuration.WithLabelValues(source).Observe(d.Seconds())
	if err != nil {
		r.fetchErrors.WithLabelValues(source).Inc()
	}
}

// ObserveCache records a cache lookup.
func (r *Recorder) ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheRequests.WithLabelValues(result).Inc()
}

// RecordResult records a successful pair evaluation.
func (r *Recorder) RecordResult(res model.PairResult) {
	r.evaluations.WithLabelValues(res.Symbol, res.Signal.String()).Inc()
	r.lastPrice.WithLabelValues(res.Symbol).Set(res.LastPrice)
	r.signal.WithLabelValues(res.Symbol).Set(signalValue(res.Signal))
}

// RecordFailure records a failed pair evaluation.
func (r *Recorder) RecordFailure(symbol string, kind model.ErrorKind) {
	r.evaluations.WithLabelValues(symbol, string(kind)).Inc()
}

// RecordCycle records the duration of a refresh cycle.
func (r *Recorder) RecordCycle(d time.Duration) {
	r.cycleDuration.Observe(d.Seconds())
}

func signalValue(s model.Signal) float64 {
	switch s {
	case model.SignalUpperBreakout:
		return 1
	case model.SignalLowerBreakout:
		return -1
	default:
		return 0
	}
}
