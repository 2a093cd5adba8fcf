package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "mccole"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once          sync.Once
	reg           *prom.Registry
	passDuration  *prom.HistogramVec
	passResults   *prom.CounterVec
	buildDuration prom.Histogram
	buildOutcome  *prom.CounterVec
	counts        *prom.GaugeVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{reg: reg}
	pr.once.Do(func() {
		pr.passDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Duration of individual build passes",
			Buckets:   prom.DefBuckets,
		}, []string{"pass"})
		pr.passResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "pass_results_total",
			Help:      "Pass result counts by outcome",
		}, []string{"pass", "result"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		pr.counts = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "book_items",
			Help:      "Size of the last built book by item kind",
		}, []string{"kind"})
		reg.MustRegister(pr.passDuration, pr.passResults, pr.buildDuration, pr.buildOutcome, pr.counts)
	})
	return pr
}

// Registry returns the registry the metrics live in.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

func (p *PrometheusRecorder) ObservePassDuration(pass string, d time.Duration) {
	if p == nil || p.passDuration == nil {
		return
	}
	p.passDuration.WithLabelValues(pass).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPassResult(pass string, result ResultLabel) {
	if p == nil || p.passResults == nil {
		return
	}
	p.passResults.WithLabelValues(pass, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetCount(kind string, n int) {
	if p == nil || p.counts == nil {
		return
	}
	p.counts.WithLabelValues(kind).Set(float64(n))
}

// WriteTextfile writes the registry in the Prometheus text exposition format,
// replacing path atomically.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	return prom.WriteToTextfile(path, p.reg)
}
