package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus exports run events as Prometheus collectors.
type Prometheus struct {
	SequencesTotal      prometheus.Counter
	IncrementsTotal     prometheus.Counter
	BackpressureWaits   prometheus.Counter
	FlushesTotal        *prometheus.CounterVec
	FlushDuration       prometheus.Histogram
	AccumulationRecords prometheus.Gauge
	FootprintBytes      prometheus.Gauge
}

// NewPrometheus creates the collectors and registers them with reg. A nil
// reg uses prometheus.DefaultRegisterer.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	p := &Prometheus{
		SequencesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cooc_sequences_total",
			Help: "Token sequences processed by counting workers.",
		}),
		IncrementsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cooc_increments_total",
			Help: "Weighted pair increments applied to the live map.",
		}),
		BackpressureWaits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cooc_backpressure_waits_total",
			Help: "Times a worker blocked because the memory threshold was reached.",
		}),
		FlushesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cooc_flushes_total",
			Help: "Spill flushes by status (ok, error) and kind (periodic, terminal).",
		}, []string{"status", "kind"}),
		FlushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cooc_flush_duration_seconds",
			Help:    "Time spent merging a snapshot into the accumulation file.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		AccumulationRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cooc_accumulation_records",
			Help: "Records in the current accumulation file.",
		}),
		FootprintBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cooc_live_footprint_bytes",
			Help: "Estimated footprint of the live co-occurrence map.",
		}),
	}

	for _, c := range []prometheus.Collector{
		p.SequencesTotal,
		p.IncrementsTotal,
		p.BackpressureWaits,
		p.FlushesTotal,
		p.FlushDuration,
		p.AccumulationRecords,
		p.FootprintBytes,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// SequenceCounted implements Observer.
func (p *Prometheus) SequenceCounted(increments int) {
	p.SequencesTotal.Inc()
	p.IncrementsTotal.Add(float64(increments))
}

// BackpressureWait implements Observer.
func (p *Prometheus) BackpressureWait() {
	p.BackpressureWaits.Inc()
}

// FlushCompleted implements Observer.
func (p *Prometheus) FlushCompleted(f Flush) {
	p.FlushesTotal.WithLabelValues("ok", kind(f.Terminal)).Inc()
	p.FlushDuration.Observe(f.Duration.Seconds())
	p.AccumulationRecords.Set(float64(f.Records))
}

// FlushFailed implements Observer.
func (p *Prometheus) FlushFailed(error) {
	p.FlushesTotal.WithLabelValues("error", "any").Inc()
}

// Footprint implements Observer.
func (p *Prometheus) Footprint(bytes int64) {
	p.FootprintBytes.Set(float64(bytes))
}

// HandlerFor returns a scrape handler for g.
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func kind(terminal bool) string {
	if terminal {
		return "terminal"
	}
	return "periodic"
}
