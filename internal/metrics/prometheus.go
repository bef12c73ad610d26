package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder collects scan metrics with Prometheus.
type Recorder struct {
	scans        prometheus.Counter
	tickers      *prometheus.CounterVec
	selected     prometheus.Gauge
	lastTopScore prometheus.Gauge
	duration     prometheus.Histogram
}

// New creates a Recorder and registers its collectors with reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		scans: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketscanner_scans_total",
			Help: "Total number of completed scans",
		}),
		tickers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketscanner_tickers_total",
			Help: "Tickers processed, by outcome (scored, no_signal, or the skip kind)",
		}, []string{"outcome"}),
		selected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "marketscanner_selected_candidates",
			Help: "Number of candidates selected by the last scan",
		}),
		lastTopScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "marketscanner_top_score",
			Help: "Highest composite score observed in the last scan",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketscanner_scan_duration_seconds",
			Help:    "Wall-clock duration of a scan",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
	reg.MustRegister(r.scans, r.tickers, r.selected, r.lastTopScore, r.duration)
	return r
}

// RecordTicker counts one ticker outcome.
func (r *Recorder) RecordTicker(outcome string) {
	r.tickers.WithLabelValues(outcome).Inc()
}

// RecordScan records the summary of a finished scan.
func (r *Recorder) RecordScan(selected int, topScore float64, elapsed time.Duration) {
	r.scans.Inc()
	r.selected.Set(float64(selected))
	r.lastTopScore.Set(topScore)
	r.duration.Observe(elapsed.Seconds())
}
