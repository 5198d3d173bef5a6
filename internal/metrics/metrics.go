// Package metrics exports encoder activity to Prometheus.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/eddic/gr-gs/internal/gs"
)

const namespace = "gs"

// Collector observes a GuidedScrambler and records per-word metrics.
type Collector struct {
	words      prometheus.Counter
	selections *prometheus.CounterVec
	score      prometheus.Histogram
	rdsReal    prometheus.Gauge
	rdsImag    prometheus.Gauge
	errors     *prometheus.CounterVec
	bytes      prometheus.Counter
}

// NewCollector creates the collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		words: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "words_total",
			Help:      "Codewords emitted by the encoder.",
		}),
		selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selections_total",
			Help:      "Codewords emitted per selected augmenting word index.",
		}, []string{"index"}),
		score: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "selection_score",
			Help:      "Selection metric score of the chosen candidate.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		rdsReal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rds_real",
			Help:      "Running digital sum, real part.",
		}),
		rdsImag: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rds_imag",
			Help:      "Running digital sum, imaginary part.",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Rejected inputs by stage.",
		}, []string{"stage"}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "input_bytes_total",
			Help:      "Source bytes packed into symbols.",
		}),
	}

	for _, col := range []prometheus.Collector{c.words, c.selections, c.score, c.rdsReal, c.rdsImag, c.errors, c.bytes} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Observe implements gs.Observer.
func (c *Collector) Observe(r gs.Result, state gs.AnalyzerState) {
	c.words.Inc()
	c.selections.WithLabelValues(strconv.Itoa(r.Index)).Inc()
	c.score.Observe(r.Score)
	c.rdsReal.Set(real(state.RDS))
	c.rdsImag.Set(imag(state.RDS))
}

// Error counts a rejected input at stage.
func (c *Collector) Error(stage string) {
	c.errors.WithLabelValues(stage).Inc()
}

// AddBytes counts packed source bytes.
func (c *Collector) AddBytes(n int) {
	c.bytes.Add(float64(n))
}

var _ gs.Observer = (*Collector)(nil)
