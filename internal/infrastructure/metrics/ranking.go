// Package metrics exposes Prometheus collectors for ranking passes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"NewsPrioritizer/internal/domain"
	"NewsPrioritizer/internal/ports"
)

const (
	MetricRankingPassesTotal    = "news_ranking_passes_total"
	MetricRankingFailuresTotal  = "news_ranking_failures_total"
	MetricRankingPassDuration   = "news_ranking_pass_duration_seconds"
	MetricRankingLastPass       = "news_ranking_last_pass_timestamp"
	MetricRankingLastCandidates = "news_ranking_last_candidates"
	MetricRankingLastExcluded   = "news_ranking_last_excluded"
	MetricRankingLastRanked     = "news_ranking_last_ranked"
)

// RankingMetrics records pass statistics. Safe for concurrent use.
type RankingMetrics struct {
	passes         prometheus.Counter
	failures       *prometheus.CounterVec
	duration       prometheus.Histogram
	lastPass       prometheus.Gauge
	lastCandidates prometheus.Gauge
	lastExcluded   prometheus.Gauge
	lastRanked     prometheus.Gauge

	now func() time.Time
}

var _ ports.RankingObserver = (*RankingMetrics)(nil)

// NewRankingMetrics builds unregistered collectors; call Register to expose them.
func NewRankingMetrics() *RankingMetrics {
	return &RankingMetrics{
		passes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRankingPassesTotal,
			Help: "Total number of completed ranking passes",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRankingFailuresTotal,
			Help: "Total number of failed ranking passes by stage",
		}, []string{"stage"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRankingPassDuration,
			Help:    "Histogram of ranking pass duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		lastPass: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricRankingLastPass,
			Help: "Unix timestamp of the last completed ranking pass",
		}),
		lastCandidates: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricRankingLastCandidates,
			Help: "Candidate articles fetched by the last pass",
		}),
		lastExcluded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricRankingLastExcluded,
			Help: "Articles removed by exclusion filters in the last pass",
		}),
		lastRanked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricRankingLastRanked,
			Help: "Articles returned by the last pass",
		}),
		now: time.Now,
	}
}

// Register registers all collectors with reg.
func (m *RankingMetrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns every collector owned by m.
func (m *RankingMetrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.passes,
		m.failures,
		m.duration,
		m.lastPass,
		m.lastCandidates,
		m.lastExcluded,
		m.lastRanked,
	}
}

// ObservePass records a completed pass.
func (m *RankingMetrics) ObservePass(stats domain.PassStats) {
	m.passes.Inc()
	m.duration.Observe(stats.Duration.Seconds())
	m.lastPass.Set(float64(m.now().Unix()))
	m.lastCandidates.Set(float64(stats.Candidates))
	m.lastExcluded.Set(float64(stats.Excluded))
	m.lastRanked.Set(float64(stats.Ranked))
}

// ObserveFailure counts a pass that failed at stage.
func (m *RankingMetrics) ObserveFailure(stage string) {
	m.failures.WithLabelValues(stage).Inc()
}
