package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics はクロールに関する Prometheus メトリクスをまとめたものです。
// crawler.Recorder を実装します。nil の *Metrics に対する呼び出しは何もしません。
type Metrics struct {
	PagesTotal    *prometheus.CounterVec
	RecordsTotal  *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
}

// New は reg にメトリクスを登録して返します。reg が nil の場合は新しいレジストリを使います。
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		PagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "newsharvest_pages_total",
			Help: "The total number of listing pages processed",
		}, []string{"site", "outcome"}), // outcome: success, retryable, fatal, parse_error
		RecordsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "newsharvest_records_total",
			Help: "The total number of article records extracted",
		}, []string{"site"}),
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "newsharvest_fetch_duration_seconds",
			Help:    "Duration of fetching and parsing one listing page, including the politeness delay",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"site"}),
	}
}

func (m *Metrics) ObservePage(site, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.PagesTotal.WithLabelValues(site, outcome).Inc()
	m.FetchDuration.WithLabelValues(site).Observe(elapsed.Seconds())
}

func (m *Metrics) AddRecords(site string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RecordsTotal.WithLabelValues(site).Add(float64(n))
}
