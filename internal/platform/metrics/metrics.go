// Package metrics は/metricsで公開するPrometheusコレクターを保持します。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics はアプリケーションの全コレクターを保持します。インスタンスごとにレジストリを持つため、
// テストでいくつ生成しても衝突しません。
type Metrics struct {
	registry *prometheus.Registry

	UpstreamFetches *prometheus.CounterVec
	UpstreamLatency *prometheus.HistogramVec
	CacheRequests   *prometheus.CounterVec
	LoginAttempts   *prometheus.CounterVec
	Registrations   prometheus.Counter
	Approvals       prometheus.Counter
}

// New は全コレクターを登録したMetricsを生成します。
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "qrupees"
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		UpstreamFetches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_fetch_total",
			Help:      "Upstream market data requests by resource and outcome.",
		}, []string{"resource", "outcome"}),
		UpstreamLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_fetch_duration_seconds",
			Help:      "Upstream market data request latency.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"resource"}),
		CacheRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Freshness cache lookups by kind and result.",
		}, []string{"kind", "result"}),
		LoginAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		Registrations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Trader registrations accepted.",
		}),
		Approvals: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registration_approvals_total",
			Help:      "Registrations approved by an administrator.",
		}),
	}
}

// Handler はレジストリをPrometheusの公開形式で返します。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry は内部のレジストリを返します。
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveFetch は上流リクエスト1件を記録します。取引所クライアントのObserverと同じシグネチャです。
func (m *Metrics) ObserveFetch(resource, outcome string, elapsed time.Duration) {
	m.UpstreamFetches.WithLabelValues(resource, outcome).Inc()
	m.UpstreamLatency.WithLabelValues(resource).Observe(elapsed.Seconds())
}

// ObserveCache は鮮度キャッシュの参照1件を記録します。
func (m *Metrics) ObserveCache(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheRequests.WithLabelValues(kind, result).Inc()
}

// LoginAttempt はゲートの判定結果ごとにログインを数えます。
func (m *Metrics) LoginAttempt(outcome string) {
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

// Registered は受け付けた登録を数えます。
func (m *Metrics) Registered() {
	m.Registrations.Inc()
}

// Approved は承認を数えます。
func (m *Metrics) Approved() {
	m.Approvals.Inc()
}
