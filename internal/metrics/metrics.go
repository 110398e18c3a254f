// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// auth.EventRecorderとimporter.Recorderを実装する。
type Collector struct {
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	authEvents        *prometheus.CounterVec
	imports           *prometheus.CounterVec
	importedResources prometheus.Counter
	skippedResources  prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "faithhub_http_requests_total",
			Help: "ルート・メソッド・ステータス別のHTTPリクエスト数",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "faithhub_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "faithhub_auth_events_total",
			Help: "認証イベント（register, login, refresh, logout）の結果別件数",
		}, []string{"event", "result"}),
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "faithhub_imports_total",
			Help: "フィード取り込みの結果別件数",
		}, []string{"outcome"}),
		importedResources: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "faithhub_imported_resources_total",
			Help: "取り込みで作成されたリソースの合計数",
		}),
		skippedResources: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "faithhub_skipped_resources_total",
			Help: "取り込みでスキップされた記事の合計数",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.authEvents,
		c.imports,
		c.importedResources,
		c.skippedResources,
	)

	return c
}

// RecordAuthEvent は認証イベントの結果を記録する。
func (c *Collector) RecordAuthEvent(event string, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.authEvents.WithLabelValues(event, result).Inc()
}

// RecordImport はフィード取り込みの結果と件数を記録する。
func (c *Collector) RecordImport(outcome string, imported, skipped int) {
	c.imports.WithLabelValues(outcome).Inc()
	c.importedResources.Add(float64(imported))
	c.skippedResources.Add(float64(skipped))
}

// RecordHTTPRequest はHTTPリクエストの件数と処理時間を記録する。
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Middleware はリクエストごとにRecordHTTPRequestを呼ぶミドルウェアを返す。
// routeラベルにはchiのルートパターンを使い、IDごとに系列が増えないようにする。
func (c *Collector) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}

			next.ServeHTTP(sw, r)

			status := sw.status
			if status == 0 {
				status = http.StatusOK
			}
			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			c.RecordHTTPRequest(r.Method, route, status, time.Since(start))
		})
	}
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
