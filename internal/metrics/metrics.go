// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層・ミドルウェア・ワーカーから利用する。
type MetricsCollector interface {
	RecordLogin(result string)
	RecordTokenIssued()
	RecordTokenVerification(result string)
	RecordUpload(bytes int64)
	RecordHTTPStatus(statusCode int)
	RecordOrphanFilesRemoved(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	logins             *prometheus.CounterVec
	tokensIssued       prometheus.Counter
	tokenVerifications *prometheus.CounterVec
	uploads            prometheus.Counter
	uploadBytes        prometheus.Counter
	httpStatus         *prometheus.CounterVec
	orphansRemoved     prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "otodana_logins_total",
			Help: "OAuthログイン試行の結果別の合計数",
		}, []string{"result"}),
		tokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "otodana_tokens_issued_total",
			Help: "発行されたセッショントークンの合計数",
		}),
		tokenVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "otodana_token_verifications_total",
			Help: "セッショントークン検証の結果別の合計数",
		}, []string{"result"}),
		uploads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "otodana_uploads_total",
			Help: "音声ファイルアップロードの合計数",
		}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "otodana_upload_bytes_total",
			Help: "アップロードされた合計バイト数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "otodana_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		orphansRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "otodana_orphan_files_removed_total",
			Help: "ワーカーが削除した孤児ファイルの合計数",
		}),
	}

	reg.MustRegister(
		c.logins,
		c.tokensIssued,
		c.tokenVerifications,
		c.uploads,
		c.uploadBytes,
		c.httpStatus,
		c.orphansRemoved,
	)

	return c
}

// RecordLogin はOAuthログイン試行の結果を記録する。
func (c *Collector) RecordLogin(result string) {
	c.logins.WithLabelValues(result).Inc()
}

// RecordTokenIssued はセッショントークン発行を記録する。
func (c *Collector) RecordTokenIssued() {
	c.tokensIssued.Inc()
}

// RecordTokenVerification はトークン検証の結果を記録する。
func (c *Collector) RecordTokenVerification(result string) {
	c.tokenVerifications.WithLabelValues(result).Inc()
}

// RecordUpload はアップロードの成功とサイズを記録する。
func (c *Collector) RecordUpload(bytes int64) {
	c.uploads.Inc()
	c.uploadBytes.Add(float64(bytes))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordOrphanFilesRemoved はワーカーが削除した孤児ファイル数を記録する。
func (c *Collector) RecordOrphanFilesRemoved(count int) {
	c.orphansRemoved.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

var _ MetricsCollector = (*Collector)(nil)
