// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 認証サービスやクリーンアップワーカーから利用する。
type MetricsCollector interface {
	RecordLoginSuccess()
	RecordLoginFailure()
	RecordLockout()
	RecordRegistration()
	RecordHTTPStatus(statusCode int)
	RecordSessionsReaped(count int64)
	RecordAuditEntriesPurged(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	loginSuccess  prometheus.Counter
	loginFail     prometheus.Counter
	lockouts      prometheus.Counter
	registrations prometheus.Counter
	httpStatus    *prometheus.CounterVec
	sessionsReap  prometheus.Counter
	auditPurged   prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nefuda_login_success_total",
			Help: "ログイン成功の合計数",
		}),
		loginFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nefuda_login_fail_total",
			Help: "ログイン失敗の合計数",
		}),
		lockouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nefuda_account_lockout_total",
			Help: "ログイン失敗の閾値超過によるアカウントロックの合計数",
		}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nefuda_register_total",
			Help: "アカウント登録の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nefuda_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		sessionsReap: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nefuda_sessions_reaped_total",
			Help: "クリーンアップで削除された期限切れセッションの合計数",
		}),
		auditPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nefuda_audit_entries_purged_total",
			Help: "保持期間超過で削除された監査ログの合計数",
		}),
	}

	reg.MustRegister(
		c.loginSuccess,
		c.loginFail,
		c.lockouts,
		c.registrations,
		c.httpStatus,
		c.sessionsReap,
		c.auditPurged,
	)

	return c
}

// RecordLoginSuccess はログイン成功を記録する。
func (c *Collector) RecordLoginSuccess() {
	c.loginSuccess.Inc()
}

// RecordLoginFailure はログイン失敗を記録する。
func (c *Collector) RecordLoginFailure() {
	c.loginFail.Inc()
}

// RecordLockout はアカウントロックの発生を記録する。
func (c *Collector) RecordLockout() {
	c.lockouts.Inc()
}

// RecordRegistration はアカウント登録を記録する。
func (c *Collector) RecordRegistration() {
	c.registrations.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordSessionsReaped は削除された期限切れセッション数を記録する。
func (c *Collector) RecordSessionsReaped(count int64) {
	c.sessionsReap.Add(float64(count))
}

// RecordAuditEntriesPurged は削除された監査ログ数を記録する。
func (c *Collector) RecordAuditEntriesPurged(count int64) {
	c.auditPurged.Add(float64(count))
}

// インターフェース実装の検証
var _ MetricsCollector = (*Collector)(nil)

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
