package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result 标签取值
const (
	ResultOK         = "ok"
	ResultValidation = "validation"
	ResultFailed     = "failed"
)

var (
	reconcileTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "armgs_reconcile_total",
		Help: "Batch reconciliations by entity and result",
	}, []string{"entity", "result"})

	reconcileDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "armgs_reconcile_duration_seconds",
		Help:    "Batch reconciliation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"entity"})

	transferTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "armgs_transfer_total",
		Help: "Spreadsheet imports and exports by entity, direction and result",
	}, []string{"entity", "direction", "result"})

	transferRows = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "armgs_transfer_rows",
		Help:    "Rows per spreadsheet import or export",
		Buckets: []float64{0, 10, 50, 100, 500, 1000, 5000},
	}, []string{"entity", "direction"})

	auditFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "armgs_audit_write_failures_total",
		Help: "Audit log entries that could not be persisted",
	})
)

// ObserveReconcile 记录一次批量对账
func ObserveReconcile(entity, result string, started time.Time) {
	reconcileTotal.WithLabelValues(entity, result).Inc()
	reconcileDuration.WithLabelValues(entity).Observe(time.Since(started).Seconds())
}

// ObserveTransfer 记录一次导入 / 导出，direction 为 import 或 export
func ObserveTransfer(entity, direction, result string, rows int) {
	transferTotal.WithLabelValues(entity, direction, result).Inc()
	if result == ResultOK {
		transferRows.WithLabelValues(entity, direction).Observe(float64(rows))
	}
}

// AuditWriteFailed 审计日志写入失败计数
func AuditWriteFailed() {
	auditFailures.Inc()
}

// Handler /metrics 端点
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
