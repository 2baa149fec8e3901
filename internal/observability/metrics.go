// Package observability 提供 Prometheus 指标
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 应用指标集合
// 所有方法对 nil 接收者安全，未启用指标时可直接传 nil
type Metrics struct {
	// HTTPRequestCounter HTTP 请求数
	// Labels: method, path, status_code
	HTTPRequestCounter *prometheus.CounterVec

	// HTTPRequestDuration HTTP 请求耗时（秒）
	// Labels: method, path
	HTTPRequestDuration *prometheus.HistogramVec

	// DatasetOperationCounter 数据集操作次数
	// Labels: operation (add|update|delete|duplicate|generate|upload|edit), status (success|error)
	DatasetOperationCounter *prometheus.CounterVec

	// ExperimentToggleCounter 实验标记切换结果
	// Labels: outcome (committed|reverted|cancelled)
	ExperimentToggleCounter *prometheus.CounterVec

	// EvaluationCounter 评估任务状态变化
	// Labels: status (started|completed|cancelled)
	EvaluationCounter *prometheus.CounterVec
}

// NewMetrics 创建并注册指标，reg 为 nil 时使用默认注册表
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eval_console_http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status code",
			},
			[]string{"method", "path", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eval_console_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"method", "path"},
		),

		DatasetOperationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eval_console_dataset_operations_total",
				Help: "Total number of ground truth dataset operations by operation and status",
			},
			[]string{"operation", "status"},
		),

		ExperimentToggleCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eval_console_experiment_toggles_total",
				Help: "Total number of experiment flag toggles by outcome",
			},
			[]string{"outcome"},
		),

		EvaluationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eval_console_evaluations_total",
				Help: "Total number of simulated evaluations by status",
			},
			[]string{"status"},
		),
	}
}

// RecordHTTPRequest 记录一次 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, path, statusCode string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestCounter.WithLabelValues(method, path, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(durationSeconds)
}

// RecordDatasetOperation 记录一次数据集操作
func (m *Metrics) RecordDatasetOperation(operation string, err error) {
	if m == nil {
		return
	}
	m.DatasetOperationCounter.WithLabelValues(operation, statusOf(err)).Inc()
}

// RecordToggle 记录实验标记切换的最终结果
func (m *Metrics) RecordToggle(outcome string) {
	if m == nil {
		return
	}
	m.ExperimentToggleCounter.WithLabelValues(outcome).Inc()
}

// RecordEvaluation 记录评估任务状态
func (m *Metrics) RecordEvaluation(status string) {
	if m == nil {
		return
	}
	m.EvaluationCounter.WithLabelValues(status).Inc()
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
