// Package results 提供评估结果的聚合、筛选、排序与导出
package results

import (
	"math"

	"github.com/ashwinyue/eval-console/internal/model"
)

// MetricInput 指标计算输入
type MetricInput struct {
	// Rows 逐题判定结果
	Rows []model.DetailedResult
}

// Metric 指标接口
type Metric interface {
	Compute(input *MetricInput) float64
	Name() string
}

// ========== PassRate 通过率 ==========

// PassRateMetric 单个判定指标的通过率
// PassRate = 判定为 "1" 的题数 / 总题数 * 100
type PassRateMetric struct {
	key string
}

// NewPassRateMetric 创建通过率指标
func NewPassRateMetric(key string) *PassRateMetric {
	return &PassRateMetric{key: key}
}

// Compute 计算通过率（百分比）
func (m *PassRateMetric) Compute(input *MetricInput) float64 {
	if len(input.Rows) == 0 {
		return 0.0
	}

	passed := 0
	for i := range input.Rows {
		if input.Rows[i].Score(m.key) == "1" {
			passed++
		}
	}
	return float64(passed) / float64(len(input.Rows)) * 100
}

// Name 返回指标名称
func (m *PassRateMetric) Name() string {
	return m.key
}

// DefaultMetrics 七个判定指标的通过率
func DefaultMetrics() []Metric {
	metrics := make([]Metric, 0, len(model.DetailedMetricKeys))
	for _, k := range model.DetailedMetricKeys {
		metrics = append(metrics, NewPassRateMetric(k.Key))
	}
	return metrics
}

// Aggregate 由逐题结果计算聚合指标，保留两位小数
func Aggregate(rows []model.DetailedResult, metrics ...Metric) model.EvaluationMetrics {
	if len(metrics) == 0 {
		metrics = DefaultMetrics()
	}
	input := &MetricInput{Rows: rows}
	out := make(model.EvaluationMetrics, len(metrics))
	for _, m := range metrics {
		out[m.Name()] = round2(m.Compute(input))
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ========== 展示等级 ==========

// Grade 指标展示等级
type Grade string

const (
	GradeGood Grade = "good" // >= 80
	GradeFair Grade = "fair" // >= 60
	GradePoor Grade = "poor"
)

// GradeOf 按阈值分级
func GradeOf(value float64) Grade {
	switch {
	case value >= 80:
		return GradeGood
	case value >= 60:
		return GradeFair
	default:
		return GradePoor
	}
}

// Headline 结果页的主指标
type Headline struct {
	Metric string  `json:"metric"`
	Label  string  `json:"label"`
	Value  float64 `json:"value"`
	Grade  Grade   `json:"grade"`
}

// HeadlineOf 以 Answer_Correctness 作为主指标，缺失时返回 nil
func HeadlineOf(agg model.EvaluationMetrics) *Headline {
	v, ok := agg[model.MetricAnswerCorrectness]
	if !ok {
		return nil
	}
	return &Headline{
		Metric: model.MetricAnswerCorrectness,
		Label:  "Correctness",
		Value:  v,
		Grade:  GradeOf(v),
	}
}
