package model

import (
	"time"
)

// 趋势图使用的四个指标
var TrendMetricKeys = []string{
	MetricAnswerCorrectness,
	MetricAnswerRelevancy,
	MetricCoherence,
	MetricConciseness,
}

// RunMetrics 单次运行的四个百分比指标，缺失为 nil
type RunMetrics struct {
	AnswerCorrectness *float64 `json:"Answer_Correctness,omitempty" gorm:"column:answer_correctness"`
	AnswerRelevancy   *float64 `json:"Answer_Relevancy,omitempty" gorm:"column:answer_relevancy"`
	Coherence         *float64 `json:"Coherence,omitempty" gorm:"column:coherence"`
	Conciseness       *float64 `json:"Conciseness,omitempty" gorm:"column:conciseness"`
}

// Get 按指标键取值
func (m RunMetrics) Get(key string) *float64 {
	switch key {
	case MetricAnswerCorrectness:
		return m.AnswerCorrectness
	case MetricAnswerRelevancy:
		return m.AnswerRelevancy
	case MetricCoherence:
		return m.Coherence
	case MetricConciseness:
		return m.Conciseness
	default:
		return nil
	}
}

// Set 按指标键赋值，未知键忽略
func (m *RunMetrics) Set(key string, v *float64) {
	switch key {
	case MetricAnswerCorrectness:
		m.AnswerCorrectness = v
	case MetricAnswerRelevancy:
		m.AnswerRelevancy = v
	case MetricCoherence:
		m.Coherence = v
	case MetricConciseness:
		m.Conciseness = v
	}
}

// Run 评估运行记录（趋势图数据点）
type Run struct {
	ID           string     `json:"id" gorm:"type:varchar(128);primaryKey"`
	AgentID      string     `json:"agent_id" gorm:"type:varchar(64);not null;index"`
	RunNumber    int        `json:"run_number" gorm:"not null"`
	CreatedAt    time.Time  `json:"created_at" gorm:"not null;index"`
	IsExperiment bool       `json:"is_experiment"`
	Metrics      RunMetrics `json:"metrics" gorm:"embedded"`
}

// TableName 指定表名
func (Run) TableName() string {
	return "evaluation_runs"
}

// Float 返回指向 v 的指针
func Float(v float64) *float64 {
	return &v
}
