package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EvaluationType 评估类型
type EvaluationType string

const (
	EvaluationPointwise EvaluationType = "POINTWISE" // 单点评估
	EvaluationPairwise  EvaluationType = "PAIRWISE"  // 成对评估
)

// Valid 是否为已知的评估类型
func (t EvaluationType) Valid() bool {
	return t == EvaluationPointwise || t == EvaluationPairwise
}

// EvaluationTaskStatus 评估任务状态
type EvaluationTaskStatus string

const (
	EvaluationStatusPending   EvaluationTaskStatus = "pending"   // 待执行
	EvaluationStatusRunning   EvaluationTaskStatus = "running"   // 执行中
	EvaluationStatusCompleted EvaluationTaskStatus = "completed" // 已完成
	EvaluationStatusCancelled EvaluationTaskStatus = "cancelled" // 已取消
	EvaluationStatusFailed    EvaluationTaskStatus = "failed"    // 失败
)

// EvaluationTask 评估任务（模拟执行）
type EvaluationTask struct {
	ID             string               `json:"id" gorm:"type:varchar(64);primaryKey"`
	AgentID        string               `json:"agent_id" gorm:"type:varchar(64);not null;index"`
	EvaluationType EvaluationType       `json:"evaluation_type" gorm:"type:varchar(20);not null"`
	GroundTruthID  string               `json:"ground_truth_id" gorm:"type:varchar(64);not null;index"`
	Region         string               `json:"region,omitempty" gorm:"type:varchar(64)"`
	Status         EvaluationTaskStatus `json:"status" gorm:"type:varchar(20);default:'pending'"`
	Progress       float64              `json:"progress" gorm:"default:0"` // 进度 0-100
	CurrentStep    int                  `json:"current_step" gorm:"default:0"`
	ErrorMsg       string               `json:"error_msg,omitempty" gorm:"type:text"`

	CreatedAt   time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// BeforeCreate GORM 钩子，创建前生成 ID
func (e *EvaluationTask) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// TableName 指定表名
func (EvaluationTask) TableName() string {
	return "evaluation_tasks"
}

// ========== 评估结果 ==========

// 指标键
const (
	MetricAnswerCorrectness       = "Answer_Correctness"
	MetricAnswerRelevancy         = "Answer_Relevancy"
	MetricCoherence               = "Coherence"
	MetricConciseness             = "Conciseness"
	MetricGroundTruthCoherence    = "Ground Truth Coherence"
	MetricGroundTruthCompleteness = "Ground Truth Completeness"
	MetricGroundTruthSpecificity  = "Ground Truth Specificity"
)

// MetricKey 指标键与展示名
type MetricKey struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// DetailedMetricKeys 逐题结果中的七个判定指标
var DetailedMetricKeys = []MetricKey{
	{Key: MetricAnswerCorrectness, Label: "Correctness"},
	{Key: MetricAnswerRelevancy, Label: "Relevancy"},
	{Key: MetricCoherence, Label: "Coherence"},
	{Key: MetricConciseness, Label: "Conciseness"},
	{Key: MetricGroundTruthCoherence, Label: "GT Coherence"},
	{Key: MetricGroundTruthCompleteness, Label: "GT Completeness"},
	{Key: MetricGroundTruthSpecificity, Label: "GT Specificity"},
}

// IsDetailedMetric 是否为逐题指标
func IsDetailedMetric(key string) bool {
	for _, m := range DetailedMetricKeys {
		if m.Key == key {
			return true
		}
	}
	return false
}

// EvaluationMetrics 聚合指标（百分比）
type EvaluationMetrics map[string]float64

// DetailedResult 逐题结果，指标值为 "1" / "0"
type DetailedResult struct {
	Question    string            `json:"question" yaml:"question"`
	Response    string            `json:"response" yaml:"response"`
	GroundTruth string            `json:"ground_truth" yaml:"ground_truth"`
	Scores      map[string]string `json:"scores" yaml:"scores"`
}

// Score 返回指标判定，非 "1" 一律视为 "0"
func (r *DetailedResult) Score(metric string) string {
	if r.Scores[metric] == "1" {
		return "1"
	}
	return "0"
}

// EvaluationResult 评估结果
type EvaluationResult struct {
	EvaluationID      string            `json:"evaluation_id" yaml:"evaluation_id"`
	EvaluationType    string            `json:"evaluation_type" yaml:"evaluation_type"`
	AgentName         string            `json:"agent_name" yaml:"agent_name"`
	TotalQuestions    int               `json:"total_questions" yaml:"total_questions"`
	Timestamp         time.Time         `json:"timestamp" yaml:"timestamp"`
	Username          string            `json:"username,omitempty" yaml:"username,omitempty"`
	FilePath          string            `json:"file_path" yaml:"file_path"`
	AggregatedResults EvaluationMetrics `json:"aggregated_results,omitempty" yaml:"aggregated_results,omitempty"`
	DetailedResults   []DetailedResult  `json:"detailed_results,omitempty" yaml:"detailed_results,omitempty"`
}
