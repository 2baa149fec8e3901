// Package trend 计算实验运行的趋势序列与汇总
package trend

import (
	"fmt"
	"sort"
	"time"

	"github.com/ashwinyue/eval-console/internal/model"
)

// DefaultMetric 默认展示的趋势指标
const DefaultMetric = model.MetricAnswerCorrectness

// Point 趋势图数据点，Index 从 1 开始
type Point struct {
	Index     int              `json:"run"`
	RunID     string           `json:"run_id"`
	Timestamp time.Time        `json:"timestamp"`
	Metrics   model.RunMetrics `json:"metrics"`
}

// Summary 单个指标的汇总，无数据时 Mean/Delta 为 nil
type Summary struct {
	Metric  string   `json:"metric"`
	Label   string   `json:"label"`
	HasData bool     `json:"has_data"`
	Mean    *float64 `json:"mean"`
	Delta   *float64 `json:"delta"`
}

// Series 只取实验运行，按时间从旧到新编号
func Series(runs []model.Run) []Point {
	exp := make([]model.Run, 0, len(runs))
	for _, r := range runs {
		if r.IsExperiment {
			exp = append(exp, r)
		}
	}
	// 先按时间倒序稳定排序再整体反转，同一时间的运行按输入逆序排列
	sort.SliceStable(exp, func(i, j int) bool {
		return exp[i].CreatedAt.After(exp[j].CreatedAt)
	})

	points := make([]Point, len(exp))
	for i := range exp {
		r := exp[len(exp)-1-i]
		points[i] = Point{
			Index:     i + 1,
			RunID:     r.ID,
			Timestamp: r.CreatedAt,
			Metrics:   r.Metrics,
		}
	}
	return points
}

// Summarize 逐指标计算均值与首尾差，只统计有值的点
// metrics 为空时汇总全部四个趋势指标
func Summarize(points []Point, metrics ...string) []Summary {
	if len(metrics) == 0 {
		metrics = model.TrendMetricKeys
	}
	out := make([]Summary, 0, len(metrics))
	for _, key := range metrics {
		var vals []float64
		for _, p := range points {
			if v := p.Metrics.Get(key); v != nil {
				vals = append(vals, *v)
			}
		}
		s := Summary{Metric: key, Label: Label(key)}
		if len(vals) > 0 {
			sum := 0.0
			for _, v := range vals {
				sum += v
			}
			mean := sum / float64(len(vals))
			delta := vals[len(vals)-1] - vals[0]
			s.HasData = true
			s.Mean = &mean
			s.Delta = &delta
		}
		out = append(out, s)
	}
	return out
}

// HasAnyData 选中指标中至少有一个点有值
func HasAnyData(points []Point, metrics ...string) bool {
	for _, s := range Summarize(points, metrics...) {
		if s.HasData {
			return true
		}
	}
	return false
}

// ValidateMetrics 只接受四个趋势指标
func ValidateMetrics(metrics []string) error {
	for _, m := range metrics {
		if Label(m) == "" {
			return fmt.Errorf("unknown trend metric %q", m)
		}
	}
	return nil
}

// Label 趋势指标展示名，未知指标返回空串
func Label(key string) string {
	for _, k := range model.TrendMetricKeys {
		if k != key {
			continue
		}
		for _, m := range model.DetailedMetricKeys {
			if m.Key == key {
				return m.Label
			}
		}
	}
	return ""
}

// Trend 趋势图接口返回
type Trend struct {
	AgentID          string    `json:"agent_id"`
	Points           []Point   `json:"points"`
	Summary          []Summary `json:"summary"`
	ExperimentsCount int       `json:"experiments_count"`
	HasData          bool      `json:"has_data"`
}

// Build 组装趋势图数据
func Build(agentID string, runs []model.Run, metrics ...string) *Trend {
	points := Series(runs)
	summary := Summarize(points, metrics...)
	hasData := false
	for _, s := range summary {
		hasData = hasData || s.HasData
	}
	return &Trend{
		AgentID:          agentID,
		Points:           points,
		Summary:          summary,
		ExperimentsCount: len(points),
		HasData:          hasData,
	}
}
