package results

import (
	"fmt"
	"sort"

	"github.com/ashwinyue/eval-console/internal/model"
)

// ViewMode 按判定筛选
type ViewMode string

const (
	ViewAll  ViewMode = "all"
	ViewPass ViewMode = "pass"
	ViewFail ViewMode = "fail"
)

// SortMode 按判定排序
type SortMode string

const (
	SortNone      SortMode = "none"
	SortPassFirst SortMode = "pass-first"
	SortFailFirst SortMode = "fail-first"
)

// ParseViewMode 空值视为 all
func ParseViewMode(s string) (ViewMode, error) {
	switch ViewMode(s) {
	case "", ViewAll:
		return ViewAll, nil
	case ViewPass, ViewFail:
		return ViewMode(s), nil
	}
	return "", fmt.Errorf("unknown view mode %q", s)
}

// ParseSortMode 空值视为 none
func ParseSortMode(s string) (SortMode, error) {
	switch SortMode(s) {
	case "", SortNone:
		return SortNone, nil
	case SortPassFirst, SortFailFirst:
		return SortMode(s), nil
	}
	return "", fmt.Errorf("unknown sort mode %q", s)
}

// FilterByMetric 按指标判定筛选，返回新切片
func FilterByMetric(rows []model.DetailedResult, metric string, mode ViewMode) []model.DetailedResult {
	out := make([]model.DetailedResult, 0, len(rows))
	for _, r := range rows {
		switch mode {
		case ViewPass:
			if r.Score(metric) != "1" {
				continue
			}
		case ViewFail:
			if r.Score(metric) != "0" {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// SortByMetric 按判定稳定排序，返回新切片
func SortByMetric(rows []model.DetailedResult, metric string, mode SortMode) []model.DetailedResult {
	out := append([]model.DetailedResult(nil), rows...)
	if mode == SortNone {
		return out
	}
	first := "1"
	if mode == SortFailFirst {
		first = "0"
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score(metric) == first && out[j].Score(metric) != first
	})
	return out
}

// TableView 逐题结果表的筛选状态
type TableView struct {
	Metric string   `json:"metric,omitempty"` // 空表示未选择
	View   ViewMode `json:"view"`
	Sort   SortMode `json:"sort"`
}

// NewTableView 初始状态：未选指标、全部、不排序
func NewTableView() *TableView {
	return &TableView{View: ViewAll, Sort: SortNone}
}

// SelectMetric 再次选择同一指标时清除选择并复位；选择新指标时 none 提升为 pass-first
func (v *TableView) SelectMetric(metric string) error {
	if metric == v.Metric {
		v.Metric = ""
		v.View = ViewAll
		v.Sort = SortNone
		return nil
	}
	if !model.IsDetailedMetric(metric) {
		return fmt.Errorf("unknown metric %q", metric)
	}
	v.Metric = metric
	if v.Sort == SortNone {
		v.Sort = SortPassFirst
	}
	return nil
}

// SetViewMode 未选指标时只允许 all
func (v *TableView) SetViewMode(mode ViewMode) {
	if v.Metric == "" && mode != ViewAll {
		return
	}
	v.View = mode
}

// CycleSortMode none -> pass-first -> fail-first -> none，未选指标时无效
func (v *TableView) CycleSortMode() {
	if v.Metric == "" {
		return
	}
	switch v.Sort {
	case SortNone:
		v.Sort = SortPassFirst
	case SortPassFirst:
		v.Sort = SortFailFirst
	default:
		v.Sort = SortNone
	}
}

// Apply 先筛选再排序，未选指标时原样返回副本
func (v *TableView) Apply(rows []model.DetailedResult) []model.DetailedResult {
	if v.Metric == "" {
		return append([]model.DetailedResult(nil), rows...)
	}
	return SortByMetric(FilterByMetric(rows, v.Metric, v.View), v.Metric, v.Sort)
}
