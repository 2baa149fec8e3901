// Package fixture 提供内嵌的模拟数据
// Agent 列表、历史运行趋势、评估结果与初始数据集均来自 data/ 下的 YAML
package fixture

import (
	"embed"
	"fmt"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ashwinyue/eval-console/internal/model"
)

//go:embed data/*.yaml
var dataFS embed.FS

// 最新的若干次运行默认标记为实验
const defaultExperimentRuns = 3

// TrendRow 趋势数据行
type TrendRow struct {
	Run               int       `yaml:"run"`
	Timestamp         time.Time `yaml:"timestamp"`
	AnswerCorrectness *float64  `yaml:"Answer_Correctness"`
	AnswerRelevancy   *float64  `yaml:"Answer_Relevancy"`
	Coherence         *float64  `yaml:"Coherence"`
	Conciseness       *float64  `yaml:"Conciseness"`
}

// Metrics 转换为运行指标
func (r TrendRow) Metrics() model.RunMetrics {
	return model.RunMetrics{
		AnswerCorrectness: r.AnswerCorrectness,
		AnswerRelevancy:   r.AnswerRelevancy,
		Coherence:         r.Coherence,
		Conciseness:       r.Conciseness,
	}
}

// ProgressStep 模拟评估的阶段
type ProgressStep struct {
	Label      string `yaml:"label" json:"label"`
	DurationMs int    `yaml:"duration_ms" json:"duration_ms"`
}

// Data 全部模拟数据
type Data struct {
	Agents            []model.Agent
	Trends            map[string][]TrendRow
	RecentEvaluations []model.EvaluationResult
	Aggregated        model.EvaluationResult
	Detailed          []model.DetailedResult
	GroundTruths      []model.GroundTruth
	ProgressSteps     []ProgressStep
}

type agentsFile struct {
	Agents []model.Agent `yaml:"agents"`
}

type trendsFile struct {
	Trends map[string][]TrendRow `yaml:"trends"`
}

type evaluationsFile struct {
	Recent     []model.EvaluationResult `yaml:"recent"`
	Aggregated model.EvaluationResult   `yaml:"aggregated"`
	Detailed   []model.DetailedResult   `yaml:"detailed"`
}

type groundTruthsFile struct {
	GroundTruths []model.GroundTruth `yaml:"ground_truths"`
}

type progressFile struct {
	Steps []ProgressStep `yaml:"steps"`
}

var (
	loadOnce sync.Once
	loaded   *Data
	loadErr  error
)

// Load 解析内嵌数据，结果在进程内缓存
func Load() (*Data, error) {
	loadOnce.Do(func() {
		loaded, loadErr = parse()
	})
	return loaded, loadErr
}

// MustLoad 解析内嵌数据，失败时 panic
func MustLoad() *Data {
	d, err := Load()
	if err != nil {
		panic(fmt.Sprintf("load fixtures: %v", err))
	}
	return d
}

func parse() (*Data, error) {
	var (
		agents agentsFile
		trends trendsFile
		evals  evaluationsFile
		gts    groundTruthsFile
		steps  progressFile
	)
	files := []struct {
		name string
		out  interface{}
	}{
		{"data/agents.yaml", &agents},
		{"data/trends.yaml", &trends},
		{"data/evaluations.yaml", &evals},
		{"data/ground_truths.yaml", &gts},
		{"data/progress.yaml", &steps},
	}
	for _, f := range files {
		raw, err := dataFS.ReadFile(f.name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.name, err)
		}
		if err := yaml.Unmarshal(raw, f.out); err != nil {
			return nil, fmt.Errorf("parse %s: %w", f.name, err)
		}
	}

	return &Data{
		Agents:            agents.Agents,
		Trends:            trends.Trends,
		RecentEvaluations: evals.Recent,
		Aggregated:        evals.Aggregated,
		Detailed:          evals.Detailed,
		GroundTruths:      gts.GroundTruths,
		ProgressSteps:     steps.Steps,
	}, nil
}

// Agent 按 ID 查找 Agent
func (d *Data) Agent(id string) (model.Agent, bool) {
	for _, a := range d.Agents {
		if a.ID == id {
			return a, true
		}
	}
	return model.Agent{}, false
}

// AgentIDs 有趋势数据的 Agent，按字典序
func (d *Data) AgentIDs() []string {
	ids := make([]string, 0, len(d.Trends))
	for id := range d.Trends {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Runs 由趋势数据派生运行记录，ID 为 "<agent>-<run>"，最新三次标记为实验
func (d *Data) Runs(agentID string) []model.Run {
	rows := d.Trends[agentID]
	runs := make([]model.Run, 0, len(rows))
	for i, row := range rows {
		runs = append(runs, model.Run{
			ID:           fmt.Sprintf("%s-%d", agentID, row.Run),
			AgentID:      agentID,
			RunNumber:    row.Run,
			CreatedAt:    row.Timestamp.UTC(),
			IsExperiment: i >= len(rows)-defaultExperimentRuns,
			Metrics:      row.Metrics(),
		})
	}
	return runs
}

// AllRuns 全部 Agent 的运行记录
func (d *Data) AllRuns() []model.Run {
	var runs []model.Run
	for _, id := range d.AgentIDs() {
		runs = append(runs, d.Runs(id)...)
	}
	return runs
}

// LastTrendRow Agent 最后一条趋势数据
func (d *Data) LastTrendRow(agentID string) (TrendRow, bool) {
	rows := d.Trends[agentID]
	if len(rows) == 0 {
		return TrendRow{}, false
	}
	return rows[len(rows)-1], true
}

// SeedGroundTruths 初始数据集的深拷贝
func (d *Data) SeedGroundTruths() []model.GroundTruth {
	out := make([]model.GroundTruth, len(d.GroundTruths))
	for i, gt := range d.GroundTruths {
		out[i] = gt.Clone()
	}
	return out
}

// DetailedResults 逐题结果的拷贝
func (d *Data) DetailedResults() []model.DetailedResult {
	out := make([]model.DetailedResult, len(d.Detailed))
	for i, r := range d.Detailed {
		scores := make(map[string]string, len(r.Scores))
		for k, v := range r.Scores {
			scores[k] = v
		}
		out[i] = r
		out[i].Scores = scores
	}
	return out
}
