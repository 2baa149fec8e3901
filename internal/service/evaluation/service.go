// Package evaluation 提供评估的启动、模拟进度与结果组装
package evaluation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ashwinyue/eval-console/internal/clock"
	"github.com/ashwinyue/eval-console/internal/fixture"
	"github.com/ashwinyue/eval-console/internal/model"
	"github.com/ashwinyue/eval-console/internal/navigation"
	"github.com/ashwinyue/eval-console/internal/observability"
	"github.com/ashwinyue/eval-console/internal/repository"
	"github.com/ashwinyue/eval-console/internal/service/groundtruth"
)

const (
	// DefaultTick 进度刷新间隔
	DefaultTick = 200 * time.Millisecond
	// DefaultElapsedTick 耗时计数间隔
	DefaultElapsedTick = time.Second
	// DefaultLoadDelay 结果页模拟加载延迟
	DefaultLoadDelay = 400 * time.Millisecond
	// 保留的已结束任务数
	maxFinished = 256
)

// Datasets 评估所需的数据集查询
type Datasets interface {
	Get(id string) (model.GroundTruth, error)
	Selected() (model.GroundTruth, bool)
}

// StartRequest 启动评估请求
type StartRequest struct {
	Agent         string `json:"agent"`
	Type          string `json:"type"`
	GroundTruthID string `json:"ground_truth_id"`
	Region        string `json:"region"`
}

// Started 启动结果及进度页导航参数
type Started struct {
	Task   model.EvaluationTask `json:"task"`
	Params navigation.Params    `json:"params"`
	URL    string               `json:"url"`
}

// Progress 进度快照
type Progress struct {
	ID             string                     `json:"id"`
	Agent          string                     `json:"agent"`
	Type           model.EvaluationType       `json:"type"`
	GroundTruthID  string                     `json:"ground_truth_id"`
	Region         string                     `json:"region,omitempty"`
	Status         model.EvaluationTaskStatus `json:"status"`
	Progress       float64                    `json:"progress"`
	CurrentStep    int                        `json:"current_step"`
	StepLabel      string                     `json:"step_label"`
	Steps          []Step                     `json:"steps"`
	ElapsedSeconds int                        `json:"elapsed_seconds"`
	StartedAt      *time.Time                 `json:"started_at,omitempty"`
	CompletedAt    *time.Time                 `json:"completed_at,omitempty"`
}

// Done 任务是否已结束
func (p *Progress) Done() bool {
	return p.Status != model.EvaluationStatusRunning && p.Status != model.EvaluationStatusPending
}

type simulation struct {
	task    model.EvaluationTask
	sim     *simulator
	elapsed int
	ticker  clock.Timer
	counter clock.Timer
}

func (s *simulation) running() bool {
	return s.task.Status == model.EvaluationStatusRunning
}

// Service 评估服务
type Service struct {
	tasks       repository.EvaluationTaskRepository
	datasets    Datasets
	data        *fixture.Data
	clock       clock.Clock
	tick        time.Duration
	elapsedTick time.Duration
	loadDelay   time.Duration
	random      func() float64
	logger      *zap.Logger
	metrics     *observability.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	sims     map[string]*simulation
	finished []string
	closed   bool
}

// Option 配置 Service
type Option func(*Service)

// WithClock 注入时钟
func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithTicks 进度刷新与耗时计数间隔
func WithTicks(tick, elapsed time.Duration) Option {
	return func(s *Service) {
		if tick > 0 {
			s.tick = tick
		}
		if elapsed > 0 {
			s.elapsedTick = elapsed
		}
	}
}

// WithLoadDelay 结果加载延迟
func WithLoadDelay(d time.Duration) Option {
	return func(s *Service) { s.loadDelay = d }
}

// WithRandom 注入随机源，返回 [0, 1)
func WithRandom(f func() float64) Option {
	return func(s *Service) { s.random = f }
}

// WithLogger 注入日志器
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMetrics 注入指标
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService 创建评估服务
func NewService(tasks repository.EvaluationTaskRepository, datasets Datasets, data *fixture.Data, opts ...Option) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		tasks:       tasks,
		datasets:    datasets,
		data:        data,
		clock:       clock.New(),
		tick:        DefaultTick,
		elapsedTick: DefaultElapsedTick,
		loadDelay:   DefaultLoadDelay,
		random:      rand.Float64,
		logger:      zap.NewNop(),
		ctx:         ctx,
		cancel:      cancel,
		sims:        make(map[string]*simulation),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) stepLabels() []string {
	labels := make([]string, len(s.data.ProgressSteps))
	for i, st := range s.data.ProgressSteps {
		labels[i] = st.Label
	}
	return labels
}

// ========== 启动 ==========

// Start 校验配置与数据集，创建任务并开始模拟进度
func (s *Service) Start(ctx context.Context, req StartRequest) (*Started, error) {
	req.Agent = strings.TrimSpace(req.Agent)
	if req.Agent == "" {
		return nil, validationf("Please select an agent.")
	}
	if _, ok := s.data.Agent(req.Agent); !ok {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, req.Agent)
	}
	evalType := model.EvaluationType(req.Type)
	if !evalType.Valid() {
		return nil, validationf("Select an evaluation type.")
	}
	if req.Agent == model.AgentPharosUDX && req.Region == "" {
		return nil, validationf("Select a Region for Pharos UDX.")
	}

	gt, err := s.dataset(req.GroundTruthID)
	if err != nil {
		return nil, err
	}
	if err := groundtruth.ReadyForEvaluation(&gt); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", gt.ID, err)
	}

	now := s.clock.Now().UTC()
	task := model.EvaluationTask{
		ID:             model.NewID("evaluation", now, 7),
		AgentID:        req.Agent,
		EvaluationType: evalType,
		GroundTruthID:  gt.ID,
		Status:         model.EvaluationStatusRunning,
		StartedAt:      &now,
	}
	if req.Agent == model.AgentPharosUDX {
		task.Region = req.Region
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.mu.Unlock()

	if err := s.tasks.Create(ctx, &task); err != nil {
		return nil, fmt.Errorf("start evaluation: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	sim := &simulation{task: task, sim: newSimulator(s.stepLabels())}
	s.sims[task.ID] = sim
	id := task.ID
	s.wg.Add(2)
	sim.ticker = s.clock.AfterFunc(s.tick, func() { s.advance(id) })
	sim.counter = s.clock.AfterFunc(s.elapsedTick, func() { s.count(id) })
	s.mu.Unlock()

	s.metrics.RecordEvaluation("started")
	s.logger.Info("evaluation started",
		zap.String("id", task.ID),
		zap.String("agent", task.AgentID),
		zap.String("type", string(task.EvaluationType)),
		zap.String("ground_truth_id", task.GroundTruthID))

	params := navigation.Params{
		ID:            task.ID,
		Agent:         task.AgentID,
		Type:          string(task.EvaluationType),
		GroundTruthID: task.GroundTruthID,
		Region:        task.Region,
	}
	return &Started{Task: task, Params: params, URL: params.URL(navigation.ProgressPath)}, nil
}

// dataset 指定 ID 或当前选中的数据集
func (s *Service) dataset(id string) (model.GroundTruth, error) {
	if id == "" {
		gt, ok := s.datasets.Selected()
		if !ok {
			return model.GroundTruth{}, validationf("select a dataset")
		}
		return gt, nil
	}
	gt, err := s.datasets.Get(id)
	if err != nil {
		return model.GroundTruth{}, fmt.Errorf("start evaluation: %w", err)
	}
	return gt, nil
}

// ========== 模拟进度 ==========

// advance 进度定时器回调
func (s *Service) advance(id string) {
	defer s.wg.Done()

	s.mu.Lock()
	sim, ok := s.sims[id]
	if !ok || !sim.running() || s.closed {
		s.mu.Unlock()
		return
	}

	completed := sim.sim.tick(s.random())
	sim.task.Progress = sim.sim.progress
	sim.task.CurrentStep = sim.sim.stepIndex
	if !completed {
		s.wg.Add(1)
		sim.ticker = s.clock.AfterFunc(s.tick, func() { s.advance(id) })
		s.mu.Unlock()
		return
	}

	now := s.clock.Now().UTC()
	sim.task.Status = model.EvaluationStatusCompleted
	sim.task.CompletedAt = &now
	s.stopCounterLocked(sim)
	s.finishLocked(id)
	task, elapsed := sim.task, sim.elapsed
	s.mu.Unlock()

	s.persist(task)
	s.metrics.RecordEvaluation(string(model.EvaluationStatusCompleted))
	s.logger.Info("evaluation completed", zap.String("id", id), zap.Int("elapsed_seconds", elapsed))
}

// count 耗时定时器回调
func (s *Service) count(id string) {
	defer s.wg.Done()

	s.mu.Lock()
	defer s.mu.Unlock()
	sim, ok := s.sims[id]
	if !ok || !sim.running() || s.closed {
		return
	}
	sim.elapsed++
	s.wg.Add(1)
	sim.counter = s.clock.AfterFunc(s.elapsedTick, func() { s.count(id) })
}

func (s *Service) stopCounterLocked(sim *simulation) {
	if sim.counter != nil && sim.counter.Stop() {
		s.wg.Done()
	}
}

func (s *Service) stopTimersLocked(sim *simulation) {
	if sim.ticker != nil && sim.ticker.Stop() {
		s.wg.Done()
	}
	s.stopCounterLocked(sim)
}

// finishLocked 记录已结束任务，超出上限时丢弃最早的
func (s *Service) finishLocked(id string) {
	s.finished = append(s.finished, id)
	if len(s.finished) > maxFinished {
		delete(s.sims, s.finished[0])
		s.finished = s.finished[1:]
	}
}

func (s *Service) persist(task model.EvaluationTask) {
	if err := s.tasks.Update(s.ctx, &task); err != nil {
		s.logger.Warn("persist evaluation failed", zap.String("id", task.ID), zap.Error(err))
	}
}

// Progress 进度快照
func (s *Service) Progress(ctx context.Context, id string) (*Progress, error) {
	s.mu.Lock()
	if sim, ok := s.sims[id]; ok {
		p := sim.snapshot()
		s.mu.Unlock()
		return p, nil
	}
	s.mu.Unlock()

	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("evaluation progress: %w", err)
	}
	sim := &simulation{task: *task, sim: newSimulator(s.stepLabels())}
	sim.sim.stepIndex = task.CurrentStep
	sim.sim.progress = task.Progress
	if task.StartedAt != nil {
		end := s.clock.Now()
		if task.CompletedAt != nil {
			end = *task.CompletedAt
		}
		sim.elapsed = int(end.Sub(*task.StartedAt) / time.Second)
	}
	return sim.snapshot(), nil
}

// snapshot 调用方需持有 Service 的锁或独占 sim
func (sim *simulation) snapshot() *Progress {
	t := sim.task
	return &Progress{
		ID:             t.ID,
		Agent:          t.AgentID,
		Type:           t.EvaluationType,
		GroundTruthID:  t.GroundTruthID,
		Region:         t.Region,
		Status:         t.Status,
		Progress:       t.Progress,
		CurrentStep:    t.CurrentStep,
		StepLabel:      sim.sim.currentLabel(),
		Steps:          sim.sim.steps(t.Status == model.EvaluationStatusCompleted),
		ElapsedSeconds: sim.elapsed,
		StartedAt:      t.StartedAt,
		CompletedAt:    t.CompletedAt,
	}
}

// Cancel 停止模拟，已结束的任务原样返回
func (s *Service) Cancel(ctx context.Context, id string) (*Progress, error) {
	s.mu.Lock()
	sim, ok := s.sims[id]
	if !ok {
		s.mu.Unlock()
		return s.Progress(ctx, id)
	}
	if !sim.running() {
		p := sim.snapshot()
		s.mu.Unlock()
		return p, nil
	}

	s.stopTimersLocked(sim)
	now := s.clock.Now().UTC()
	sim.task.Status = model.EvaluationStatusCancelled
	sim.task.CompletedAt = &now
	s.finishLocked(id)
	task := sim.task
	p := sim.snapshot()
	s.mu.Unlock()

	s.persist(task)
	s.metrics.RecordEvaluation(string(model.EvaluationStatusCancelled))
	s.logger.Info("evaluation cancelled", zap.String("id", id))
	return p, nil
}

// Close 停止所有模拟并等待进行中的回调结束
func (s *Service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	now := s.clock.Now().UTC()
	var cancelled []model.EvaluationTask
	for _, sim := range s.sims {
		if !sim.running() {
			continue
		}
		s.stopTimersLocked(sim)
		sim.task.Status = model.EvaluationStatusCancelled
		sim.task.CompletedAt = &now
		cancelled = append(cancelled, sim.task)
	}
	s.mu.Unlock()

	s.wg.Wait()

	// 关闭前写回被取消的任务
	for _, task := range cancelled {
		s.persist(task)
		s.metrics.RecordEvaluation(string(model.EvaluationStatusCancelled))
	}
	s.cancel()
}

// ========== 结果 ==========

// Result 进度页跳转来的结果，需要 id、agent、type
func (s *Service) Result(ctx context.Context, p navigation.Params) (*model.EvaluationResult, error) {
	if err := p.Require(navigation.KeyID, navigation.KeyAgent, navigation.KeyType); err != nil {
		return nil, err
	}
	if err := s.clock.Sleep(ctx, s.loadDelay); err != nil {
		return nil, err
	}

	agg := s.data.Aggregated
	return &model.EvaluationResult{
		EvaluationID:      p.ID,
		EvaluationType:    p.Type,
		AgentName:         p.Agent,
		TotalQuestions:    agg.TotalQuestions,
		Timestamp:         agg.Timestamp,
		Username:          agg.Username,
		FilePath:          agg.FilePath,
		AggregatedResults: copyMetrics(agg.AggregatedResults),
		DetailedResults:   s.data.DetailedResults(),
	}, nil
}

// LatestForAgent 直接查看 Agent 的最近结果，由最后一条趋势数据合成
func (s *Service) LatestForAgent(ctx context.Context, agentID string) (*model.EvaluationResult, error) {
	if _, ok := s.data.Agent(agentID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, agentID)
	}
	if err := s.clock.Sleep(ctx, s.loadDelay); err != nil {
		return nil, err
	}

	res := &model.EvaluationResult{
		EvaluationID:      fmt.Sprintf("history_%s_latest", agentID),
		EvaluationType:    string(model.EvaluationPointwise),
		AgentName:         agentID,
		TotalQuestions:    100,
		Timestamp:         s.clock.Now().UTC(),
		FilePath:          "/mock/latest.csv",
		AggregatedResults: model.EvaluationMetrics{},
		DetailedResults:   s.data.DetailedResults(),
	}
	row, ok := s.data.LastTrendRow(agentID)
	if !ok {
		return res, nil
	}
	res.EvaluationID = fmt.Sprintf("history_%s_%d", agentID, row.Run)
	res.Timestamp = row.Timestamp.UTC()
	metrics := row.Metrics()
	for key, v := range map[string]*float64{
		model.MetricAnswerCorrectness: metrics.AnswerCorrectness,
		model.MetricAnswerRelevancy:   metrics.AnswerRelevancy,
		model.MetricCoherence:         metrics.Coherence,
		model.MetricConciseness:       metrics.Conciseness,
	} {
		if v != nil {
			res.AggregatedResults[key] = *v
		}
	}
	return res, nil
}

func copyMetrics(m model.EvaluationMetrics) model.EvaluationMetrics {
	out := make(model.EvaluationMetrics, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
