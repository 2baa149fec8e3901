// Package run 管理评估运行记录与实验标记的乐观切换
package run

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ashwinyue/eval-console/internal/clock"
	"github.com/ashwinyue/eval-console/internal/model"
	"github.com/ashwinyue/eval-console/internal/observability"
	"github.com/ashwinyue/eval-console/internal/repository"
)

const (
	// DefaultPageSize 运行列表每页条数
	DefaultPageSize = 20
	// DefaultLatency 实验标记确认延迟
	DefaultLatency = 300 * time.Millisecond
	// 保留的已结束切换记录数
	maxSettled = 512
)

var (
	// ErrClosed 服务已关闭
	ErrClosed = errors.New("run service closed")
	// ErrTransitionNotFound 切换记录不存在
	ErrTransitionNotFound = errors.New("toggle transition not found")
	// ErrSimulatedFailure 模拟的确认失败
	ErrSimulatedFailure = errors.New("experiment update rejected")
)

// State 切换状态
type State string

const (
	StatePending   State = "pending"   // 已在本地生效，等待确认
	StateCommitted State = "committed" // 已写入仓库
	StateReverted  State = "reverted"  // 确认失败，本地已回滚
	StateCancelled State = "cancelled" // 被新的切换或关闭取消
)

// Transition 一次实验标记切换
type Transition struct {
	ID          string     `json:"id"`
	RunID       string     `json:"run_id"`
	AgentID     string     `json:"agent_id"`
	From        bool       `json:"from"`
	To          bool       `json:"to"`
	State       State      `json:"state"`
	Error       string     `json:"error,omitempty"`
	RequestedAt time.Time  `json:"requested_at"`
	SettledAt   *time.Time `json:"settled_at,omitempty"`
}

// Page 分页结果
type Page struct {
	Items    []model.Run `json:"items"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

type inflight struct {
	transitionID string
	timer        clock.Timer
	writing      bool // 确认已开始写仓库，由 confirm 负责结束
}

// Service 运行记录服务
type Service struct {
	runs        repository.RunRepository
	clock       clock.Clock
	latency     time.Duration
	failureRate float64
	random      func() float64
	logger      *zap.Logger
	metrics     *observability.Metrics
	events      *bus

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	local       map[string]bool // runID -> 乐观值
	inflight    map[string]*inflight
	transitions map[string]*Transition
	settled     []string
	closed      bool
}

// Option 配置 Service
type Option func(*Service)

// WithClock 注入时钟
func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithLatency 确认延迟
func WithLatency(d time.Duration) Option {
	return func(s *Service) { s.latency = d }
}

// WithFailureRate 模拟确认失败的概率 [0, 1]
func WithFailureRate(rate float64) Option {
	return func(s *Service) { s.failureRate = rate }
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

// NewService 创建运行记录服务
func NewService(runs repository.RunRepository, opts ...Option) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		runs:        runs,
		clock:       clock.New(),
		latency:     DefaultLatency,
		random:      rand.Float64,
		logger:      zap.NewNop(),
		events:      newBus(),
		ctx:         ctx,
		cancel:      cancel,
		local:       make(map[string]bool),
		inflight:    make(map[string]*inflight),
		transitions: make(map[string]*Transition),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed 写入初始运行记录
func (s *Service) Seed(ctx context.Context, runs []model.Run) error {
	if err := s.runs.Seed(ctx, runs); err != nil {
		return fmt.Errorf("seed runs: %w", err)
	}
	return nil
}

// Subscribe 订阅切换状态变化，返回取消订阅函数
func (s *Service) Subscribe(l Listener) func() {
	return s.events.subscribe(l)
}

// ========== 查询 ==========

// Runs Agent 的运行记录（含乐观值），按创建时间升序
func (s *Service) Runs(ctx context.Context, agentID string) ([]model.Run, error) {
	runs, err := s.runs.ListByAgent(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	s.mu.Lock()
	for i := range runs {
		if v, ok := s.local[runs[i].ID]; ok {
			runs[i].IsExperiment = v
		}
	}
	s.mu.Unlock()
	return runs, nil
}

// List 运行列表，最新在前
func (s *Service) List(ctx context.Context, agentID string, page, pageSize int) (*Page, error) {
	runs, err := s.Runs(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})

	start := (page - 1) * pageSize
	if start > len(runs) {
		start = len(runs)
	}
	end := start + pageSize
	if end > len(runs) {
		end = len(runs)
	}
	return &Page{
		Items:    runs[start:end],
		Total:    len(runs),
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// Latest Agent 最近一次运行，无记录时返回 nil
func (s *Service) Latest(ctx context.Context, agentID string) (*model.Run, error) {
	runs, err := s.Runs(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	latest := runs[0]
	for _, r := range runs[1:] {
		if !r.CreatedAt.Before(latest.CreatedAt) {
			latest = r
		}
	}
	return &latest, nil
}

// Transition 查询切换状态
func (s *Service) Transition(id string) (Transition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transitions[id]
	if !ok {
		return Transition{}, fmt.Errorf("%w: %s", ErrTransitionNotFound, id)
	}
	return *t, nil
}

// ========== 乐观切换 ==========

// Toggle 立即更新本地值，并在延迟后向仓库确认
// 确认失败时回滚本地值；同一运行上尚未开始写仓库的切换会被取消，已在写入的由确认结果结束
func (s *Service) Toggle(ctx context.Context, runID string, value bool) (Transition, error) {
	run, err := s.runs.Get(ctx, runID)
	if err != nil {
		return Transition{}, fmt.Errorf("toggle experiment: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Transition{}, ErrClosed
	}

	now := s.clock.Now().UTC()
	var superseded []Transition
	if prev, ok := s.inflight[runID]; ok {
		if prev.timer.Stop() {
			s.wg.Done()
		}
		if !prev.writing {
			if t := s.settleLocked(prev.transitionID, StateCancelled, "", now); t != nil {
				superseded = append(superseded, *t)
			}
		}
		delete(s.inflight, runID)
	}

	t := &Transition{
		ID:          model.NewID("toggle", now, 7),
		RunID:       runID,
		AgentID:     run.AgentID,
		From:        run.IsExperiment,
		To:          value,
		State:       StatePending,
		RequestedAt: now,
	}
	s.transitions[t.ID] = t
	s.local[runID] = value

	id := t.ID
	s.wg.Add(1)
	s.inflight[runID] = &inflight{
		transitionID: id,
		timer:        s.clock.AfterFunc(s.latency, func() { s.confirm(id) }),
	}
	pending := *t
	s.mu.Unlock()

	for _, c := range superseded {
		s.metrics.RecordToggle(string(StateCancelled))
		s.logger.Debug("experiment toggle superseded", zap.String("transition", c.ID))
	}
	s.events.publish(append(superseded, pending)...)
	return pending, nil
}

// confirm 定时器回调：写入仓库或回滚
func (s *Service) confirm(id string) {
	defer s.wg.Done()

	s.mu.Lock()
	t, ok := s.transitions[id]
	if !ok || t.State != StatePending || s.closed {
		s.mu.Unlock()
		return
	}
	runID, value := t.RunID, t.To
	if cur, ok := s.inflight[runID]; ok && cur.transitionID == id {
		cur.writing = true
	}
	s.mu.Unlock()

	var err error
	if s.failureRate > 0 && s.random() < s.failureRate {
		err = ErrSimulatedFailure
	} else {
		err = s.runs.SetExperiment(s.ctx, runID, value)
	}

	s.mu.Lock()
	if cur, ok := s.inflight[runID]; ok && cur.transitionID == id {
		delete(s.inflight, runID)
		// 仓库值即最终值，成功与失败都清除本地覆盖
		delete(s.local, runID)
	}
	state, msg := StateCommitted, ""
	if err != nil {
		state, msg = StateReverted, err.Error()
	}
	settled := s.settleLocked(id, state, msg, s.clock.Now().UTC())
	s.mu.Unlock()

	if settled == nil {
		return
	}
	if err != nil {
		s.logger.Warn("experiment toggle reverted",
			zap.String("run_id", runID), zap.Bool("value", value), zap.Error(err))
	} else {
		s.logger.Info("experiment toggle committed", zap.String("run_id", runID), zap.Bool("value", value))
	}
	s.metrics.RecordToggle(string(state))
	s.events.publish(*settled)
}

// settleLocked 结束一次切换，已结束时返回 nil
func (s *Service) settleLocked(id string, state State, msg string, now time.Time) *Transition {
	t, ok := s.transitions[id]
	if !ok || t.State != StatePending {
		return nil
	}
	t.State = state
	t.Error = msg
	t.SettledAt = &now

	s.settled = append(s.settled, id)
	if len(s.settled) > maxSettled {
		delete(s.transitions, s.settled[0])
		s.settled = s.settled[1:]
	}
	out := *t
	return &out
}

// Close 取消所有未确认的切换并等待进行中的确认结束
func (s *Service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	now := s.clock.Now().UTC()
	var cancelled []Transition
	for runID, in := range s.inflight {
		if in.timer.Stop() {
			s.wg.Done()
		}
		if !in.writing {
			if t := s.settleLocked(in.transitionID, StateCancelled, "", now); t != nil {
				cancelled = append(cancelled, *t)
			}
		}
		delete(s.local, runID)
		delete(s.inflight, runID)
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()

	for range cancelled {
		s.metrics.RecordToggle(string(StateCancelled))
	}
	s.events.publish(cancelled...)
}
