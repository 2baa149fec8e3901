// Package setup 管理评估配置页的选择
package setup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ashwinyue/eval-console/internal/model"
	"github.com/ashwinyue/eval-console/internal/navigation"
	"github.com/ashwinyue/eval-console/internal/repository"
)

const (
	// StoreKey 配置快照的存储键
	StoreKey        = "setup-store"
	snapshotVersion = 0
)

// Regions pharos_udx 可选的区域
var Regions = []string{
	"Universal Studios Hollywood",
	"Universal Orlando Resort",
	"Universal Studios Japan",
	"Universal Studios Singapore",
	"Universal Beijing Resort",
}

var (
	// ErrInvalidSetup 配置不完整
	ErrInvalidSetup = errors.New("invalid evaluation setup")
)

// ValidationError 配置校验失败的全部原因
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, " ")
}

// Is 匹配 ErrInvalidSetup
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidSetup
}

// Update 部分更新，nil 字段保持不变
type Update struct {
	SelectedAgentIDs *[]string            `json:"selected_agent_ids"`
	EvaluationType   *model.EvaluationType `json:"evaluation_type"`
	GroundTruthID    *string               `json:"ground_truth_id"`
	Region           *string               `json:"region"`
}

// Store 配置选择容器
type Store struct {
	mu        sync.RWMutex
	state     model.SetupState
	snapshots repository.SnapshotStore
	logger    *zap.Logger
}

// NewStore 创建容器并从快照恢复
func NewStore(ctx context.Context, snapshots repository.SnapshotStore, logger *zap.Logger) (*Store, error) {
	if snapshots == nil {
		snapshots = repository.NewMemorySnapshotStore()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{snapshots: snapshots, logger: logger}

	var st model.SetupState
	ok, err := repository.LoadState(ctx, snapshots, StoreKey, snapshotVersion, &st)
	if err != nil {
		return nil, fmt.Errorf("restore setup: %w", err)
	}
	if ok {
		s.state = st
		logger.Info("setup store restored", zap.Strings("agents", st.SelectedAgentIDs))
	}
	return s, nil
}

// State 当前选择的拷贝
func (s *Store) State() model.SetupState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneState(s.state)
}

// Apply 合并更新，选中的 Agent 不含 pharos_udx 时清除区域
func (s *Store) Apply(ctx context.Context, u Update) (model.SetupState, error) {
	if u.EvaluationType != nil && *u.EvaluationType != "" && !u.EvaluationType.Valid() {
		return model.SetupState{}, &ValidationError{Problems: []string{
			fmt.Sprintf("Unknown evaluation type %q.", *u.EvaluationType),
		}}
	}
	if u.Region != nil && *u.Region != "" && !validRegion(*u.Region) {
		return model.SetupState{}, &ValidationError{Problems: []string{
			fmt.Sprintf("Unknown region %q.", *u.Region),
		}}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneState(s.state)
	if u.SelectedAgentIDs != nil {
		next.SelectedAgentIDs = append([]string(nil), (*u.SelectedAgentIDs)...)
	}
	if u.EvaluationType != nil {
		next.EvaluationType = *u.EvaluationType
	}
	if u.GroundTruthID != nil {
		next.GroundTruthID = emptyToNil(*u.GroundTruthID)
	}
	if u.Region != nil {
		next.Region = emptyToNil(*u.Region)
	}
	clearRegionIfNotPharos(&next, next.SelectedAgentIDs)

	if err := s.commitLocked(ctx, next); err != nil {
		return model.SetupState{}, err
	}
	return cloneState(next), nil
}

// ClearRegionIfNotPharos agentIDs 不含 pharos_udx 时清除区域
func (s *Store) ClearRegionIfNotPharos(ctx context.Context, agentIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneState(s.state)
	if !clearRegionIfNotPharos(&next, agentIDs) {
		return nil
	}
	return s.commitLocked(ctx, next)
}

func clearRegionIfNotPharos(st *model.SetupState, agentIDs []string) bool {
	for _, id := range agentIDs {
		if id == model.AgentPharosUDX {
			return false
		}
	}
	if st.Region == nil {
		return false
	}
	st.Region = nil
	return true
}

// Validate 需要选择 Agent；pharos_udx 还需要区域
func (s *Store) Validate() error {
	st := s.State()
	return validate(&st)
}

func validate(st *model.SetupState) error {
	var problems []string
	if len(st.SelectedAgentIDs) == 0 {
		problems = append(problems, "Please select an agent.")
	}
	if st.HasAgent(model.AgentPharosUDX) && (st.Region == nil || *st.Region == "") {
		problems = append(problems, "Select a Region for Pharos UDX.")
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Ready 校验通过且已选择评估类型
func (s *Store) Ready() bool {
	st := s.State()
	return validate(&st) == nil && st.EvaluationType != ""
}

// Proceed 校验后返回数据集页面的导航参数
func (s *Store) Proceed() (navigation.Params, error) {
	st := s.State()
	if err := validate(&st); err != nil {
		return navigation.Params{}, err
	}

	agent := st.SelectedAgentIDs[0]
	p := navigation.Params{
		Agent:   agent,
		Type:    string(st.EvaluationType),
		BackRef: navigation.SetupPath,
	}
	if agent == model.AgentPharosUDX && st.Region != nil {
		p.Region = *st.Region
	}
	return p, nil
}

func (s *Store) commitLocked(ctx context.Context, next model.SetupState) error {
	if err := repository.SaveState(ctx, s.snapshots, StoreKey, snapshotVersion, next); err != nil {
		return err
	}
	s.state = next
	return nil
}

func cloneState(st model.SetupState) model.SetupState {
	out := st
	if st.SelectedAgentIDs != nil {
		out.SelectedAgentIDs = append([]string(nil), st.SelectedAgentIDs...)
	}
	if st.GroundTruthID != nil {
		v := *st.GroundTruthID
		out.GroundTruthID = &v
	}
	if st.Region != nil {
		v := *st.Region
		out.Region = &v
	}
	return out
}

func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func validRegion(r string) bool {
	for _, v := range Regions {
		if v == r {
			return true
		}
	}
	return false
}
