package groundtruth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ashwinyue/eval-console/internal/clock"
	"github.com/ashwinyue/eval-console/internal/model"
	"github.com/ashwinyue/eval-console/internal/repository"
)

const (
	// StoreKey 数据集快照的存储键
	StoreKey = "ground-truth-store"
	// 当前快照格式版本
	snapshotVersion = 0
	// TagAll 不按标签过滤
	TagAll = "all"
)

// storeState 持久化的状态树
type storeState struct {
	GroundTruths  []model.GroundTruth `json:"ground_truths"`
	LastUpdatedAt *time.Time          `json:"last_updated_at"`
}

// Patch 部分更新，nil 字段保持不变
type Patch struct {
	Name        *string
	Description *string
	Tags        *[]string
	RowsCount   *int
	FilePath    *string
	FileHash    *string
	SchemaMap   *model.SchemaMap
	Metadata    *model.JSON
	Sample      *[]model.SampleRow
}

// Store 数据集容器
// 每次变更先写快照，写入成功后才替换内存状态
type Store struct {
	mu            sync.RWMutex
	items         []model.GroundTruth
	lastUpdatedAt *time.Time
	selectedID    string

	snapshots repository.SnapshotStore
	clock     clock.Clock
	logger    *zap.Logger
	seed      []model.GroundTruth
}

// StoreOption 配置 Store
type StoreOption func(*Store)

// WithClock 注入时钟
func WithClock(c clock.Clock) StoreOption {
	return func(s *Store) { s.clock = c }
}

// WithLogger 注入日志器
func WithLogger(l *zap.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// WithSeed 无快照时载入的初始数据集
func WithSeed(seed []model.GroundTruth) StoreOption {
	return func(s *Store) { s.seed = seed }
}

// NewStore 创建数据集容器并从快照恢复
func NewStore(ctx context.Context, snapshots repository.SnapshotStore, opts ...StoreOption) (*Store, error) {
	s := &Store{
		snapshots: snapshots,
		clock:     clock.New(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.snapshots == nil {
		s.snapshots = repository.NewMemorySnapshotStore()
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// load 恢复快照，缺失时使用初始数据集
func (s *Store) load(ctx context.Context) error {
	var st storeState
	ok, err := repository.LoadState(ctx, s.snapshots, StoreKey, snapshotVersion, &st)
	if err != nil {
		return fmt.Errorf("restore ground truths: %w", err)
	}
	if !ok {
		s.items = cloneAll(s.seed)
		s.logger.Info("ground truth store seeded", zap.Int("count", len(s.items)))
		return nil
	}
	s.items = st.GroundTruths
	s.lastUpdatedAt = st.LastUpdatedAt
	s.logger.Info("ground truth store restored", zap.Int("count", len(s.items)))
	return nil
}

// commitLocked 写快照并替换状态，调用方持有写锁
func (s *Store) commitLocked(ctx context.Context, items []model.GroundTruth, now time.Time) error {
	st := storeState{GroundTruths: items, LastUpdatedAt: &now}
	if err := repository.SaveState(ctx, s.snapshots, StoreKey, snapshotVersion, st); err != nil {
		return err
	}
	s.items = items
	s.lastUpdatedAt = &now
	return nil
}

func (s *Store) indexLocked(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

// Add 追加数据集，ID 重复时返回 ErrDatasetExists
func (s *Store) Add(ctx context.Context, gt model.GroundTruth) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(gt.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDatasetExists, gt.ID)
	}
	items := append(cloneAll(s.items), gt.Clone())
	return s.commitLocked(ctx, items, s.clock.Now().UTC())
}

// Update 合并非 nil 字段并刷新 updatedAt，ID 不存在时返回 false
func (s *Store) Update(ctx context.Context, id string, p Patch) (model.GroundTruth, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return model.GroundTruth{}, false, nil
	}

	now := s.clock.Now().UTC()
	items := cloneAll(s.items)
	gt := &items[i]
	applyPatch(gt, p)
	gt.UpdatedAt = now

	if err := s.commitLocked(ctx, items, now); err != nil {
		return model.GroundTruth{}, true, err
	}
	return gt.Clone(), true, nil
}

func applyPatch(gt *model.GroundTruth, p Patch) {
	if p.Name != nil {
		gt.Name = *p.Name
	}
	if p.Description != nil {
		gt.Description = *p.Description
	}
	if p.Tags != nil {
		gt.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.RowsCount != nil {
		gt.RowsCount = *p.RowsCount
	}
	if p.FilePath != nil {
		gt.FilePath = *p.FilePath
	}
	if p.FileHash != nil {
		gt.FileHash = *p.FileHash
	}
	if p.SchemaMap != nil {
		gt.SchemaMap = *p.SchemaMap
	}
	if p.Metadata != nil {
		gt.Metadata = *p.Metadata
	}
	if p.Sample != nil {
		gt.Sample = append([]model.SampleRow(nil), (*p.Sample)...)
	}
}

// Delete 删除数据集，被选中时清除选择；ID 不存在时不做任何事
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return false, nil
	}
	items := make([]model.GroundTruth, 0, len(s.items)-1)
	items = append(items, s.items[:i]...)
	items = append(items, s.items[i+1:]...)

	if err := s.commitLocked(ctx, items, s.clock.Now().UTC()); err != nil {
		return true, err
	}
	if s.selectedID == id {
		s.selectedID = ""
	}
	return true, nil
}

// Duplicate 复制数据集：新 ID、名称追加 " Copy"、重置时间戳，并选中副本
func (s *Store) Duplicate(ctx context.Context, id string) (model.GroundTruth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return model.GroundTruth{}, fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
	}

	now := s.clock.Now().UTC()
	dup := s.items[i].Clone()
	dup.ID = model.NewID("gt", now, 9)
	dup.Name = dup.Name + " Copy"
	dup.CreatedAt = now
	dup.UpdatedAt = now

	items := append(cloneAll(s.items), dup)
	if err := s.commitLocked(ctx, items, now); err != nil {
		return model.GroundTruth{}, err
	}
	s.selectedID = dup.ID
	return dup.Clone(), nil
}

// Get 按 ID 获取
func (s *Store) Get(id string) (model.GroundTruth, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(id)
	if i < 0 {
		return model.GroundTruth{}, false
	}
	return s.items[i].Clone(), true
}

// List 全部数据集，保持插入顺序
func (s *Store) List() []model.GroundTruth {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.items)
}

// Search 名称或描述包含 query（忽略大小写），且标签匹配
func (s *Store) Search(query, tag string) []model.GroundTruth {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	out := make([]model.GroundTruth, 0, len(s.items))
	for _, gt := range s.items {
		matchesSearch := strings.Contains(strings.ToLower(gt.Name), q) ||
			strings.Contains(strings.ToLower(gt.Description), q)
		matchesTag := tag == "" || tag == TagAll || gt.HasTag(tag)
		if matchesSearch && matchesTag {
			out = append(out, gt.Clone())
		}
	}
	return out
}

// Tags 去重后的标签，按首次出现顺序
func (s *Store) Tags() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	tags := []string{}
	for _, gt := range s.items {
		for _, t := range gt.Tags {
			if !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}
	return tags
}

// Select 选中数据集，空字符串清除选择
func (s *Store) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" && s.indexLocked(id) < 0 {
		return fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
	}
	s.selectedID = id
	return nil
}

// Selected 当前选中的数据集
func (s *Store) Selected() (model.GroundTruth, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selectedID == "" {
		return model.GroundTruth{}, false
	}
	i := s.indexLocked(s.selectedID)
	if i < 0 {
		return model.GroundTruth{}, false
	}
	return s.items[i].Clone(), true
}

// LastUpdatedAt 最近一次变更时间
func (s *Store) LastUpdatedAt() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastUpdatedAt == nil {
		return nil
	}
	t := *s.lastUpdatedAt
	return &t
}

func cloneAll(items []model.GroundTruth) []model.GroundTruth {
	out := make([]model.GroundTruth, len(items))
	for i, gt := range items {
		out[i] = gt.Clone()
	}
	return out
}
