package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ashwinyue/eval-console/internal/model"
)

// runRepositoryImpl 基于 gorm 的运行记录仓库
type runRepositoryImpl struct {
	db *gorm.DB
}

// NewRunRepository 创建运行记录仓库
func NewRunRepository(db *gorm.DB) RunRepository {
	return &runRepositoryImpl{db: db}
}

// Seed 写入初始运行记录
func (r *runRepositoryImpl) Seed(ctx context.Context, runs []model.Run) error {
	if len(runs) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&runs).Error
	if err != nil {
		return fmt.Errorf("seed runs: %w", err)
	}
	return nil
}

// ListByAgent 列出 Agent 的运行记录
func (r *runRepositoryImpl) ListByAgent(ctx context.Context, agentID string) ([]model.Run, error) {
	var runs []model.Run
	err := r.db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Order("created_at ASC").
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Get 获取运行记录
func (r *runRepositoryImpl) Get(ctx context.Context, id string) (*model.Run, error) {
	var run model.Run
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&run).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &run, nil
}

// SetExperiment 设置实验标记
func (r *runRepositoryImpl) SetExperiment(ctx context.Context, id string, value bool) error {
	res := r.db.WithContext(ctx).
		Model(&model.Run{}).
		Where("id = ?", id).
		Update("is_experiment", value)
	if res.Error != nil {
		return fmt.Errorf("update run: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRunNotFound
	}
	return nil
}

// ========== 内存实现 ==========

// MemoryRunRepository 内存运行记录仓库
type MemoryRunRepository struct {
	mu   sync.RWMutex
	runs map[string]model.Run
}

// NewMemoryRunRepository 创建内存运行记录仓库
func NewMemoryRunRepository() *MemoryRunRepository {
	return &MemoryRunRepository{runs: make(map[string]model.Run)}
}

// Seed 写入初始运行记录
func (r *MemoryRunRepository) Seed(_ context.Context, runs []model.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, run := range runs {
		if _, ok := r.runs[run.ID]; !ok {
			r.runs[run.ID] = run
		}
	}
	return nil
}

// ListByAgent 列出 Agent 的运行记录
func (r *MemoryRunRepository) ListByAgent(_ context.Context, agentID string) ([]model.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var runs []model.Run
	for _, run := range r.runs {
		if run.AgentID == agentID {
			runs = append(runs, run)
		}
	}
	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].CreatedAt.Before(runs[j].CreatedAt)
	})
	return runs, nil
}

// Get 获取运行记录
func (r *MemoryRunRepository) Get(_ context.Context, id string) (*model.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return &run, nil
}

// SetExperiment 设置实验标记
func (r *MemoryRunRepository) SetExperiment(_ context.Context, id string, value bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return ErrRunNotFound
	}
	run.IsExperiment = value
	r.runs[id] = run
	return nil
}
