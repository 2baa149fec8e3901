package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ashwinyue/eval-console/internal/model"
)

// evaluationTaskRepositoryImpl 评估任务仓库
type evaluationTaskRepositoryImpl struct {
	db *gorm.DB
}

// NewEvaluationTaskRepository 创建评估任务仓库
func NewEvaluationTaskRepository(db *gorm.DB) EvaluationTaskRepository {
	return &evaluationTaskRepositoryImpl{db: db}
}

// Create 创建评估任务
func (r *evaluationTaskRepositoryImpl) Create(ctx context.Context, task *model.EvaluationTask) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create evaluation: %w", err)
	}
	return nil
}

// Get 根据 ID 获取评估任务
func (r *evaluationTaskRepositoryImpl) Get(ctx context.Context, id string) (*model.EvaluationTask, error) {
	var task model.EvaluationTask
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrEvaluationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get evaluation: %w", err)
	}
	return &task, nil
}

// Update 更新评估任务
func (r *evaluationTaskRepositoryImpl) Update(ctx context.Context, task *model.EvaluationTask) error {
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("update evaluation: %w", err)
	}
	return nil
}

// ========== 内存实现 ==========

// MemoryEvaluationTaskRepository 内存评估任务仓库
type MemoryEvaluationTaskRepository struct {
	mu    sync.RWMutex
	tasks map[string]model.EvaluationTask
}

// NewMemoryEvaluationTaskRepository 创建内存评估任务仓库
func NewMemoryEvaluationTaskRepository() *MemoryEvaluationTaskRepository {
	return &MemoryEvaluationTaskRepository{tasks: make(map[string]model.EvaluationTask)}
}

// Create 创建评估任务
func (r *MemoryEvaluationTaskRepository) Create(_ context.Context, task *model.EvaluationTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	r.tasks[task.ID] = *task
	return nil
}

// Get 根据 ID 获取评估任务
func (r *MemoryEvaluationTaskRepository) Get(_ context.Context, id string) (*model.EvaluationTask, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.tasks[id]
	if !ok {
		return nil, ErrEvaluationNotFound
	}
	return &task, nil
}

// Update 更新评估任务
func (r *MemoryEvaluationTaskRepository) Update(_ context.Context, task *model.EvaluationTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[task.ID]; !ok {
		return ErrEvaluationNotFound
	}
	r.tasks[task.ID] = *task
	return nil
}
