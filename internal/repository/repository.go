package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrRunNotFound 运行记录不存在
	ErrRunNotFound = errors.New("run not found")
	// ErrEvaluationNotFound 评估任务不存在
	ErrEvaluationNotFound = errors.New("evaluation not found")
)

// Repositories 仓库集合，用于统一管理所有仓库
type Repositories struct {
	DB             *gorm.DB // 为 nil 时使用内存实现
	Run            RunRepository
	EvaluationTask EvaluationTaskRepository
	Snapshots      SnapshotStore
}

// NewRepositories 创建所有仓库
// db 为 nil 时运行记录与评估任务保存在内存中
func NewRepositories(db *gorm.DB, snapshots SnapshotStore) *Repositories {
	repos := &Repositories{
		DB:        db,
		Snapshots: snapshots,
	}
	if db != nil {
		repos.Run = NewRunRepository(db)
		repos.EvaluationTask = NewEvaluationTaskRepository(db)
	} else {
		repos.Run = NewMemoryRunRepository()
		repos.EvaluationTask = NewMemoryEvaluationTaskRepository()
	}
	if repos.Snapshots == nil {
		repos.Snapshots = NewMemorySnapshotStore()
	}
	return repos
}
