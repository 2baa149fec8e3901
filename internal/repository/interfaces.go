// Package repository 定义数据访问接口
// 接口抽象使依赖注入和单元测试成为可能
package repository

import (
	"context"

	"github.com/ashwinyue/eval-console/internal/model"
)

// ========== RunRepository 接口 ==========

// RunRepository 运行记录数据访问接口
type RunRepository interface {
	// Seed 写入初始运行记录，已存在的 ID 保持不变
	Seed(ctx context.Context, runs []model.Run) error
	// ListByAgent 按创建时间升序列出 Agent 的运行记录
	ListByAgent(ctx context.Context, agentID string) ([]model.Run, error)
	// Get 获取单条运行记录
	Get(ctx context.Context, id string) (*model.Run, error)
	// SetExperiment 设置实验标记
	SetExperiment(ctx context.Context, id string, value bool) error
}

// ========== EvaluationTaskRepository 接口 ==========

// EvaluationTaskRepository 评估任务数据访问接口
type EvaluationTaskRepository interface {
	Create(ctx context.Context, task *model.EvaluationTask) error
	Get(ctx context.Context, id string) (*model.EvaluationTask, error)
	Update(ctx context.Context, task *model.EvaluationTask) error
}

// ========== SnapshotStore 接口 ==========

// SnapshotStore 键值快照存储，保存整棵状态树
type SnapshotStore interface {
	// Load 读取快照，不存在时 ok 为 false
	Load(ctx context.Context, key string) (data []byte, ok bool, err error)
	// Save 覆盖写入快照
	Save(ctx context.Context, key string, data []byte) error
}

// 确保实现了接口
var (
	_ RunRepository            = (*runRepositoryImpl)(nil)
	_ RunRepository            = (*MemoryRunRepository)(nil)
	_ EvaluationTaskRepository = (*evaluationTaskRepositoryImpl)(nil)
	_ EvaluationTaskRepository = (*MemoryEvaluationTaskRepository)(nil)
	_ SnapshotStore            = (*RedisSnapshotStore)(nil)
	_ SnapshotStore            = (*FileSnapshotStore)(nil)
	_ SnapshotStore            = (*MemorySnapshotStore)(nil)
)
