package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ashwinyue/eval-console/internal/model"
)

// setupMockDB 创建基于 sqlmock 的 gorm 连接
func setupMockDB(t *testing.T) (sqlmock.Sqlmock, *gorm.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return mock, gdb
}

// ========== gorm RunRepository 测试 ==========

func TestRunRepository_ListByAgent(t *testing.T) {
	mock, db := setupMockDB(t)
	repo := NewRunRepository(db)

	ts := time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "agent_id", "run_number", "created_at", "is_experiment",
		"answer_correctness", "answer_relevancy", "coherence", "conciseness"}).
		AddRow("hr_copilot-1", "hr_copilot", 1, ts, false, 78.5, 82.1, 88.3, 72.4).
		AddRow("hr_copilot-2", "hr_copilot", 2, ts.Add(time.Hour), true, 78.2, nil, 89.1, 77.8)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "evaluation_runs" WHERE agent_id = $1 ORDER BY created_at ASC`)).
		WithArgs("hr_copilot").
		WillReturnRows(rows)

	runs, err := repo.ListByAgent(context.Background(), "hr_copilot")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "hr_copilot-1", runs[0].ID)
	assert.Equal(t, 78.5, *runs[0].Metrics.AnswerCorrectness)
	assert.True(t, runs[1].IsExperiment)
	assert.Nil(t, runs[1].Metrics.AnswerRelevancy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepository_SetExperiment(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(sqlmock.Sqlmock)
		wantErr   error
		errText   string
	}{
		{
			name: "updated",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta(`UPDATE "evaluation_runs" SET "is_experiment"=$1 WHERE id = $2`)).
					WithArgs(true, "hr_copilot-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta(`UPDATE "evaluation_runs"`)).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: ErrRunNotFound,
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta(`UPDATE "evaluation_runs"`)).
					WillReturnError(errors.New("connection refused"))
			},
			errText: "update run",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, db := setupMockDB(t)
			tt.setupMock(mock)

			err := NewRunRepository(db).SetExperiment(context.Background(), "hr_copilot-1", true)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errText != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errText)
			default:
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRunRepository_GetNotFound(t *testing.T) {
	mock, db := setupMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "evaluation_runs" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewRunRepository(db).Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

// ========== 内存 RunRepository 测试 ==========

func TestMemoryRunRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRunRepository()
	ts := time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Seed(ctx, []model.Run{
		{ID: "a-2", AgentID: "a", CreatedAt: ts.Add(time.Hour)},
		{ID: "a-1", AgentID: "a", CreatedAt: ts},
		{ID: "b-1", AgentID: "b", CreatedAt: ts},
	}))

	runs, err := repo.ListByAgent(ctx, "a")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "a-1", runs[0].ID)
	assert.Equal(t, "a-2", runs[1].ID)

	require.NoError(t, repo.SetExperiment(ctx, "a-1", true))
	// 再次 Seed 不覆盖已有记录
	require.NoError(t, repo.Seed(ctx, []model.Run{{ID: "a-1", AgentID: "a", CreatedAt: ts}}))
	run, err := repo.Get(ctx, "a-1")
	require.NoError(t, err)
	assert.True(t, run.IsExperiment)

	assert.ErrorIs(t, repo.SetExperiment(ctx, "missing", true), ErrRunNotFound)
	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

// ========== 内存 EvaluationTaskRepository 测试 ==========

func TestMemoryEvaluationTaskRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryEvaluationTaskRepository()

	task := &model.EvaluationTask{ID: "evaluation_1", AgentID: "hr_copilot", Status: model.EvaluationStatusPending}
	require.NoError(t, repo.Create(ctx, task))

	task.Status = model.EvaluationStatusRunning
	task.Progress = 40
	require.NoError(t, repo.Update(ctx, task))

	got, err := repo.Get(ctx, "evaluation_1")
	require.NoError(t, err)
	assert.Equal(t, model.EvaluationStatusRunning, got.Status)
	assert.Equal(t, 40.0, got.Progress)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrEvaluationNotFound)
	assert.ErrorIs(t, repo.Update(ctx, &model.EvaluationTask{ID: "missing"}), ErrEvaluationNotFound)
}
