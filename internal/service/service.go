// Package service 组装评估控制台的业务服务
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ashwinyue/eval-console/internal/clock"
	"github.com/ashwinyue/eval-console/internal/config"
	"github.com/ashwinyue/eval-console/internal/fixture"
	"github.com/ashwinyue/eval-console/internal/model"
	"github.com/ashwinyue/eval-console/internal/observability"
	"github.com/ashwinyue/eval-console/internal/repository"
	"github.com/ashwinyue/eval-console/internal/service/evaluation"
	"github.com/ashwinyue/eval-console/internal/service/file"
	"github.com/ashwinyue/eval-console/internal/service/groundtruth"
	"github.com/ashwinyue/eval-console/internal/service/run"
	"github.com/ashwinyue/eval-console/internal/service/setup"
)

// Services 服务集合
type Services struct {
	Setup       *setup.Store
	GroundTruth *groundtruth.Service
	Runs        *run.Service
	Evaluation  *evaluation.Service
	Files       *file.Service

	Config   *config.Config
	Fixtures *fixture.Data
	Metrics  *observability.Metrics
	Logger   *zap.Logger
}

// Options 可选依赖，零值使用默认实现
type Options struct {
	Clock   clock.Clock
	Logger  *zap.Logger
	Metrics *observability.Metrics
	Files   *file.Service
	Random  func() float64
}

// NewServices 创建所有服务，恢复快照并写入初始运行记录
func NewServices(ctx context.Context, repo *repository.Repositories, cfg *config.Config, opts Options) (*Services, error) {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	data, err := fixture.Load()
	if err != nil {
		return nil, fmt.Errorf("load fixtures: %w", err)
	}

	files := opts.Files
	if files == nil {
		files, err = file.NewServiceFromConfig(ctx, cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("create file storage: %w", err)
		}
	}

	setupStore, err := setup.NewStore(ctx, repo.Snapshots, opts.Logger.Named("setup"))
	if err != nil {
		return nil, err
	}

	gtStore, err := groundtruth.NewStore(ctx, repo.Snapshots,
		groundtruth.WithClock(opts.Clock),
		groundtruth.WithLogger(opts.Logger.Named("ground-truth")),
		groundtruth.WithSeed(data.SeedGroundTruths()),
	)
	if err != nil {
		return nil, err
	}
	gtSvc := groundtruth.NewService(gtStore, files,
		groundtruth.WithMetrics(opts.Metrics),
		groundtruth.WithServiceLogger(opts.Logger.Named("ground-truth")),
	)

	runOpts := []run.Option{
		run.WithClock(opts.Clock),
		run.WithLatency(cfg.Simulation.ToggleLatency()),
		run.WithFailureRate(cfg.Simulation.ToggleFailureRate),
		run.WithLogger(opts.Logger.Named("runs")),
		run.WithMetrics(opts.Metrics),
	}
	evalOpts := []evaluation.Option{
		evaluation.WithClock(opts.Clock),
		evaluation.WithTicks(cfg.Simulation.ProgressTick(), cfg.Simulation.ElapsedTick()),
		evaluation.WithLoadDelay(cfg.Simulation.ResultLoadDelay()),
		evaluation.WithLogger(opts.Logger.Named("evaluation")),
		evaluation.WithMetrics(opts.Metrics),
	}
	if opts.Random != nil {
		runOpts = append(runOpts, run.WithRandom(opts.Random))
		evalOpts = append(evalOpts, evaluation.WithRandom(opts.Random))
	}

	runSvc := run.NewService(repo.Run, runOpts...)
	if err := runSvc.Seed(ctx, data.AllRuns()); err != nil {
		runSvc.Close()
		return nil, err
	}

	return &Services{
		Setup:       setupStore,
		GroundTruth: gtSvc,
		Runs:        runSvc,
		Evaluation:  evaluation.NewService(repo.EvaluationTask, gtSvc, data, evalOpts...),
		Files:       files,
		Config:      cfg,
		Fixtures:    data,
		Metrics:     opts.Metrics,
		Logger:      opts.Logger,
	}, nil
}

// Agents Agent 列表及最近一次运行
func (s *Services) Agents(ctx context.Context) ([]model.AgentSummary, error) {
	out := make([]model.AgentSummary, 0, len(s.Fixtures.Agents))
	for _, a := range s.Fixtures.Agents {
		latest, err := s.Runs.Latest(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, model.AgentSummary{Agent: a, LastRun: latest})
	}
	return out, nil
}

// Close 停止所有模拟定时器
func (s *Services) Close() {
	s.Evaluation.Close()
	s.Runs.Close()
}
