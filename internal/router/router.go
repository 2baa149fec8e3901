// Package router 注册 HTTP 路由
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ashwinyue/eval-console/internal/handler"
	"github.com/ashwinyue/eval-console/internal/middleware"
	"github.com/ashwinyue/eval-console/internal/observability"
)

// Options 路由依赖
type Options struct {
	Logger       *zap.Logger
	Metrics      *observability.Metrics
	Gatherer     prometheus.Gatherer // 为 nil 时不注册 /metrics
	AllowOrigins []string
}

// SetupRouter 设置路由
func SetupRouter(h *handler.Handlers, opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	r := gin.New()

	// 中间件
	r.Use(middleware.RecoveryMiddleware(opts.Logger))
	r.Use(middleware.LoggingMiddleware(opts.Logger, opts.Metrics))
	r.Use(middleware.CORSMiddleware(opts.AllowOrigins))

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	// API v1
	v1 := r.Group("/api/v1")
	{
		// Agent
		agents := v1.Group("/agents")
		{
			agents.GET("", h.Agent.ListAgents)
			agents.GET("/:agent/latest-result", h.Agent.LatestResult)
			agents.GET("/:agent/runs", h.Agent.ListRuns)
			agents.GET("/:agent/trend", h.Agent.Trend)
		}

		// 评估配置
		setup := v1.Group("/setup")
		{
			setup.GET("", h.Setup.GetSetup)
			setup.PUT("", h.Setup.UpdateSetup)
			setup.POST("/proceed", h.Setup.Proceed)
		}

		// Ground Truth 数据集
		gts := v1.Group("/ground-truths")
		{
			gts.GET("", h.GroundTruth.ListGroundTruths)
			gts.GET("/tags", h.GroundTruth.ListTags)
			gts.GET("/selection", h.GroundTruth.GetSelection)
			gts.PUT("/selection", h.GroundTruth.Select)
			gts.POST("/generate", h.GroundTruth.Generate)
			gts.POST("/upload/inspect", h.GroundTruth.InspectUpload)
			gts.POST("/upload", h.GroundTruth.Upload)
			gts.GET("/:id", h.GroundTruth.GetGroundTruth)
			gts.PUT("/:id", h.GroundTruth.Edit)
			gts.POST("/:id/duplicate", h.GroundTruth.Duplicate)
			gts.DELETE("/:id", h.GroundTruth.Delete)
		}

		// 评估
		evals := v1.Group("/evaluations")
		{
			evals.POST("", h.Evaluation.StartEvaluation)
			evals.GET("/results", h.Evaluation.GetResults)
			evals.GET("/results/export", h.Evaluation.ExportResults)
			evals.GET("/:id/progress", h.Evaluation.GetProgress)
			evals.DELETE("/:id", h.Evaluation.CancelEvaluation)
		}

		// 运行记录
		runs := v1.Group("/runs")
		{
			runs.POST("/:id/experiment", h.Run.ToggleExperiment)
			runs.GET("/toggles/:id", h.Run.GetTransition)
		}
	}

	return r
}
