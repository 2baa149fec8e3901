package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/ashwinyue/eval-console/internal/config"
	"github.com/ashwinyue/eval-console/internal/database"
	"github.com/ashwinyue/eval-console/internal/handler"
	"github.com/ashwinyue/eval-console/internal/logger"
	"github.com/ashwinyue/eval-console/internal/observability"
	"github.com/ashwinyue/eval-console/internal/repository"
	"github.com/ashwinyue/eval-console/internal/router"
	"github.com/ashwinyue/eval-console/internal/service"
)

const defaultConfigPath = "./configs/config.yaml"

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "config file (default $CONFIG_PATH or "+defaultConfigPath+")")
}

// loadConfig 显式指定的配置文件必须存在，默认路径缺失时使用默认值
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = defaultConfigPath
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}
	return config.Load(path)
}

// openSnapshots 按配置创建快照存储，返回的 cleanup 关闭底层连接
func openSnapshots(ctx context.Context, cfg *config.Config) (repository.SnapshotStore, func(), error) {
	switch cfg.Persistence.Driver {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect redis: %w", err)
		}
		return repository.NewRedisSnapshotStore(client), func() { client.Close() }, nil
	case "file":
		store, err := repository.NewFileSnapshotStore(cfg.Persistence.Dir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	default:
		return repository.NewMemorySnapshotStore(), func() {}, nil
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 数据库可选，未启用时运行记录保存在内存
	var gdb *gorm.DB
	if cfg.Database.Enabled {
		db, err := database.New(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		gdb = db.DB
		log.Info("database connected", zap.String("dbname", cfg.Database.DBName))
	}

	snapshots, closeSnapshots, err := openSnapshots(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSnapshots()
	log.Info("state persistence ready", zap.String("driver", cfg.Persistence.Driver))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(reg)

	repos := repository.NewRepositories(gdb, snapshots)
	services, err := service.NewServices(ctx, repos, cfg, service.Options{
		Logger:  log,
		Metrics: metrics,
	})
	if err != nil {
		return err
	}
	defer services.Close()

	r := router.SetupRouter(handler.NewHandlers(services), router.Options{
		Logger:       log.Named("http"),
		Metrics:      metrics,
		Gatherer:     reg,
		AllowOrigins: cfg.Server.AllowOrigins,
	})

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting", zap.String("addr", srv.Addr), zap.String("storage", string(services.Files.Type())))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server exited")
	return nil
}
