package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App         AppConfig
	Server      ServerConfig
	Log         LogConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Storage     StorageConfig
	Persistence PersistenceConfig
	Simulation  SimulationConfig
}

// AppConfig 应用配置
type AppConfig struct {
	Name        string
	Environment string
	Version     string
	Debug       bool
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host            string
	Port            int
	Mode            string
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
	AllowOrigins    []string
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string // debug | info | warn | error
	Format string // json | console
}

// DatabaseConfig 数据库配置，Enabled 为 false 时运行记录保存在内存
type DatabaseConfig struct {
	Enabled      bool
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// StorageConfig 上传文件存储配置
type StorageConfig struct {
	Type      string // local | minio
	BasePath  string
	URLPrefix string
	MinIO     MinIOConfig
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// PersistenceConfig 状态快照配置
type PersistenceConfig struct {
	Driver string // redis | file | memory
	Dir    string // file 模式下的目录
}

// SimulationConfig 模拟延迟配置（毫秒）
type SimulationConfig struct {
	ToggleLatencyMs   int
	ToggleFailureRate float64
	ProgressTickMs    int
	ElapsedTickMs     int
	ResultLoadDelayMs int
}

// ToggleLatency 实验标记确认延迟
func (c *SimulationConfig) ToggleLatency() time.Duration {
	return time.Duration(c.ToggleLatencyMs) * time.Millisecond
}

// ProgressTick 进度刷新间隔
func (c *SimulationConfig) ProgressTick() time.Duration {
	return time.Duration(c.ProgressTickMs) * time.Millisecond
}

// ElapsedTick 计时刷新间隔
func (c *SimulationConfig) ElapsedTick() time.Duration {
	return time.Duration(c.ElapsedTickMs) * time.Millisecond
}

// ResultLoadDelay 结果页加载延迟
func (c *SimulationConfig) ResultLoadDelay() time.Duration {
	return time.Duration(c.ResultLoadDelayMs) * time.Millisecond
}

var globalConfig *Config

// Load 加载配置，path 为空时只使用默认值与环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// 环境变量
	v.SetEnvPrefix("EVAL_CONSOLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalConfig = &cfg
	return &cfg, nil
}

// Get 获取全局配置
func Get() *Config {
	if globalConfig == nil {
		panic("config not loaded")
	}
	return globalConfig
}

// Validate 校验枚举取值
func (c *Config) Validate() error {
	switch c.Persistence.Driver {
	case "redis", "file", "memory":
	default:
		return fmt.Errorf("unsupported persistence driver: %s", c.Persistence.Driver)
	}
	switch c.Storage.Type {
	case "local", "minio":
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}
	if c.Simulation.ToggleFailureRate < 0 || c.Simulation.ToggleFailureRate > 1 {
		return fmt.Errorf("toggle failure rate must be within [0, 1]: %v", c.Simulation.ToggleFailureRate)
	}
	return nil
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// GetAddr 获取服务器地址
func (c *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetAddr 获取 Redis 地址
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "eval-console")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.debug", false)

	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.shutdownTimeout", 10)
	v.SetDefault("server.allowOrigins", []string{"*"})

	// Log
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Database
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "eval_console")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.maxLifetime", 300)

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// Storage
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.basePath", "./data/uploads")
	v.SetDefault("storage.urlPrefix", "/uploads")
	v.SetDefault("storage.minio.bucket", "ground-truths")

	// Persistence
	v.SetDefault("persistence.driver", "file")
	v.SetDefault("persistence.dir", "./data/state")

	// Simulation
	v.SetDefault("simulation.toggleLatencyMs", 300)
	v.SetDefault("simulation.toggleFailureRate", 0)
	v.SetDefault("simulation.progressTickMs", 200)
	v.SetDefault("simulation.elapsedTickMs", 1000)
	v.SetDefault("simulation.resultLoadDelayMs", 400)
}
