package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"db"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Log          LogConfig          `mapstructure:"log"`
	Engine       EngineConfig       `mapstructure:"engine"`
	Registration RegistrationConfig `mapstructure:"registration"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	Export       ExportConfig       `mapstructure:"export"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port    int        `mapstructure:"port"`
	BaseURL string     `mapstructure:"base_url"`
	CORS    CORSConfig `mapstructure:"cors"`
	// MaxBodyBytes 请求体上限（字节）
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// EngineConfig 方案搜索引擎参数
type EngineConfig struct {
	NodeBudget     int `mapstructure:"node_budget"`     // 单次搜索最多访问的节点数
	CountCap       int `mapstructure:"count_cap"`       // 计数上限
	RankWindow     int `mapstructure:"rank_window"`     // 排序窗口大小
	DefaultLimit   int `mapstructure:"default_limit"`   // suggest / more 默认条数
	MaxLimit       int `mapstructure:"max_limit"`       // 单页最大条数
	SimilarLimit   int `mapstructure:"similar_limit"`   // similar 默认条数
	SampleAttempts int `mapstructure:"sample_attempts"` // random 最多抽样次数
}

// RegistrationConfig 选课学分要求
type RegistrationConfig struct {
	MinCredits int `mapstructure:"min_credits"`
	MaxCredits int `mapstructure:"max_credits"`
}

// RateLimitConfig 生成接口限流
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// ExportConfig 课表导出参数
type ExportConfig struct {
	// Timezone ICS 事件使用的时区
	Timezone string `mapstructure:"timezone"`
	// Weeks ICS 每周重复事件的默认周数
	Weeks int `mapstructure:"weeks"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.max_body_bytes", 1<<20)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "timetable_planner")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Asia/Kolkata")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)  // 60分钟
	v.SetDefault("db.conn_max_idle_time", 30) // 30分钟

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("engine.node_budget", 200000)
	v.SetDefault("engine.count_cap", 500)
	v.SetDefault("engine.rank_window", 100)
	v.SetDefault("engine.default_limit", 5)
	v.SetDefault("engine.max_limit", 100)
	v.SetDefault("engine.similar_limit", 5)
	v.SetDefault("engine.sample_attempts", 200)

	v.SetDefault("registration.min_credits", 16)
	v.SetDefault("registration.max_credits", 27)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 30)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("export.timezone", "Asia/Kolkata")
	v.SetDefault("export.weeks", 16)

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("PLANNER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// ── 关键配置校验 ──
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	e := c.Engine
	if e.NodeBudget <= 0 || e.CountCap <= 0 || e.RankWindow <= 0 || e.SampleAttempts <= 0 {
		return fmt.Errorf("配置校验失败: engine 的 node_budget / count_cap / rank_window / sample_attempts 必须为正数")
	}
	if e.DefaultLimit <= 0 || e.MaxLimit <= 0 || e.SimilarLimit <= 0 {
		return fmt.Errorf("配置校验失败: engine 的 default_limit / max_limit / similar_limit 必须为正数")
	}
	if e.DefaultLimit > e.MaxLimit {
		return fmt.Errorf("配置校验失败: engine.default_limit 不能大于 engine.max_limit")
	}
	if c.Registration.MinCredits < 0 || c.Registration.MaxCredits < c.Registration.MinCredits {
		return fmt.Errorf("配置校验失败: registration.max_credits 不能小于 min_credits")
	}
	if c.RateLimit.Enabled && (c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("配置校验失败: 启用限流时 rate_limit.requests 与 rate_limit.window 必须为正数")
	}
	if c.Export.Weeks <= 0 || c.Export.Weeks > 52 {
		return fmt.Errorf("配置校验失败: export.weeks 必须在 1-52 之间")
	}
	if _, err := time.LoadLocation(c.Export.Timezone); err != nil {
		return fmt.Errorf("配置校验失败: export.timezone 无效: %w", err)
	}
	return nil
}
