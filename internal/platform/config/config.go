package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Cfg 是一个全局变量，用于存储所有应用程序的配置
var Cfg *Config

// Config 结构体定义了应用程序的所有配置项
// 它与 config.yaml 文件的结构完全对应
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Voting    VotingConfig    `mapstructure:"voting"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig 定义了服务器相关的配置
type ServerConfig struct {
	Mode           string        `mapstructure:"mode"`
	Address        string        `mapstructure:"address"`
	RequestTimeout time.Duration `mapstructure:"requestTimeout"`
	Cors           CorsConfig    `mapstructure:"cors"`
	// TrustedProxies 是允许设置 X-Forwarded-For 的反向代理地址或网段。
	// 为空时忽略转发头，客户端IP取自连接的对端地址。
	TrustedProxies []string `mapstructure:"trustedProxies"`
}

// CorsConfig 定义了CORS相关的配置
type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// DatabaseConfig 定义了数据库和缓存相关的配置
type DatabaseConfig struct {
	// Driver 取值 sqlite 或 postgres
	Driver   string         `mapstructure:"driver"`
	Sqlite   SqliteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// SqliteConfig 定义了SQLite的配置
type SqliteConfig struct {
	Path string `mapstructure:"path"`
}

// PostgresConfig 定义了PostgreSQL的配置
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
}

// RedisConfig 定义了Redis的配置
type RedisConfig struct {
	Address     string        `mapstructure:"address"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dialTimeout"`
}

// VotingConfig 定义了投票与排行榜的参数
type VotingConfig struct {
	// VotesPerUser 是计分插值的位置总数 P
	VotesPerUser int     `mapstructure:"votesPerUser"`
	MaxScore     float64 `mapstructure:"maxScore"`
	GamesPerPage int     `mapstructure:"gamesPerPage"`
	// ListCacheTTL 为0时关闭排行榜缓存
	ListCacheTTL time.Duration `mapstructure:"listCacheTTL"`
}

// AuthConfig 定义了登录会话相关的配置
type AuthConfig struct {
	// JWTSecret 为空时在启动时随机生成，重启后所有会话失效
	JWTSecret    string        `mapstructure:"jwtSecret"`
	CookieName   string        `mapstructure:"cookieName"`
	SessionTTL   time.Duration `mapstructure:"sessionTTL"`
	SecureCookie bool          `mapstructure:"secureCookie"`
	BcryptCost   int           `mapstructure:"bcryptCost"`
}

// RateLimitConfig 按动作名配置滑动窗口
type RateLimitConfig struct {
	Rules map[string]RateLimitRule `mapstructure:"rules"`
}

// RateLimitRule 表示窗口内允许的最大请求数
type RateLimitRule struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

// CatalogConfig 定义了外部游戏目录同步的配置
type CatalogConfig struct {
	BaseURL     string        `mapstructure:"baseURL"`
	ClientID    string        `mapstructure:"clientID"`
	Token       string        `mapstructure:"token"`
	PageSize    int           `mapstructure:"pageSize"`
	MinInterval time.Duration `mapstructure:"minInterval"`
	ImageDir    string        `mapstructure:"imageDir"`
	// CronSpec 为空时不启动定时同步
	CronSpec string `mapstructure:"cronSpec"`
	Workers  int    `mapstructure:"workers"`
}

// LogConfig 定义了日志输出
type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.requestTimeout", 10*time.Second)
	v.SetDefault("server.cors.allowedOrigins", []string{"http://localhost:3000"})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.sqlite.path", "games.db?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	v.SetDefault("database.postgres.maxOpenConns", 20)
	v.SetDefault("database.postgres.maxIdleConns", 5)
	v.SetDefault("database.postgres.connMaxLifetime", time.Hour)
	v.SetDefault("database.redis.address", "localhost:6379")
	v.SetDefault("database.redis.dialTimeout", 3*time.Second)

	v.SetDefault("voting.votesPerUser", 30)
	v.SetDefault("voting.maxScore", 10.0)
	v.SetDefault("voting.gamesPerPage", 20)
	v.SetDefault("voting.listCacheTTL", 30*time.Second)

	v.SetDefault("auth.cookieName", "session")
	v.SetDefault("auth.sessionTTL", 30*24*time.Hour)
	v.SetDefault("auth.bcryptCost", 10)

	v.SetDefault("rateLimit.rules", map[string]any{
		"login":    map[string]any{"limit": 10, "window": "15m"},
		"register": map[string]any{"limit": 5, "window": "1h"},
		"vote":     map[string]any{"limit": 600, "window": "1h"},
		"comment":  map[string]any{"limit": 300, "window": "1h"},
		"profile":  map[string]any{"limit": 30, "window": "1h"},
	})

	v.SetDefault("catalog.pageSize", 50)
	v.SetDefault("catalog.minInterval", 300*time.Millisecond)
	v.SetDefault("catalog.imageDir", "./assets/games")
	v.SetDefault("catalog.workers", 4)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
}

// LoadConfig 函数负责查找、加载和解析配置文件
// 找不到 config.yaml 时使用默认值和环境变量
func LoadConfig() (*Config, error) {
	// .env 只在本地开发时存在，缺失不是错误
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	// 允许通过环境变量覆盖配置，例如 SERVER_ADDRESS=:8888
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	Cfg = &cfg
	return Cfg, nil
}

// Validate 拒绝无法工作的配置组合
func (c *Config) Validate() error {
	if c.Voting.VotesPerUser < 2 || c.Voting.VotesPerUser > 100 {
		return fmt.Errorf("voting.votesPerUser 必须在 2..100 之间, 当前为 %d", c.Voting.VotesPerUser)
	}
	if c.Voting.MaxScore <= 1 {
		return fmt.Errorf("voting.maxScore 必须大于 1, 当前为 %v", c.Voting.MaxScore)
	}
	if c.Voting.GamesPerPage < 5 || c.Voting.GamesPerPage > 100 {
		return fmt.Errorf("voting.gamesPerPage 必须在 5..100 之间, 当前为 %d", c.Voting.GamesPerPage)
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("不支持的数据库驱动: %q", c.Database.Driver)
	}
	if c.Database.Driver == "postgres" && c.Database.Postgres.DSN == "" {
		return errors.New("database.postgres.dsn 不能为空")
	}
	return nil
}
