package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"
)

const (
	// EnvPrefix 环境变量前缀，如 WATCHWISH_PORT
	EnvPrefix = "WATCHWISH_"
	// FileEnv 指定 YAML 配置文件路径的环境变量
	FileEnv = "WATCHWISH_CONFIG"

	defaultSecret = "your-secret-key-change-in-production"
)

// Config 应用配置
type Config struct {
	Env       string `koanf:"env"`
	Port      string `koanf:"port"`
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`
	AppSecret string `koanf:"app_secret"`

	DBHost         string `koanf:"db_host"`
	DBPort         string `koanf:"db_port"`
	DBUser         string `koanf:"db_user"`
	DBPassword     string `koanf:"db_password"`
	DBName         string `koanf:"db_name"`
	DBSSLMode      string `koanf:"db_sslmode"`
	DBMaxOpenConns int    `koanf:"db_max_open_conns"`
	DBMaxIdleConns int    `koanf:"db_max_idle_conns"`
	AutoMigrate    bool   `koanf:"auto_migrate"`

	// 推荐
	DefaultLimit  int           `koanf:"default_limit"`
	MaxLimit      int           `koanf:"max_limit"`
	RecCacheTTL   time.Duration `koanf:"rec_cache_ttl"`
	WebUserOffset int           `koanf:"web_user_offset"`

	// 概念匹配
	ConceptTopN          int           `koanf:"concept_top_n"`
	ConceptWarmup        bool          `koanf:"concept_warmup"`
	ConceptSnapshotLimit int           `koanf:"concept_snapshot_limit"`
	ConceptCacheSize     int           `koanf:"concept_cache_size"`
	ConceptCacheTTL      time.Duration `koanf:"concept_cache_ttl"`
}

// Default 默认配置
func Default() *Config {
	return &Config{
		Env:       "development",
		Port:      "5005",
		LogLevel:  "info",
		AppSecret: defaultSecret,

		DBHost:         "localhost",
		DBPort:         "5432",
		DBUser:         "postgres",
		DBPassword:     "postgres",
		DBName:         "watchwish",
		DBSSLMode:      "disable",
		DBMaxOpenConns: 25,
		DBMaxIdleConns: 5,
		AutoMigrate:    true,

		DefaultLimit:  10,
		MaxLimit:      100,
		RecCacheTTL:   60 * time.Second,
		WebUserOffset: 1_000_000,

		ConceptTopN:      5,
		ConceptWarmup:    true,
		ConceptCacheSize: 512,
		ConceptCacheTTL:  30 * time.Minute,
	}
}

// Load 加载配置，优先级从低到高：默认值 -> YAML 文件（WATCHWISH_CONFIG）-> 环境变量（WATCHWISH_*）
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(FileEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
		}
	}

	// WATCHWISH_DB_HOST -> db_host
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("读取环境变量失败: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.IsProduction() && cfg.AppSecret == defaultSecret {
		log.Warn().Msg("【严重警告】生产环境正在使用默认密钥！请立即设置 WATCHWISH_APP_SECRET 环境变量。")
	}
	return cfg, nil
}

// Validate 基本校验
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("port must not be empty"))
	}
	if c.DefaultLimit <= 0 {
		errs = append(errs, errors.New("default_limit must be > 0"))
	}
	if c.MaxLimit <= 0 {
		errs = append(errs, errors.New("max_limit must be > 0"))
	}
	if c.DefaultLimit > c.MaxLimit {
		errs = append(errs, errors.New("default_limit must not exceed max_limit"))
	}
	if c.ConceptTopN <= 0 {
		errs = append(errs, errors.New("concept_top_n must be > 0"))
	}
	if c.WebUserOffset < 0 {
		errs = append(errs, errors.New("web_user_offset must be >= 0"))
	}
	return errors.Join(errs...)
}

// IsProduction 是否生产环境
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// DatabaseURL postgres 连接串
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}
