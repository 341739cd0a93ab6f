package wasip1

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 是 Host 的文件配置。零值字段使用默认值。
type Config struct {
	// ModuleName 覆盖导出的宿主模块名。
	ModuleName string `yaml:"module_name"`
	// LoggerCacheSize 是缓存的 guest 模块日志器数量。
	LoggerCacheSize int `yaml:"logger_cache_size"`
	// PollInterval 是没有宿主 fd 的文件的探测间隔，例如 "50ms"。
	PollInterval time.Duration `yaml:"poll_interval"`
	// LogLevel 为 debug、info、warn 或 error；设置后 Host 使用写到 stderr 的文本日志。
	LogLevel string `yaml:"log_level"`
}

// LoadConfig 从 YAML 文件读取配置。
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig 解析并校验 YAML 配置。
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate 检查配置值是否合法。
func (c Config) Validate() error {
	if c.LoggerCacheSize < 0 {
		return fmt.Errorf("config: logger_cache_size must not be negative, got %d", c.LoggerCacheSize)
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("config: poll_interval must not be negative, got %s", c.PollInterval)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	return nil
}

func (c Config) level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return level, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, fmt.Errorf("config: log_level: %w", err)
	}
	return level, nil
}

// WithConfig 应用文件配置。应放在 WithLogger 之后才会被其覆盖。
func WithConfig(cfg Config) ModuleOption {
	return func(h *Host) {
		if cfg.ModuleName != "" {
			h.moduleName = cfg.ModuleName
		}
		if cfg.LoggerCacheSize > 0 {
			h.loggerCacheSize = cfg.LoggerCacheSize
		}
		if cfg.PollInterval > 0 {
			h.pollInterval = cfg.PollInterval
		}
		if cfg.LogLevel != "" {
			level, err := cfg.level()
			if err != nil {
				h.logger.Warn("ignoring invalid log level", slog.String("level", cfg.LogLevel))
				return
			}
			h.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		}
	}
}
