package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Bundler  BundlerConfig  `mapstructure:"bundler"`
	Database DatabaseConfig `mapstructure:"database"`
	Watcher  WatcherConfig  `mapstructure:"watcher"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Log      LogConfig      `mapstructure:"log"`
}

// BundlerConfig 打包配置
type BundlerConfig struct {
	MaxIconDensity int `mapstructure:"max_icon_density"` // 图标密度上限 (dpi)
}

// DatabaseConfig 构建历史库配置, 关闭时不记录历史
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Type     string `mapstructure:"type"` // mysql, sqlite
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"db_name"`
	Path     string `mapstructure:"path"` // sqlite 文件路径
}

// WatcherConfig 目录监控配置 (xapkwatchd)
type WatcherConfig struct {
	Dir             string `mapstructure:"dir"`              // 投放根目录
	DebounceSeconds int    `mapstructure:"debounce_seconds"` // 事件防抖
}

type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency"` // Worker 数量
	QueueSize   int `mapstructure:"queue_size"`  // 任务队列大小
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Load 加载配置; path 为空时只用默认值, 允许无配置文件运行
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("bundler.max_icon_density", 65534)
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.path", "./data/bundles.db")
	v.SetDefault("watcher.dir", "./drop")
	v.SetDefault("watcher.debounce_seconds", 2)
	v.SetDefault("worker.concurrency", 4)
	v.SetDefault("worker.queue_size", 100)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// 环境变量覆盖（支持嵌套配置）
	v.AutomaticEnv()
	v.BindEnv("database.host", "MYSQL_HOST")
	v.BindEnv("database.port", "MYSQL_PORT")
	v.BindEnv("database.user", "MYSQL_USER")
	v.BindEnv("database.password", "MYSQL_PASS")
	v.BindEnv("database.db_name", "MYSQL_DB")
	v.BindEnv("watcher.dir", "XAPK_WATCH_DIR")

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
