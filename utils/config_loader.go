package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ─── Config sections ────────────────────────────────────────────────────

type StorageConfig struct {
	// LogsDir is where both streaming and snapshot CSVs are written.
	LogsDir string `mapstructure:"logs_dir"`
}

type StreamConfig struct {
	IdleTimeoutMs   int `mapstructure:"idle_timeout_ms"`
	FlushIntervalMs int `mapstructure:"flush_interval_ms"`
	// HighWaterKB is how much unflushed output the sink accepts before it
	// reports backpressure.
	HighWaterKB int `mapstructure:"high_water_kb"`
}

type ScoreConfig struct {
	ValueBaseline float64 `mapstructure:"value_baseline"`
	StepsBaseline float64 `mapstructure:"steps_baseline"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

type MetricsConfig struct {
	// Addr enables the /metrics endpoint when non-empty, e.g. ":9102".
	Addr string `mapstructure:"addr"`
}

// Config is the complete logger configuration.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Stream  StreamConfig  `mapstructure:"stream"`
	Score   ScoreConfig   `mapstructure:"score"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{LogsDir: "logs"},
		Stream: StreamConfig{
			IdleTimeoutMs:   1000,
			FlushIntervalMs: 100,
			HighWaterKB:     16,
		},
		Score: ScoreConfig{
			ValueBaseline: 0.75,
			StepsBaseline: 5,
		},
		Logging: LoggingConfig{Level: LevelInfo, Format: "text"},
	}
}

// SetDefaults registers every default with v so env vars and files only
// need to carry overrides.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("storage.logs_dir", d.Storage.LogsDir)
	v.SetDefault("stream.idle_timeout_ms", d.Stream.IdleTimeoutMs)
	v.SetDefault("stream.flush_interval_ms", d.Stream.FlushIntervalMs)
	v.SetDefault("stream.high_water_kb", d.Stream.HighWaterKB)
	v.SetDefault("score.value_baseline", d.Score.ValueBaseline)
	v.SetDefault("score.steps_baseline", d.Score.StepsBaseline)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
}

// ─── Loaders ────────────────────────────────────────────────────────────

// NewViper returns a viper instance with defaults, env overrides
// (GAITLOG_STREAM_IDLE_TIMEOUT_MS for stream.idle_timeout_ms) and, when
// path is set, the YAML file at path.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix("GAITLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return v, nil
}

// LoadConfig decodes and validates the configuration held by v.
func LoadConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WatchLogLevel re-reads logging.level whenever the config file changes and
// applies it to log.
func WatchLogLevel(v *viper.Viper, log *Logger) {
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		level := v.GetString("logging.level")
		log.SetLevel(level)
		log.Info("config reloaded", "file", e.Name, "level", level)
	})
	v.WatchConfig()
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Storage.LogsDir) == "" {
		errs = append(errs, errors.New("storage.logs_dir must not be empty"))
	}
	if c.Stream.IdleTimeoutMs <= 0 {
		errs = append(errs, fmt.Errorf("stream.idle_timeout_ms must be positive, got %d", c.Stream.IdleTimeoutMs))
	}
	if c.Stream.FlushIntervalMs <= 0 {
		errs = append(errs, fmt.Errorf("stream.flush_interval_ms must be positive, got %d", c.Stream.FlushIntervalMs))
	}
	if c.Stream.HighWaterKB <= 0 {
		errs = append(errs, fmt.Errorf("stream.high_water_kb must be positive, got %d", c.Stream.HighWaterKB))
	}
	if c.Score.ValueBaseline <= 0 {
		errs = append(errs, fmt.Errorf("score.value_baseline must be positive, got %g", c.Score.ValueBaseline))
	}
	if c.Score.StepsBaseline <= 0 {
		errs = append(errs, fmt.Errorf("score.steps_baseline must be positive, got %g", c.Score.StepsBaseline))
	}
	return errors.Join(errs...)
}

// IdleTimeout returns the idle-close delay.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.Stream.IdleTimeoutMs) * time.Millisecond
}

// FlushInterval returns the sink flush cadence.
func (c *Config) FlushInterval() time.Duration {
	return time.Duration(c.Stream.FlushIntervalMs) * time.Millisecond
}

// HighWaterBytes returns the sink backpressure threshold in bytes.
func (c *Config) HighWaterBytes() int {
	return c.Stream.HighWaterKB * 1024
}
