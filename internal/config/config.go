// Package config loads service settings from defaults, an optional config
// file, a .env file and PSYCHOMETRIC_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/abhisek/psychometric/internal/assessment"
	"github.com/abhisek/psychometric/internal/session"
	"github.com/abhisek/psychometric/internal/store"
)

// EnvPrefix prefixes every environment override, e.g.
// PSYCHOMETRIC_SERVER_ADDR for server.addr.
const EnvPrefix = "PSYCHOMETRIC"

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config is the service configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Assessment AssessmentConfig `mapstructure:"assessment"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type StorageConfig struct {
	Backend       string `mapstructure:"backend"`
	DBPath        string `mapstructure:"db_path"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisPrefix   string `mapstructure:"redis_prefix"`
}

type AssessmentConfig struct {
	QueueSize       int    `mapstructure:"queue_size"`
	DefaultVoice    string `mapstructure:"default_voice"`
	SpeechCacheSize int    `mapstructure:"speech_cache_size"`
	AnalysisModel   string `mapstructure:"analysis_model"`
	MaxSessions     int    `mapstructure:"max_sessions"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("storage.backend", BackendSQLite)
	v.SetDefault("storage.db_path", "")
	v.SetDefault("storage.redis_addr", "localhost:6379")
	v.SetDefault("storage.redis_password", "")
	v.SetDefault("storage.redis_db", 0)
	v.SetDefault("storage.redis_prefix", "psychometric:")

	v.SetDefault("assessment.queue_size", assessment.DefaultQueueSize)
	v.SetDefault("assessment.default_voice", string(assessment.DefaultVoice))
	v.SetDefault("assessment.speech_cache_size", 64)
	v.SetDefault("assessment.analysis_model", "")
	v.SetDefault("assessment.max_sessions", session.DefaultCapacity)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads the configuration. configFile may be empty; a missing .env
// file is not an error.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	// Env values for slices arrive as one comma-separated string.
	cfg.Server.CORSOrigins = splitList(cfg.Server.CORSOrigins)

	if cfg.Storage.DBPath == "" {
		path, err := store.DefaultDBPath()
		if err != nil {
			return nil, err
		}
		cfg.Storage.DBPath = path
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite:
		if c.Storage.DBPath == "" {
			return errors.New("storage.db_path is required for the sqlite backend")
		}
	case BackendRedis:
		if c.Storage.RedisAddr == "" {
			return errors.New("storage.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q (want %s or %s)", c.Storage.Backend, BackendSQLite, BackendRedis)
	}
	if c.Assessment.QueueSize < 1 {
		return fmt.Errorf("assessment.queue_size must be at least 1, got %d", c.Assessment.QueueSize)
	}
	if c.Assessment.MaxSessions < 1 {
		return fmt.Errorf("assessment.max_sessions must be at least 1, got %d", c.Assessment.MaxSessions)
	}
	if _, err := assessment.ParseVoice(c.Assessment.DefaultVoice); err != nil {
		return fmt.Errorf("assessment.default_voice: %w", err)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("server.shutdown_timeout must be positive")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log.format %q (want text or json)", c.Log.Format)
	}
	return nil
}

// Voice returns the configured default voice.
func (c *Config) Voice() assessment.Voice {
	v, err := assessment.ParseVoice(c.Assessment.DefaultVoice)
	if err != nil {
		return assessment.DefaultVoice
	}
	return v
}
