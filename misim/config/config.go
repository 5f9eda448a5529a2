package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	internal "github.com/ZanzyTHEbar/misim/misim"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Oracle  OracleConfig  `mapstructure:"oracle"`
	Run     RunConfig     `mapstructure:"run"`
	Session SessionConfig `mapstructure:"session"`
	Client  ClientConfig  `mapstructure:"client"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// OracleConfig stores language model backend settings.
type OracleConfig struct {
	Provider string        `mapstructure:"provider"` // "openai", "gemini"
	Model    string        `mapstructure:"model"`
	BaseURL  string        `mapstructure:"base_url"` // OpenAI-compatible endpoint
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"` // per request

	// Retry backoff for transient failures
	BackoffBase time.Duration `mapstructure:"backoff_base"`
	BackoffCap  time.Duration `mapstructure:"backoff_cap"`

	// Rate limiting
	RateLimitEnabled    bool          `mapstructure:"rate_limit_enabled"`
	RateLimitCapacity   int           `mapstructure:"rate_limit_capacity"`
	RateLimitRefillRate time.Duration `mapstructure:"rate_limit_refill_rate"`

	// Telemetry
	EnableTracing bool `mapstructure:"enable_tracing"`

	// Normalizer memoization
	CacheEnabled  bool `mapstructure:"cache_enabled"`
	CacheCapacity int  `mapstructure:"cache_capacity"`
}

// RunConfig stores batch generation settings.
type RunConfig struct {
	ProfilePath string `mapstructure:"profile_path"` // JSONL profile records
	OutputDir   string `mapstructure:"output_dir"`
	Rounds      int    `mapstructure:"rounds"`
	MaxTurns    int    `mapstructure:"max_turns"`
	Workers     int    `mapstructure:"workers"`
	Seed        uint64 `mapstructure:"seed"`
}

// SessionConfig stores termination detector settings.
type SessionConfig struct {
	SemanticAfterTurn    int     `mapstructure:"semantic_after_turn"`
	LoopOverlapThreshold float64 `mapstructure:"loop_overlap_threshold"`
	CompleteMinLines     int     `mapstructure:"complete_min_lines"` // transcripts longer than this are not regenerated
}

// ClientConfig stores client engine limits.
type ClientConfig struct {
	OffTopicLimit    int `mapstructure:"off_topic_limit"`
	OffTopicMinLines int `mapstructure:"off_topic_min_lines"`
	ParseAttempts    int `mapstructure:"parse_attempts"`
	ReplyAttempts    int `mapstructure:"reply_attempts"`
}

// LoggingConfig stores logger settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

var AppConfig Config

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		v.AddConfigPath(internal.DefaultConfigPath)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Oracle defaults
	v.SetDefault("oracle.provider", internal.DefaultProvider)
	v.SetDefault("oracle.model", internal.DefaultModel)
	v.SetDefault("oracle.base_url", internal.DefaultOpenAIURL)
	v.SetDefault("oracle.api_key", "")
	v.SetDefault("oracle.timeout", "2m")
	v.SetDefault("oracle.backoff_base", "1s")
	v.SetDefault("oracle.backoff_cap", "1m")
	v.SetDefault("oracle.rate_limit_enabled", true)
	v.SetDefault("oracle.rate_limit_capacity", 10)
	v.SetDefault("oracle.rate_limit_refill_rate", "100ms")
	v.SetDefault("oracle.enable_tracing", false)
	v.SetDefault("oracle.cache_enabled", true)
	v.SetDefault("oracle.cache_capacity", 1000)

	// Run defaults
	v.SetDefault("run.profile_path", "")
	v.SetDefault("run.output_dir", internal.DefaultOutputDir)
	v.SetDefault("run.rounds", 1)
	v.SetDefault("run.max_turns", 50)
	v.SetDefault("run.workers", 4)
	v.SetDefault("run.seed", 0) // 0 picks a random seed

	// Session defaults
	v.SetDefault("session.semantic_after_turn", 20)
	v.SetDefault("session.loop_overlap_threshold", 0.9)
	v.SetDefault("session.complete_min_lines", 40)

	// Client defaults
	v.SetDefault("client.off_topic_limit", 5)
	v.SetDefault("client.off_topic_min_lines", 12)
	v.SetDefault("client.parse_attempts", 5)
	v.SetDefault("client.reply_attempts", 5)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.pretty", false)

	v.AutomaticEnv()
	// Replace dots with underscores in env var names e.g. oracle.api_key becomes ORACLE_API_KEY
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Conventional provider variables
	if err := v.BindEnv("oracle.api_key", "ORACLE_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind env: %w", err)
	}
	if err := v.BindEnv("oracle.base_url", "ORACLE_BASE_URL", "OPENAI_BASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; defaults will be used.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	AppConfig = cfg
	return &cfg, nil
}

// Validate rejects values the simulator cannot run with.
func (c *Config) Validate() error {
	switch c.Oracle.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("unknown oracle provider %q", c.Oracle.Provider)
	}
	if c.Run.Rounds < 1 {
		return fmt.Errorf("run.rounds must be at least 1, got %d", c.Run.Rounds)
	}
	if c.Run.MaxTurns < 1 {
		return fmt.Errorf("run.max_turns must be at least 1, got %d", c.Run.MaxTurns)
	}
	if c.Run.Workers < 1 {
		return fmt.Errorf("run.workers must be at least 1, got %d", c.Run.Workers)
	}
	if c.Session.LoopOverlapThreshold <= 0 || c.Session.LoopOverlapThreshold > 1 {
		return fmt.Errorf("session.loop_overlap_threshold must be in (0, 1], got %v", c.Session.LoopOverlapThreshold)
	}
	if c.Client.ParseAttempts < 1 || c.Client.ReplyAttempts < 1 {
		return fmt.Errorf("client attempt counts must be at least 1")
	}
	return nil
}
