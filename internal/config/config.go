package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port     int    `yaml:"port"`
	BasePath string `yaml:"base_path"` // defaults to /api/whatsapp
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AuthConfig struct {
	// APIKey is the dashboard master key; requests carrying it bypass the
	// user lookup, mirroring the DASHBOARD_USERNAME/API_KEY pair.
	APIKey            string        `yaml:"api_key"`
	DashboardUsername string        `yaml:"dashboard_username"`
	JWTSecret         string        `yaml:"jwt_secret"`
	JWTTTL            time.Duration `yaml:"jwt_ttl"`
}

type BulkConfig struct {
	DefaultPacingMs         int     `yaml:"default_pacing_ms"`
	DefaultTypingMs         int     `yaml:"default_typing_ms"`
	MaxRecipients           int     `yaml:"max_recipients"`
	HistoryLimit            int     `yaml:"history_limit"`
	ListLimit               int     `yaml:"list_limit"`
	MaxActiveJobsPerSession int     `yaml:"max_active_jobs_per_session"`
	SessionRatePerSec       float64 `yaml:"session_rate_per_sec"` // 0 disables the shared limiter
}

type ChannelConfig struct {
	Mode          string `yaml:"mode"` // simulated is the only built-in mode
	SendLatencyMs int    `yaml:"send_latency_ms"`
}

type Config struct {
	Runtime  RuntimeConfig
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Bulk     BulkConfig     `yaml:"bulk"`
	Channel  ChannelConfig  `yaml:"channel"`
}

// LoadConfig reads the YAML file at path, applies defaults and validates.
func LoadConfig(path string, dev bool) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Runtime.Dev = dev
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Server.BasePath == "" {
		c.Server.BasePath = "/api/whatsapp"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Auth.DashboardUsername == "" {
		c.Auth.DashboardUsername = "dashboard"
	}
	if c.Auth.JWTTTL <= 0 {
		c.Auth.JWTTTL = 30 * time.Minute
	}
	if c.Redis.TTL <= 0 {
		c.Redis.TTL = time.Hour
	}
	if c.Bulk.DefaultPacingMs == 0 {
		c.Bulk.DefaultPacingMs = 1000
	}
	if c.Bulk.MaxRecipients <= 0 {
		c.Bulk.MaxRecipients = 100
	}
	if c.Bulk.HistoryLimit <= 0 {
		c.Bulk.HistoryLimit = 100
	}
	if c.Bulk.ListLimit <= 0 {
		c.Bulk.ListLimit = 50
	}
	if c.Bulk.MaxActiveJobsPerSession <= 0 {
		c.Bulk.MaxActiveJobsPerSession = 5
	}
	if c.Channel.Mode == "" {
		c.Channel.Mode = "simulated"
	}
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" && !c.Runtime.Dev {
		return errors.New("auth.jwt_secret is required outside dev mode")
	}
	if c.Bulk.MaxRecipients > 100 {
		return fmt.Errorf("bulk.max_recipients %d exceeds the channel ceiling of 100", c.Bulk.MaxRecipients)
	}
	if c.Bulk.DefaultPacingMs < 0 || c.Bulk.DefaultTypingMs < 0 {
		return errors.New("bulk delays must not be negative")
	}
	return nil
}
