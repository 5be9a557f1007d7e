package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AdiYohanes/mge-booking/internal/hours"
)

type Config struct {
	Server struct {
		Port        int `yaml:"port"`
		MetricsPort int `yaml:"metrics_port"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Backend struct {
		BaseURL            string  `yaml:"base_url"`
		APIKey             string  `yaml:"api_key"`
		CacheTTLSeconds    int     `yaml:"cache_ttl_seconds"`
		RateLimitPerSecond float64 `yaml:"rate_limit_per_second"`
		RateLimitBurst     int     `yaml:"rate_limit_burst"`
	} `yaml:"backend"`

	Telegram struct {
		BotToken    string `yaml:"bot_token"`
		AdminChatID int64  `yaml:"admin_chat_id"`
	} `yaml:"telegram"`

	Booking struct {
		MinDurationHours      int `yaml:"min_duration_hours"`
		MaxDurationHours      int `yaml:"max_duration_hours"`
		SessionTimeoutMinutes int `yaml:"session_timeout_minutes"`
	} `yaml:"booking"`

	// BusinessHours overrides the built-in schedule per weekday
	// (0=Sunday..6=Saturday). End may exceed 23 for sessions that run
	// past midnight.
	BusinessHours []HoursRule `yaml:"business_hours"`
}

type HoursRule struct {
	Weekday int `yaml:"weekday"`
	Start   int `yaml:"start"`
	End     int `yaml:"end"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/mge_booking.db"
	}
	if cfg.Booking.MinDurationHours <= 0 {
		cfg.Booking.MinDurationHours = 1
	}
	if cfg.Booking.MaxDurationHours <= 0 {
		cfg.Booking.MaxDurationHours = 5
	}

	for _, rule := range cfg.BusinessHours {
		if rule.Weekday < 0 || rule.Weekday > 6 {
			return nil, fmt.Errorf("business_hours: weekday %d out of range", rule.Weekday)
		}
		if !(hours.Rule{Start: rule.Start, End: rule.End}).Valid() {
			return nil, fmt.Errorf("business_hours: invalid window %d-%d for weekday %d", rule.Start, rule.End, rule.Weekday)
		}
	}

	return &cfg, nil
}

// HoursTable returns the effective business-hours table: the defaults with
// any configured per-weekday overrides applied.
func (c *Config) HoursTable() hours.Table {
	table := hours.DefaultTable()
	for _, rule := range c.BusinessHours {
		table[time.Weekday(rule.Weekday)] = hours.Rule{Start: rule.Start, End: rule.End}
	}
	return table
}

// SessionTimeout returns the selection-session idle timeout.
func (c *Config) SessionTimeout() time.Duration {
	if c.Booking.SessionTimeoutMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Booking.SessionTimeoutMinutes) * time.Minute
}

// CacheTTL returns the backend response cache TTL.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Backend.CacheTTLSeconds) * time.Second
}
