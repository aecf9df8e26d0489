// Package config loads application configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "OPSDECK_"

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	CORS      CORSConfig      `koanf:"cors"`
	Auth      AuthConfig      `koanf:"auth"`
	Simulator SimulatorConfig `koanf:"simulator"`
	Demo      DemoConfig      `koanf:"demo"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              string        `koanf:"port"`
	MetricsPort       string        `koanf:"metrics_port"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// AuthConfig holds JWT and operator credential settings. The operator
// password hash is a bcrypt hash; there is no user database.
type AuthConfig struct {
	JWTSecret            string        `koanf:"jwt_secret"`
	TokenTTL             time.Duration `koanf:"token_ttl"`
	OperatorEmail        string        `koanf:"operator_email"`
	OperatorPasswordHash string        `koanf:"operator_password_hash"`
}

// SimulatorConfig tunes the mock data generator and background loops.
type SimulatorConfig struct {
	FleetSize     int           `koanf:"fleet_size"`
	LogBufferSize int           `koanf:"log_buffer_size"`
	BackfillDays  int           `koanf:"backfill_days"`
	DefectCount   int           `koanf:"defect_count"`
	TickInterval  time.Duration `koanf:"tick_interval"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
	AlertMaxAge   time.Duration `koanf:"alert_max_age"`
	CascadeDelay  time.Duration `koanf:"cascade_delay"`
	PrefsPath     string        `koanf:"prefs_path"`
}

// DemoConfig tunes the demo-control endpoints.
type DemoConfig struct {
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`
}

// Default returns the configuration defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              "8080",
			MetricsPort:       "9090",
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		Auth: AuthConfig{
			TokenTTL:      time.Hour,
			OperatorEmail: "operator@opsdeck.local",
		},
		Simulator: SimulatorConfig{
			FleetSize:     150,
			LogBufferSize: 1000,
			BackfillDays:  7,
			DefectCount:   200,
			TickInterval:  time.Second,
			SweepInterval: 30 * time.Second,
			AlertMaxAge:   5 * time.Minute,
			CascadeDelay:  2 * time.Second,
			PrefsPath:     "opsdeck-prefs.json",
		},
		Demo: DemoConfig{
			RateLimitRPS:   2,
			RateLimitBurst: 5,
		},
	}
}

// Load reads configuration from the given YAML file (optional) and applies
// OPSDECK_* environment overrides on top of the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat config file %s: %w", path, err)
		}
	}

	// OPSDECK_SERVER__PORT=8081 -> server.port (double underscore separates
	// nesting levels so keys like metrics_port stay intact)
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Simulator.FleetSize <= 0 {
		return fmt.Errorf("simulator.fleet_size must be positive")
	}
	if c.Simulator.LogBufferSize <= 0 {
		return fmt.Errorf("simulator.log_buffer_size must be positive")
	}
	if c.Simulator.TickInterval <= 0 || c.Simulator.SweepInterval <= 0 {
		return fmt.Errorf("simulator intervals must be positive")
	}
	return nil
}
