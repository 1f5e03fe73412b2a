// Package config handles loading, defaulting, and validation of the BMI
// station TOML configuration file. Every section maps to a typed struct so
// the rest of the codebase gets strong typing without manual key lookups.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config is the top-level configuration, mirroring the TOML sections.
type Config struct {
	Server   ServerConfig   `toml:"server"   json:"server"`
	Logging  LoggingConfig  `toml:"logging"  json:"logging"`
	Listener ListenerConfig `toml:"listener" json:"listener"`
	Scale    ScaleConfig    `toml:"scale"    json:"scale"`
	API      APIConfig      `toml:"api"      json:"api"`
	Journal  JournalConfig  `toml:"journal"  json:"journal"`
}

// ServerConfig controls the daemon's own HTTP/WebSocket surface.
type ServerConfig struct {
	Bind string `toml:"bind" json:"bind"`
}

type LoggingConfig struct {
	Level string `toml:"level" json:"level"`
}

// ListenerConfig controls the face-scan callback endpoint the access
// controller pushes events to.
type ListenerConfig struct {
	Port int    `toml:"port" json:"port"`
	Path string `toml:"path" json:"path"`
}

// ScaleConfig describes the serial line the weighing scale is attached to.
type ScaleConfig struct {
	Device        string `toml:"device"          json:"device"`
	BaudRate      int    `toml:"baud_rate"       json:"baud_rate"`
	ReadTimeoutMS int    `toml:"read_timeout_ms" json:"read_timeout_ms"`
}

// APIConfig holds the WbAccessControl API endpoint and credentials.
type APIConfig struct {
	BaseURL        string `toml:"base_url"        json:"base_url"`
	Username       string `toml:"username"        json:"username"`
	Password       string `toml:"password"        json:"-"`
	TimeoutSeconds int    `toml:"timeout_seconds" json:"timeout_seconds"`
	DeviceID       string `toml:"device_id"       json:"device_id"`
}

// JournalConfig controls the local SQLite journal of saved measurements.
type JournalConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled"`
	Path    string `toml:"path"    json:"path"`
}

// Default returns a Config populated with sane defaults. Values here are
// used whenever the TOML file omits a field.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "0.0.0.0:9090",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Listener: ListenerConfig{
			Port: 8080,
			Path: "/hikvision/listen",
		},
		Scale: ScaleConfig{
			Device:        "/dev/ttyUSB0",
			BaudRate:      9600,
			ReadTimeoutMS: 1000,
		},
		API: APIConfig{
			BaseURL:        "http://wbac-api.apptest.uz",
			TimeoutSeconds: 30,
			DeviceID:       "BMICalculator",
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    "/var/lib/bmistation/journal.sqlite",
		},
	}
}

// Load reads the TOML file at path, layers it on top of the defaults, and
// validates the result. An error is returned if the file can't be read,
// parsed, or if any constraint is violated.
func Load(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := toml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}

	if err := validate(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.Listener.Port < 1 || cfg.Listener.Port > 65535 {
		return errors.New("listener.port must be between 1 and 65535")
	}
	if !strings.HasPrefix(cfg.Listener.Path, "/") {
		return errors.New("listener.path must start with /")
	}
	if cfg.Scale.Device == "" {
		return errors.New("scale.device must not be empty")
	}
	if cfg.Scale.BaudRate <= 0 {
		return errors.New("scale.baud_rate must be > 0")
	}
	if cfg.Scale.ReadTimeoutMS <= 0 {
		return errors.New("scale.read_timeout_ms must be > 0")
	}
	if cfg.API.BaseURL == "" {
		return errors.New("api.base_url must not be empty")
	}
	if cfg.API.TimeoutSeconds <= 0 {
		return errors.New("api.timeout_seconds must be > 0")
	}
	if cfg.Journal.Enabled && cfg.Journal.Path == "" {
		return errors.New("journal.path must not be empty when journal.enabled is true")
	}
	return nil
}
