// internal/config/config.go

// Package config loads the admin service bootstrap configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Data drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Bootstrap holds everything the service needs to start.
type Bootstrap struct {
	Server     Server     `yaml:"server"`
	Data       Data       `yaml:"data"`
	Membership Membership `yaml:"membership"`
	Log        Log        `yaml:"log"`
	Telemetry  Telemetry  `yaml:"telemetry"`
}

type Server struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type Data struct {
	Driver string `yaml:"driver"` // memory, postgres
	DSN    string `yaml:"dsn"`
	// SeedDemo fills the ledger and assessment tables with sample rows.
	SeedDemo bool `yaml:"seed_demo"`
}

type Membership struct {
	SaveLatency    time.Duration `yaml:"save_latency"`
	SavesPerMinute int           `yaml:"saves_per_minute"`
	SaveBurst      int           `yaml:"save_burst"`
	// SessionIdleTTL drops edit sessions without edits for this long. Zero
	// keeps them until closed.
	SessionIdleTTL time.Duration `yaml:"session_idle_ttl"`
}

type Log struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

type Telemetry struct {
	ServiceName  string `yaml:"service_name"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	Insecure     bool   `yaml:"insecure"`
}

// Default returns the configuration used when no file is given.
func Default() *Bootstrap {
	return &Bootstrap{
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Data: Data{Driver: DriverMemory, SeedDemo: true},
		Membership: Membership{
			SaveLatency:    800 * time.Millisecond,
			SavesPerMinute: 30,
			SaveBurst:      5,
			SessionIdleTTL: 30 * time.Minute,
		},
		Log:       Log{Level: "info", Format: "json"},
		Telemetry: Telemetry{ServiceName: "rextra-admin"},
	}
}

// LoadDotEnv loads .env files into the process environment. Missing files
// are not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Bootstrap, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Bootstrap) applyEnvOverrides() {
	if v := os.Getenv("REXTRA_HTTP_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Data.DSN = v
	}
	if v := os.Getenv("REXTRA_DATA_DRIVER"); v != "" {
		c.Data.Driver = v
	}
	if v := os.Getenv("REXTRA_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		c.Telemetry.OTLPEndpoint = v
	}
}

// Validate reports every problem in one error.
func (c *Bootstrap) Validate() error {
	var problems []string
	if c.Server.Addr == "" {
		problems = append(problems, "server.addr is required")
	}
	switch c.Data.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Data.DSN == "" {
			problems = append(problems, "data.dsn is required for the postgres driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("data.driver %q is not one of memory, postgres", c.Data.Driver))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q is not one of json, console", c.Log.Format))
	}
	if c.Membership.SaveLatency < 0 {
		problems = append(problems, "membership.save_latency must not be negative")
	}
	if c.Membership.SessionIdleTTL < 0 {
		problems = append(problems, "membership.session_idle_ttl must not be negative")
	}
	if c.Membership.SavesPerMinute < 0 || c.Membership.SaveBurst < 0 {
		problems = append(problems, "membership rate limits must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
