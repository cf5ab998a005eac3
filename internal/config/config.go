// Package config loads service settings from an optional YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("config: invalid")

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Database struct {
	URL     string `yaml:"url"`
	Migrate bool   `yaml:"migrate"`
}

type Redis struct {
	URL string `yaml:"url"`
}

// Solver configures the external exact solver. Binaries maps GOOS to an
// executable path; platforms without an entry cannot run the solver.
type Solver struct {
	Binaries map[string]string `yaml:"binaries"`
	Timeout  time.Duration     `yaml:"timeout"`
	RPS      float64           `yaml:"rps"`
	Burst    int               `yaml:"burst"`
}

type Rate struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type Cache struct {
	Traces int `yaml:"traces"`
}

type Config struct {
	Port     int      `yaml:"port"`
	Scale    float64  `yaml:"scale"`
	Log      Log      `yaml:"log"`
	Database Database `yaml:"database"`
	Redis    Redis    `yaml:"redis"`
	Solver   Solver   `yaml:"solver"`
	Rate     Rate     `yaml:"rate"`
	Cache    Cache    `yaml:"cache"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:     8080,
		Scale:    100,
		Log:      Log{Level: "info", Format: "json"},
		Database: Database{Migrate: true},
		Solver: Solver{
			Binaries: map[string]string{
				"darwin": "bin/concorde-osx",
				"linux":  "bin/concorde-fedora",
			},
			Timeout: 30 * time.Second,
			RPS:     1,
			Burst:   2,
		},
		Rate:  Rate{RPS: 20, Burst: 40},
		Cache: Cache{Traces: 256},
	}
}

// Load reads the YAML file at path (skipped when empty) over the defaults,
// applies environment overrides from getenv and validates the result.
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// FromEnv loads the file named by TOURLAB_CONFIG plus environment overrides.
func FromEnv() (Config, error) {
	return Load(os.Getenv("TOURLAB_CONFIG"), os.Getenv)
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	str("DATABASE_URL", &c.Database.URL)
	str("REDIS_URL", &c.Redis.URL)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	if v := strings.TrimSpace(getenv("SOLVER_BIN")); v != "" {
		if c.Solver.Binaries == nil {
			c.Solver.Binaries = map[string]string{}
		}
		c.Solver.Binaries[runtime.GOOS] = v
	}
	if v := strings.TrimSpace(getenv("DB_MIGRATE")); v != "" {
		c.Database.Migrate = v != "false"
	}

	var err error
	parse := func(key string, fn func(string) error) {
		v := strings.TrimSpace(getenv(key))
		if v == "" || err != nil {
			return
		}
		if e := fn(v); e != nil {
			err = fmt.Errorf("%w: %s=%q: %v", ErrInvalid, key, v, e)
		}
	}
	parse("PORT", func(v string) (e error) { c.Port, e = strconv.Atoi(v); return })
	parse("RATE_RPS", func(v string) (e error) { c.Rate.RPS, e = strconv.ParseFloat(v, 64); return })
	parse("RATE_BURST", func(v string) (e error) { c.Rate.Burst, e = strconv.Atoi(v); return })
	parse("SOLVER_TIMEOUT", func(v string) (e error) { c.Solver.Timeout, e = time.ParseDuration(v); return })
	parse("TRACE_CACHE", func(v string) (e error) { c.Cache.Traces, e = strconv.Atoi(v); return })
	return err
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("%w: port %d", ErrInvalid, c.Port)
	case c.Scale <= 0:
		return fmt.Errorf("%w: scale must be positive", ErrInvalid)
	case c.Solver.Timeout <= 0:
		return fmt.Errorf("%w: solver timeout must be positive", ErrInvalid)
	case c.Solver.RPS <= 0 || c.Solver.Burst <= 0:
		return fmt.Errorf("%w: solver rate limit must be positive", ErrInvalid)
	case c.Rate.RPS <= 0 || c.Rate.Burst <= 0:
		return fmt.Errorf("%w: request rate limit must be positive", ErrInvalid)
	case c.Cache.Traces <= 0:
		return fmt.Errorf("%w: trace cache size must be positive", ErrInvalid)
	}
	return nil
}

// Addr is the listen address for Port.
func (c Config) Addr() string { return ":" + strconv.Itoa(c.Port) }
