// Package config loads starchart settings from YAML, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kwv/starchart/chart"
	"github.com/kwv/starchart/records"
	"github.com/kwv/starchart/relay"
	"github.com/kwv/starchart/traders"
)

// DefaultPath is where the CLI looks for configuration.
const DefaultPath = "config.yaml"

// Config is the full application configuration.
type Config struct {
	API    APIConfig    `yaml:"api" json:"api"`
	Mongo  MongoConfig  `yaml:"mongo" json:"mongo"`
	Redis  RedisConfig  `yaml:"redis" json:"redis"`
	MQTT   relay.Config `yaml:"mqtt" json:"mqtt"`
	Render RenderConfig `yaml:"render" json:"render"`
	HTTP   HTTPConfig   `yaml:"http" json:"http"`
}

// APIConfig controls the game API client and bulk downloads.
type APIConfig struct {
	BaseURL     string        `yaml:"baseUrl" json:"baseUrl"`
	Token       string        `yaml:"token,omitempty" json:"-"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	MaxAttempts int           `yaml:"maxAttempts" json:"maxAttempts"`
	PageLimit   int           `yaml:"pageLimit" json:"pageLimit"`
	Pause       time.Duration `yaml:"pause" json:"pause"`
	Concurrency int           `yaml:"concurrency" json:"concurrency"`
}

// MongoConfig points at the document store. An empty URI means no store.
type MongoConfig struct {
	URI      string `yaml:"uri,omitempty" json:"-"`
	Database string `yaml:"database" json:"database"`
}

// RedisConfig enables the API response cache when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr,omitempty" json:"addr,omitempty"`
	Password string        `yaml:"password,omitempty" json:"-"`
	DB       int           `yaml:"db" json:"db"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
}

// RenderConfig holds per-scope drawing settings and the output directory.
type RenderConfig struct {
	OutputDir string             `yaml:"outputDir" json:"outputDir"`
	Galaxy    chart.RenderConfig `yaml:"galaxy" json:"galaxy"`
	System    chart.RenderConfig `yaml:"system" json:"system"`
}

// HTTPConfig configures the map server.
type HTTPConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:     traders.DefaultBaseURL,
			Timeout:     traders.DefaultTimeout,
			MaxAttempts: traders.DefaultMaxAttempts,
			PageLimit:   traders.DefaultPageLimit,
			Pause:       time.Second,
			Concurrency: records.DefaultConcurrency,
		},
		Mongo: MongoConfig{Database: records.DefaultDatabase},
		Redis: RedisConfig{TTL: 24 * time.Hour},
		MQTT:  relay.Config{PublishPrefix: relay.DefaultPrefix, ClientID: "starchart"},
		Render: RenderConfig{
			OutputDir: "images",
			Galaxy:    chart.DefaultGalaxyConfig(),
			System:    chart.DefaultSystemConfig(),
		},
		HTTP: HTTPConfig{Addr: ":8080"},
	}
}

// Load reads path on top of the defaults, then applies a .env file from the
// same directory and the environment. A missing config file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config YAML: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := LoadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.mergeColors()
	cfg.Render.Galaxy.Scope = chart.ScopeGalaxy
	cfg.Render.System.Scope = chart.ScopeSystem

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads variables from the given files. Missing files are skipped
// and variables already set in the environment win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SPACETRADERS_TOKEN"); v != "" {
		c.API.Token = v
	}
	if v := os.Getenv("BASE_PATH"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("DB_CONN_STRING"); v != "" {
		c.Mongo.URI = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		c.Mongo.Database = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	c.MQTT = c.MQTT.WithEnv()
}

// mergeColors layers configured colour entries over the built-in tables so a
// file only needs to list the colours it changes.
func (c *Config) mergeColors() {
	g, s := &c.Render.Galaxy, &c.Render.System
	g.Factions = chart.DefaultFactionColors().Merge(g.Factions)
	g.Stars = chart.DefaultStarColors().Merge(g.Stars)
	g.Waypoints = chart.DefaultWaypointColors().Merge(g.Waypoints)
	s.Factions = chart.DefaultFactionColors().Merge(s.Factions)
	s.Stars = chart.DefaultStarColors().Merge(s.Stars)
	s.Waypoints = chart.DefaultWaypointColors().Merge(s.Waypoints)
}

// Validate rejects settings the client or renderer cannot work with.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.baseUrl is required")
	}
	if c.API.MaxAttempts < 1 {
		return fmt.Errorf("api.maxAttempts must be at least 1, got %d", c.API.MaxAttempts)
	}
	if c.API.PageLimit < 1 || c.API.PageLimit > traders.DefaultPageLimit {
		return fmt.Errorf("api.pageLimit must be between 1 and %d, got %d", traders.DefaultPageLimit, c.API.PageLimit)
	}
	if c.API.Concurrency < 1 {
		return fmt.Errorf("api.concurrency must be at least 1, got %d", c.API.Concurrency)
	}
	for name, rc := range map[string]chart.RenderConfig{"galaxy": c.Render.Galaxy, "system": c.Render.System} {
		if rc.Scale <= 0 {
			return fmt.Errorf("render.%s.scale must be positive, got %g", name, rc.Scale)
		}
	}
	return nil
}

// Save writes cfg as YAML. Secrets are omitted.
func Save(path string, cfg *Config) error {
	out := *cfg
	out.API.Token = ""
	out.Mongo.URI = ""
	out.Redis.Password = ""
	out.MQTT.Password = ""

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
