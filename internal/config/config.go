// Package config loads stepper.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aretw0/stepper/pkg/domain"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "stepper.yaml"

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheFile   = "file"
	CacheRedis  = "redis"
)

type Config struct {
	LogLevel   string         `yaml:"log_level"`
	Generators string         `yaml:"generators"`
	Playback   PlaybackConfig `yaml:"playback"`
	Share      ShareConfig    `yaml:"share"`
	Cache      CacheConfig    `yaml:"cache"`
	HTTP       HTTPConfig     `yaml:"http"`
	MCP        MCPConfig      `yaml:"mcp"`
}

type PlaybackConfig struct {
	Speed     int    `yaml:"speed"`
	Algorithm string `yaml:"algorithm"`
}

type ShareConfig struct {
	BaseURL string `yaml:"base_url"`
	Prefix  string `yaml:"prefix"`
}

type CacheConfig struct {
	Backend string        `yaml:"backend"`
	Dir     string        `yaml:"dir"`
	Redis   RedisConfig   `yaml:"redis"`
	TTL     time.Duration `yaml:"ttl"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type HTTPConfig struct {
	Addr        string `yaml:"addr"`
	Metrics     bool   `yaml:"metrics"`
	MaxSessions int    `yaml:"max_sessions"`
}

type MCPConfig struct {
	Transport string `yaml:"transport"`
	Addr      string `yaml:"addr"`
	BaseURL   string `yaml:"base_url"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel:   "info",
		Generators: "generators.yaml",
		Playback: PlaybackConfig{
			Speed:     domain.DefaultSpeed,
			Algorithm: "bubble-sort",
		},
		Share: ShareConfig{
			BaseURL: "http://localhost:8080/",
		},
		Cache: CacheConfig{
			Backend: CacheMemory,
			Dir:     ".stepper/cache",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "stepper:trace:",
			},
			TTL: time.Hour,
		},
		HTTP: HTTPConfig{
			Addr:        ":8080",
			Metrics:     true,
			MaxSessions: 64,
		},
		MCP: MCPConfig{
			Transport: "stdio",
			Addr:      ":8081",
			BaseURL:   "http://localhost:8081",
		},
	}
}

// Load reads path over the defaults. A missing file is not an error unless
// required is set.
func Load(path string, required bool) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error
	if c.Playback.Speed < domain.MinSpeed || c.Playback.Speed > domain.MaxSpeed {
		errs = append(errs, fmt.Errorf("playback.speed must be within [%d, %d], got %d", domain.MinSpeed, domain.MaxSpeed, c.Playback.Speed))
	}
	switch c.Cache.Backend {
	case CacheNone, CacheMemory, CacheFile, CacheRedis:
	default:
		errs = append(errs, fmt.Errorf("cache.backend %q is not one of none, memory, file, redis", c.Cache.Backend))
	}
	if c.Cache.Backend == CacheFile && c.Cache.Dir == "" {
		errs = append(errs, errors.New("cache.dir is required for the file backend"))
	}
	if c.Cache.Backend == CacheRedis && c.Cache.Redis.Addr == "" {
		errs = append(errs, errors.New("cache.redis.addr is required for the redis backend"))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, errors.New("cache.ttl must not be negative"))
	}
	if c.HTTP.MaxSessions < 0 {
		errs = append(errs, errors.New("http.max_sessions must not be negative"))
	}
	switch c.MCP.Transport {
	case "stdio", "sse":
	default:
		errs = append(errs, fmt.Errorf("mcp.transport %q is not one of stdio, sse", c.MCP.Transport))
	}
	return errors.Join(errs...)
}
