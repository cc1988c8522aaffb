package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"market-dashboard/src/models"
	"market-dashboard/src/utils"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new Config instance from a YAML file, then applies
// environment overrides and defaults.
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	return Parse(data)
}

// -----------------------------------------------------------------------------

// Parse builds a Config from raw YAML.
func Parse(data []byte) (*Config, error) {
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyEnv()
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

func (c *Config) applyEnv() {
	if v := os.Getenv("DASHBOARD_BACKEND_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("DASHBOARD_BACKEND_TOKEN"); v != "" {
		c.Backend.Token = v
	}
	if v := os.Getenv("DASHBOARD_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv("DASHBOARD_REDIS_ADDR"); v != "" {
		c.Cache.Type = "redis"
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv("DASHBOARD_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// -----------------------------------------------------------------------------

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "market-dashboard"
	}
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.Backend.RequestTimeout == 0 {
		c.Backend.RequestTimeout = 15
	}
	if c.Backend.UserAgent == "" {
		c.Backend.UserAgent = "market-dashboard/1.0"
	}
	if c.Cache.Type == "" {
		c.Cache.Type = "memory"
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = 300
	}
	if c.Calendar.DefaultMIC == "" {
		c.Calendar.DefaultMIC = "XNYS"
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARNING", "WARN", "ERROR":
	default:
		return fmt.Errorf("unknown log level: %q", c.LogLevel)
	}

	// Server
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.GrpcPort != 0 && (c.GrpcPort <= 1024 || c.GrpcPort > 65535) {
		return fmt.Errorf("invalid grpc port number: %d", c.GrpcPort)
	}

	// Backend
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend base_url cannot be empty")
	}
	if c.Backend.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Backend.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}

	// Cache
	switch c.Cache.Type {
	case "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("redis_addr cannot be empty for redis cache")
		}
	default:
		return fmt.Errorf("unknown cache type: %q", c.Cache.Type)
	}
	if c.Cache.TTLSeconds < 0 {
		return fmt.Errorf("cache ttl cannot be negative")
	}

	// Fibonacci level overrides
	for i, lvl := range c.Fibonacci.Levels {
		if lvl.Label == "" {
			return fmt.Errorf("fibonacci level %d must have a label", i)
		}
		if lvl.Ratio < 0 {
			return fmt.Errorf("fibonacci level '%s' has a negative ratio", lvl.Label)
		}
		if lvl.Color != "" && !utils.IsValidHexColor(lvl.Color) {
			return fmt.Errorf("fibonacci level '%s' has an invalid color %q", lvl.Label, lvl.Color)
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
