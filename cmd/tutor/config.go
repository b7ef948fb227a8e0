// In file: cmd/tutor/config.go
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dileep-u-k/tutor-director/internal/agent"
	"github.com/dileep-u-k/tutor-director/internal/llm"
	"github.com/dileep-u-k/tutor-director/internal/log"
)

// ErrConfiguration marks a missing or invalid setting. The process does not
// start when it is returned.
var ErrConfiguration = errors.New("configuration error")

const defaultConfigPath = "config.yaml"

// AppConfig holds all configuration for the director, loaded from config.yaml
// and the environment.
type AppConfig struct {
	APIKey        string        `yaml:"-"`
	Model         string        `yaml:"model"`
	MaxIterations int           `yaml:"max_iterations"`
	KnowledgePath string        `yaml:"knowledge_path"`
	MetadataPath  string        `yaml:"metadata_path"`
	LogLevel      string        `yaml:"log_level"`
	RedisAddr     string        `yaml:"redis_addr"`
	AttachmentTTL time.Duration `yaml:"attachment_ttl"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	Port          string        `yaml:"port"`
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Model:         llm.DefaultModel,
		MaxIterations: agent.DefaultMaxIterations,
		KnowledgePath: "memory.json",
		MetadataPath:  "metadata.json",
		LogLevel:      log.LevelInfo,
		AttachmentTTL: llm.DefaultAttachmentTTL,
		SessionTTL:    30 * time.Minute,
		Port:          "8080",
	}
}

// LoadConfig layers defaults, the YAML file at path and environment
// variables, in that order. A missing file is only an error when the path was
// given explicitly.
func LoadConfig(path string, explicit bool) (*AppConfig, error) {
	// In Docker (where GIN_MODE="release"), configuration is provided directly
	// as environment variables.
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(); err != nil {
			log.Debugf("No .env file found for local development.")
		}
	}

	cfg := defaultConfig()
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrConfiguration, path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
			log.Debugf("No %s found, using defaults.", path)
		default:
			return nil, fmt.Errorf("%w: failed to read %s: %v", ErrConfiguration, path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *AppConfig) error {
	cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GOOGLE_API_KEY")
	}
	if v := os.Getenv("DIRECTOR_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("DIRECTOR_MAX_ITERATIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: DIRECTOR_MAX_ITERATIONS must be an integer, got %q", ErrConfiguration, v)
		}
		cfg.MaxIterations = n
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return nil
}

func (c *AppConfig) validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY (or GOOGLE_API_KEY) is not set", ErrConfiguration)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("%w: max_iterations must be at least 1, got %d", ErrConfiguration, c.MaxIterations)
	}
	if c.MetadataPath == "" {
		return fmt.Errorf("%w: metadata_path is empty", ErrConfiguration)
	}
	if c.AttachmentTTL <= 0 {
		c.AttachmentTTL = llm.DefaultAttachmentTTL
	}
	return nil
}
