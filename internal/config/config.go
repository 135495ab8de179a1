package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataDir       string
	OutputPath    string
	ClumpingRatio float64
	LookbackDays  int
}

// fileConfig is the optional YAML run configuration. Values set here override
// environment variables.
type fileConfig struct {
	Datasets      string  `yaml:"datasets"`
	Output        string  `yaml:"output"`
	ClumpingRatio float64 `yaml:"clumping_ratio"`
	LookbackDays  int     `yaml:"lookback_days"`
}

// Load resolves configuration from .env files, environment variables and an
// optional YAML run config.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory first
	exePath, err := os.Executable()
	if err == nil {
		envPath := filepath.Join(filepath.Dir(exePath), ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables")
	}

	cfg := &AppConfig{
		DataDir:       getEnv("COVREPORT_DATA_DIR", "datasets"),
		OutputPath:    getEnv("COVREPORT_OUTPUT", "opportunity_comparison_report.html"),
		ClumpingRatio: getEnvFloat("COVREPORT_CLUMPING_RATIO", 10.0),
		LookbackDays:  getEnvInt("COVREPORT_LOOKBACK_DAYS", 10),
	}

	// 3. Optional YAML run config overrides the environment
	yamlPath := getEnv("COVREPORT_CONFIG", "covreport.yaml")
	if raw, err := os.ReadFile(yamlPath); err == nil {
		var fc fileConfig
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", yamlPath, err)
		}
		if fc.Datasets != "" {
			cfg.DataDir = fc.Datasets
		}
		if fc.Output != "" {
			cfg.OutputPath = fc.Output
		}
		if fc.ClumpingRatio != 0 {
			cfg.ClumpingRatio = fc.ClumpingRatio
		}
		if fc.LookbackDays != 0 {
			cfg.LookbackDays = fc.LookbackDays
		}
		log.Debug().Str("path", yamlPath).Msg("Loaded run configuration")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	if c.ClumpingRatio <= 0 {
		return fmt.Errorf("clumping ratio must be positive, got %v", c.ClumpingRatio)
	}
	if c.LookbackDays < 1 {
		return fmt.Errorf("lookback days must be at least 1, got %d", c.LookbackDays)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-integer environment value")
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-numeric environment value")
	}
	return fallback
}
