package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"adinsight/internal/errors"
)

// Generator modes
const (
	ModeHeuristic = "heuristic"
	ModeLLM       = "llm"
)

// Config represents the complete application configuration
type Config struct {
	Generator GeneratorConfig
	LLM       LLMConfig
	Server    ServerConfig
	Paths     PathConfig
	LogLevel  string
}

// GeneratorConfig holds the insight generation settings
type GeneratorConfig struct {
	Mode              string
	MinRelativeChange float64
	FlatTolerance     float64
	LowCTRThreshold   float64
	MaxHypotheses     int
	Concurrency       int
}

// LLMConfig holds AI/LLM related settings
type LLMConfig struct {
	APIKey              string
	Model               string
	BaseURL             string
	Temperature         float64
	MaxTokens           int
	Timeout             time.Duration
	RequestsPerMinute   int
	FallbackToHeuristic bool
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// PathConfig holds file system paths. Empty values select the embedded defaults.
type PathConfig struct {
	PromptsDir     string
	VocabularyFile string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Generator: *loadGeneratorConfig(),
		LLM:       *loadLLMConfig(),
		Server:    *loadServerConfig(),
		Paths:     *loadPathConfig(),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadGeneratorConfig() *GeneratorConfig {
	return &GeneratorConfig{
		Mode:              strings.ToLower(getEnvOrDefault("INSIGHT_GENERATOR_MODE", ModeHeuristic)),
		MinRelativeChange: getEnvFloatOrDefault("INSIGHT_MIN_RELATIVE_CHANGE", 0.15),
		FlatTolerance:     getEnvFloatOrDefault("INSIGHT_FLAT_TOLERANCE", 0.05),
		LowCTRThreshold:   getEnvFloatOrDefault("INSIGHT_LOW_CTR_THRESHOLD", 0),
		MaxHypotheses:     getEnvIntOrDefault("INSIGHT_MAX_HYPOTHESES", 10),
		Concurrency:       getEnvIntOrDefault("INSIGHT_CONCURRENCY", 4),
	}
}

func loadLLMConfig() *LLMConfig {
	return &LLMConfig{
		APIKey:              os.Getenv("LLM_API_KEY"),
		Model:               getEnvOrDefault("LLM_MODEL", "gpt-4o-mini"),
		BaseURL:             getEnvOrDefault("LLM_BASE_URL", ""),
		Temperature:         getEnvFloatOrDefault("LLM_TEMPERATURE", 0.2),
		MaxTokens:           getEnvIntOrDefault("LLM_MAX_TOKENS", 2000),
		Timeout:             getEnvDurationOrDefault("LLM_TIMEOUT", 60*time.Second),
		RequestsPerMinute:   getEnvIntOrDefault("LLM_REQUESTS_PER_MINUTE", 0),
		FallbackToHeuristic: getEnvBoolOrDefault("LLM_FALLBACK_TO_HEURISTIC", true),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadPathConfig() *PathConfig {
	return &PathConfig{
		PromptsDir:     getEnvOrDefault("PROMPTS_DIR", ""),
		VocabularyFile: getEnvOrDefault("VOCABULARY_FILE", ""),
	}
}

func validateConfig(config *Config) error {
	g := config.Generator
	switch g.Mode {
	case ModeHeuristic:
	case ModeLLM:
		if config.LLM.APIKey == "" {
			return errors.ConfigInvalid("LLM_API_KEY is required when INSIGHT_GENERATOR_MODE=llm")
		}
		if config.LLM.Model == "" {
			return errors.ConfigInvalid("LLM_MODEL is required when INSIGHT_GENERATOR_MODE=llm")
		}
	default:
		return errors.ConfigInvalid("INSIGHT_GENERATOR_MODE must be heuristic or llm, got " + strconv.Quote(g.Mode))
	}

	if g.FlatTolerance <= 0 || g.FlatTolerance >= 1 {
		return errors.ConfigInvalid("INSIGHT_FLAT_TOLERANCE must be in (0, 1)")
	}
	if g.MinRelativeChange <= g.FlatTolerance || g.MinRelativeChange >= 1 {
		return errors.ConfigInvalid("INSIGHT_MIN_RELATIVE_CHANGE must be greater than INSIGHT_FLAT_TOLERANCE and below 1")
	}
	if g.LowCTRThreshold < 0 || g.LowCTRThreshold >= 1 {
		return errors.ConfigInvalid("INSIGHT_LOW_CTR_THRESHOLD must be in [0, 1)")
	}
	if g.MaxHypotheses <= 0 {
		return errors.ConfigInvalid("INSIGHT_MAX_HYPOTHESES must be positive")
	}
	if g.Concurrency <= 0 {
		return errors.ConfigInvalid("INSIGHT_CONCURRENCY must be positive")
	}
	if config.LLM.Temperature < 0 || config.LLM.Temperature > 2 {
		return errors.ConfigInvalid("LLM_TEMPERATURE must be in [0, 2]")
	}
	if config.LLM.MaxTokens <= 0 {
		return errors.ConfigInvalid("LLM_MAX_TOKENS must be positive")
	}
	if config.LLM.Timeout <= 0 {
		return errors.ConfigInvalid("LLM_TIMEOUT must be positive")
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
