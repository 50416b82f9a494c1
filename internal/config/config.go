// Copyright 2025 MindSweep AI Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads service configuration from file and environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Project ProjectConfig `mapstructure:"project"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Models  ModelsConfig  `mapstructure:"models"`
	History HistoryConfig `mapstructure:"history"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port           string `mapstructure:"port"`
	RequestTimeout int    `mapstructure:"request_timeout"`
}

// ProjectConfig identifies the hosting project and region. Both default if
// unset and are surfaced in the service descriptor.
type ProjectConfig struct {
	ID     string `mapstructure:"id"`
	Region string `mapstructure:"region"`
}

// OpenAIConfig contains the completion API credentials and endpoint
type OpenAIConfig struct {
	APIKey   string `mapstructure:"apikey"`
	Endpoint string `mapstructure:"endpoint"`
}

// ModelsConfig selects the primary and fallback model identifiers
type ModelsConfig struct {
	Primary     string  `mapstructure:"primary"`
	Fallback    string  `mapstructure:"fallback"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// HistoryConfig contains history storage configuration
type HistoryConfig struct {
	StorageType string `mapstructure:"storage_type"`
	DBPath      string `mapstructure:"db_path"`
	RedisURL    string `mapstructure:"redis_url"`
	ListLimit   int    `mapstructure:"list_limit"`
	MaxRecords  int    `mapstructure:"max_records"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed for field '%s': %s", e.Field, e.Message)
}

// RequestTimeoutDuration returns the per-request timeout.
func (c *Config) RequestTimeoutDuration() time.Duration {
	if c.Server.RequestTimeout <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Server.RequestTimeout) * time.Second
}

// Load loads configuration from file and environment variables.
// Environment variables take precedence over config file values. A missing
// config file is not an error; defaults and environment carry the service.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("MINDSWEEP")

	setEnvironmentMappings(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.request_timeout", 60)

	v.SetDefault("project.id", "mindsweep-ai")
	v.SetDefault("project.region", "us-central1")

	// Gemini's OpenAI-compatible surface; any compatible endpoint works.
	v.SetDefault("openai.endpoint", "https://generativelanguage.googleapis.com/v1beta/openai")

	v.SetDefault("models.primary", "gemini-2.5-flash")
	v.SetDefault("models.fallback", "gemini-1.5-flash")
	v.SetDefault("models.max_tokens", 2000)
	v.SetDefault("models.temperature", 0.7)

	v.SetDefault("history.storage_type", "sqlite")
	v.SetDefault("history.db_path", "./mindsweep.db")
	v.SetDefault("history.redis_url", "redis://localhost:6379/0")
	v.SetDefault("history.list_limit", 20)
	v.SetDefault("history.max_records", 1000)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// setEnvironmentMappings sets explicit environment variable mappings
func setEnvironmentMappings(v *viper.Viper) {
	envMappings := map[string]string{
		"OPENAI_API_KEY":       "openai.apikey",
		"OPENAI_ENDPOINT":      "openai.endpoint",
		"GOOGLE_CLOUD_PROJECT": "project.id",
		"VERTEX_REGION":        "project.region",
		"PORT":                 "server.port",
		"LOG_LEVEL":            "logging.level",
		"LOG_FORMAT":           "logging.format",
	}

	for envVar, configKey := range envMappings {
		if value := os.Getenv(envVar); value != "" {
			v.Set(configKey, value)
		}
	}
}

// validateConfig validates the configuration for required fields and valid values
func validateConfig(config *Config) error {
	var errors []ValidationError

	if config.OpenAI.APIKey == "" {
		errors = append(errors, ValidationError{
			Field:   "openai.apikey",
			Message: "completion API key is required. Set via config file or OPENAI_API_KEY environment variable",
		})
	}

	if config.Models.Primary == "" {
		errors = append(errors, ValidationError{
			Field:   "models.primary",
			Message: "primary model identifier is required",
		})
	}

	if config.Models.Fallback == "" {
		errors = append(errors, ValidationError{
			Field:   "models.fallback",
			Message: "fallback model identifier is required",
		})
	}

	if config.Models.MaxTokens <= 0 {
		errors = append(errors, ValidationError{
			Field:   "models.max_tokens",
			Message: "max_tokens must be greater than 0",
		})
	}

	if config.Models.Temperature < 0 || config.Models.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "models.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	validStorageTypes := []string{"sqlite", "redis", "memory"}
	if !contains(validStorageTypes, config.History.StorageType) {
		errors = append(errors, ValidationError{
			Field:   "history.storage_type",
			Message: fmt.Sprintf("storage type must be one of: %s", strings.Join(validStorageTypes, ", ")),
		})
	}

	if config.History.StorageType == "sqlite" && config.History.DBPath == "" {
		errors = append(errors, ValidationError{
			Field:   "history.db_path",
			Message: "db_path is required for sqlite storage",
		})
	}

	if config.History.StorageType == "redis" && config.History.RedisURL == "" {
		errors = append(errors, ValidationError{
			Field:   "history.redis_url",
			Message: "redis_url is required for redis storage",
		})
	}

	if config.History.ListLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "history.list_limit",
			Message: "list_limit must be greater than 0",
		})
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, config.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("log level must be one of: %s", strings.Join(validLogLevels, ", ")),
		})
	}

	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, config.Logging.Format) {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("log format must be one of: %s", strings.Join(validLogFormats, ", ")),
		})
	}

	if len(errors) > 0 {
		var errorMessages []string
		for _, err := range errors {
			errorMessages = append(errorMessages, err.Error())
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errorMessages, "\n"))
	}

	return nil
}

// MaskSensitiveValues returns a copy of the config with sensitive values masked
func (c *Config) MaskSensitiveValues() *Config {
	masked := *c

	if masked.OpenAI.APIKey != "" {
		masked.OpenAI.APIKey = maskValue(masked.OpenAI.APIKey)
	}

	return &masked
}

// maskValue masks sensitive values, showing only the first 8 characters
func maskValue(value string) string {
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	return value[:8] + strings.Repeat("*", len(value)-8)
}

// contains checks if a slice contains a specific string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// WatchConfig reloads the configuration whenever the file changes and hands
// the result to callback. Reload errors are reported through onError and the
// previous configuration stays live.
func WatchConfig(configPath string, callback func(*Config), onError func(error)) error {
	if configPath == "" {
		return fmt.Errorf("config path is required for watching")
	}
	if _, err := os.Stat(configPath); err != nil {
		return fmt.Errorf("cannot watch config file: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)

	v.WatchConfig()
	v.OnConfigChange(func(_ fsnotify.Event) {
		config, err := Load(configPath)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		callback(config)
	})

	return nil
}
