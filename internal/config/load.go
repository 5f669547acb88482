package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envKeys are bound explicitly so that Unmarshal sees them even without a
// config file entry or default.
var envKeys = []string{
	"server.port",
	"server.log_level",
	"server.shutdown_timeout",
	"database.url",
	"resume.path",
	"engine.tick_interval",
	"engine.default_rest_seconds",
	"engine.fallback_duration_seconds",
	"engine.short_pause",
	"engine.long_pause",
	"engine.post_header_pause",
	"engine.words_per_minute",
	"engine.voices_path",
	"task.worker_count",
	"task.queue_size",
	"task.stuck_task_age_minutes",
	"llm.gemini_api_key",
	"llm.model_name",
	"llm.max_retries",
	"llm.retry_delay_seconds",
	"llm.prompt_template_path",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("resume.path", "scry-resume.db")

	v.SetDefault("engine.tick_interval", "1s")
	v.SetDefault("engine.default_rest_seconds", 30)
	v.SetDefault("engine.fallback_duration_seconds", 30)
	v.SetDefault("engine.short_pause", "1s")
	v.SetDefault("engine.long_pause", "2s")
	v.SetDefault("engine.post_header_pause", "3s")
	v.SetDefault("engine.words_per_minute", 150)

	v.SetDefault("task.worker_count", 2)
	v.SetDefault("task.queue_size", 100)
	v.SetDefault("task.stuck_task_age_minutes", 30)

	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay_seconds", 2)
}

// Load reads configuration from config.yaml in the working directory, if any,
// and from SCRY_ environment variables. Environment variables take precedence
// over values from the file.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file path. An empty path searches
// the working directory for config.yaml and tolerates its absence.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix("SCRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}
