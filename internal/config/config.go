package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Resume   ResumeConfig   `mapstructure:"resume" validate:"required"`
	Engine   EngineConfig   `mapstructure:"engine" validate:"required"`
	Task     TaskConfig     `mapstructure:"task" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// ShutdownTimeout bounds graceful shutdown of the HTTP server.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains the Postgres content database settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// ResumeConfig locates the local SQLite file holding the current-session record.
type ResumeConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// EngineConfig tunes the activity engines.
type EngineConfig struct {
	// TickInterval is the real time between countdown ticks of one second.
	TickInterval            time.Duration `mapstructure:"tick_interval" validate:"gt=0"`
	DefaultRestSeconds      int           `mapstructure:"default_rest_seconds" validate:"gt=0"`
	FallbackDurationSeconds int           `mapstructure:"fallback_duration_seconds" validate:"gt=0"`

	ShortPause      time.Duration `mapstructure:"short_pause" validate:"gt=0"`
	LongPause       time.Duration `mapstructure:"long_pause" validate:"gt=0"`
	PostHeaderPause time.Duration `mapstructure:"post_header_pause" validate:"gt=0"`

	// WordsPerMinute paces the headless speech synthesizer.
	WordsPerMinute int `mapstructure:"words_per_minute" validate:"gt=0,lte=600"`
	// VoicesPath optionally points to a YAML catalog of hosted voices.
	VoicesPath string `mapstructure:"voices_path"`
}

// TaskConfig configures the background task runner.
type TaskConfig struct {
	WorkerCount         int `mapstructure:"worker_count" validate:"gt=0"`
	QueueSize           int `mapstructure:"queue_size" validate:"gt=0"`
	StuckTaskAgeMinutes int `mapstructure:"stuck_task_age_minutes" validate:"gt=0"`
}

// LLMConfig configures quiz generation. Generation is disabled when
// GeminiAPIKey is empty.
type LLMConfig struct {
	GeminiAPIKey       string `mapstructure:"gemini_api_key"`
	ModelName          string `mapstructure:"model_name" validate:"required_with=GeminiAPIKey"`
	MaxRetries         int    `mapstructure:"max_retries" validate:"gte=0,lte=5"`
	RetryDelaySeconds  int    `mapstructure:"retry_delay_seconds" validate:"gte=1,lte=60"`
	PromptTemplatePath string `mapstructure:"prompt_template_path"`
}

// GenerationEnabled reports whether an LLM key is configured.
func (c LLMConfig) GenerationEnabled() bool {
	return c.GeminiAPIKey != ""
}
