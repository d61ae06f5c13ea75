package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the voice satellite process
type Config struct {
	// Native API server
	SatelliteName string `envconfig:"SATELLITE_NAME" default:"Go Voice Satellite"`
	SatellitePort int    `envconfig:"SATELLITE_PORT" default:"6053"`

	// HTTP port for /health, /ready, /metrics and /status
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Persisted user settings (wake word, volume, mute, sounds)
	SettingsFile string `envconfig:"SETTINGS_FILE" default:"satellite.yaml"`

	// Directories holding <id>.json wake word manifests and their models
	WakeWordsDir string `envconfig:"WAKE_WORDS_DIR" default:"wakewords"`
	StopWordsDir string `envconfig:"STOP_WORDS_DIR" default:"stopwords"`

	// Service advertisement
	MDNSEnabled bool `envconfig:"MDNS_ENABLED" default:"true"`

	// Audio configuration
	AudioSampleRateOut int     `envconfig:"AUDIO_SAMPLE_RATE_OUT" default:"48000"` // Playback device rate in Hz
	TimerRepeatDelayMs int     `envconfig:"TIMER_REPEAT_DELAY_MS" default:"1000"`  // Pause between timer alert repeats
	DuckMultiplier     float64 `envconfig:"DUCK_MULTIPLIER" default:"0.5"`         // Media volume factor while ducked

	// Resilience configuration
	RetryMaxAttempts     int `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`       // Media fetch attempts
	RetryInitialBackoff  int `envconfig:"RETRY_INITIAL_BACKOFF" default:"100"`  // Initial backoff in milliseconds
	ReconnectMaxAttempts int `envconfig:"RECONNECT_MAX_ATTEMPTS" default:"5"`   // mDNS registration attempts
	ReconnectBackoff     int `envconfig:"RECONNECT_BACKOFF" default:"1000"`     // Reconnection backoff in milliseconds

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()
	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges that envconfig cannot express.
func (c *Config) Validate() error {
	if c.SatellitePort <= 0 || c.SatellitePort > 65535 {
		return fmt.Errorf("SATELLITE_PORT out of range: %d", c.SatellitePort)
	}
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("HTTP_PORT out of range: %d", c.HTTPPort)
	}
	if c.DuckMultiplier <= 0 || c.DuckMultiplier > 1 {
		return fmt.Errorf("DUCK_MULTIPLIER must be in (0, 1], got %v", c.DuckMultiplier)
	}
	if c.AudioSampleRateOut <= 0 {
		return fmt.Errorf("AUDIO_SAMPLE_RATE_OUT must be positive, got %d", c.AudioSampleRateOut)
	}
	if c.SatelliteName == "" {
		return fmt.Errorf("SATELLITE_NAME is required")
	}
	return nil
}

// TimerRepeatDelay is the pause between two plays of the timer alert.
func (c *Config) TimerRepeatDelay() time.Duration {
	return time.Duration(c.TimerRepeatDelayMs) * time.Millisecond
}
