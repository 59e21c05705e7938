package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/example/saloneverid/internal/imagedecoder"
)

const (
	ProviderMock = "mock"
	ProviderReal = "real"
)

// DefaultMaxBodyBytes caps JSON submissions; two base64 photos fit comfortably.
const DefaultMaxBodyBytes int64 = 20 << 20

// Config holds the runtime settings of the API.
type Config struct {
	HTTPAddr             string        `mapstructure:"HTTP_ADDR"`
	LogLevel             string        `mapstructure:"LOG_LEVEL"`
	VerificationProvider string        `mapstructure:"VERIFICATION_PROVIDER"`
	VisionAddr           string        `mapstructure:"VISION_ADDR"`
	VisionTimeout        time.Duration `mapstructure:"VISION_TIMEOUT"`
	ShutdownTimeout      time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	MaxBodyBytes         int64         `mapstructure:"MAX_BODY_BYTES"`
	MaxImagePixels       int64         `mapstructure:"MAX_IMAGE_PIXELS"`
}

var defaults = map[string]any{
	"HTTP_ADDR":             ":8080",
	"LOG_LEVEL":             "info",
	"VERIFICATION_PROVIDER": ProviderMock,
	"VISION_ADDR":           "vision-service:50051",
	"VISION_TIMEOUT":        "10s",
	"SHUTDOWN_TIMEOUT":      "15s",
	"MAX_BODY_BYTES":        DefaultMaxBodyBytes,
	"MAX_IMAGE_PIXELS":      imagedecoder.DefaultMaxPixels,
}

// Load reads configuration from the environment, falling back to an optional
// .env file in path and then to defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "."
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.VerificationProvider = strings.ToLower(strings.TrimSpace(cfg.VerificationProvider))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.VerificationProvider {
	case ProviderMock:
	case ProviderReal:
		if c.VisionAddr == "" {
			return errors.New("VISION_ADDR is required for the real verification provider")
		}
	default:
		return fmt.Errorf("unknown verification provider %q", c.VerificationProvider)
	}
	if c.HTTPAddr == "" {
		return errors.New("HTTP_ADDR must be specified")
	}
	if c.MaxBodyBytes <= 0 {
		return errors.New("MAX_BODY_BYTES must be positive")
	}
	if c.MaxImagePixels <= 0 {
		return errors.New("MAX_IMAGE_PIXELS must be positive")
	}
	return nil
}
