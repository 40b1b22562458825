// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	// BackendSimulator serves playback from the in-memory simulator.
	BackendSimulator = "simulator"
	// BackendSpotify serves playback from the Spotify Web API.
	BackendSpotify = "spotify"
)

// BackendTypes lists the supported backend types.
var BackendTypes = []string{BackendSimulator, BackendSpotify}

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Backend BackendConfig `yaml:"backend"`
	Spotify SpotifyConfig `yaml:"spotify"`
	Events  EventsConfig  `yaml:"events"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr  string      `yaml:"addr" default:":8080"`
	Hooks HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// BackendConfig selects the playback data source.
type BackendConfig struct {
	Type     string         `yaml:"type" default:"simulator" validate:"oneof=simulator spotify"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// SpotifyConfig represents Spotify API configuration.
// Credentials are required only for the spotify backend.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`
	Market       string `yaml:"market" validate:"omitempty,len=2" default:"JP"`
}

// EventsConfig represents playback event delivery configuration.
type EventsConfig struct {
	SendTimeoutMs int `yaml:"send_timeout_ms" default:"500" validate:"gte=1,lte=10000"`
}

// SendTimeout returns the per-subscriber send timeout.
func (e EventsConfig) SendTimeout() time.Duration {
	return time.Duration(e.SendTimeoutMs) * time.Millisecond
}

// Load loads configuration from a YAML file.
// An empty path yields the defaults. Environment variables take precedence
// over file values.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read config file")
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("NOWPLAYING_BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("NOWPLAYING_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REFRESH_TOKEN"); v != "" {
		c.Spotify.RefreshToken = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if c.Backend.Type == BackendSpotify {
		if err := c.validateSpotifyCredentials(); err != nil {
			return err
		}
	}

	return nil
}

// validateSpotifyCredentials checks that all credentials are present.
func (c *Config) validateSpotifyCredentials() error {
	var missing []string
	if c.Spotify.ClientID == "" {
		missing = append(missing, "ClientID")
	}
	if c.Spotify.ClientSecret == "" {
		missing = append(missing, "ClientSecret")
	}
	if c.Spotify.RefreshToken == "" {
		missing = append(missing, "RefreshToken")
	}
	if len(missing) > 0 {
		return errors.Newf("spotify backend requires credentials: missing %v", missing)
	}
	return nil
}
