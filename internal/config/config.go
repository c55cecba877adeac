// Package config provides configuration management for the evesso CLI.
// It handles loading and parsing the YAML configuration file and provides
// structured access to application settings: SSO client registration,
// endpoints, callback behavior, and logging.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application's configuration, loaded from a YAML file.
type Config struct {
	// ClientID is the client ID of the application registered at
	// https://developers.eveonline.com/applications.
	ClientID string `yaml:"client-id" json:"client-id"`

	// Scope is the space-delimited list of ESI scopes to request.
	Scope string `yaml:"scope" json:"scope"`

	// RedirectURI is the callback URL registered with the application. Its
	// host and port are where the local callback server binds.
	RedirectURI string `yaml:"redirect-uri,omitempty" json:"redirect-uri,omitempty"`

	// AuthorizeEndpoint overrides the SSO authorization endpoint. Empty means
	// the Tranquility default.
	AuthorizeEndpoint string `yaml:"authorize-endpoint,omitempty" json:"authorize-endpoint,omitempty"`

	// TokenEndpoint overrides the SSO token endpoint. Empty means the
	// Tranquility default.
	TokenEndpoint string `yaml:"token-endpoint,omitempty" json:"token-endpoint,omitempty"`

	// TokenHost overrides the Host header sent with token requests.
	TokenHost string `yaml:"token-host,omitempty" json:"token-host,omitempty"`

	// CallbackTimeoutSeconds bounds how long the local callback server waits
	// for the SSO redirect. <= 0 waits indefinitely.
	CallbackTimeoutSeconds int `yaml:"callback-timeout,omitempty" json:"callback-timeout,omitempty"`

	// NoBrowser disables opening the system browser automatically.
	NoBrowser bool `yaml:"no-browser,omitempty" json:"no-browser,omitempty"`

	// Debug enables debug-level logging.
	Debug bool `yaml:"debug,omitempty" json:"debug,omitempty"`

	// LoggingToFile switches log output from stdout to a rotating file.
	LoggingToFile bool `yaml:"logging-to-file,omitempty" json:"logging-to-file,omitempty"`

	// LogsPath is the directory used for log files when LoggingToFile is set.
	LogsPath string `yaml:"logs-path,omitempty" json:"logs-path,omitempty"`
}

// DefaultCallbackTimeoutSeconds is applied when the configuration does not
// specify a callback timeout.
const DefaultCallbackTimeoutSeconds = 300

// DefaultConfig returns a configuration with the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		CallbackTimeoutSeconds: DefaultCallbackTimeoutSeconds,
		LogsPath:               "logs",
	}
}

// LoadConfig reads the configuration file at the given path. A missing file
// is not an error; the defaults are returned so flags and environment
// variables can fill in the rest.
func LoadConfig(configFile string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configFile)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overlays EVESSO_* environment variables onto the configuration.
// Environment values win over file values so .env files and CI secrets can
// override checked-in configuration.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("EVESSO_CLIENT_ID"); v != "" {
		c.ClientID = v
	}
	if v := os.Getenv("EVESSO_SCOPE"); v != "" {
		c.Scope = v
	}
	if v := os.Getenv("EVESSO_REDIRECT_URI"); v != "" {
		c.RedirectURI = v
	}
}

// Validate checks that the configuration is sufficient to start a login.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("client-id is required (set it in the config file or EVESSO_CLIENT_ID)")
	}
	return nil
}

// CallbackTimeout returns the callback wait as a duration. Zero means no
// deadline.
func (c *Config) CallbackTimeout() time.Duration {
	if c.CallbackTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.CallbackTimeoutSeconds) * time.Second
}
