// Package config loads process configuration once at startup.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Credentials authenticate every Trello request. Immutable after Load.
type Credentials struct {
	AppKey string
	Token  string
}

type Config struct {
	Credentials   Credentials
	TrelloBaseURL string
	Timeout       time.Duration
	Transport     string
	Port          string
}

// New returns a viper instance with defaults and environment bindings set.
// Config files are optional; environment variables take precedence.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.SetDefault("trello.base_url", "https://api.trello.com/1")
	v.SetDefault("trello.timeout", 30*time.Second)
	v.SetDefault("server.transport", TransportStdio)
	v.SetDefault("server.port", "8080")

	_ = v.BindEnv("trello.api_key", "APP_KEY")
	_ = v.BindEnv("trello.api_token", "TRELLO_TOKEN")
	_ = v.BindEnv("trello.base_url", "TRELLO_BASE_URL")
	_ = v.BindEnv("trello.timeout", "TRELLO_TIMEOUT")
	_ = v.BindEnv("server.transport", "MCP_TRANSPORT")
	_ = v.BindEnv("server.port", "PORT")

	return v
}

// Load reads the optional config file and validates the result.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Credentials: Credentials{
			AppKey: v.GetString("trello.api_key"),
			Token:  v.GetString("trello.api_token"),
		},
		TrelloBaseURL: v.GetString("trello.base_url"),
		Timeout:       v.GetDuration("trello.timeout"),
		Transport:     v.GetString("server.transport"),
		Port:          v.GetString("server.port"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var err error
	if c.Credentials.AppKey == "" {
		err = multierr.Append(err, errors.New("APP_KEY: must be a non-empty string"))
	}
	if c.Credentials.Token == "" {
		err = multierr.Append(err, errors.New("TRELLO_TOKEN: must be a non-empty string"))
	}
	if c.Transport != TransportStdio && c.Transport != TransportHTTP {
		err = multierr.Append(err, fmt.Errorf("MCP_TRANSPORT: unknown transport %q", c.Transport))
	}
	if c.Timeout < 0 {
		err = multierr.Append(err, errors.New("TRELLO_TIMEOUT: must not be negative"))
	}
	return err
}
