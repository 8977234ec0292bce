package appconfig

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/EO-DataHub/eodhp-activity-signup/internal/store"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"
)

const DefaultServerURL = "http://localhost:8000"

// Config holds all configuration details
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	HTTP     HTTPConfig     `yaml:"http"`
	Session  SessionConfig  `yaml:"session"`
	Messages MessagesConfig `yaml:"messages"`
}

// ServerConfig defines where the activities API lives
type ServerConfig struct {
	URL string `yaml:"url"`
}

// HTTPConfig tunes the API client. A zero timeout keeps the transport
// defaults.
type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// SessionConfig defines where the auth token is persisted
type SessionConfig struct {
	TokenFile string `yaml:"tokenFile"`
}

// MessagesConfig defines how long status messages stay visible
type MessagesConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig loads and parses the configuration from a given file path.
// An empty path yields the defaults. The file is rendered as a template
// against the environment, after loading a .env file if one exists.
func LoadConfig(path string) (*Config, error) {
	loadDotEnv()

	if path == "" {
		log.Debug().Msg("no config file provided, using defaults")
		return Default(), nil
	}

	// Parse the template file
	tmpl, err := template.ParseFiles(path)
	if err != nil {
		log.Error().Err(err).Msg("error parsing config file template")
		return nil, err
	}
	tmpl.Option("missingkey=zero")

	// Create a map of environment variables
	envVars := loadEnvVars()

	// Execute the template with environment variables
	var buf bytes.Buffer
	err = tmpl.Execute(&buf, envVars)
	if err != nil {
		log.Error().Err(err).Msg("error executing config file template")
		return nil, err
	}

	// Load and unmarshal the YAML
	var config Config
	if err := yaml.Unmarshal(buf.Bytes(), &config); err != nil {
		log.Error().Err(err).Msg("failed to unmarshal config YAML")
		return nil, err
	}

	config.applyDefaults()
	return &config, nil
}

// Validate checks the values a client cannot run without.
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return errors.New("server url is required")
	}
	if !strings.HasPrefix(c.Server.URL, "http://") && !strings.HasPrefix(c.Server.URL, "https://") {
		return errors.New("server url must start with http:// or https://")
	}
	if c.HTTP.Timeout < 0 {
		return errors.New("http timeout must not be negative")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.URL == "" {
		c.Server.URL = DefaultServerURL
	}
	c.Server.URL = strings.TrimRight(c.Server.URL, "/")
	if c.Session.TokenFile == "" {
		c.Session.TokenFile = store.DefaultPath()
	}
	if c.Messages.TTL <= 0 {
		c.Messages.TTL = 5 * time.Second
	}
}

// loadDotEnv loads variables from ./.env without overriding the real
// environment.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to load .env file")
	}
}

// loadEnvVars loads environment variables into a map
func loadEnvVars() map[string]string {
	envVars := make(map[string]string)
	for _, env := range os.Environ() {
		kv := strings.SplitN(env, "=", 2)
		if len(kv) == 2 {
			envVars[kv[0]] = kv[1]
		}
	}
	return envVars
}
