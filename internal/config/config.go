// Package config loads careertrack settings from ~/.careertrack/config.yaml
// with CAREERTRACK_* environment overrides.
package config

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/iksnae/careertrack/internal"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Endpoints EndpointsConfig `mapstructure:"endpoints" yaml:"endpoints"`
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	HTTP      HTTPConfig      `mapstructure:"http" yaml:"http"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// EndpointsConfig holds the base URL of each remote service.
type EndpointsConfig struct {
	PDF       string `mapstructure:"pdf" yaml:"pdf"`
	Repo      string `mapstructure:"repo" yaml:"repo"`
	Resume    string `mapstructure:"resume" yaml:"resume"`
	Quiz      string `mapstructure:"quiz" yaml:"quiz"`
	Assistant string `mapstructure:"assistant" yaml:"assistant"`
}

// StorageConfig locates the history database and bounds its growth.
type StorageConfig struct {
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
	// MaxSessions caps sessions kept per tool; 0 keeps everything.
	MaxSessions int `mapstructure:"max_sessions" yaml:"max_sessions"`
	// MaxAge drops sessions not saved within this window; 0 keeps everything.
	MaxAge time.Duration `mapstructure:"max_age" yaml:"max_age"`
}

// HTTPConfig tunes the shared HTTP client.
type HTTPConfig struct {
	// Timeout of 0 leaves requests bounded only by the transport and context.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// LoggingConfig contains configuration for application logging.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	dataDir, err := internal.DataDir()
	if err != nil {
		dataDir = internal.DataDirName
	}
	return &Config{
		Endpoints: EndpointsConfig{
			PDF:       "https://chatwithpdf-vj5q.onrender.com",
			Repo:      "https://github-fkfe.onrender.com",
			Resume:    "https://atsresume.onrender.com",
			Quiz:      "https://quizapp-butj.onrender.com",
			Assistant: "https://chatbot-im5p.onrender.com",
		},
		Storage: StorageConfig{
			DBPath: filepath.Join(dataDir, "history.db"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns ~/.careertrack/config.yaml.
func DefaultPath() (string, error) {
	dataDir, err := internal.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "config.yaml"), nil
}

// Load reads the configuration from the default location.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads configuration from path and merges environment variables.
// If the file doesn't exist, it is created with default values.
func LoadFromPath(path string) (*Config, error) {
	path = internal.ExpandPath(path)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeConfigFile(path, Default()); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v, Default())

	// Example: CAREERTRACK_ENDPOINTS_PDF
	v.SetEnvPrefix("CAREERTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Storage.DBPath = internal.ExpandPath(cfg.Storage.DBPath)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings that cannot work.
func (c *Config) Validate() error {
	endpoints := map[string]string{
		"endpoints.pdf":       c.Endpoints.PDF,
		"endpoints.repo":      c.Endpoints.Repo,
		"endpoints.resume":    c.Endpoints.Resume,
		"endpoints.quiz":      c.Endpoints.Quiz,
		"endpoints.assistant": c.Endpoints.Assistant,
	}
	for key, value := range endpoints {
		if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			return &internal.ValidationError{Field: key, Message: fmt.Sprintf("%q is not an http(s) URL", value)}
		}
	}
	if c.Storage.MaxSessions < 0 {
		return &internal.ValidationError{Field: "storage.max_sessions", Message: "must not be negative"}
	}
	if c.Storage.MaxAge < 0 {
		return &internal.ValidationError{Field: "storage.max_age", Message: "must not be negative"}
	}
	return nil
}

// Retention converts the storage settings into a store policy.
func (c *Config) Retention() internal.RetentionPolicy {
	return internal.RetentionPolicy{
		MaxSessions: c.Storage.MaxSessions,
		MaxAge:      c.Storage.MaxAge,
	}
}

// HTTPClient builds the client shared by every service.
func (c *Config) HTTPClient() *http.Client {
	return &http.Client{Timeout: c.HTTP.Timeout}
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("endpoints.pdf", d.Endpoints.PDF)
	v.SetDefault("endpoints.repo", d.Endpoints.Repo)
	v.SetDefault("endpoints.resume", d.Endpoints.Resume)
	v.SetDefault("endpoints.quiz", d.Endpoints.Quiz)
	v.SetDefault("endpoints.assistant", d.Endpoints.Assistant)
	v.SetDefault("storage.db_path", d.Storage.DBPath)
	v.SetDefault("storage.max_sessions", d.Storage.MaxSessions)
	v.SetDefault("storage.max_age", d.Storage.MaxAge)
	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("logging.level", d.Logging.Level)
}

func writeConfigFile(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
