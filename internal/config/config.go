package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// ErrMissingAPIKey is returned by Validate when no Venice API key is configured.
// It is fatal at startup.
var ErrMissingAPIKey = errors.New("VENICE_API_KEY environment variable is required")

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Venice  VeniceConfig  `toml:"venice"`
	Images  ImagesConfig  `toml:"images"`
	Logging LoggingConfig `toml:"logging"`
}

// ServerConfig contains MCP server settings.
type ServerConfig struct {
	Name string `toml:"name"`
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// VeniceConfig contains the remote API endpoint and credential.
type VeniceConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

// ImagesConfig contains settings for generated image files.
// An empty OutputDir resolves to ~/venice-images.
type ImagesConfig struct {
	OutputDir string `toml:"output_dir"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// LoadFromFile loads configuration with priority: defaults -> file -> dotenv -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> dotenv -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	if err := loadDotEnv(".env", ".env.local"); err != nil {
		return nil, fmt.Errorf("failed to load dotenv files: %w", err)
	}

	applyEnvOverrides(config)

	return config, nil
}

// loadDotEnv copies values from the given dotenv files into the process
// environment. Variables already present in the environment are never replaced.
func loadDotEnv(names ...string) error {
	for _, name := range names {
		values, err := godotenv.Read(name)
		if err != nil {
			continue
		}
		for k, v := range values {
			if _, exists := os.LookupEnv(k); !exists {
				if err := os.Setenv(k, v); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// applyEnvOverrides applies VENICE_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if key := os.Getenv("VENICE_API_KEY"); key != "" {
		config.Venice.APIKey = key
	}
	if baseURL := os.Getenv("VENICE_BASE_URL"); baseURL != "" {
		config.Venice.BaseURL = baseURL
	}
	if dir := os.Getenv("VENICE_IMAGE_DIR"); dir != "" {
		config.Images.OutputDir = dir
	}
	if port := os.Getenv("VENICE_MCP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if level := os.Getenv("VENICE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks the settings required to serve tool calls.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Venice.APIKey) == "" {
		return ErrMissingAPIKey
	}
	if strings.TrimSpace(c.Venice.BaseURL) == "" {
		return fmt.Errorf("venice base_url must not be empty")
	}
	return nil
}

// ImageOutputDir returns the directory generated images are written to.
func (c *Config) ImageOutputDir() (string, error) {
	if c.Images.OutputDir != "" {
		return c.Images.OutputDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, DefaultImageDirName), nil
}
