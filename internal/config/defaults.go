package config

// DefaultBaseURL is the Venice API endpoint every tool call targets.
const DefaultBaseURL = "https://api.venice.ai/api/v1"

// DefaultImageDirName is the directory under the user's home that receives generated images.
const DefaultImageDirName = "venice-images"

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "venice-mcp-server",
			Port: 4250,
			Host: "localhost",
		},
		Venice: VeniceConfig{
			BaseURL: DefaultBaseURL,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Outputs: []string{"console"},
		},
	}
}
