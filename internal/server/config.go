package server

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// DefaultMaxUploadBytes caps a single upload at 10 MiB
const DefaultMaxUploadBytes = 10 << 20

// Config holds the HTTP front end settings, read from SKILLSCAN_SERVER_* variables
type Config struct {
	Host           string `envconfig:"HOST" default:""`
	Port           int    `envconfig:"PORT" default:"3000"`
	UploadDir      string `envconfig:"UPLOAD_DIR"`
	MaxUploadBytes int64  `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
	Version        string `envconfig:"VERSION" default:"1.0.0"`
}

// LoadConfig reads the server configuration from the environment
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("SKILLSCAN_SERVER", &cfg); err != nil {
		return Config{}, fmt.Errorf("server config: %w", err)
	}
	cfg.applyDefaults()
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("server config: invalid port %d", cfg.Port)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.UploadDir == "" {
		c.UploadDir = filepath.Join(os.TempDir(), "skillscan-uploads")
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if c.Port == 0 {
		c.Port = 3000
	}
	if c.Version == "" {
		c.Version = "1.0.0"
	}
}

// Addr returns the listen address
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
