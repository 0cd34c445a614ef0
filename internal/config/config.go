package config

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/aiopenclawbot-jpg/skill-scanner/pkg/models"
	"github.com/spf13/viper"
)

// Config represents the scanner configuration
type Config struct {
	// Scan settings
	Workers      int      `mapstructure:"workers"`       // number of worker goroutines
	MaxSize      string   `mapstructure:"max_size"`      // maximum file size to analyse, empty for unlimited
	Exclude      []string `mapstructure:"exclude"`       // directory names to prune
	ExcludeGlobs []string `mapstructure:"exclude_globs"` // doublestar globs on relative paths

	// Report settings
	ReportFormat string `mapstructure:"report_format"` // console, json, text, md
	OutputFile   string `mapstructure:"output_file"`   // output file path, stdout when empty
	FailOn       string `mapstructure:"fail_on"`       // threat level that makes the CLI exit non-zero

	// Detector settings
	Disable []string `mapstructure:"disable"` // disabled detectors

	// Error handling
	IsolateFileErrors bool `mapstructure:"isolate_file_errors"` // unreadable files become findings instead of aborting
	StrictRules       bool `mapstructure:"strict_rules"`        // unknown rule codes abort the scan
}

// Report formats
const (
	FormatConsole  = "console"
	FormatJSON     = "json"
	FormatText     = "text"
	FormatMarkdown = "md"
)

// LoadConfig loads configuration from environment variables and defaults
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Read environment variables
	v.SetEnvPrefix("SKILLSCAN")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the built-in configuration without consulting the environment
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// defaults are static; this cannot fail
		panic(err)
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("max_size", "")
	v.SetDefault("exclude", []string{"node_modules"})
	v.SetDefault("exclude_globs", []string{})
	v.SetDefault("report_format", FormatConsole)
	v.SetDefault("output_file", "")
	v.SetDefault("fail_on", "")
	v.SetDefault("disable", []string{})
	v.SetDefault("isolate_file_errors", false)
	v.SetDefault("strict_rules", false)
}

// Validate checks option values that cannot be corrected silently
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}

	switch strings.ToLower(c.ReportFormat) {
	case "", FormatConsole, FormatJSON, FormatText, FormatMarkdown, "markdown":
	default:
		return fmt.Errorf("unknown report format %q", c.ReportFormat)
	}

	if _, err := c.MaxSizeBytes(); err != nil {
		return err
	}

	if _, err := c.FailOnLevel(); err != nil {
		return err
	}

	return nil
}

// FailOnLevel parses FailOn. An empty level means no threshold is set.
func (c *Config) FailOnLevel() (models.ThreatLevel, error) {
	level := models.ThreatLevel(strings.ToUpper(strings.TrimSpace(c.FailOn)))
	if level == "" {
		return "", nil
	}
	if level.Rank() < 0 {
		return "", fmt.Errorf("unknown fail_on level %q", c.FailOn)
	}
	return level, nil
}

// MaxSizeBytes parses MaxSize ("650K", "2MB", "1g", "4096"). Zero means unlimited.
func (c *Config) MaxSizeBytes() (int64, error) {
	raw := strings.ToUpper(strings.TrimSpace(c.MaxSize))
	if raw == "" {
		return 0, nil
	}

	raw = strings.TrimSuffix(raw, "B")
	var multiplier int64 = 1
	switch {
	case strings.HasSuffix(raw, "K"):
		multiplier = 1 << 10
	case strings.HasSuffix(raw, "M"):
		multiplier = 1 << 20
	case strings.HasSuffix(raw, "G"):
		multiplier = 1 << 30
	}
	if multiplier > 1 {
		raw = raw[:len(raw)-1]
	}

	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid max_size %q", c.MaxSize)
	}
	return n * multiplier, nil
}

// IsDisabled reports whether the named detector is switched off
func (c *Config) IsDisabled(detector string) bool {
	for _, name := range c.Disable {
		if strings.EqualFold(strings.TrimSpace(name), detector) {
			return true
		}
	}
	return false
}
