package config

import (
	"runtime"
	"testing"

	"github.com/aiopenclawbot-jpg/skill-scanner/pkg/models"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Workers != runtime.NumCPU() {
		t.Errorf("Workers = %d, want %d", cfg.Workers, runtime.NumCPU())
	}
	if len(cfg.Exclude) != 1 || cfg.Exclude[0] != "node_modules" {
		t.Errorf("Exclude = %v, want [node_modules]", cfg.Exclude)
	}
	if cfg.ReportFormat != FormatConsole {
		t.Errorf("ReportFormat = %q, want %q", cfg.ReportFormat, FormatConsole)
	}
	if cfg.IsolateFileErrors || cfg.StrictRules {
		t.Error("hardening options must be off by default")
	}
	if cfg.MaxSize != "" {
		t.Errorf("MaxSize = %q, want unlimited", cfg.MaxSize)
	}
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv("SKILLSCAN_WORKERS", "3")
	t.Setenv("SKILLSCAN_MAX_SIZE", "64K")
	t.Setenv("SKILLSCAN_STRICT_RULES", "true")
	t.Setenv("SKILLSCAN_REPORT_FORMAT", "json")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Workers != 3 {
		t.Errorf("Workers = %d, want 3", cfg.Workers)
	}
	if cfg.MaxSize != "64K" {
		t.Errorf("MaxSize = %q, want 64K", cfg.MaxSize)
	}
	if !cfg.StrictRules {
		t.Error("StrictRules = false, want true")
	}
	if cfg.ReportFormat != FormatJSON {
		t.Errorf("ReportFormat = %q, want json", cfg.ReportFormat)
	}
}

func TestLoadConfig_InvalidFormat(t *testing.T) {
	t.Setenv("SKILLSCAN_REPORT_FORMAT", "html")

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() accepted unknown report format")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"Defaults", *Default(), false},
		{"Markdown alias", Config{ReportFormat: "markdown"}, false},
		{"Negative workers", Config{Workers: -1}, true},
		{"Unknown format", Config{ReportFormat: "xml"}, true},
		{"Valid fail_on", Config{FailOn: "high"}, false},
		{"Unknown fail_on", Config{FailOn: "catastrophic"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFailOnLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected models.ThreatLevel
	}{
		{"", ""},
		{"medium", models.ThreatMedium},
		{" SEVERE ", models.ThreatSevere},
		{"low", models.ThreatLow},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cfg := &Config{FailOn: tt.input}
			got, err := cfg.FailOnLevel()
			if err != nil {
				t.Fatalf("FailOnLevel() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("FailOnLevel() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestIsDisabled(t *testing.T) {
	cfg := &Config{Disable: []string{"structural", " Shell "}}

	tests := []struct {
		detector string
		expected bool
	}{
		{"structural", true},
		{"shell", true},
		{"signature", false},
	}

	for _, tt := range tests {
		t.Run(tt.detector, func(t *testing.T) {
			if got := cfg.IsDisabled(tt.detector); got != tt.expected {
				t.Errorf("IsDisabled(%q) = %v, want %v", tt.detector, got, tt.expected)
			}
		})
	}
}

func TestMaxSizeBytes(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
		wantErr  bool
	}{
		{"", 0, false},
		{"100", 100, false},
		{"1K", 1024, false},
		{"1k", 1024, false},
		{"2KB", 2048, false},
		{"10M", 10 << 20, false},
		{"1G", 1 << 30, false},
		{" 650K ", 650 << 10, false},
		{"abc", 0, true},
		{"-5", 0, true},
		{"K", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cfg := &Config{MaxSize: tt.input}
			got, err := cfg.MaxSizeBytes()
			if (err != nil) != tt.wantErr {
				t.Fatalf("MaxSizeBytes(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("MaxSizeBytes(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestValidate_RejectsBadMaxSize(t *testing.T) {
	cfg := Default()
	cfg.MaxSize = "lots"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted malformed max_size")
	}
}
