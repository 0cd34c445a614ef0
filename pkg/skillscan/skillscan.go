// Package skillscan is the library entry point of the scanner.
//
//	report, err := skillscan.ScanSkill(ctx, "./my-skill")
//	if err != nil {
//		return err
//	}
//	fmt.Println(report.SafetyScore, report.ThreatLevel)
package skillscan

import (
	"context"

	"github.com/aiopenclawbot-jpg/skill-scanner/internal/config"
	"github.com/aiopenclawbot-jpg/skill-scanner/internal/core"
	"github.com/aiopenclawbot-jpg/skill-scanner/pkg/models"
	"go.uber.org/zap"
)

// Options tunes a library scan. The zero value uses the built-in defaults.
type Options struct {
	Workers           int
	MaxSize           string
	Exclude           []string
	ExcludeGlobs      []string
	IsolateFileErrors bool
	Logger            *zap.Logger
}

// ScanSkill scans a skill directory or single file with default settings
func ScanSkill(ctx context.Context, path string) (*models.ScanReport, error) {
	return ScanSkillWithOptions(ctx, path, Options{})
}

// ScanSkillWithOptions scans path using opts on top of the defaults
func ScanSkillWithOptions(ctx context.Context, path string, opts Options) (*models.ScanReport, error) {
	cfg := config.Default()
	if opts.Workers > 0 {
		cfg.Workers = opts.Workers
	}
	if opts.MaxSize != "" {
		cfg.MaxSize = opts.MaxSize
	}
	if opts.Exclude != nil {
		cfg.Exclude = opts.Exclude
	}
	cfg.ExcludeGlobs = opts.ExcludeGlobs
	cfg.IsolateFileErrors = opts.IsolateFileErrors

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return core.NewScanner(cfg, logger).ScanSkill(ctx, path)
}
