package shell

import (
	"context"

	"github.com/aiopenclawbot-jpg/skill-scanner/internal/detectors"
	"github.com/aiopenclawbot-jpg/skill-scanner/internal/rules"
	"github.com/aiopenclawbot-jpg/skill-scanner/pkg/models"
)

// Detector flags dangerous commands in shell scripts.
// Checks are presence-only: each matching check yields one finding.
type Detector struct {
	*detectors.Base
	rules []*rules.ShellRule
}

// NewDetector creates a shell detector for the catalog's shell rules
func NewDetector(catalog *rules.Catalog) *Detector {
	return &Detector{
		Base:  detectors.NewBase("shell", rules.LayerShell, 80, models.ShellExtensions),
		rules: catalog.Shell,
	}
}

// Detect runs every shell check against the script
func (d *Detector) Detect(ctx context.Context, file *models.File) ([]*models.Finding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var findings []*models.Finding
	for _, rule := range d.rules {
		for _, check := range rule.Checks {
			if !check.Pattern.Re.Match(file.Content) {
				continue
			}
			findings = append(findings, &models.Finding{
				Severity: rule.Severity,
				Code:     rule.Code,
				File:     file.Path,
				Message:  check.Message,
			})
		}
	}

	return findings, nil
}
