package signature

import (
	"context"
	"fmt"

	"github.com/aiopenclawbot-jpg/skill-scanner/internal/detectors"
	"github.com/aiopenclawbot-jpg/skill-scanner/internal/rules"
	"github.com/aiopenclawbot-jpg/skill-scanner/internal/signatures"
	"github.com/aiopenclawbot-jpg/skill-scanner/pkg/models"
)

// Detector applies every textual signature rule to the raw content of a file
type Detector struct {
	*detectors.Base
	matcher *signatures.Matcher
}

// NewDetector creates a signature detector backed by matcher
func NewDetector(matcher *signatures.Matcher) *Detector {
	return &Detector{
		Base:    detectors.NewBase("signature", rules.LayerSignature, 100, models.CandidateExtensions()),
		matcher: matcher,
	}
}

// Detect emits one finding per matching (rule, pattern) pair
func (d *Detector) Detect(ctx context.Context, file *models.File) ([]*models.Finding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var findings []*models.Finding
	for _, match := range d.matcher.Match(file.Content) {
		findings = append(findings, &models.Finding{
			Severity:    match.Rule.Severity,
			Code:        match.Rule.Code,
			File:        file.Path,
			Message:     occurrenceMessage(match.Rule.Message, match.Count),
			Occurrences: match.Count,
		})
	}

	return findings, nil
}

func occurrenceMessage(message string, n int) string {
	if n == 1 {
		return fmt.Sprintf("%s (1 occurrence)", message)
	}
	return fmt.Sprintf("%s (%d occurrences)", message, n)
}
