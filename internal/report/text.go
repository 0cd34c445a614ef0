package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/aiopenclawbot-jpg/skill-scanner/pkg/models"
)

// renderText writes a plain text report
func renderText(w io.Writer, r *models.ScanReport) error {
	var sb strings.Builder

	// Header
	sb.WriteString(strings.Repeat("=", 79) + "\n")
	sb.WriteString("  SKILL SECURITY SCAN REPORT\n")
	sb.WriteString(strings.Repeat("=", 79) + "\n\n")

	// Summary
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 79) + "\n")
	sb.WriteString(fmt.Sprintf("Target:           %s\n", r.Target))
	sb.WriteString(fmt.Sprintf("Scanned At:       %s\n", r.ScannedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("Duration:         %s\n", FormatDuration(r.Duration)))
	sb.WriteString(fmt.Sprintf("Files Scanned:    %d\n", r.FilesScanned))
	sb.WriteString(fmt.Sprintf("Safety Score:     %d/100\n", r.SafetyScore))
	sb.WriteString(fmt.Sprintf("Threat Level:     %s\n", r.ThreatLevel))
	sb.WriteString(fmt.Sprintf("Rating:           %s %s\n", r.Icon, r.Rating))
	sb.WriteString(fmt.Sprintf("Malware Detected: %t\n", r.MalwareDetected))
	sb.WriteString(fmt.Sprintf("Verdict:          %s\n", r.Summary))
	sb.WriteString("\n")

	if len(r.Findings) > 0 {
		sb.WriteString("FINDINGS BY SEVERITY\n")
		sb.WriteString(strings.Repeat("-", 79) + "\n")
		sb.WriteString(fmt.Sprintf("  %-10s: %d\n", "CRITICAL", r.CriticalIssues))
		sb.WriteString(fmt.Sprintf("  %-10s: %d\n", "WARNING", r.WarningIssues))
		sb.WriteString(fmt.Sprintf("  %-10s: %d\n", "INFO", r.InfoIssues))
		sb.WriteString("\n")

		sb.WriteString("DETAILED FINDINGS\n")
		sb.WriteString(strings.Repeat("-", 79) + "\n")
		for i, f := range r.Findings {
			sb.WriteString(fmt.Sprintf("[%d] %s %s\n", i+1, strings.ToUpper(f.Severity.String()), f.Code))
			sb.WriteString(fmt.Sprintf("    File:    %s\n", displayPath(r.Target, f.File)))
			sb.WriteString(fmt.Sprintf("    Message: %s\n", f.Message))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(strings.Repeat("=", 79) + "\n")

	_, err := io.WriteString(w, sb.String())
	return err
}
