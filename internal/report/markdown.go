package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/aiopenclawbot-jpg/skill-scanner/pkg/models"
)

// renderMarkdown writes a Markdown report
func renderMarkdown(w io.Writer, r *models.ScanReport) error {
	var sb strings.Builder

	sb.WriteString("# Skill Security Scan Report\n\n")

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Target | `%s` |\n", r.Target))
	sb.WriteString(fmt.Sprintf("| Scanned At | %s |\n", r.ScannedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("| Duration | %s |\n", FormatDuration(r.Duration)))
	sb.WriteString(fmt.Sprintf("| Files Scanned | %d |\n", r.FilesScanned))
	sb.WriteString(fmt.Sprintf("| **Safety Score** | **%d/100** |\n", r.SafetyScore))
	sb.WriteString(fmt.Sprintf("| Threat Level | %s |\n", r.ThreatLevel))
	sb.WriteString(fmt.Sprintf("| Rating | %s %s |\n", r.Icon, r.Rating))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("> %s\n\n", r.Summary))

	if len(r.Findings) == 0 {
		_, err := io.WriteString(w, sb.String())
		return err
	}

	sb.WriteString("## Findings by Severity\n\n")
	sb.WriteString("| Severity | Count |\n")
	sb.WriteString("|----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| 🔴 CRITICAL | %d |\n", r.CriticalIssues))
	sb.WriteString(fmt.Sprintf("| 🟡 WARNING | %d |\n", r.WarningIssues))
	sb.WriteString(fmt.Sprintf("| 🔵 INFO | %d |\n", r.InfoIssues))
	sb.WriteString("\n")

	sb.WriteString("## Findings\n\n")
	sb.WriteString("| # | Severity | Code | File | Message |\n")
	sb.WriteString("|---|----------|------|------|---------|\n")
	for i, f := range r.Findings {
		sb.WriteString(fmt.Sprintf("| %d | %s | `%s` | `%s` | %s |\n",
			i+1, f.Severity, f.Code, displayPath(r.Target, f.File), escapeMarkdownCell(f.Message)))
	}
	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func escapeMarkdownCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
