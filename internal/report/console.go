package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/aiopenclawbot-jpg/skill-scanner/pkg/models"
	"github.com/fatih/color"
)

var (
	bold     = color.New(color.Bold).SprintFunc()
	gray     = color.New(color.FgHiBlack).SprintFunc()
	header   = color.New(color.Bold, color.FgCyan).SprintFunc()
	critical = color.New(color.Bold, color.FgRed).SprintFunc()
	warning  = color.New(color.FgYellow).SprintFunc()
	info     = color.New(color.FgBlue).SprintFunc()
	good     = color.New(color.Bold, color.FgGreen).SprintFunc()
	rule     = strings.Repeat("─", 63)
)

func severityColor(s models.Severity) func(a ...interface{}) string {
	switch s {
	case models.SeverityCritical:
		return critical
	case models.SeverityWarning:
		return warning
	default:
		return info
	}
}

func levelColor(level models.ThreatLevel) func(a ...interface{}) string {
	switch level {
	case models.ThreatSevere, models.ThreatHigh:
		return critical
	case models.ThreatMedium, models.ThreatLow:
		return warning
	default:
		return good
	}
}

// renderConsole prints the report for a terminal
func renderConsole(w io.Writer, r *models.ScanReport) error {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(header("SKILL SCAN COMPLETE") + "\n\n")

	fmt.Fprintf(&sb, "  %s    %s\n", gray("Target:"), r.Target)
	fmt.Fprintf(&sb, "  %s     %d\n", gray("Files:"), r.FilesScanned)
	fmt.Fprintf(&sb, "  %s  %s\n", gray("Duration:"), FormatDuration(r.Duration))
	fmt.Fprintf(&sb, "  %s     %s\n", gray("Score:"), bold(fmt.Sprintf("%d/100", r.SafetyScore)))
	fmt.Fprintf(&sb, "  %s    %s %s\n", gray("Rating:"), r.Icon, levelColor(r.ThreatLevel)(r.Rating))
	fmt.Fprintf(&sb, "  %s    %s\n", gray("Threat:"), levelColor(r.ThreatLevel)(string(r.ThreatLevel)))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "  %s\n\n", r.Summary)

	if len(r.Findings) == 0 {
		_, err := io.WriteString(w, sb.String())
		return err
	}

	fmt.Fprintf(&sb, "  %s %s  %s %s  %s %s\n",
		critical(r.CriticalIssues), gray("critical"),
		warning(r.WarningIssues), gray("warning"),
		info(r.InfoIssues), gray("info"))
	sb.WriteString(gray(rule) + "\n")

	for i, f := range r.Findings {
		sev := severityColor(f.Severity)
		fmt.Fprintf(&sb, "\n  %s %s %s\n", bold(fmt.Sprintf("[%d]", i+1)), sev(strings.ToUpper(f.Severity.String())), bold(string(f.Code)))
		fmt.Fprintf(&sb, "      %s  %s\n", gray("File:"), displayPath(r.Target, f.File))
		fmt.Fprintf(&sb, "      %s  %s\n", gray("Info:"), f.Message)
	}

	sb.WriteString("\n" + gray(rule) + "\n\n")

	_, err := io.WriteString(w, sb.String())
	return err
}
