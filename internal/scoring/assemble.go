package scoring

import (
	"fmt"
	"sort"

	"github.com/aiopenclawbot-jpg/skill-scanner/pkg/models"
)

// Icon tags rendered next to ratings
const (
	IconSevere  = "🚨"
	IconWarning = "⚠️"
	IconSafe    = "✅"
)

// Rate returns the human label and icon for a level and score
func Rate(level models.ThreatLevel, score int) (string, string) {
	switch level {
	case models.ThreatSevere:
		return "SEVERE THREAT", IconSevere
	case models.ThreatHigh:
		return "HIGH RISK", IconWarning
	case models.ThreatMedium:
		return "MEDIUM RISK", IconWarning
	case models.ThreatLow:
		return "LOW RISK", IconWarning
	}

	switch {
	case score >= 80:
		return "SAFE", IconSafe
	case score >= 60:
		return "CAUTION", IconWarning
	default:
		return "DANGEROUS", IconSevere
	}
}

// Summarize returns the one-line verdict
func Summarize(c Counts, malware bool) string {
	switch {
	case malware:
		return "🚨 MALWARE DETECTED! Do NOT install this skill."
	case c.Critical > 0:
		return fmt.Sprintf("🚨 %d critical issue%s, ⚠️ %d warning%s. Review recommended before use.",
			c.Critical, plural(c.Critical), c.Warning, plural(c.Warning))
	case c.Warning > 0:
		return fmt.Sprintf("⚠️ %d warning%s found. Review recommended.", c.Warning, plural(c.Warning))
	default:
		return "✅ No major security issues detected."
	}
}

// plural follows the established report wording: only counts above one take an "s"
func plural(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}

// Finalize builds the report for the aggregator's current state.
// It performs no I/O and does not modify the aggregator; calling it twice
// yields equal reports.
func (a *Aggregator) Finalize(target string) *models.ScanReport {
	counts := a.Counts()
	level := ClassifyThreat(counts, a.malware)
	rating, icon := Rate(level, a.score)

	findings := a.Findings()
	SortFindings(findings)

	return &models.ScanReport{
		Target:          target,
		SafetyScore:     a.score,
		ThreatLevel:     level,
		Rating:          rating,
		Icon:            icon,
		CriticalIssues:  counts.Critical,
		WarningIssues:   counts.Warning,
		InfoIssues:      counts.Info,
		TotalFindings:   counts.Total(),
		FilesScanned:    a.files,
		MalwareDetected: a.malware,
		Summary:         Summarize(counts, a.malware),
		Findings:        findings,
	}
}

// SortFindings orders findings by file, severity (most severe first),
// code, message and occurrence count.
func SortFindings(findings []*models.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		if a.Message != b.Message {
			return a.Message < b.Message
		}
		return a.Occurrences < b.Occurrences
	})
}
