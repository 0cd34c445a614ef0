// Package scoring turns findings into a safety score, a threat level and
// the human-facing verdict of a scan.
package scoring

import "github.com/aiopenclawbot-jpg/skill-scanner/pkg/models"

// Score bounds
const (
	MaxScore = 100
	MinScore = 0
)

// Deduction returns the points removed from the score for one finding
func Deduction(s models.Severity) int {
	switch s {
	case models.SeverityCritical:
		return 20
	case models.SeverityWarning:
		return 5
	default:
		return 1
	}
}

// Counts is the per-severity tally used for classification
type Counts struct {
	Critical int
	Warning  int
	Info     int
}

// Total returns the number of counted findings
func (c Counts) Total() int {
	return c.Critical + c.Warning + c.Info
}

// ClassifyThreat maps severity counts and the malware flag to a threat level.
// The first matching rule wins.
func ClassifyThreat(c Counts, malware bool) models.ThreatLevel {
	switch {
	case malware || c.Critical >= 5:
		return models.ThreatSevere
	case c.Critical >= 3:
		return models.ThreatHigh
	case c.Critical >= 1:
		return models.ThreatMedium
	case c.Warning >= 3:
		return models.ThreatLow
	default:
		return models.ThreatSafe
	}
}

// Score computes the clamped score for a set of counts
func Score(c Counts) int {
	score := MaxScore -
		c.Critical*Deduction(models.SeverityCritical) -
		c.Warning*Deduction(models.SeverityWarning) -
		c.Info*Deduction(models.SeverityInfo)
	if score < MinScore {
		return MinScore
	}
	return score
}
