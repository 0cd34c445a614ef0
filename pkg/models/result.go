package models

import "time"

// ThreatLevel is the categorical verdict of a scan
type ThreatLevel string

const (
	ThreatSafe   ThreatLevel = "SAFE"
	ThreatLow    ThreatLevel = "LOW"
	ThreatMedium ThreatLevel = "MEDIUM"
	ThreatHigh   ThreatLevel = "HIGH"
	ThreatSevere ThreatLevel = "SEVERE"
)

// threatRank orders threat levels from SAFE (0) to SEVERE (4)
var threatRank = map[ThreatLevel]int{
	ThreatSafe:   0,
	ThreatLow:    1,
	ThreatMedium: 2,
	ThreatHigh:   3,
	ThreatSevere: 4,
}

// Rank returns the position of the level in the SAFE..SEVERE ordering, or -1 if unknown
func (t ThreatLevel) Rank() int {
	if r, ok := threatRank[t]; ok {
		return r
	}
	return -1
}

// AtLeast reports whether t is as severe as other
func (t ThreatLevel) AtLeast(other ThreatLevel) bool {
	return t.Rank() >= other.Rank() && other.Rank() >= 0
}

// ScanReport is the finalized verdict for one scan invocation
type ScanReport struct {
	Target          string      `json:"target"`
	SafetyScore     int         `json:"safetyScore"`
	ThreatLevel     ThreatLevel `json:"threatLevel"`
	Rating          string      `json:"rating"`
	Icon            string      `json:"emoji"`
	CriticalIssues  int         `json:"criticalIssues"`
	WarningIssues   int         `json:"warningIssues"`
	InfoIssues      int         `json:"infoIssues"`
	TotalFindings   int         `json:"totalFindings"`
	FilesScanned    int         `json:"filesScanned"`
	MalwareDetected bool        `json:"malwareDetected"`
	Summary         string      `json:"summary"`
	Findings        []*Finding  `json:"findings"`

	// Wall-clock fields; excluded when comparing reports
	ScannedAt time.Time     `json:"scannedAt"`
	Duration  time.Duration `json:"duration"`
}

// FindingsByCode returns findings carrying the given code
func (r *ScanReport) FindingsByCode(code RuleCode) []*Finding {
	var out []*Finding
	for _, f := range r.Findings {
		if f.Code == code {
			out = append(out, f)
		}
	}
	return out
}

// HasCode reports whether any finding carries the given code
func (r *ScanReport) HasCode(code RuleCode) bool {
	return len(r.FindingsByCode(code)) > 0
}
