package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RuleCode is the stable identifier of a catalog rule.
// Codes are part of the report contract and never change once shipped.
type RuleCode string

// Reserved rule codes the engine itself depends on
const (
	CodeMalwareSignature      RuleCode = "MALWARE_SIGNATURE"
	CodeParseError            RuleCode = "PARSE_ERROR"
	CodeDangerousShellCommand RuleCode = "DANGEROUS_SHELL_COMMAND"
	CodeUnreadableFile        RuleCode = "UNREADABLE_FILE"
	CodeFileTooLarge          RuleCode = "FILE_TOO_LARGE"
)

// Finding represents one security-relevant observation about a single file
type Finding struct {
	Severity    Severity `json:"severity"`
	Code        RuleCode `json:"code"`
	File        string   `json:"file"`
	Message     string   `json:"message"`
	Occurrences int      `json:"occurrences,omitempty"` // informational, never affects scoring
}

// WithFile returns a copy of the finding attributed to another path
func (f Finding) WithFile(path string) *Finding {
	f.File = path
	return &f
}

// Severity represents the severity level of a finding.
// The zero value is SeverityInfo; higher values are more severe.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
)

// String returns the lower-case name used in catalogs and reports
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// ParseSeverity converts a textual severity into a Severity
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return SeverityInfo, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "critical":
		return SeverityCritical, nil
	default:
		return SeverityInfo, fmt.Errorf("unknown severity %q", s)
	}
}

// MarshalJSON encodes the severity as its name
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a severity name
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseSeverity(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
