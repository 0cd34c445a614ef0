package rules

import (
	"testing"

	"github.com/aiopenclawbot-jpg/skill-scanner/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_LoadsWithoutProblems(t *testing.T) {
	c := Default()
	require.NotNil(t, c)
	assert.Empty(t, c.Problems)
	assert.Len(t, c.Signatures, 15)
	assert.Len(t, c.Structural, 6)
	assert.Len(t, c.Shell, 1)
	assert.Len(t, c.Shell[0].Checks, 8)
	assert.Same(t, c, Default())
}

func TestDefault_ReservedCodes(t *testing.T) {
	c := Default()
	for _, code := range []models.RuleCode{
		models.CodeMalwareSignature,
		models.CodeParseError,
		models.CodeDangerousShellCommand,
		models.CodeUnreadableFile,
		models.CodeFileTooLarge,
	} {
		assert.True(t, c.Has(code), "missing %s", code)
	}

	e, ok := c.Lookup(models.CodeParseError)
	require.True(t, ok)
	assert.Equal(t, models.SeverityWarning, e.Severity)
	assert.Equal(t, LayerEngine, e.Layer)
}

func TestDefault_Severities(t *testing.T) {
	tests := []struct {
		code models.RuleCode
		want models.Severity
	}{
		{"MALWARE_SIGNATURE", models.SeverityCritical},
		{"SUSPICIOUS_DOMAIN", models.SeverityCritical},
		{"PROCESS_MANIPULATION", models.SeverityWarning},
		{"NETWORK_REQUEST", models.SeverityWarning},
		{"DATABASE_ACCESS", models.SeverityInfo},
		{"EVAL_USAGE", models.SeverityCritical},
		{"DYNAMIC_REQUIRE", models.SeverityWarning},
		{"DANGEROUS_IMPORT", models.SeverityInfo},
		{"SUSPICIOUS_VARIABLE", models.SeverityCritical},
		{"DANGEROUS_SHELL_COMMAND", models.SeverityCritical},
	}

	c := Default()
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			e, ok := c.Lookup(tt.code)
			require.True(t, ok)
			assert.Equal(t, tt.want, e.Severity)
		})
	}
}

func TestPatternCaseSensitivity(t *testing.T) {
	c := Default()
	byCode := map[models.RuleCode]*SignatureRule{}
	for _, r := range c.Signatures {
		byCode[r.Code] = r
	}

	dyn := byCode["DYNAMIC_EXECUTION"]
	require.NotNil(t, dyn)
	assert.True(t, dyn.Patterns[0].Re.MatchString("eval("))
	assert.False(t, dyn.Patterns[0].Re.MatchString("EVAL("))

	obf := byCode["OBFUSCATION"]
	require.NotNil(t, obf)
	var hex *Pattern
	for _, p := range obf.Patterns {
		if p.Source == `(?i)\\x[0-9a-f]{2}` {
			hex = p
		}
	}
	require.NotNil(t, hex)
	assert.True(t, hex.Re.MatchString(`"\x4A"`))

	wallet := byCode["WALLET_ACCESS"]
	require.NotNil(t, wallet)
	assert.True(t, wallet.Patterns[0].Re.MatchString("PRIVATE_KEY"))
	last := wallet.Patterns[len(wallet.Patterns)-1]
	assert.True(t, last.CaseSensitive)
}

func TestDomainPatternsAreLiteral(t *testing.T) {
	var domains *SignatureRule
	for _, r := range Default().Signatures {
		if r.Code == "SUSPICIOUS_DOMAIN" {
			domains = r
		}
	}
	require.NotNil(t, domains)
	require.Len(t, domains.Patterns, 9)

	// "t.me" must not match "tame" or "time"
	var tme *Pattern
	for _, p := range domains.Patterns {
		if p.Re.MatchString("t.me") {
			tme = p
		}
	}
	require.NotNil(t, tme)
	assert.False(t, tme.Re.MatchString("tame"))
	assert.True(t, tme.Re.MatchString("https://T.ME/channel"))
}

func TestLoad_DropsBadPatterns(t *testing.T) {
	doc := []byte(`
version: 1
signatures:
  - code: BROKEN
    severity: warning
    message: broken
    patterns:
      - 'ok'
      - '(unclosed'
structural:
  - code: MISMATCH
    severity: info
    message: mismatch
    node: import
    predicate: callee
    match: [x]
`)
	c, err := Load(doc)
	require.NoError(t, err)
	require.Len(t, c.Signatures, 1)
	assert.Len(t, c.Signatures[0].Patterns, 1)
	assert.Empty(t, c.Structural)
	assert.Len(t, c.Problems, 2)
	assert.False(t, c.Has("MISMATCH"))
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"invalid yaml", "signatures: [unterminated"},
		{"unknown severity", "signatures:\n  - code: X\n    severity: fatal\n"},
		{"duplicate code", "signatures:\n  - code: X\n    severity: info\n  - code: X\n    severity: info\n"},
		{"missing code", "reserved:\n  - severity: info\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestStructuralRule_Render(t *testing.T) {
	r := &StructuralRule{Message: "Imports dangerous module: {name}"}
	assert.Equal(t, "Imports dangerous module: fs", r.Render("fs"))
}

func TestCatalog_Entries(t *testing.T) {
	entries := Default().Entries()
	require.NotEmpty(t, entries)
	assert.Equal(t, LayerSignature, entries[0].Layer)
	assert.Equal(t, LayerEngine, entries[len(entries)-1].Layer)
	assert.Len(t, Default().Codes(), len(entries))
}
