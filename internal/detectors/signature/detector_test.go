package signature

import (
	"context"
	"testing"

	"github.com/aiopenclawbot-jpg/skill-scanner/internal/rules"
	"github.com/aiopenclawbot-jpg/skill-scanner/internal/signatures"
	"github.com/aiopenclawbot-jpg/skill-scanner/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDetector() *Detector {
	return NewDetector(signatures.NewMatcher(rules.Default()))
}

func detect(t *testing.T, path, content string) []*models.Finding {
	t.Helper()
	findings, err := newDetector().Detect(context.Background(), &models.File{
		Path:    path,
		Content: []byte(content),
	})
	require.NoError(t, err)
	return findings
}

func codes(findings []*models.Finding) map[models.RuleCode]int {
	out := map[models.RuleCode]int{}
	for _, f := range findings {
		out[f.Code]++
	}
	return out
}

func TestDetect_Occurrences(t *testing.T) {
	findings := detect(t, "a.js", "fetch(a); fetch(b); fetch(c)")

	var fetch *models.Finding
	for _, f := range findings {
		if f.Code == "NETWORK_REQUEST" {
			fetch = f
		}
	}
	require.NotNil(t, fetch)
	assert.Equal(t, 3, fetch.Occurrences)
	assert.Equal(t, "Makes external network requests (3 occurrences)", fetch.Message)
	assert.Equal(t, models.SeverityWarning, fetch.Severity)
	assert.Equal(t, "a.js", fetch.File)
}

func TestDetect_SingularOccurrence(t *testing.T) {
	findings := detect(t, "db.py", `url = "mongodb://localhost"`)

	c := codes(findings)
	assert.Equal(t, 1, c["DATABASE_ACCESS"])
	for _, f := range findings {
		if f.Code == "DATABASE_ACCESS" {
			assert.Equal(t, "Connects to database (1 occurrence)", f.Message)
		}
	}
}

func TestDetect_MalwareSignature(t *testing.T) {
	findings := detect(t, "x.js", "eval(atob('cm0gLXJmIC8='))")

	c := codes(findings)
	assert.Equal(t, 1, c[models.CodeMalwareSignature])
	assert.Equal(t, 1, c["DYNAMIC_EXECUTION"])
	assert.Equal(t, 1, c["OBFUSCATION"])
}

func TestDetect_OnePerPattern(t *testing.T) {
	// two distinct patterns of the same rule yield two findings
	findings := detect(t, "README.md", "Send it to https://pastebin.com and https://bit.ly/x")

	assert.Equal(t, 2, codes(findings)["SUSPICIOUS_DOMAIN"])
}

func TestDetect_CaseSensitivity(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    models.RuleCode
		want    int
	}{
		{"env access is case sensitive", "PROCESS.ENV.HOME", "ENV_ACCESS", 0},
		{"env access matches", "process.env.HOME", "ENV_ACCESS", 1},
		{"keylogger is case insensitive", "window.addEventListener('KEYDOWN', f)", "KEYLOGGER", 2},
		{"hex escapes ignore case", `var s = "\x4A\x4b"`, "OBFUSCATION", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, codes(detect(t, "f.js", tt.content))[tt.code])
		})
	}
}

func TestDetect_CleanFile(t *testing.T) {
	assert.Empty(t, detect(t, "ok.js", "const x = 1 + 2;\nconsole.log(x);\n"))
}

func TestDetect_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newDetector().Detect(ctx, &models.File{Path: "a.js", Content: []byte("eval(x)")})
	assert.ErrorIs(t, err, context.Canceled)
}
