package signatures

import (
	"testing"

	"github.com/aiopenclawbot-jpg/skill-scanner/internal/rules"
)

const testCatalog = `
signatures:
  - code: TEST_EVAL
    severity: critical
    message: eval
    case_sensitive: true
    patterns:
      - 'eval\s*\('
  - code: TEST_NET
    severity: warning
    message: net
    patterns:
      - 'fetch\('
      - 'https?://'
`

func TestMatcher_Match(t *testing.T) {
	catalog, err := rules.Load([]byte(testCatalog))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	matcher := NewMatcher(catalog)

	tests := []struct {
		name          string
		content       string
		expectedCodes []string
		expectedCount []int
	}{
		{
			name:          "Match eval once",
			content:       "eval(x)",
			expectedCodes: []string{"TEST_EVAL"},
			expectedCount: []int{1},
		},
		{
			name:          "Case sensitive rule ignores upper case",
			content:       "EVAL(x)",
			expectedCodes: nil,
		},
		{
			name:          "Each pattern reported separately",
			content:       "fetch('https://a'); fetch('http://b')",
			expectedCodes: []string{"TEST_NET", "TEST_NET"},
			expectedCount: []int{2, 2},
		},
		{
			name:          "Insensitive rule matches upper case",
			content:       "FETCH(url)",
			expectedCodes: []string{"TEST_NET"},
			expectedCount: []int{1},
		},
		{
			name:          "No match",
			content:       "console.log('hello')",
			expectedCodes: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := matcher.Match([]byte(tt.content))

			if len(results) != len(tt.expectedCodes) {
				t.Fatalf("Match() returned %d results, want %d", len(results), len(tt.expectedCodes))
			}

			for i, r := range results {
				if string(r.Rule.Code) != tt.expectedCodes[i] {
					t.Errorf("result[%d].Rule.Code = %s, want %s", i, r.Rule.Code, tt.expectedCodes[i])
				}
				if r.Count != tt.expectedCount[i] {
					t.Errorf("result[%d].Count = %d, want %d", i, r.Count, tt.expectedCount[i])
				}
			}
		})
	}
}

func TestMatcher_DefaultCatalog(t *testing.T) {
	matcher := NewMatcher(rules.Default())
	if matcher.Rules() != 15 {
		t.Errorf("Rules() = %d, want 15", matcher.Rules())
	}

	results := matcher.Match([]byte("eval(atob('ZXZpbA=='))"))
	found := false
	for _, r := range results {
		if r.Rule.Code == "MALWARE_SIGNATURE" {
			found = true
		}
	}
	if !found {
		t.Error("expected MALWARE_SIGNATURE match")
	}
}
