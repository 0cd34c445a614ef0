package signatures

import (
	"github.com/aiopenclawbot-jpg/skill-scanner/internal/rules"
)

// Matcher matches content against the signature rules of a catalog
type Matcher struct {
	rules []*rules.SignatureRule
}

// NewMatcher creates a new signature matcher
func NewMatcher(catalog *rules.Catalog) *Matcher {
	return &Matcher{rules: catalog.Signatures}
}

// MatchResult is one (rule, pattern) pair that matched at least once
type MatchResult struct {
	Rule    *rules.SignatureRule
	Pattern *rules.Pattern
	Count   int // non-overlapping matches
}

// Match runs every pattern of every rule over content.
// Results follow catalog order: rule order, then pattern order.
func (m *Matcher) Match(content []byte) []*MatchResult {
	var results []*MatchResult

	for _, rule := range m.rules {
		for _, p := range rule.Patterns {
			locs := p.Re.FindAllIndex(content, -1)
			if len(locs) == 0 {
				continue
			}
			results = append(results, &MatchResult{
				Rule:    rule,
				Pattern: p,
				Count:   len(locs),
			})
		}
	}

	return results
}

// Rules returns the number of signature rules the matcher carries
func (m *Matcher) Rules() int {
	return len(m.rules)
}
