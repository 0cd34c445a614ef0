package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aiopenclawbot-jpg/skill-scanner/pkg/models"
	"gopkg.in/yaml.v3"
)

// catalogFile mirrors the YAML layout of a catalog document
type catalogFile struct {
	Version    int                 `yaml:"version"`
	Signatures []signatureEntry    `yaml:"signatures"`
	Structural []structuralEntry   `yaml:"structural"`
	Shell      []shellEntry        `yaml:"shell"`
	Reserved   []reservedRuleEntry `yaml:"reserved"`
}

type signatureEntry struct {
	Code                  string   `yaml:"code"`
	Severity              string   `yaml:"severity"`
	Message               string   `yaml:"message"`
	CaseSensitive         bool     `yaml:"case_sensitive"`
	Patterns              []string `yaml:"patterns"`
	CaseSensitivePatterns []string `yaml:"case_sensitive_patterns"`
	Domains               []string `yaml:"domains"`
}

type structuralEntry struct {
	Code      string   `yaml:"code"`
	Severity  string   `yaml:"severity"`
	Message   string   `yaml:"message"`
	Node      string   `yaml:"node"`
	Predicate string   `yaml:"predicate"`
	Match     []string `yaml:"match"`
}

type shellEntry struct {
	Code     string `yaml:"code"`
	Severity string `yaml:"severity"`
	Message  string `yaml:"message"`
	Checks   []struct {
		Pattern string `yaml:"pattern"`
		Message string `yaml:"message"`
	} `yaml:"checks"`
}

type reservedRuleEntry struct {
	Code     string `yaml:"code"`
	Severity string `yaml:"severity"`
	Message  string `yaml:"message"`
}

// Load parses a catalog document.
// Structural problems with the document itself (bad YAML, unknown severity,
// duplicate codes) are returned as errors. Individual patterns that fail to
// compile are dropped and recorded in Catalog.Problems.
func Load(data []byte) (*Catalog, error) {
	var doc catalogFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse rule catalog: %w", err)
	}

	c := &Catalog{
		Version: doc.Version,
		byCode:  make(map[models.RuleCode]Entry),
	}

	for _, e := range doc.Signatures {
		sev, err := models.ParseSeverity(e.Severity)
		if err != nil {
			return nil, fmt.Errorf("signature rule %s: %w", e.Code, err)
		}
		rule := &SignatureRule{
			Code:     models.RuleCode(e.Code),
			Severity: sev,
			Message:  e.Message,
		}
		for _, src := range e.Patterns {
			c.addPattern(rule, src, e.CaseSensitive)
		}
		for _, src := range e.CaseSensitivePatterns {
			c.addPattern(rule, src, true)
		}
		for _, domain := range e.Domains {
			c.addPattern(rule, regexp.QuoteMeta(strings.TrimSpace(domain)), false)
		}
		if err := c.register(Entry{Code: rule.Code, Severity: sev, Message: rule.Message, Layer: LayerSignature}); err != nil {
			return nil, err
		}
		c.Signatures = append(c.Signatures, rule)
	}

	for _, e := range doc.Structural {
		sev, err := models.ParseSeverity(e.Severity)
		if err != nil {
			return nil, fmt.Errorf("structural rule %s: %w", e.Code, err)
		}
		rule := &StructuralRule{
			Code:      models.RuleCode(e.Code),
			Severity:  sev,
			Message:   e.Message,
			Node:      NodeKind(e.Node),
			Predicate: Predicate(e.Predicate),
			Match:     e.Match,
		}
		if err := rule.validate(); err != nil {
			c.Problems = append(c.Problems, err)
			continue
		}
		if err := c.register(Entry{Code: rule.Code, Severity: sev, Message: rule.Message, Layer: LayerStructural}); err != nil {
			return nil, err
		}
		c.Structural = append(c.Structural, rule)
	}

	for _, e := range doc.Shell {
		sev, err := models.ParseSeverity(e.Severity)
		if err != nil {
			return nil, fmt.Errorf("shell rule %s: %w", e.Code, err)
		}
		rule := &ShellRule{Code: models.RuleCode(e.Code), Severity: sev}
		for _, chk := range e.Checks {
			re, err := compile(chk.Pattern, false)
			if err != nil {
				c.Problems = append(c.Problems, fmt.Errorf("shell rule %s: %w", e.Code, err))
				continue
			}
			rule.Checks = append(rule.Checks, &ShellCheck{
				Pattern: &Pattern{Source: chk.Pattern, Re: re},
				Message: chk.Message,
			})
		}
		if err := c.register(Entry{Code: rule.Code, Severity: sev, Message: e.Message, Layer: LayerShell}); err != nil {
			return nil, err
		}
		c.Shell = append(c.Shell, rule)
	}

	for _, e := range doc.Reserved {
		sev, err := models.ParseSeverity(e.Severity)
		if err != nil {
			return nil, fmt.Errorf("reserved rule %s: %w", e.Code, err)
		}
		if err := c.register(Entry{Code: models.RuleCode(e.Code), Severity: sev, Message: e.Message, Layer: LayerEngine}); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// addPattern compiles src and appends it to the rule, or records a problem
func (c *Catalog) addPattern(rule *SignatureRule, src string, caseSensitive bool) {
	re, err := compile(src, caseSensitive)
	if err != nil {
		c.Problems = append(c.Problems, fmt.Errorf("signature rule %s: %w", rule.Code, err))
		return
	}
	rule.Patterns = append(rule.Patterns, &Pattern{Source: src, Re: re, CaseSensitive: caseSensitive})
}

func (c *Catalog) register(e Entry) error {
	if e.Code == "" {
		return fmt.Errorf("rule without code in %s layer", e.Layer)
	}
	if _, exists := c.byCode[e.Code]; exists {
		return fmt.Errorf("duplicate rule code %s", e.Code)
	}
	c.byCode[e.Code] = e
	c.codes = append(c.codes, e.Code)
	return nil
}

func compile(src string, caseSensitive bool) (*regexp.Regexp, error) {
	expr := src
	if !caseSensitive {
		expr = "(?i)" + src
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", src, err)
	}
	return re, nil
}
