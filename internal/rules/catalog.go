package rules

import (
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/aiopenclawbot-jpg/skill-scanner/pkg/models"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

// Layer identifies which engine owns a rule
type Layer string

const (
	LayerSignature  Layer = "signature"
	LayerStructural Layer = "structural"
	LayerShell      Layer = "shell"
	LayerEngine     Layer = "engine"
)

// NodeKind is the syntax node a structural rule inspects
type NodeKind string

const (
	NodeCall       NodeKind = "call"
	NodeImport     NodeKind = "import"
	NodeDeclarator NodeKind = "declarator"
)

// Predicate selects how a structural rule matches its node
type Predicate string

const (
	PredicateCallee          Predicate = "callee"
	PredicateDynamicArgument Predicate = "dynamic_argument"
	PredicateMember          Predicate = "member"
	PredicateModule          Predicate = "module"
	PredicateNameContains    Predicate = "name_contains"
)

// allowed node/predicate pairings
var predicateNodes = map[Predicate]NodeKind{
	PredicateCallee:          NodeCall,
	PredicateDynamicArgument: NodeCall,
	PredicateMember:          NodeCall,
	PredicateModule:          NodeImport,
	PredicateNameContains:    NodeDeclarator,
}

// Pattern is one compiled regular expression of a rule
type Pattern struct {
	Source        string
	Re            *regexp.Regexp
	CaseSensitive bool
}

// SignatureRule is a textual rule applied to the raw content of every candidate file
type SignatureRule struct {
	Code     models.RuleCode
	Severity models.Severity
	Message  string
	Patterns []*Pattern
}

// StructuralRule is matched against syntax nodes of script sources
type StructuralRule struct {
	Code      models.RuleCode
	Severity  models.Severity
	Message   string // may contain {name}
	Node      NodeKind
	Predicate Predicate
	Match     []string
}

// Render fills the message template with the matched name
func (r *StructuralRule) Render(name string) string {
	return strings.ReplaceAll(r.Message, "{name}", name)
}

func (r *StructuralRule) validate() error {
	want, ok := predicateNodes[r.Predicate]
	if !ok {
		return fmt.Errorf("structural rule %s: unknown predicate %q", r.Code, r.Predicate)
	}
	if want != r.Node {
		return fmt.Errorf("structural rule %s: predicate %s does not apply to %s nodes", r.Code, r.Predicate, r.Node)
	}
	if len(r.Match) == 0 {
		return fmt.Errorf("structural rule %s: empty match list", r.Code)
	}
	return nil
}

// ShellCheck is one dangerous-command probe
type ShellCheck struct {
	Pattern *Pattern
	Message string
}

// ShellRule groups shell checks under a single code
type ShellRule struct {
	Code     models.RuleCode
	Severity models.Severity
	Checks   []*ShellCheck
}

// Entry is the layer-independent description of a rule code
type Entry struct {
	Code     models.RuleCode
	Severity models.Severity
	Message  string
	Layer    Layer
}

// Catalog is the read-only registry of every rule the engine knows.
// It is safe for concurrent use once loaded.
type Catalog struct {
	Version    int
	Signatures []*SignatureRule
	Structural []*StructuralRule
	Shell      []*ShellRule

	// Problems collects patterns or rules dropped during load
	Problems []error

	byCode map[models.RuleCode]Entry
	codes  []models.RuleCode
}

// Lookup returns the entry for a rule code
func (c *Catalog) Lookup(code models.RuleCode) (Entry, bool) {
	e, ok := c.byCode[code]
	return e, ok
}

// Has reports whether the code is registered
func (c *Catalog) Has(code models.RuleCode) bool {
	_, ok := c.byCode[code]
	return ok
}

// Codes returns every registered code in sorted order
func (c *Catalog) Codes() []models.RuleCode {
	out := make([]models.RuleCode, len(c.codes))
	copy(out, c.codes)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Entries returns every registered entry ordered by layer then code
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.codes))
	for _, code := range c.codes {
		out = append(out, c.byCode[code])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Layer != out[j].Layer {
			return layerOrder(out[i].Layer) < layerOrder(out[j].Layer)
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// StructuralFor returns the structural rules for one node kind
func (c *Catalog) StructuralFor(kind NodeKind) []*StructuralRule {
	var out []*StructuralRule
	for _, r := range c.Structural {
		if r.Node == kind {
			out = append(out, r)
		}
	}
	return out
}

func layerOrder(l Layer) int {
	switch l {
	case LayerSignature:
		return 0
	case LayerStructural:
		return 1
	case LayerShell:
		return 2
	default:
		return 3
	}
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the catalog compiled into the binary.
// It is parsed once; a malformed embedded document is a build defect and panics.
func Default() *Catalog {
	defaultOnce.Do(func() {
		defaultCatalog = MustLoad(embeddedCatalog)
	})
	return defaultCatalog
}

// MustLoad is like Load but panics on error
func MustLoad(data []byte) *Catalog {
	c, err := Load(data)
	if err != nil {
		panic(err)
	}
	return c
}

// Render fills the entry's message template with detail
func (e Entry) Render(detail string) string {
	return strings.ReplaceAll(e.Message, "{name}", detail)
}
