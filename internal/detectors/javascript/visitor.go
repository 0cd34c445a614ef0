package javascript

import (
	"strings"

	"github.com/aiopenclawbot-jpg/skill-scanner/internal/rules"
	"github.com/tdewolff/parse/v2/js"
)

// hit is one structural rule firing on one node
type hit struct {
	rule *rules.StructuralRule
	name string
}

// visitor collects rule hits in a single depth-first pass
type visitor struct {
	// skipDynamic leaves dynamic_argument rules to the token scan of the
	// original source, because lowering folds constant expressions
	skipDynamic bool

	calls        []*rules.StructuralRule
	imports      []*rules.StructuralRule
	declarations []*rules.StructuralRule
	hits         []hit
}

func newVisitor(catalog *rules.Catalog) *visitor {
	return &visitor{
		calls:        catalog.StructuralFor(rules.NodeCall),
		imports:      catalog.StructuralFor(rules.NodeImport),
		declarations: catalog.StructuralFor(rules.NodeDeclarator),
	}
}

// Enter implements js.IVisitor
func (v *visitor) Enter(n js.INode) js.IVisitor {
	switch node := n.(type) {
	case *js.CallExpr:
		v.call(node.X, &node.Args)
	case *js.NewExpr:
		v.call(node.X, node.Args)
	case *js.ImportStmt:
		v.importStmt(node)
	case *js.VarDecl:
		v.varDecl(node)
	}
	return v
}

// Exit implements js.IVisitor
func (v *visitor) Exit(n js.INode) {}

func (v *visitor) call(callee js.IExpr, args *js.Args) {
	for _, rule := range v.calls {
		switch rule.Predicate {
		case rules.PredicateCallee:
			if name, ok := identifier(callee); ok && contains(rule.Match, name) {
				v.hits = append(v.hits, hit{rule: rule, name: name})
			}
		case rules.PredicateDynamicArgument:
			if v.skipDynamic {
				continue
			}
			if name, ok := identifier(callee); ok && contains(rule.Match, name) && !stringLiteralFirst(args) {
				v.hits = append(v.hits, hit{rule: rule, name: name})
			}
		case rules.PredicateMember:
			if prop, ok := memberProperty(callee); ok && contains(rule.Match, prop) {
				v.hits = append(v.hits, hit{rule: rule, name: prop})
			}
		}
	}
}

func (v *visitor) importStmt(node *js.ImportStmt) {
	module := strings.Trim(string(node.Module), "\"'`")
	bare := strings.TrimPrefix(module, "node:")
	for _, rule := range v.imports {
		if rule.Predicate == rules.PredicateModule && contains(rule.Match, bare) {
			v.hits = append(v.hits, hit{rule: rule, name: module})
		}
	}
}

func (v *visitor) varDecl(node *js.VarDecl) {
	for _, elem := range node.List {
		// destructuring patterns are not inspected
		ident, ok := elem.Binding.(*js.Var)
		if !ok {
			continue
		}
		name := ident.String()
		lower := strings.ToLower(name)
		for _, rule := range v.declarations {
			if rule.Predicate != rules.PredicateNameContains {
				continue
			}
			for _, needle := range rule.Match {
				if strings.Contains(lower, strings.ToLower(needle)) {
					v.hits = append(v.hits, hit{rule: rule, name: name})
					break
				}
			}
		}
	}
}

// identifier returns the name of a bare identifier expression
func identifier(e js.IExpr) (string, bool) {
	if ident, ok := e.(*js.Var); ok {
		return ident.String(), true
	}
	return "", false
}

// memberProperty returns the property name of a non-computed member access
func memberProperty(e js.IExpr) (string, bool) {
	dot, ok := e.(*js.DotExpr)
	if !ok {
		return "", false
	}
	return string(dot.Y.Data), true
}

// stringLiteralFirst reports whether the first argument is a plain string literal
func stringLiteralFirst(args *js.Args) bool {
	if args == nil || len(args.List) == 0 {
		return false
	}
	first := args.List[0]
	if first.Rest {
		return false
	}
	switch lit := first.Value.(type) {
	case *js.LiteralExpr:
		return lit.TokenType == js.StringToken
	case js.LiteralExpr:
		return lit.TokenType == js.StringToken
	}
	return false
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
