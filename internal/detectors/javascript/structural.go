package javascript

import (
	"context"
	"errors"
	"fmt"

	"github.com/aiopenclawbot-jpg/skill-scanner/internal/detectors"
	"github.com/aiopenclawbot-jpg/skill-scanner/internal/rules"
	"github.com/aiopenclawbot-jpg/skill-scanner/pkg/models"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"
)

// StructuralDetector parses script sources and matches structural rules
// against call, import and declaration nodes.
type StructuralDetector struct {
	*detectors.Base
	catalog    *rules.Catalog
	parseError rules.Entry
}

// NewStructuralDetector creates a new structural detector
func NewStructuralDetector(catalog *rules.Catalog) *StructuralDetector {
	entry, ok := catalog.Lookup(models.CodeParseError)
	if !ok {
		entry = rules.Entry{
			Code:     models.CodeParseError,
			Severity: models.SeverityWarning,
			Message:  "Could not analyze: {name}",
		}
	}
	return &StructuralDetector{
		Base:       detectors.NewBase("structural", rules.LayerStructural, 90, models.ScriptExtensions),
		catalog:    catalog,
		parseError: entry,
	}
}

// Detect parses the file and walks its syntax tree once.
// Unparseable sources yield a single PARSE_ERROR finding instead of an error.
func (d *StructuralDetector) Detect(ctx context.Context, file *models.File) ([]*models.Finding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ast, lowered, err := d.parse(file)
	if err != nil {
		return []*models.Finding{{
			Severity: d.parseError.Severity,
			Code:     d.parseError.Code,
			File:     file.Path,
			Message:  d.parseError.Render(err.Error()),
		}}, nil
	}

	v := newVisitor(d.catalog)
	v.skipDynamic = lowered
	js.Walk(v, &ast.BlockStmt)

	hits := v.hits
	if lowered {
		for _, rule := range d.catalog.StructuralFor(rules.NodeCall) {
			if rule.Predicate == rules.PredicateDynamicArgument {
				hits = append(hits, dynamicCalls(file.Content, rule)...)
			}
		}
	}

	findings := make([]*models.Finding, 0, len(hits))
	for _, h := range hits {
		findings = append(findings, &models.Finding{
			Severity: h.rule.Severity,
			Code:     h.rule.Code,
			File:     file.Path,
			Message:  h.rule.Render(h.name),
		})
	}

	return findings, nil
}

// parse returns the syntax tree of the file. Plain JavaScript is parsed as
// written; TypeScript, JSX and .js files the parser rejects are lowered first.
// lowered reports whether the tree comes from esbuild output.
func (d *StructuralDetector) parse(file *models.File) (ast *js.AST, lowered bool, err error) {
	if plainScript(file.Extension) {
		if tree, perr := parseJS(file.Content); perr == nil {
			return tree, false, nil
		}
	}

	code, err := lower(file.Content, file.Name, file.Extension)
	if err != nil {
		return nil, true, err
	}
	ast, err = parseJS(code)
	return ast, true, err
}

func plainScript(extension string) bool {
	switch extension {
	case "js", "mjs", "cjs":
		return true
	}
	return false
}

func parseJS(code []byte) (*js.AST, error) {
	ast, err := js.Parse(parse.NewInputBytes(code), js.Options{})
	if err != nil {
		var perr *parse.Error
		if errors.As(err, &perr) {
			return nil, &SyntaxError{Text: perr.Message, Line: perr.Line, Column: perr.Column}
		}
		return nil, fmt.Errorf("parse: %w", err)
	}
	return ast, nil
}
