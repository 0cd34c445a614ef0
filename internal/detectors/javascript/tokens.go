package javascript

import (
	"strings"

	"github.com/aiopenclawbot-jpg/skill-scanner/internal/rules"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"
)

type token struct {
	tt   js.TokenType
	data string
}

// tokenize lexes source into its significant tokens. Lexing stops at the
// first error, which for JSX text can come before the end of the file.
func tokenize(source []byte) []token {
	l := js.NewLexer(parse.NewInputBytes(source))
	var out []token
	for {
		tt, data := l.Next()
		switch tt {
		case js.ErrorToken:
			return out
		case js.WhitespaceToken, js.LineTerminatorToken, js.CommentToken:
			continue
		case js.DivToken, js.DivEqToken:
			if regexpAllowed(out) {
				tt, data = l.RegExp()
				if tt == js.ErrorToken {
					return out
				}
			}
		}
		if isComment(data) {
			continue
		}
		out = append(out, token{tt: tt, data: string(data)})
	}
}

func isComment(data []byte) bool {
	s := string(data)
	return strings.HasPrefix(s, "//") || strings.HasPrefix(s, "/*")
}

// regexpAllowed reports whether a slash after prev starts a regular expression
func regexpAllowed(prev []token) bool {
	if len(prev) == 0 {
		return true
	}
	last := prev[len(prev)-1]
	if last.data != "" && last.data[0] >= '0' && last.data[0] <= '9' {
		return false
	}
	switch last.tt {
	case js.IdentifierToken, js.StringToken, js.TemplateToken, js.TemplateEndToken,
		js.RegExpToken, js.CloseParenToken, js.CloseBracketToken, js.CloseBraceToken, js.ThisToken:
		return false
	}
	return true
}

// dynamicCalls finds calls to the rule's callees whose first argument is not a
// lone string literal, looking at the source as written.
func dynamicCalls(source []byte, rule *rules.StructuralRule) []hit {
	toks := tokenize(source)
	var hits []hit
	for i, t := range toks {
		if t.tt != js.IdentifierToken || !contains(rule.Match, t.data) {
			continue
		}
		if i > 0 {
			switch toks[i-1].tt {
			case js.DotToken, js.OptChainToken, js.FunctionToken:
				continue
			}
		}
		if i+1 >= len(toks) || toks[i+1].tt != js.OpenParenToken {
			continue
		}
		if staticFirstArgument(toks[i+2:]) {
			continue
		}
		hits = append(hits, hit{rule: rule, name: t.data})
	}
	return hits
}

// staticFirstArgument reports whether args starts with a string literal that
// is the whole first argument
func staticFirstArgument(args []token) bool {
	if len(args) < 2 || args[0].tt != js.StringToken {
		return false
	}
	return args[1].tt == js.CloseParenToken || args[1].tt == js.CommaToken
}
