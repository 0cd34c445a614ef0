package javascript

import (
	"fmt"

	"github.com/evanw/esbuild/pkg/api"
)

// keep every import statement as written so module names survive lowering
const preserveImports = `{"compilerOptions":{"verbatimModuleSyntax":true}}`

// loaderFor maps a script extension to the esbuild loader accepting its syntax.
// Plain JavaScript is parsed with the JSX loader because skills routinely
// ship JSX in .js files.
func loaderFor(extension string) api.Loader {
	switch extension {
	case "ts", "mts", "cts":
		return api.LoaderTS
	case "tsx":
		return api.LoaderTSX
	default:
		return api.LoaderJSX
	}
}

// SyntaxError describes source that could not be lowered or parsed
type SyntaxError struct {
	Text   string
	Line   int
	Column int
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (%d:%d)", e.Text, e.Line, e.Column)
	}
	return e.Text
}

// lower strips TypeScript annotations and JSX so the result is plain
// JavaScript. Identifiers, imports and call shapes are left untouched.
func lower(source []byte, name, extension string) ([]byte, error) {
	result := api.Transform(string(source), api.TransformOptions{
		Loader:      loaderFor(extension),
		Target:      api.ESNext,
		Sourcefile:  name,
		TsconfigRaw: preserveImports,
		LogLevel:    api.LogLevelSilent,
	})

	if len(result.Errors) > 0 {
		msg := result.Errors[0]
		se := &SyntaxError{Text: msg.Text}
		if msg.Location != nil {
			se.Line = msg.Location.Line
			se.Column = msg.Location.Column + 1
		}
		return nil, se
	}

	return result.Code, nil
}
