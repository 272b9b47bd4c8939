package tui

import (
	"bytes"
	"path/filepath"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// sourceLexer picks a lexer from the file name, falling back to the
// extension alone. It returns nil for unknown file types.
func sourceLexer(filename string) chroma.Lexer {
	lexer := lexers.Match(filename)
	if lexer == nil {
		if ext := filepath.Ext(filename); ext != "" {
			lexer = lexers.Match("file" + ext)
		}
	}
	return lexer
}

// languageName returns the lexer name for filename, or "" when unknown.
func languageName(filename string) string {
	if l := sourceLexer(filename); l != nil {
		return l.Config().Name
	}
	return ""
}

// highlightSource renders code with terminal syntax colouring. Unknown file
// types and lexer failures return code unchanged.
func highlightSource(code, filename string) string {
	lexer := sourceLexer(filename)
	if lexer == nil {
		return code
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		return code
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}
