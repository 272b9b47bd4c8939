package report

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/runenames"
)

// DisplayText replaces invisible format characters (zero-width spaces,
// joiners, byte order marks, bidi controls) with a visible
// "<U+200B ZERO WIDTH SPACE>" form. Other text is returned unchanged.
func DisplayText(s string) string {
	if strings.IndexFunc(s, isInvisible) < 0 {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if isInvisible(r) {
			fmt.Fprintf(&b, "<U+%04X %s>", r, runenames.Name(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isInvisible(r rune) bool {
	return unicode.Is(unicode.Cf, r)
}
