// Package redact masks suspicious spans in text and files.
package redact

import (
	"os"
	"strings"

	"github.com/varalys/contentguard/internal/files"
	"github.com/varalys/contentguard/internal/report"
	"github.com/varalys/contentguard/internal/rules"
	"github.com/varalys/contentguard/internal/scanner"
	"github.com/varalys/contentguard/internal/types"
)

// DefaultReplacement is used when no replacement text is given.
const DefaultReplacement = "[REDACTED]"

// Content replaces every highlighted span of content with replacement.
// Overlapping matches are merged first, so each span is replaced once.
func Content(content string, matches []types.Match, replacement string) string {
	if replacement == "" {
		replacement = DefaultReplacement
	}
	var b strings.Builder
	for _, s := range report.Segments(content, matches) {
		if s.Highlighted {
			b.WriteString(replacement)
		} else {
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

// WouldChange reports whether File would rewrite path.
func WouldChange(path string, rs *rules.RuleSet) (bool, error) {
	_, changed, err := redacted(path, rs, DefaultReplacement)
	return changed, err
}

// File rewrites path with its matches replaced and reports whether anything
// changed. Non-text files are left alone.
func File(path string, rs *rules.RuleSet, replacement string) (bool, error) {
	out, changed, err := redacted(path, rs, replacement)
	if err != nil || !changed {
		return false, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(path, []byte(out), info.Mode().Perm()); err != nil {
		return false, err
	}
	return true, nil
}

func redacted(path string, rs *rules.RuleSet, replacement string) (string, bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", false, err
	}
	kind, _ := files.Sniff(path, b)
	if kind != files.KindText {
		return "", false, nil
	}
	content := string(b)
	res := scanner.New(rs).Scan(content)
	if len(res.Matches) == 0 {
		return content, false, nil
	}
	out := Content(content, res.Matches, replacement)
	return out, out != content, nil
}
