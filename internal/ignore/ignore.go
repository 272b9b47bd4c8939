// Package ignore reads .contentguardignore files: gitignore-style path
// patterns (one per line, # comments) for files the engine should skip.
package ignore

import (
	"bufio"
	"os"
	"path"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

// FileName is the ignore file looked up in a scan root.
const FileName = ".contentguardignore"

// Matcher reports whether a root-relative path is ignored.
type Matcher struct {
	patterns []string
}

// Load reads patterns from path. A missing file yields an empty Matcher and
// the os error, so callers can discard the error.
func Load(p string) (Matcher, error) {
	f, err := os.Open(p)
	if err != nil {
		return Matcher{}, err
	}
	defer f.Close()
	var m Matcher
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m.patterns = append(m.patterns, line)
	}
	return m, sc.Err()
}

// New builds a Matcher from in-memory patterns.
func New(patterns ...string) Matcher {
	return Matcher{patterns: patterns}
}

// Match reports whether rel (slash or OS separated) matches any pattern.
// Patterns ending in "/" match a directory and everything below it; patterns
// without a slash match any path segment.
func (m Matcher) Match(rel string) bool {
	rel = strings.ReplaceAll(rel, "\\", "/")
	rel = strings.TrimPrefix(rel, "./")
	for _, p := range m.patterns {
		p = strings.TrimPrefix(p, "/")
		if dir, ok := strings.CutSuffix(p, "/"); ok {
			if rel == dir || strings.HasPrefix(rel, dir+"/") || strings.Contains("/"+rel, "/"+dir+"/") {
				return true
			}
			continue
		}
		if !strings.Contains(p, "/") {
			for _, seg := range strings.Split(rel, "/") {
				if ok, _ := path.Match(p, seg); ok {
					return true
				}
			}
			continue
		}
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// Len returns the number of patterns.
func (m Matcher) Len() int { return len(m.patterns) }
