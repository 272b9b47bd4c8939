package engine

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"

	"github.com/varalys/contentguard/internal/ignore"
)

// Target is a file selected for scanning.
type Target struct {
	Rel  string // slash-separated, relative to Config.Root where possible
	Path string
	Size int64
}

// Walk visits every eligible file under cfg.Paths (or cfg.Root when no paths
// are given) and calls handle for each. Unreadable entries are skipped.
// Walk stops early when ctx is cancelled.
func Walk(ctx context.Context, cfg Config, ign ignore.Matcher, handle func(Target)) error {
	starts := cfg.Paths
	if len(starts) == 0 {
		starts = []string{cfg.Root}
	}
	for _, start := range starts {
		err := filepath.WalkDir(start, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if d.IsDir() {
				if p != start && cfg.DefaultExcludes && isDefaultDirExcluded(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			rel := relPath(cfg.Root, p)
			if isStateFile(rel) {
				return nil
			}
			if !allowedByGlobs(rel, cfg) {
				return nil
			}
			if ign.Match(rel) {
				return nil
			}
			if cfg.DefaultExcludes && isDefaultFileExcluded(strings.ToLower(rel)) {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			if cfg.MaxBytes > 0 && info.Size() > cfg.MaxBytes {
				return nil
			}
			handle(Target{Rel: rel, Path: p, Size: info.Size()})
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// CountTargets returns the number of files a scan with cfg would visit. It
// applies the same selection as Walk without reading file contents.
func CountTargets(cfg Config) (int, error) {
	ign, _ := loadIgnore(cfg.Root)
	n := 0
	err := Walk(context.Background(), cfg, ign, func(Target) { n++ })
	return n, err
}

func loadIgnore(root string) (ignore.Matcher, error) {
	if root == "" {
		root = "."
	}
	return ignore.Load(filepath.Join(root, ignore.FileName))
}

func relPath(root, p string) string {
	if root != "" {
		if rel, err := filepath.Rel(root, p); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(filepath.Clean(p))
}

// allowedByGlobs reports whether relPath passes the comma-separated include
// and exclude globs. Includes, when given, act as a positive filter;
// excludes are subtracted last.
func allowedByGlobs(relPath string, cfg Config) bool {
	rp := strings.ReplaceAll(relPath, "\\", "/")
	includes := parseGlobsList(cfg.IncludeGlobs)
	excludes := parseGlobsList(cfg.ExcludeGlobs)
	if len(includes) > 0 && !matchAnyGlob(rp, includes) {
		return false
	}
	if len(excludes) > 0 && matchAnyGlob(rp, excludes) {
		return false
	}
	return true
}

func parseGlobsList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p, trimGlobPrefix(p))
		}
	}
	return out
}

func matchAnyGlob(pathToMatch string, globs []string) bool {
	base := pathToMatch
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, pathToMatch); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, base); ok {
			return true
		}
	}
	return false
}

func trimGlobPrefix(g string) string {
	s := strings.TrimPrefix(g, "./")
	for strings.HasPrefix(s, "**/") {
		s = strings.TrimPrefix(s, "**/")
	}
	return s
}

func readTarget(t Target) ([]byte, error) {
	return os.ReadFile(t.Path)
}
