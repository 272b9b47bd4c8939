package engine

import "strings"

var defaultExcludeDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"out":          true,
	".venv":        true,
	"venv":         true,
	"__pycache__":  true,
	"coverage":     true,
	"bin":          true,
	"obj":          true,
}

// suffixes of archives, executables and other noisy artifacts skipped when
// default excludes are enabled. Images are not listed: their metadata is
// scanned.
var defaultExcludeFileSuffixes = []string{
	".min.js", ".map",
	".pdf", ".zip", ".gz", ".tar", ".tgz", ".7z",
	".jar", ".class", ".exe", ".dll", ".so",
	".wasm", ".pyc",
	".mp3", ".mp4", ".mov", ".wav",
}

var defaultExcludeFileNames = map[string]bool{
	"yarn.lock":         true,
	"package-lock.json": true,
	"pnpm-lock.yaml":    true,
	"composer.lock":     true,
	"poetry.lock":       true,
	".DS_Store":         true,
}

// files written by contentguard itself. They echo matched text, so they are
// never scanned.
var stateFileNames = map[string]bool{
	".contentguardcache.json":      true,
	"contentguardcache.json":       true,
	".contentguard_last_scan.json": true,
	".contentguard_audit.jsonl":    true,
	"contentguard.baseline.json":   true,
}

func isDefaultDirExcluded(name string) bool {
	return defaultExcludeDirs[name] || strings.HasPrefix(name, ".git")
}

func isDefaultFileExcluded(lowerRel string) bool {
	if strings.HasSuffix(lowerRel, ".lock") {
		return true
	}
	for _, s := range defaultExcludeFileSuffixes {
		if strings.HasSuffix(lowerRel, s) {
			return true
		}
	}
	return defaultExcludeFileNames[baseName(lowerRel)]
}

func isStateFile(rel string) bool {
	return stateFileNames[baseName(rel)]
}

func baseName(rel string) string {
	rel = strings.ReplaceAll(rel, "\\", "/")
	if i := strings.LastIndexByte(rel, '/'); i >= 0 {
		return rel[i+1:]
	}
	return rel
}
