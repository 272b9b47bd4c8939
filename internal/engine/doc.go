// Package engine turns files into analyses. It selects targets from a
// directory tree (globs, ignore file, default excludes, size limit), derives
// the text to scan for each, runs the scanner on a worker pool and reuses
// cached verdicts for unchanged content. External consumers should use the
// stable facade in pkg/core.
package engine
