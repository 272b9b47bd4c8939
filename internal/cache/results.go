package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/varalys/contentguard/internal/types"
)

// ScanResults stores the analyses and metadata from the last scan.
type ScanResults struct {
	Analyses  []types.Analysis `json:"analyses"`
	Timestamp time.Time        `json:"timestamp"`
	Root      string           `json:"root"`
	Count     int              `json:"count"`
}

func resultsPath(root string) string {
	dir := stateDir(root)
	if dir == root {
		return filepath.Join(root, ".contentguard_last_scan.json")
	}
	return filepath.Join(dir, "contentguard_last_scan.json")
}

// SaveResults saves the last scan's analyses, content included, so the
// viewer can re-render highlights without rescanning.
func SaveResults(root string, analyses []types.Analysis) error {
	results := ScanResults{
		Analyses:  analyses,
		Timestamp: time.Now(),
		Root:      root,
		Count:     len(analyses),
	}
	b, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(resultsPath(root), b, 0600)
}

// LoadResults loads the last scan results.
func LoadResults(root string) (ScanResults, error) {
	var results ScanResults
	f, err := os.ReadFile(resultsPath(root))
	if err != nil {
		return results, err
	}
	if err := json.Unmarshal(f, &results); err != nil {
		return results, err
	}
	return results, nil
}
