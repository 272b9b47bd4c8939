package cache

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/varalys/contentguard/internal/types"
)

// DB maps content hashes to the scan result they produced under the rule set
// identified by Fingerprint.
type DB struct {
	Fingerprint string                      `json:"fingerprint"`
	Entries     map[string]types.ScanResult `json:"entries"`
}

func stateDir(root string) string {
	// Prefer .git so cache files are never committed by accident
	gitDir := filepath.Join(root, ".git")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		return gitDir
	}
	return root
}

func defaultPath(root string) string {
	dir := stateDir(root)
	if dir == root {
		return filepath.Join(root, ".contentguardcache.json")
	}
	return filepath.Join(dir, "contentguardcache.json")
}

// Load reads the cache for root. Entries recorded under a different rule-set
// fingerprint are dropped. The returned DB is always usable.
func Load(root, fingerprint string) (DB, error) {
	fresh := DB{Fingerprint: fingerprint, Entries: map[string]types.ScanResult{}}
	f, err := os.ReadFile(defaultPath(root))
	if err != nil {
		return fresh, err
	}
	var db DB
	if err := json.Unmarshal(f, &db); err != nil {
		return fresh, err
	}
	if db.Fingerprint != fingerprint || db.Entries == nil {
		return fresh, nil
	}
	return db, nil
}

// Save writes db for root.
func Save(root string, db DB) error {
	if db.Entries == nil {
		return errors.New("empty cache")
	}
	b, err := json.Marshal(db)
	if err != nil {
		return err
	}
	return os.WriteFile(defaultPath(root), b, 0644)
}
