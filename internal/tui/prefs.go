package tui

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Prefs are viewer settings remembered between sessions.
type Prefs struct {
	ShowLegend bool `json:"show_legend"`
	// SourceView opens analyses with syntax colouring instead of match
	// highlights.
	SourceView bool `json:"source_view"`
}

func DefaultPrefs() Prefs {
	return Prefs{ShowLegend: true}
}

// prefsFile is ~/.contentguard/tui_prefs.json.
func prefsFile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate prefs: %w", err)
	}
	return filepath.Join(home, ".contentguard", "tui_prefs.json"), nil
}

// LoadPrefs reads saved preferences. Missing or unreadable files yield
// DefaultPrefs; keys absent from the file keep their default value.
func LoadPrefs() Prefs {
	path, err := prefsFile()
	if err != nil {
		return DefaultPrefs()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return DefaultPrefs()
	}
	p := DefaultPrefs()
	if err := json.Unmarshal(raw, &p); err != nil {
		return DefaultPrefs()
	}
	return p
}

// SavePrefs writes p atomically through a temp file in the same directory.
func SavePrefs(p Prefs) error {
	path, err := prefsFile()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	buf, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "tui_prefs-*.json")
	if err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
