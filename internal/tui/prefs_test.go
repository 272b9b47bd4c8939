package tui

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPrefs(t *testing.T) {
	if !DefaultPrefs().ShowLegend {
		t.Error("DefaultPrefs().ShowLegend should be true")
	}
}

func TestLoadPrefs_NoFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if !LoadPrefs().ShowLegend {
		t.Error("LoadPrefs() with no file should return defaults")
	}
}

func TestSaveAndLoadPrefs(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	if err := SavePrefs(Prefs{ShowLegend: false}); err != nil {
		t.Fatalf("SavePrefs failed: %v", err)
	}
	prefsFile := filepath.Join(tmpDir, ".contentguard", "tui_prefs.json")
	if _, err := os.Stat(prefsFile); os.IsNotExist(err) {
		t.Fatal("prefs file was not created")
	}
	if LoadPrefs().ShowLegend {
		t.Error("Loaded prefs should have ShowLegend=false")
	}

	if err := SavePrefs(Prefs{ShowLegend: true}); err != nil {
		t.Fatalf("SavePrefs failed: %v", err)
	}
	if !LoadPrefs().ShowLegend {
		t.Error("Loaded prefs should have ShowLegend=true")
	}
}

func TestSavePrefs_SourceViewAndMissingKeys(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	if err := SavePrefs(Prefs{ShowLegend: false, SourceView: true}); err != nil {
		t.Fatalf("SavePrefs failed: %v", err)
	}
	got := LoadPrefs()
	if got.ShowLegend || !got.SourceView {
		t.Errorf("unexpected prefs after round trip: %+v", got)
	}
	entries, err := os.ReadDir(filepath.Join(tmpDir, ".contentguard"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}

	// a file written before source_view existed keeps the other defaults
	if err := os.WriteFile(filepath.Join(tmpDir, ".contentguard", "tui_prefs.json"), []byte(`{"source_view": true}`), 0600); err != nil {
		t.Fatal(err)
	}
	got = LoadPrefs()
	if !got.ShowLegend || !got.SourceView {
		t.Errorf("missing keys should keep defaults, got %+v", got)
	}
}

func TestLoadPrefs_Corrupt(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	dir := filepath.Join(tmpDir, ".contentguard")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "tui_prefs.json"), []byte("{"), 0600); err != nil {
		t.Fatal(err)
	}
	if !LoadPrefs().ShowLegend {
		t.Error("corrupt prefs should fall back to defaults")
	}
}
