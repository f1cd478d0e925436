package hostpage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSitesMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadSites(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadSites: %v", err)
	}
	sel, err := cfg.For("chatgpt")
	if err != nil {
		t.Fatal(err)
	}
	if len(sel.Compose) == 0 || sel.MessageIDAttr != "data-message-id" {
		t.Errorf("chatgpt defaults wrong: %+v", sel)
	}
	if _, err := cfg.For("gemini"); err != nil {
		t.Error("gemini default missing")
	}
}

func TestLoadSitesOverrideReplacesEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.yaml")
	data := "sites:\n  chatgpt:\n    compose: [\"#custom\"]\n    submit: [\"#go\"]\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadSites(path)
	if err != nil {
		t.Fatalf("LoadSites: %v", err)
	}
	sel, err := cfg.For("chatgpt")
	if err != nil {
		t.Fatal(err)
	}
	if len(sel.Compose) != 1 || sel.Compose[0] != "#custom" {
		t.Errorf("override not applied: %+v", sel)
	}
	// Untouched sites keep defaults.
	if _, err := cfg.For("gemini"); err != nil {
		t.Error("override dropped default site")
	}
}

func TestLoadSitesBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.yaml")
	if err := os.WriteFile(path, []byte("sites: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSites(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestForUnknownSite(t *testing.T) {
	cfg := DefaultSites()
	if _, err := cfg.For("myspace"); err == nil {
		t.Error("expected unknown-site error")
	}
}
