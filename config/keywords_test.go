package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultKeywordConfigComplete(t *testing.T) {
	kw := DefaultKeywordConfig()
	if len(kw.Categories) == 0 {
		t.Fatal("expected default categories")
	}
	for _, rule := range kw.Categories {
		if rule.Type == "" || len(rule.Keywords) == 0 {
			t.Fatalf("incomplete category rule: %+v", rule)
		}
	}
	if len(kw.ComprehensiveSet) != 5 {
		t.Fatalf("expected 5 datasets in comprehensive set, got %d", len(kw.ComprehensiveSet))
	}
	for typ := range kw.DatasetsByType {
		found := false
		for _, rule := range kw.Categories {
			if rule.Type == typ {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("dataset mapping references unknown type %q", typ)
		}
	}
}

func TestLoadKeywordConfigMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `keywords:
  greetings: ["yo", "howdy"]
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	kw, err := LoadKeywordConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(kw.Greetings) != 2 || kw.Greetings[0] != "yo" {
		t.Fatalf("greetings override not applied: %v", kw.Greetings)
	}
	if len(kw.Categories) == 0 {
		t.Fatal("unspecified tables should keep defaults")
	}
	if len(kw.AgricultureTerms) == 0 {
		t.Fatal("agriculture terms should keep defaults")
	}
}

func TestLoadKeywordConfigMissingFile(t *testing.T) {
	kw, err := LoadKeywordConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if len(kw.Categories) == 0 {
		t.Fatal("missing file should still return defaults")
	}
}

func TestHasAgricultureTerm(t *testing.T) {
	kw := DefaultKeywordConfig()
	if !kw.HasAgricultureTerm("When should I harvest my RICE paddy?") {
		t.Fatal("expected agriculture term match")
	}
	if kw.HasAgricultureTerm("what is the capital of france") {
		t.Fatal("unexpected agriculture term match")
	}
}
