package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sublive/sublive/caption"
	"github.com/sublive/sublive/config"
)

func TestVersionCommand(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.HasPrefix(out.String(), "sublive ") {
		t.Errorf("output = %q, want sublive prefix", out.String())
	}
}

func TestConfigShowCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := config.Default()
	cfg.TargetLanguage = "ja"
	cfg.Speech.APIKey = "sk-1234567890abcdef"
	if err := cfg.SaveFile(path); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "show", "--config", path})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out.String(), "ja") {
		t.Errorf("output missing target language:\n%s", out.String())
	}
	if strings.Contains(out.String(), "sk-1234567890abcdef") {
		t.Error("output leaks the full API key")
	}
}

func TestConfigSetCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cmd := newRootCommand()
	cmd.SetArgs([]string{"config", "set", "target_language", "fr", "--config", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.TargetLanguage != "fr" {
		t.Errorf("TargetLanguage = %q, want fr", cfg.TargetLanguage)
	}
}

func TestApplySetting(t *testing.T) {
	cfg := config.Default()

	if err := applySetting(cfg, "max_visible_lines", "5"); err != nil {
		t.Fatalf("applySetting: %v", err)
	}
	if cfg.MaxVisibleLines != 5 {
		t.Errorf("MaxVisibleLines = %d, want 5", cfg.MaxVisibleLines)
	}

	if err := applySetting(cfg, "max_visible_lines", "many"); err == nil {
		t.Error("expected error for non-integer value")
	}
	if err := applySetting(cfg, "nope", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestMaskKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "(unset)"},
		{"short", "****"},
		{"sk-1234567890abcdef", "sk-1...cdef"},
	}
	for _, tt := range tests {
		if got := maskKey(tt.in); got != tt.want {
			t.Errorf("maskKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPrintCaptionsEmptyIsQuiet(t *testing.T) {
	// Must not panic or print for an empty update (display cleared).
	printCaptions(nil)
	printCaptions([]caption.Line{})
}
