package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bobmcallan/venice-mcp/internal/config"
)

func TestToolsCmd_ListsCatalog(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"tools"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	text := out.String()
	for _, want := range []string{"venice_chat", "POST", "/chat/completions", "venice_delete_api_key", "DELETE", "venice_get_version"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, text)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), config.GetVersion()) {
		t.Errorf("Expected version in output, got %q", out.String())
	}
}

func TestRootCmd_MissingAPIKeyFails(t *testing.T) {
	t.Setenv("VENICE_API_KEY", "")
	t.Chdir(t.TempDir())

	cmd := newRootCmd()
	var stderr bytes.Buffer
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	if !errors.Is(err, config.ErrMissingAPIKey) {
		t.Fatalf("Expected ErrMissingAPIKey, got %v", err)
	}
	if !strings.Contains(stderr.String(), "VENICE_API_KEY") {
		t.Errorf("Expected diagnostic on stderr, got %q", stderr.String())
	}
}

func TestRootCmd_BadConfigFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("not = [valid"), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := newRootCmd()
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", path})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "failed to load configuration") {
		t.Fatalf("Expected configuration error, got %v", err)
	}
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := loadConfig(&serveFlags{port: 9999, host: "0.0.0.0"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Expected port 9999, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Expected host 0.0.0.0, got %s", cfg.Server.Host)
	}
}

func TestConfigSearchPaths_Deduplicated(t *testing.T) {
	paths := configSearchPaths()
	seen := map[string]bool{}
	for _, p := range paths {
		abs, _ := filepath.Abs(p)
		if seen[abs] {
			t.Errorf("duplicate search path %s", p)
		}
		seen[abs] = true
	}
}
