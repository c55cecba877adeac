package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.CallbackTimeoutSeconds != DefaultCallbackTimeoutSeconds {
		t.Errorf("CallbackTimeoutSeconds = %d, want default %d", cfg.CallbackTimeoutSeconds, DefaultCallbackTimeoutSeconds)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("client-id: abc123\nscope: publicData\nredirect-uri: http://localhost:9000/cb/\ncallback-timeout: 60\ndebug: true\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.ClientID != "abc123" {
		t.Errorf("ClientID = %q", cfg.ClientID)
	}
	if cfg.Scope != "publicData" {
		t.Errorf("Scope = %q", cfg.Scope)
	}
	if cfg.RedirectURI != "http://localhost:9000/cb/" {
		t.Errorf("RedirectURI = %q", cfg.RedirectURI)
	}
	if !cfg.Debug {
		t.Error("Debug not set")
	}
	if got := cfg.CallbackTimeout(); got != time.Minute {
		t.Errorf("CallbackTimeout() = %s, want 1m", got)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("client-id: [unclosed"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("EVESSO_CLIENT_ID", "env-client")
	t.Setenv("EVESSO_SCOPE", "env-scope")

	cfg := &Config{ClientID: "file-client", Scope: "file-scope"}
	cfg.ApplyEnv()

	if cfg.ClientID != "env-client" {
		t.Errorf("ClientID = %q, want env-client", cfg.ClientID)
	}
	if cfg.Scope != "env-scope" {
		t.Errorf("Scope = %q, want env-scope", cfg.Scope)
	}
}

func TestValidate(t *testing.T) {
	if err := (&Config{}).Validate(); err == nil {
		t.Error("expected error for missing client-id")
	}
	if err := (&Config{ClientID: "abc"}).Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestCallbackTimeoutUnbounded(t *testing.T) {
	cfg := &Config{CallbackTimeoutSeconds: 0}
	if got := cfg.CallbackTimeout(); got != 0 {
		t.Errorf("CallbackTimeout() = %s, want 0 (no deadline)", got)
	}
}
