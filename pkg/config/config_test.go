package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Port != 5000 {
		t.Errorf("Port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Agent.Name != "TellTimeAgent" {
		t.Errorf("Agent.Name = %q, want %q", cfg.Agent.Name, "TellTimeAgent")
	}
	if cfg.Responder.Kind != "clock" {
		t.Errorf("Responder.Kind = %q, want %q", cfg.Responder.Kind, "clock")
	}
	if !cfg.Store.Audit {
		t.Error("Store.Audit should default to true")
	}
}

func TestLoadNonExistent(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("Port = %d, want 5000", cfg.Server.Port)
	}
}

func TestLoadValid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticktock.toml")

	content := `
[server]
port = 9999
bind = "lan"
external_url = "https://agents.example.com"

[agent]
name = "Clockwork"
version = "2.1.0"

[[agent.skills]]
id = "time"
name = "Tell time"
tags = ["clock"]

[responder]
kind = "gemini"
model = "gemini-2.5-pro"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Server.Bind != "lan" {
		t.Errorf("Bind = %q, want %q", cfg.Server.Bind, "lan")
	}
	if cfg.Agent.Name != "Clockwork" {
		t.Errorf("Agent.Name = %q, want %q", cfg.Agent.Name, "Clockwork")
	}
	if cfg.Agent.Description != "Tells the current time when asked" {
		t.Errorf("Agent.Description = %q, want the default to survive", cfg.Agent.Description)
	}
	if len(cfg.Agent.Skills) != 1 || cfg.Agent.Skills[0].ID != "time" {
		t.Errorf("Skills = %+v, want one skill with id time", cfg.Agent.Skills)
	}
	if cfg.Responder.Kind != "gemini" || cfg.Responder.Model != "gemini-2.5-pro" {
		t.Errorf("Responder = %+v, want gemini/gemini-2.5-pro", cfg.Responder)
	}
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	os.WriteFile(path, []byte("not [valid toml"), 0644)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid TOML")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TICKTOCK_PORT", "7070")
	t.Setenv("TICKTOCK_RESPONDER", "echo")
	t.Setenv("TICKTOCK_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Responder.Kind != "echo" {
		t.Errorf("Responder.Kind = %q, want %q", cfg.Responder.Kind, "echo")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
}

func TestEnvInvalidPort(t *testing.T) {
	t.Setenv("TICKTOCK_PORT", "not-a-port")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for invalid TICKTOCK_PORT")
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("TICKTOCK_TEST_DOTENV=from-file\nTICKTOCK_TEST_KEEP=from-file\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TICKTOCK_TEST_DOTENV", "")
	os.Unsetenv("TICKTOCK_TEST_DOTENV")
	t.Setenv("TICKTOCK_TEST_KEEP", "from-env")

	if err := LoadDotEnv(path, filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("TICKTOCK_TEST_DOTENV"); got != "from-file" {
		t.Errorf("TICKTOCK_TEST_DOTENV = %q, want %q", got, "from-file")
	}
	if got := os.Getenv("TICKTOCK_TEST_KEEP"); got != "from-env" {
		t.Errorf("TICKTOCK_TEST_KEEP = %q, want existing value kept", got)
	}
}

func TestAPIKeyFallback(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("CUSTOM_KEY", "")

	rc := ResponderConfig{APIKeyEnv: "CUSTOM_KEY"}
	if got := rc.APIKey(); got != "gemini-key" {
		t.Errorf("APIKey = %q, want %q", got, "gemini-key")
	}

	t.Setenv("CUSTOM_KEY", "custom")
	if got := rc.APIKey(); got != "custom" {
		t.Errorf("APIKey = %q, want %q", got, "custom")
	}
}

func TestDataDirEnv(t *testing.T) {
	t.Setenv("TICKTOCK_DATA_DIR", "/tmp/custom-ticktock")
	if dir := DataDir(); dir != "/tmp/custom-ticktock" {
		t.Errorf("DataDir = %q, want /tmp/custom-ticktock", dir)
	}
	if p := DefaultConfigPath(); p != "/tmp/custom-ticktock/ticktock.toml" {
		t.Errorf("DefaultConfigPath = %q", p)
	}
}

func TestLoadReturnsIndependentConfigs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")
	first, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	first.Agent.Name = "Changed"

	second, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if second == first || second.Agent.Name != "TellTimeAgent" {
		t.Errorf("second Load shares state with the first: %+v", second.Agent)
	}
}
