package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rephrase.toml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
[backend]
provider = "openai"
model = "gpt-4o"

[browser]
cdp = "http://localhost:9222"
stealth = false

[replace]
relay_timeout = "8s"

[[replace.hosts]]
name = "intranet"
hostnames = ["*.corp.example"]
markers = [".wiki-editor"]
`)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("REPHRASE_API_KEY", "generic")

	cfg, used, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if used != path {
		t.Errorf("used = %q, want %q", used, path)
	}
	if cfg.Backend.Provider != "openai" || cfg.Backend.Model != "gpt-4o" {
		t.Errorf("backend = %+v", cfg.Backend)
	}
	if cfg.Backend.APIKey != "sk-test" {
		t.Errorf("provider-specific key should win, got %q", cfg.Backend.APIKey)
	}
	if cfg.Browser.Stealth {
		t.Error("stealth = false in file must override the default")
	}
	if cfg.Browser.Profile != "default" {
		t.Errorf("unset keys keep defaults, profile = %q", cfg.Browser.Profile)
	}
	if cfg.ResolveRelayTimeout() != 8*time.Second {
		t.Errorf("relay timeout = %v", cfg.ResolveRelayTimeout())
	}
	if cfg.ResolveProbeTimeout() != 2*time.Second {
		t.Errorf("probe timeout = %v", cfg.ResolveProbeTimeout())
	}

	hosts := cfg.Hosts()
	if len(hosts) < 2 || hosts[0].Name != "intranet" {
		t.Fatalf("configured hosts should come first: %+v", hosts)
	}
	if !hosts[0].MatchesHost("docs.corp.example") {
		t.Error("wildcard host not decoded")
	}
}

func TestLoadMissingPathUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("REPHRASE_API_KEY", "")

	cfg, used, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if used != "" {
		t.Errorf("no file should be used, got %q", used)
	}
	if cfg.Backend.Provider != "gemini" || !cfg.History.Enabled {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadRejectsBadToml(t *testing.T) {
	path := writeConfig(t, "[backend\nprovider = ")
	if _, _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestApplyEnvGenericKey(t *testing.T) {
	cfg := Default()
	env := map[string]string{
		"REPHRASE_API_KEY": "generic",
		"REPHRASE_CDP":     "ws://127.0.0.1:9222/devtools/browser/x",
	}
	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Backend.APIKey != "generic" {
		t.Errorf("APIKey = %q", cfg.Backend.APIKey)
	}
	if cfg.Browser.CDP != env["REPHRASE_CDP"] || cfg.Browser.Launched() {
		t.Errorf("CDP = %q", cfg.Browser.CDP)
	}
	if cfg.Backend.Model == "" {
		t.Error("empty env values must not clear settings")
	}
}

func TestDisableDefaultHosts(t *testing.T) {
	cfg := Default()
	cfg.Replace.DisableDefaultHosts = true
	if len(cfg.Hosts()) != 0 {
		t.Errorf("hosts = %+v", cfg.Hosts())
	}
}

func TestInstructionFallback(t *testing.T) {
	cfg := Default()
	if cfg.Instruction("  ") != "" {
		t.Error("blank instruction without configured default stays blank")
	}
	cfg.Replace.DefaultInstruction = "make it concise"
	if cfg.Instruction("") != "make it concise" {
		t.Error("configured default not used")
	}
	if cfg.Instruction("shorter") != "shorter" {
		t.Error("explicit instruction must win")
	}
}

func TestInvalidDurationFallsBack(t *testing.T) {
	cfg := Default()
	cfg.Replace.PresentTimeout = "soon"
	if cfg.ResolvePresentTimeout() != 5*time.Second {
		t.Errorf("present timeout = %v", cfg.ResolvePresentTimeout())
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "rephrase.toml")
	cfg := Default()
	cfg.Backend.Provider = "anthropic"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if _, err := os.Stat(path + ".bak"); err != nil {
		t.Errorf("second save should leave a backup: %v", err)
	}

	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("REPHRASE_API_KEY", "")
	got, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Backend.Provider != "anthropic" || got.Browser.Timeout != cfg.Browser.Timeout {
		t.Errorf("round trip lost values: %+v", got.Backend)
	}
}
