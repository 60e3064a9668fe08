// Package config loads rephrase.toml and resolves it against defaults and
// the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"
	"github.com/roelfdiedericks/rephrase/internal/browser"
	"github.com/roelfdiedericks/rephrase/internal/llm"
	"github.com/roelfdiedericks/rephrase/internal/logging"
	"github.com/roelfdiedericks/rephrase/internal/paths"
	"github.com/roelfdiedericks/rephrase/internal/recovery"
	"github.com/roelfdiedericks/rephrase/internal/relay"
	"github.com/roelfdiedericks/rephrase/internal/replace"
	"github.com/roelfdiedericks/rephrase/internal/selection"
)

// Config represents the merged rephrase configuration
type Config struct {
	Logging LoggingConfig         `toml:"logging"`
	Browser browser.BrowserConfig `toml:"browser"`
	Backend llm.ProviderConfig    `toml:"backend"`
	Replace ReplaceConfig         `toml:"replace"`
	History HistoryConfig         `toml:"history"`
}

type LoggingConfig struct {
	Level      string `toml:"level"` // trace, debug, info, warn, error
	File       string `toml:"file"`  // Log file (empty = stderr)
	ShowCaller bool   `toml:"show_caller"`
}

type ReplaceConfig struct {
	ProbeTimeout        string                  `toml:"probe_timeout"`         // Per-frame selection probe
	RelayTimeout        string                  `toml:"relay_timeout"`         // Replace command round trip
	PresentTimeout      string                  `toml:"present_timeout"`       // Per recovery presenter
	DefaultInstruction  string                  `toml:"default_instruction"`   // Used when the instruction is left blank
	DisableDefaultHosts bool                    `toml:"disable_default_hosts"` // Only use the hosts listed here
	Hosts               []replace.HostSignature `toml:"hosts"`
}

type HistoryConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"` // Empty = ~/.rephrase/history.db
}

// Default returns the configuration used when no file sets a value.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		Browser: browser.DefaultBrowserConfig(),
		Backend: llm.ProviderConfig{
			Provider:  "gemini",
			Model:     llm.DefaultGeminiModel,
			MaxTokens: llm.DefaultMaxOutputTokens,
		},
		Replace: ReplaceConfig{
			ProbeTimeout:   selection.DefaultProbeTimeout.String(),
			RelayTimeout:   relay.DefaultTimeout.String(),
			PresentTimeout: recovery.DefaultPresentTimeout.String(),
		},
		History: HistoryConfig{Enabled: true},
	}
}

// Load reads the config file at path, or the first of ./rephrase.toml and
// ~/.rephrase/rephrase.toml when path is empty. A missing file is not an
// error. Environment overrides are applied last. Returns the file used.
func Load(path string) (*Config, string, error) {
	cfg := Default()

	if path == "" {
		found, err := paths.ConfigPath()
		if err != nil {
			return nil, "", err
		}
		path = found
	}

	if path != "" {
		expanded, err := paths.ExpandTilde(path)
		if err != nil {
			return nil, "", err
		}
		path = expanded

		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, "", fmt.Errorf("failed to parse %s: %w", path, err)
		}
		for _, key := range md.Undecoded() {
			logging.L_warn("config: unknown key ignored", "key", key.String(), "file", path)
		}
		logging.L_debug("config: loaded", "path", path)
	} else {
		logging.L_debug("config: no config file, using defaults")
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// ApplyEnv overlays values from the environment. A provider-specific key
// (GEMINI_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY) beats REPHRASE_API_KEY.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	var env Config
	env.Backend.Provider = getenv("REPHRASE_PROVIDER")
	env.Backend.Model = getenv("REPHRASE_MODEL")
	env.Browser.CDP = getenv("REPHRASE_CDP")
	env.Logging.Level = getenv("REPHRASE_LOG_LEVEL")

	provider := c.Backend.Provider
	if env.Backend.Provider != "" {
		provider = env.Backend.Provider
	}
	env.Backend.APIKey = getenv("REPHRASE_API_KEY")
	if key := getenv(providerKeyEnv(provider)); key != "" {
		env.Backend.APIKey = key
	}

	return c.Merge(&env)
}

// Merge overlays every non-zero field of o onto c.
func (c *Config) Merge(o *Config) error {
	if err := mergo.Merge(c, o, mergo.WithOverride); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func providerKeyEnv(provider string) string {
	switch strings.ToLower(provider) {
	case "openai":
		return "OPENAI_API_KEY"
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	default:
		return "GEMINI_API_KEY"
	}
}

// LogLevel returns the configured level as a logging constant.
func (c *Config) LogLevel() int {
	return logging.ParseLevel(c.Logging.Level)
}

// ResolveProbeTimeout returns the per-frame probe timeout.
func (c *Config) ResolveProbeTimeout() time.Duration {
	return resolveDuration(c.Replace.ProbeTimeout, selection.DefaultProbeTimeout)
}

// ResolveRelayTimeout returns the replace round-trip timeout.
func (c *Config) ResolveRelayTimeout() time.Duration {
	return resolveDuration(c.Replace.RelayTimeout, relay.DefaultTimeout)
}

// ResolvePresentTimeout returns the per-presenter timeout.
func (c *Config) ResolvePresentTimeout() time.Duration {
	return resolveDuration(c.Replace.PresentTimeout, recovery.DefaultPresentTimeout)
}

// Hosts returns the host signatures in match order: configured ones first,
// then the built-in ones unless disabled.
func (c *Config) Hosts() []replace.HostSignature {
	hosts := append([]replace.HostSignature(nil), c.Replace.Hosts...)
	if !c.Replace.DisableDefaultHosts {
		hosts = append(hosts, replace.DefaultHosts()...)
	}
	return hosts
}

// Instruction returns instruction, or the configured default when blank.
// An empty result means the backend's own default applies.
func (c *Config) Instruction(instruction string) string {
	if strings.TrimSpace(instruction) != "" {
		return instruction
	}
	return c.Replace.DefaultInstruction
}

// HistoryPath returns the journal path, or "" when history is disabled.
func (c *Config) HistoryPath() (string, error) {
	if !c.History.Enabled {
		return "", nil
	}
	if c.History.Path != "" {
		return paths.ExpandTilde(c.History.Path)
	}
	return paths.DefaultHistoryPath()
}

func resolveDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		logging.L_warn("config: invalid duration, using default", "value", s, "default", fallback)
		return fallback
	}
	return d
}
