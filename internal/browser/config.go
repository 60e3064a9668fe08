package browser

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/devices"
)

// BrowserConfig holds browser configuration
type BrowserConfig struct {
	CDP          string `toml:"cdp"`           // DevTools endpoint of a running Chrome (empty = launch one)
	AllowRemote  bool   `toml:"allow_remote"`  // Allow a non-loopback CDP endpoint
	Dir          string `toml:"dir"`           // Browser data directory (empty = ~/.rephrase/browser)
	Bin          string `toml:"bin"`           // Chrome binary for launched browsers (empty = download)
	AutoDownload bool   `toml:"auto_download"` // Download Chromium if Bin is empty and none is cached
	Headless     bool   `toml:"headless"`      // Run launched browsers headless
	NoSandbox    bool   `toml:"no_sandbox"`    // Disable Chrome's sandbox (needed for Docker/root)
	Profile      string `toml:"profile"`       // Profile directory name for launched browsers
	Stealth      bool   `toml:"stealth"`       // Open launched pages with go-rod/stealth
	Device       string `toml:"device"`        // Device emulation: "clear", "laptop", "laptop-hidpi"
	Target       string `toml:"target"`        // URL substring selecting the tab (empty = first page)
	StartURL     string `toml:"start_url"`     // Page opened in a launched browser
	Timeout      string `toml:"timeout"`       // CDP call timeout (e.g., "10s")
}

// DefaultBrowserConfig returns the default browser configuration
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		CDP:          "",
		AutoDownload: true,
		Headless:     false, // recovery needs a visible page
		Profile:      "default",
		Stealth:      true,
		Device:       "clear",
		Timeout:      "10s",
	}
}

// Launched reports whether the manager starts its own browser.
func (c *BrowserConfig) Launched() bool {
	return c.CDP == ""
}

// ResolveDir returns the browser directory, defaulting to <base>/browser
func (c *BrowserConfig) ResolveDir(baseDir string) string {
	if c.Dir != "" {
		return c.Dir
	}
	return filepath.Join(baseDir, "browser")
}

// ResolveBinDir returns the chromium download directory
func (c *BrowserConfig) ResolveBinDir(baseDir string) string {
	return filepath.Join(c.ResolveDir(baseDir), "bin")
}

// ResolveProfileDir returns the user data directory for the configured profile
func (c *BrowserConfig) ResolveProfileDir(baseDir string) string {
	profile := c.Profile
	if profile == "" {
		profile = "default"
	}
	return filepath.Join(c.ResolveDir(baseDir), "profiles", profile)
}

// ResolveTimeout returns the timeout as a Duration
func (c *BrowserConfig) ResolveTimeout() time.Duration {
	if c.Timeout == "" {
		return 10 * time.Second
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// ResolveDevice returns the devices.Device for the configured device name.
// Unknown names fall back to devices.Clear (no emulation).
func (c *BrowserConfig) ResolveDevice() devices.Device {
	switch strings.ToLower(c.Device) {
	case "laptop", "laptop-mdpi":
		return devices.LaptopWithMDPIScreen
	case "laptop-hidpi":
		return devices.LaptopWithHiDPIScreen
	case "laptop-touch":
		return devices.LaptopWithTouch
	default:
		return devices.Clear
	}
}
