package browser

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/devices"
)

func TestResolveTimeout(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 10 * time.Second},
		{"3s", 3 * time.Second},
		{"bogus", 10 * time.Second},
		{"-1s", 10 * time.Second},
	}
	for _, tt := range tests {
		c := BrowserConfig{Timeout: tt.in}
		if got := c.ResolveTimeout(); got != tt.want {
			t.Errorf("ResolveTimeout(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestResolveDirs(t *testing.T) {
	c := DefaultBrowserConfig()
	if got := c.ResolveProfileDir("/base"); got != filepath.Join("/base", "browser", "profiles", "default") {
		t.Errorf("ResolveProfileDir = %q", got)
	}
	c.Dir = "/custom"
	c.Profile = "work"
	if got := c.ResolveProfileDir("/base"); got != filepath.Join("/custom", "profiles", "work") {
		t.Errorf("ResolveProfileDir with dir = %q", got)
	}
	if got := c.ResolveBinDir("/base"); got != filepath.Join("/custom", "bin") {
		t.Errorf("ResolveBinDir = %q", got)
	}
}

func TestResolveDevice(t *testing.T) {
	c := BrowserConfig{Device: "laptop-hidpi"}
	if c.ResolveDevice().Title != devices.LaptopWithHiDPIScreen.Title {
		t.Error("laptop-hidpi not resolved")
	}
	c.Device = "unknown-phone"
	if c.ResolveDevice().Title != devices.Clear.Title {
		t.Error("unknown device should fall back to clear")
	}
}

func TestLaunched(t *testing.T) {
	c := DefaultBrowserConfig()
	if !c.Launched() {
		t.Error("default config launches a browser")
	}
	c.CDP = "http://localhost:9222"
	if c.Launched() {
		t.Error("a CDP endpoint means connect, not launch")
	}
}

func TestCleanupStaleLocks(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"SingletonLock", "SingletonSocket", "Preferences"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0600); err != nil {
			t.Fatal(err)
		}
	}
	cleanupStaleLocks(dir)

	if _, err := os.Stat(filepath.Join(dir, "SingletonLock")); !os.IsNotExist(err) {
		t.Error("SingletonLock should be removed")
	}
	if _, err := os.Stat(filepath.Join(dir, "Preferences")); err != nil {
		t.Error("non-lock files must be kept")
	}
}

func TestDownloaderFindExistingMissingDir(t *testing.T) {
	d := NewDownloader(filepath.Join(t.TempDir(), "nope"))
	if _, err := d.FindExisting(); err == nil {
		t.Error("expected error for missing bin dir")
	}
}
