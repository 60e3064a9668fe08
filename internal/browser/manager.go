// Package browser drives Chrome over the DevTools protocol and exposes one
// tab as the frame-level surfaces the engine works against.
package browser

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/roelfdiedericks/rephrase/internal/failure"
	. "github.com/roelfdiedericks/rephrase/internal/logging"
)

// Manager owns the browser connection. A configured CDP endpoint is
// connected to and never closed; otherwise a browser is launched and
// closed with the manager.
type Manager struct {
	config     BrowserConfig
	baseDir    string
	downloader *Downloader

	mu      sync.Mutex
	browser *rod.Browser
	page    *rod.Page // page opened in a launched browser
}

// NewManager creates a manager. baseDir holds downloaded binaries and
// profiles for launched browsers.
func NewManager(cfg BrowserConfig, baseDir string) *Manager {
	m := &Manager{
		config:     cfg,
		baseDir:    baseDir,
		downloader: NewDownloader(cfg.ResolveBinDir(baseDir)),
	}
	L_debug("browser: manager created",
		"cdp", cfg.CDP,
		"launched", cfg.Launched(),
		"headless", cfg.Headless,
		"stealth", cfg.Stealth,
	)
	return m
}

// Config returns the current configuration
func (m *Manager) Config() BrowserConfig {
	return m.config
}

// Browser returns the connected browser, connecting or launching lazily.
// A dead connection is replaced.
func (m *Manager) Browser() (*rod.Browser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.browser != nil {
		if m.alive(m.browser) {
			return m.browser, nil
		}
		L_debug("browser: connection lost, reconnecting")
		m.browser, m.page = nil, nil
	}

	var (
		b   *rod.Browser
		err error
	)
	if m.config.Launched() {
		b, err = m.launch()
	} else {
		b, err = m.connect()
	}
	if err != nil {
		return nil, err
	}
	m.browser = b
	return b, nil
}

// alive checks the connection. rod has no IsConnected, so a cheap call is
// made; a nil CDP client panics rather than erroring.
func (m *Manager) alive(b *rod.Browser) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			L_debug("browser: connection check panicked", "panic", r)
			ok = false
		}
	}()
	_, err := proto.BrowserGetVersion{}.Call(b)
	return err == nil
}

func (m *Manager) connect() (*rod.Browser, error) {
	endpoint := m.config.CDP
	if err := ValidateEndpoint(endpoint, m.config.AllowRemote); err != nil {
		return nil, failure.Wrap(failure.Misconfigured, "invalid browser.cdp", err)
	}

	// http://host:9222 is resolved to the browser's websocket URL
	controlURL := endpoint
	if !strings.HasPrefix(endpoint, "ws://") && !strings.HasPrefix(endpoint, "wss://") {
		u, err := launcher.ResolveURL(endpoint)
		if err != nil {
			return nil, failure.Wrap(failure.ChannelUnavailable,
				fmt.Sprintf("failed to resolve DevTools endpoint %s (is Chrome running with --remote-debugging-port?)", endpoint), err)
		}
		controlURL = u
	}

	L_info("browser: connecting to Chrome", "endpoint", endpoint)
	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, failure.Wrap(failure.ChannelUnavailable, fmt.Sprintf("failed to connect to Chrome at %s", endpoint), err)
	}
	return b, nil
}

func (m *Manager) launch() (*rod.Browser, error) {
	binPath := m.config.Bin
	if binPath == "" {
		var err error
		if m.config.AutoDownload {
			binPath, err = m.downloader.EnsureBrowser()
		} else {
			binPath, err = m.downloader.FindExisting()
		}
		if err != nil {
			return nil, failure.Wrap(failure.Misconfigured, "browser not available", err)
		}
	}

	profileDir := m.config.ResolveProfileDir(m.baseDir)
	if err := os.MkdirAll(profileDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create profile directory: %w", err)
	}
	cleanupStaleLocks(profileDir)

	L_debug("browser: launching browser", "bin", binPath, "profileDir", profileDir, "headless", m.config.Headless)

	l := launcher.New().
		Bin(binPath).
		UserDataDir(profileDir).
		Headless(m.config.Headless).
		Set("disable-dev-shm-usage").
		// Keep cross-origin iframes in-process so one page session reaches every frame
		Set("disable-features", "IsolateOrigins,site-per-process")

	if !m.config.Headless {
		l = l.Set("window-size", "1920,1080")
	}
	if m.config.Stealth {
		l = l.Set("disable-blink-features", "AutomationControlled")
	}
	if m.config.NoSandbox {
		l = l.Set("no-sandbox")
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, failure.Wrap(failure.ChannelUnavailable, "failed to connect to launched browser", err)
	}
	// Rod defaults to LaptopWithMDPIScreen which constrains the viewport
	b = b.DefaultDevice(m.config.ResolveDevice())

	var page *rod.Page
	if m.config.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	if m.config.StartURL != "" {
		if err := page.Navigate(m.config.StartURL); err != nil {
			L_warn("browser: failed to navigate to start URL", "url", m.config.StartURL, "error", err)
		}
	}
	m.page = page

	L_info("browser: launched", "controlURL", controlURL)
	return b, nil
}

// ActiveTab returns the tab to operate on. With a target configured, the
// first page whose URL contains it; otherwise the launched page or the
// first page target.
func (m *Manager) ActiveTab(ctx context.Context) (*Tab, error) {
	b, err := m.Browser()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	launchedPage := m.page
	m.mu.Unlock()

	target := m.config.Target
	if target == "" && launchedPage != nil {
		return NewTab(ctx, launchedPage, m.config.ResolveTimeout())
	}

	pages, err := b.Pages()
	if err != nil {
		return nil, failure.Wrap(failure.ChannelUnavailable, "failed to list pages", err)
	}
	for _, p := range pages {
		info, err := p.Info()
		if err != nil {
			continue
		}
		if target == "" || strings.Contains(info.URL, target) {
			L_debug("browser: selected tab", "url", info.URL, "title", info.Title)
			return NewTab(ctx, p, m.config.ResolveTimeout())
		}
	}
	if target != "" {
		return nil, failure.Newf(failure.ChannelUnavailable, "no open tab matches %q", target)
	}
	return nil, failure.New(failure.ChannelUnavailable, "no open tabs")
}

// Close closes a launched browser. Connected browsers are left running.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.browser == nil {
		return
	}
	if !m.config.Launched() {
		L_debug("browser: leaving external browser running")
		m.browser, m.page = nil, nil
		return
	}
	if err := m.browser.Close(); err != nil {
		L_debug("browser: close failed", "error", err)
	}
	m.browser, m.page = nil, nil
	L_debug("browser: closed")
}
