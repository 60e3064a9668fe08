package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/roelfdiedericks/rephrase/internal/browser"
	"github.com/roelfdiedericks/rephrase/internal/config"
	"github.com/roelfdiedericks/rephrase/internal/failure"
	"github.com/roelfdiedericks/rephrase/internal/history"
	"github.com/roelfdiedericks/rephrase/internal/llm"
	. "github.com/roelfdiedericks/rephrase/internal/logging"
	"github.com/roelfdiedericks/rephrase/internal/paths"
	"github.com/roelfdiedericks/rephrase/internal/recovery"
	"github.com/roelfdiedericks/rephrase/internal/relay"
	"github.com/roelfdiedericks/rephrase/internal/replace"
	"github.com/roelfdiedericks/rephrase/internal/rewrite"
	"github.com/roelfdiedericks/rephrase/internal/selection"
)

// App holds what the commands share. Everything is created on first use.
type App struct {
	cli     *CLI
	cfg     *config.Config
	manager *browser.Manager
	tab     *browser.Tab
	store   *history.Store
	logFile io.Closer

	await func() (bool, error) // launched-mode prompt; nil uses tui.AwaitSelection
}

// Context returns a context cancelled on SIGINT or SIGTERM.
func (a *App) Context() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// Config loads the config once and applies the global flags over it.
func (a *App) Config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, used, err := config.Load(a.cli.Config)
	if err != nil {
		return nil, failure.Wrap(failure.Misconfigured, "failed to load config", err)
	}

	flags := &config.Config{}
	flags.Browser.CDP = a.cli.CDP
	flags.Browser.Target = a.cli.Target
	flags.Browser.Headless = a.cli.Headless
	if a.cli.Debug {
		flags.Logging.Level = "debug"
	}
	if err := cfg.Merge(flags); err != nil {
		return nil, err
	}

	SetLevel(cfg.LogLevel())
	if cfg.Logging.File != "" {
		path, err := paths.ExpandTilde(cfg.Logging.File)
		if err != nil {
			return nil, err
		}
		f, err := OpenFile(path)
		if err != nil {
			return nil, err
		}
		a.logFile = f
	}

	L_debug("rephrase: config ready", "file", used, "provider", cfg.Backend.Provider, "cdp", cfg.Browser.CDP)
	a.cfg = cfg
	return cfg, nil
}

// Tab connects to the browser and picks the tab to work on.
func (a *App) Tab(ctx context.Context) (*browser.Tab, error) {
	if a.tab != nil {
		return a.tab, nil
	}
	cfg, err := a.Config()
	if err != nil {
		return nil, err
	}
	base, err := paths.BaseDir()
	if err != nil {
		return nil, err
	}
	a.manager = browser.NewManager(cfg.Browser, base)
	tab, err := a.manager.ActiveTab(ctx)
	if err != nil {
		return nil, err
	}
	L_debug("rephrase: using tab", "url", tab.URL())
	a.tab = tab
	return tab, nil
}

// Locator returns the selection locator for the active tab.
func (a *App) Locator(ctx context.Context) (*selection.Locator, error) {
	tab, err := a.Tab(ctx)
	if err != nil {
		return nil, err
	}
	return selection.NewLocator(tab, a.cfg.ResolveProbeTimeout()), nil
}

// Relay returns a relay delivering replace commands into the active tab.
func (a *App) Relay(ctx context.Context) (*relay.Relay, error) {
	tab, err := a.Tab(ctx)
	if err != nil {
		return nil, err
	}
	engine := replace.NewEngine(tab, a.cfg.Hosts())
	return relay.New(tab.Executor(engine), a.cfg.ResolveRelayTimeout()), nil
}

// Recoverer shows text in the page first, then on the terminal. A launched
// browser goes away with the process, so its notices are echoed to the
// terminal as well.
func (a *App) Recoverer(ctx context.Context) (*recovery.Recoverer, error) {
	tab, err := a.Tab(ctx)
	if err != nil {
		return nil, err
	}
	r := recovery.NewRecoverer(os.Stderr, tab.ModalPresenter())
	r.SetTimeout(a.cfg.ResolvePresentTimeout())
	r.SetEcho(a.cfg.Browser.Launched())
	return r, nil
}

// History opens the journal. Returns nil when history is disabled.
func (a *App) History() (*history.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	cfg, err := a.Config()
	if err != nil {
		return nil, err
	}
	path, err := cfg.HistoryPath()
	if err != nil || path == "" {
		return nil, err
	}
	store, err := history.Open(path)
	if err != nil {
		return nil, err
	}
	a.store = store
	return store, nil
}

// Pipeline wires the full rewrite path.
func (a *App) Pipeline(ctx context.Context) (*rewrite.Pipeline, error) {
	cfg, err := a.Config()
	if err != nil {
		return nil, err
	}
	gen, err := llm.NewGenerator(cfg.Backend)
	if err != nil {
		return nil, err
	}
	locator, err := a.Locator(ctx)
	if err != nil {
		return nil, err
	}
	sender, err := a.Relay(ctx)
	if err != nil {
		return nil, err
	}
	recoverer, err := a.Recoverer(ctx)
	if err != nil {
		return nil, err
	}

	var journal rewrite.Journal
	store, err := a.History()
	if err != nil {
		L_warn("rephrase: history unavailable", "error", err)
	} else if store != nil {
		journal = store
	}
	return rewrite.NewPipeline(locator, gen, sender, recoverer, journal), nil
}

// Close releases the browser, journal and log file.
func (a *App) Close() {
	if a.tab != nil {
		a.tab.Close()
	}
	if a.manager != nil {
		a.manager.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			L_warn("rephrase: failed to close history", "error", err)
		}
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
}

func initPath(path string) (string, error) {
	if path != "" {
		return paths.ExpandTilde(path)
	}
	return paths.DataPath(paths.ConfigFileName)
}
