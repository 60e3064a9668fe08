package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/roelfdiedericks/rephrase/internal/config"
	. "github.com/roelfdiedericks/rephrase/internal/logging"
	"github.com/roelfdiedericks/rephrase/internal/tui"
)

const version = "0.1.0"

// CLI is the command line of rephrase.
type CLI struct {
	Config   string `short:"c" help:"Config file (default: ./rephrase.toml, then ~/.rephrase/rephrase.toml)." type:"path"`
	Debug    bool   `short:"d" help:"Enable debug logging."`
	CDP      string `name:"cdp" help:"DevTools endpoint of a running browser (ws:// or http://)." env:"REPHRASE_CDP"`
	Target   string `short:"t" help:"Operate on the first tab whose URL contains this."`
	Headless bool   `help:"Launch the managed browser headless."`

	Rewrite RewriteCmd `cmd:"" default:"withargs" help:"Rewrite the selected text in the browser (default)."`
	Probe   ProbeCmd   `cmd:"" help:"List every frame and the text selected in it."`
	Replace ReplaceCmd `cmd:"" help:"Replace the selection in a frame with the given text."`
	History HistoryCmd `cmd:"" help:"Show recent rewrites."`
	Init    InitCmd    `cmd:"" help:"Write a default config file."`
	Version VersionCmd `cmd:"" help:"Print the version."`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("rephrase"),
		kong.Description("Rewrite selected browser text with an LLM and put it back in place."),
		kong.UsageOnError(),
	)

	// Logging comes up before config so config load can log; the configured
	// level and file are applied once it is read.
	logCfg := DefaultConfig()
	if cli.Debug {
		logCfg.Level = LevelDebug
		logCfg.ShowCaller = true
	}
	Init(logCfg)

	app := &App{cli: &cli}
	err := kctx.Run(app)
	app.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, tui.RenderError(err))
		os.Exit(1)
	}
}

// VersionCmd prints the version.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("rephrase %s\n", version)
	return nil
}

// InitCmd writes the default configuration.
type InitCmd struct {
	Path  string `arg:"" optional:"" help:"Where to write (default: ~/.rephrase/rephrase.toml)." type:"path"`
	Force bool   `help:"Overwrite an existing file (a backup is kept)."`
}

func (c *InitCmd) Run() error {
	path, err := initPath(c.Path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !c.Force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.Save(path, config.Default()); err != nil {
		return err
	}
	L_info("config: written", "path", path)
	fmt.Println(path)
	return nil
}
