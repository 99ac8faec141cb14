package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/structgen/internal/cleanup"
	"git.home.luguber.info/inful/structgen/internal/config"
	"git.home.luguber.info/inful/structgen/internal/errors"
	"git.home.luguber.info/inful/structgen/internal/logfields"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"structgen.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Generate struct {
		Schema     string `arg:"" optional:"" help:"Schema location (path, URL, or git+https locator); omit to process the configured schemas block"`
		Package    string `short:"p" help:"Dotted target package for generated types"`
		Output     string `short:"o" help:"Output directory (default: a disposable workspace)"`
		Builders   bool   `help:"Generate fluent WithX builder setters"`
		Primitives bool   `help:"Use value types for optional scalars instead of pointers"`
		Keep       bool   `help:"Keep the workspace past process exit"`
	} `cmd:"" help:"Generate Go sources from a schema"`

	Check struct {
		Schema     string `arg:"" help:"Schema location (path, URL, or git+https locator)"`
		Package    string `short:"p" help:"Dotted target package for generated types"`
		Builders   bool   `help:"Generate fluent WithX builder setters"`
		Primitives bool   `help:"Use value types for optional scalars instead of pointers"`
	} `cmd:"" help:"Run the full generate, compile and load pipeline against a schema"`

	Docs struct {
		Schema string `arg:"" help:"Schema location (path, URL, or git+https locator)"`
		Output string `short:"o" help:"Output HTML file" default:"schema.html"`
	} `cmd:"" help:"Render a schema reference page"`

	Watch struct{} `cmd:"" help:"Watch schema directories and verify changes continuously"`

	Sweep struct {
		MaxAge string `help:"Age threshold for stale workspaces" default:"24h"`
	} `cmd:"" help:"Remove stale workspaces left behind by crashed runs"`

	History struct {
		Schema string `help:"Only show runs for this schema location"`
		Limit  int    `help:"Maximum number of runs to show" default:"20"`
	} `cmd:"" help:"Show recent verification runs"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	kctx := kong.Parse(&CLI)
	setupLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, kctx.Command())

	// Workspaces registered during the run are removed here, success or not.
	if cleanupErr := cleanup.Run(); cleanupErr != nil {
		slog.Error("Exit cleanup reported failures", logfields.Error(cleanupErr))
	}

	if err != nil {
		adapter := errors.NewCLIErrorAdapter(CLI.Verbose, slog.Default())
		fmt.Fprintln(os.Stderr, adapter.FormatError(err))
		os.Exit(adapter.ExitCodeFor(err))
	}
}

func run(ctx context.Context, command string) error {
	switch command {
	case "generate <schema>", "generate":
		return runGenerate(ctx)
	case "check <schema>":
		return runCheck(ctx)
	case "docs <schema>":
		return runDocs(ctx)
	case "watch":
		return runWatch(ctx)
	case "sweep":
		return runSweep(ctx)
	case "history":
		return runHistory(ctx)
	case "init":
		return runInit()
	case "version":
		return runVersion(ctx)
	default:
		return errors.ValidationError("unknown command: " + command)
	}
}

// setupLogging configures the process logger. The config file's monitoring
// section can raise the level and switch to JSON; --verbose always wins.
func setupLogging() {
	level := slog.LevelInfo
	format := config.LogFormatText

	if cfg, err := loadConfig(); err == nil && cfg.Monitoring != nil {
		switch cfg.Monitoring.Logging.Level {
		case config.LogLevelDebug:
			level = slog.LevelDebug
		case config.LogLevelWarn:
			level = slog.LevelWarn
		case config.LogLevelError:
			level = slog.LevelError
		}
		if cfg.Monitoring.Logging.Format != "" {
			format = cfg.Monitoring.Logging.Format
		}
	}
	if CLI.Verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// loadConfig reads the configured file, falling back to built-in defaults
// when the default file name is absent. An explicitly passed path must
// exist.
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(CLI.Config); os.IsNotExist(err) {
		if CLI.Config == config.DefaultConfigFile {
			return config.Default(), nil
		}
		return nil, errors.ConfigNotFound(CLI.Config)
	}
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal, "loading configuration")
	}
	return cfg, nil
}
