package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/wbe-dev/wbe"
)

// cliFlags holds the persistent flags shared by every subcommand,
// generalizing the teacher's single process-wide *slog.Logger wiring
// in example/main.go to a flag-configurable one.
type cliFlags struct {
	configPath string
	width      int
	height     int
	logLevel   string
	logFormat  string
	devtools   bool
}

func main() {
	var flags cliFlags

	root := &cobra.Command{
		Use:           "wbe",
		Short:         "A from-scratch browser engine: fetch, parse, style, layout, paint.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().IntVar(&flags.width, "width", 0, "viewport width (overrides config)")
	root.PersistentFlags().IntVar(&flags.height, "height", 0, "viewport height (overrides config)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "debug|info|warn|error (overrides config)")
	root.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "text|json (overrides config)")
	root.PersistentFlags().BoolVar(&flags.devtools, "devtools", false, "serve a websocket devtools shell instead of printing to stdout")

	root.AddCommand(newLoadCmd(&flags))
	root.AddCommand(newFontsCmd(&flags))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "wbe:", err)
		os.Exit(1)
	}
}

// buildEngine loads Config from flags.configPath, applies flag
// overrides, wires a slog.Logger at the requested level/format, and
// returns a ready wbe.Engine backed by the basicFontMetrics shell.
func buildEngine(flags *cliFlags) (*wbe.Engine, error) {
	cfg, err := wbe.LoadConfig(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if flags.width > 0 {
		cfg.Width = flags.width
	}
	if flags.height > 0 {
		cfg.Height = flags.height
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.LogFormat = flags.logFormat
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	fonts := newBasicFontMetrics()

	return wbe.NewEngine(cfg, fonts, logger), nil
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
