package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/fiber/internal/config"
	"github.com/vango-dev/fiber/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalFlags are shared by every command.
type globalFlags struct {
	configDir string
	logLevel  string
	debug     bool
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "fiber",
		Short: "Incremental UI reconciler demo",
		Long: `fiber renders a component tree into a host tree with an incremental,
time-sliced reconciler.

Commands drive a scripted todo application:

  • run     render every step and print the committed host ops
  • serve   serve the live host tree and stream ops over WebSocket
  • export  upload the final HTML and op log to S3`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().StringVarP(&flags.configDir, "config", "c", ".", "Directory containing fiber.json")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Override log.level")
	rootCmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Enable hook order validation")

	rootCmd.AddCommand(
		runCmd(flags),
		serveCmd(flags),
		exportCmd(flags),
		versionCmd(),
	)
	return rootCmd
}

// load reads fiber.json (or defaults), applies flag overrides and
// validates the result.
func (g *globalFlags) load() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(g.configDir)
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.debug {
		cfg.Scheduler.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the slog handler selected by log.format.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}
