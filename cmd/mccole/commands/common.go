package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/alecthomas/kong"

	"github.com/cempisirgen/mccole/internal/build"
	"github.com/cempisirgen/mccole/internal/config"
	"github.com/cempisirgen/mccole/internal/metrics"
)

// Global carries process-wide state into every command.
type Global struct {
	Ctx context.Context
	Out io.Writer
	Err io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"mccole.yml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build     BuildCmd     `cmd:"" default:"1" help:"Build the book into out_dir (default command)"`
	Check     CheckCmd     `cmd:"" help:"Run every pass and report problems without writing output"`
	Init      InitCmd      `cmd:"" help:"Initialize a new configuration file"`
	Visualize VisualizeCmd `cmd:"" help:"Visualize the build pass order (text, mermaid, dot, json)"`
	Watch     WatchCmd     `cmd:"" help:"Rebuild the book whenever its sources change"`
	History   HistoryCmd   `cmd:"" help:"List recorded builds and the pages they changed"`
}

// AfterApply runs after flag parsing; setup logging once. Commands that load
// a configuration replace the logger with its logging settings.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(k *kong.Context) error {
	slog.SetDefault(config.LoggingConfig{}.NewLogger(k.Stderr, c.Verbose))
	return nil
}

// loadConfig reads the configuration and switches logging to its settings.
func loadConfig(g *Global, root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(cfg.Logging.NewLogger(g.Err, root.Verbose))
	return cfg, nil
}

// newService wires the build service with a Prometheus recorder when the
// configuration asks for a metrics file.
func newService(cfg *config.Config) *build.DefaultBuildService {
	svc := build.NewBuildService()
	if cfg.MetricsFile != "" {
		svc.WithRecorder(metrics.NewPrometheusRecorder(nil))
	}
	return svc
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
