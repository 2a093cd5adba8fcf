package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/cempisirgen/mccole/internal/pipeline"
)

// VisualizeCmd implements the 'visualize' command.
type VisualizeCmd struct {
	Format string `short:"f" help:"Output format: text, mermaid, dot, json" default:"text" enum:"text,mermaid,dot,json"`
	Output string `short:"o" help:"Output file path (optional, prints to stdout if not specified)"`
	List   bool   `short:"l" help:"List available formats and exit"`
	Check  bool   `help:"Show the passes run by 'check' (no asset copying)"`
}

// Run executes the visualize command.
func (cmd *VisualizeCmd) Run(g *Global, _ *CLI) error {
	if cmd.List {
		printf(g.Out, "Available visualization formats:\n\n")
		for _, format := range pipeline.SupportedFormats() {
			printf(g.Out, "  %-10s %s\n", format, pipeline.FormatDescription(format))
		}
		printf(g.Out, "\nUsage examples:\n")
		printf(g.Out, "  mccole visualize                      # Text format to stdout\n")
		printf(g.Out, "  mccole visualize -f mermaid           # Mermaid diagram to stdout\n")
		printf(g.Out, "  mccole visualize -f dot -o passes.dot # DOT format to file\n")
		return nil
	}

	passes := pipeline.Default(pipeline.Options{SkipAssets: cmd.Check})
	output, err := pipeline.Visualize(passes, pipeline.VisualizationFormat(cmd.Format))
	if err != nil {
		return fmt.Errorf("failed to visualize passes: %w", err)
	}

	if cmd.Output != "" {
		if err := os.WriteFile(cmd.Output, []byte(output), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		slog.Info("Pass visualization written", "file", cmd.Output, "format", cmd.Format)
		return nil
	}
	printf(g.Out, "%s", output)
	return nil
}
