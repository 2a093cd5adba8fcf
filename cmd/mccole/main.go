// Command mccole builds a Markdown book into a static HTML site.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/cempisirgen/mccole/cmd/mccole/commands"
	ferrors "github.com/cempisirgen/mccole/internal/foundation/errors"
	"github.com/cempisirgen/mccole/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// exitRequest carries the code of a kong-initiated exit (--help, --version).
type exitRequest struct{ code int }

// run parses args, executes the selected command and returns the exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) (code int) {
	var cli commands.CLI
	parser, err := kong.New(&cli,
		kong.Name("mccole"),
		kong.Description("Build a Markdown book into a static HTML site."),
		kong.Writers(stdout, stderr),
		kong.Vars{"version": version.String()},
		kong.Exit(func(code int) { panic(exitRequest{code}) }),
	)
	if err != nil {
		return ferrors.NewCLIErrorAdapter(false, nil).WithOutput(stderr).Report(err)
	}

	defer func() {
		if r := recover(); r != nil {
			req, ok := r.(exitRequest)
			if !ok {
				panic(r)
			}
			code = req.code
		}
	}()

	kctx, err := parser.Parse(args)
	if err != nil {
		var pe *kong.ParseError
		if errors.As(err, &pe) {
			_, _ = io.WriteString(stderr, "mccole: "+err.Error()+"\n")
			return 2
		}
		return ferrors.NewCLIErrorAdapter(cli.Verbose, nil).WithOutput(stderr).Report(err)
	}

	g := &commands.Global{Ctx: ctx, Out: stdout, Err: stderr}
	err = kctx.Run(g, &cli)
	return ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).WithOutput(stderr).Report(err)
}
