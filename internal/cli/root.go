package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/secondbrain/collections/internal/cli/commands"
	"github.com/secondbrain/collections/internal/cliopt"
	"github.com/secondbrain/collections/internal/logging"
)

const version = "0.1.0"

// CLI is the collectionsd command tree.
type CLI struct {
	Globals cliopt.GlobalOptions `embed:""`

	Serve   commands.ServeCmd   `cmd:"" default:"1" help:"Serve JSON-lines operations on stdin/stdout."`
	Migrate commands.MigrateCmd `cmd:"" help:"Bootstrap the schema, apply migrations and check the search index."`
	Exec    commands.ExecCmd    `cmd:"" help:"Run one operation against the database and print the result."`
	Ops     commands.OpsCmd     `cmd:"" help:"List the operation names the engine accepts."`
	Version VersionCmd          `cmd:"" help:"Print version information."`
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("collectionsd version %s\n", version)
	return nil
}

// Execute runs the CLI and returns an exit code.
func Execute(argv []string) int {
	var root CLI
	parser, err := kong.New(&root,
		kong.Name("collectionsd"),
		kong.Description("Worker process for the structured collections engine."),
		kong.UsageOnError(),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	kctx, err := parser.Parse(argv)
	if err != nil {
		parser.Errorf("%s", err)
		return 2
	}

	logger, err := newLogger(root.Globals)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if err := kctx.Run(&root.Globals, logger); err != nil {
		logger.Error("command failed", "command", kctx.Command(), "error", err)
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func newLogger(g cliopt.GlobalOptions) (*slog.Logger, error) {
	level, err := logging.ParseLevel(g.LogLevel)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(g.LogFormat)
	if err != nil {
		return nil, err
	}
	logging.InitLogger(os.Stderr, level, format)
	return logging.GetLogger(), nil
}
