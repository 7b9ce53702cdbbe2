package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/secondbrain/collections/engine"
	"github.com/secondbrain/collections/engine/host"
	"github.com/secondbrain/collections/internal/cliopt"
	"github.com/secondbrain/collections/internal/cliutil"
)

type ExecCmd struct {
	Operation string `arg:"" optional:"" help:"Operation as {\"type\":...,\"payload\":{...}}; read from stdin when omitted or -."`
}

func (c *ExecCmd) Run(g *cliopt.GlobalOptions, logger *slog.Logger) error {
	raw := c.Operation
	if raw == "" || raw == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read operation: %w", err)
		}
		raw = string(b)
	}
	op, err := engine.DecodeOperation([]byte(strings.TrimSpace(raw)))
	if err != nil {
		return err
	}

	ctx := context.Background()
	e := engine.New(g.EngineOptions(logger))
	defer e.Close()
	if _, err := e.Execute(ctx, &engine.Init{Path: cliutil.ResolveDBPath(*g)}); err != nil {
		return err
	}

	data, err := e.Execute(ctx, op)
	if err != nil {
		cliutil.PrintJSON(os.Stdout, host.Response{Error: host.ToWire(err)})
		return err
	}
	cliutil.PrintJSON(os.Stdout, host.Response{OK: true, Data: data})
	return nil
}
