package commands

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/secondbrain/collections/engine"
	"github.com/secondbrain/collections/engine/host"
	"github.com/secondbrain/collections/internal/cliopt"
	"github.com/secondbrain/collections/internal/cliutil"
)

type ServeCmd struct {
	Timeout     time.Duration `env:"COLLECTIONS_TIMEOUT" default:"30s" help:"Deadline for reads and single-row writes."`
	LongTimeout time.Duration `env:"COLLECTIONS_LONG_TIMEOUT" default:"5m" help:"Deadline for imports and bulk operations."`
	Queue       int           `default:"64" help:"Requests buffered ahead of the engine worker."`
	Lazy        bool          `help:"Do not open --db at startup; wait for an init request."`
}

func (c *ServeCmd) Run(g *cliopt.GlobalOptions, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := engine.New(g.EngineOptions(logger))
	defer e.Close()

	if !c.Lazy {
		path := cliutil.ResolveDBPath(*g)
		res, err := e.Execute(ctx, &engine.Init{Path: path})
		if err != nil {
			return err
		}
		ir := res.(engine.InitResult)
		logger.Info("database opened", "backend", ir.Backend, "full_text", ir.FullTextSearch, "migrated", ir.Migrated)
	}

	h := host.New(e, host.Options{
		Timeout:     c.Timeout,
		LongTimeout: c.LongTimeout,
		QueueSize:   c.Queue,
		Logger:      logger,
	})
	defer h.Close()

	logger.Info("serving", "timeout", c.Timeout, "long_timeout", c.LongTimeout)
	err := h.Serve(ctx, os.Stdin, os.Stdout)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
