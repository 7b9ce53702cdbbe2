package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/secondbrain/collections/engine"
	"github.com/secondbrain/collections/internal/cliopt"
	"github.com/secondbrain/collections/internal/cliutil"
)

type MigrateCmd struct {
	Repair []int64 `help:"Also renumber the field order of these collection IDs." placeholder:"ID"`
}

type migrateReport struct {
	engine.InitResult
	Repaired map[int64][]engine.Field `json:"repaired,omitempty"`
}

func (c *MigrateCmd) Run(g *cliopt.GlobalOptions, logger *slog.Logger) error {
	ctx := context.Background()
	e := engine.New(g.EngineOptions(logger))
	defer e.Close()

	res, err := e.Execute(ctx, &engine.Init{Path: cliutil.ResolveDBPath(*g)})
	if err != nil {
		return err
	}
	report := migrateReport{InitResult: res.(engine.InitResult)}

	for _, id := range c.Repair {
		fields, err := e.Execute(ctx, &engine.RepairFieldOrder{CollectionID: id})
		if err != nil {
			return err
		}
		if report.Repaired == nil {
			report.Repaired = make(map[int64][]engine.Field)
		}
		report.Repaired[id] = fields.([]engine.Field)
	}
	cliutil.PrintJSON(os.Stdout, report)
	return nil
}
