package commands

import (
	"fmt"

	"github.com/secondbrain/collections/engine"
)

type OpsCmd struct{}

func (c *OpsCmd) Run() error {
	for _, k := range engine.Kinds() {
		fmt.Println(k)
	}
	return nil
}
