// Command collectionsd hosts the collections engine for a desktop shell.
// It reads one JSON operation per line on stdin and answers on stdout.
package main

import (
	"os"

	"github.com/secondbrain/collections/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:]))
}
