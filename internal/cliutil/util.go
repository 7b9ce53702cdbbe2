package cliutil

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/secondbrain/collections/internal/cliopt"
)

// DefaultDBName is the file created inside a directory given as --db.
const DefaultDBName = "secondbrain.db"

func PrintJSON(w io.Writer, v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(b))
}

// ResolveDBPath transforms the user-provided --db value into the engine's
// init path.
//
//   - sqlite: an existing directory, or a value ending in a separator, gets
//     DefaultDBName appended; anything else is used as the file path.
//   - postgres: the DSN is returned as-is.
func ResolveDBPath(g cliopt.GlobalOptions) string {
	db := g.DB
	if strings.ToLower(g.Backend) == "postgres" {
		return db
	}
	if db == "" {
		db = "."
	}
	if strings.HasSuffix(db, string(filepath.Separator)) {
		return filepath.Join(db, DefaultDBName)
	}
	if fi, err := os.Stat(db); err == nil && fi.IsDir() {
		return filepath.Join(db, DefaultDBName)
	}
	return db
}
