package cliutil

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/secondbrain/collections/internal/cliopt"
)

func TestResolveDBPath(t *testing.T) {
	dir := t.TempDir()

	if got := ResolveDBPath(cliopt.GlobalOptions{Backend: "sqlite", DB: dir}); got != filepath.Join(dir, DefaultDBName) {
		t.Fatalf("directory = %q", got)
	}
	file := filepath.Join(dir, "notes.db")
	if got := ResolveDBPath(cliopt.GlobalOptions{Backend: "sqlite", DB: file}); got != file {
		t.Fatalf("file = %q", got)
	}
	missing := filepath.Join(dir, "new") + string(os.PathSeparator)
	if got := ResolveDBPath(cliopt.GlobalOptions{Backend: "sqlite", DB: missing}); got != filepath.Join(dir, "new", DefaultDBName) {
		t.Fatalf("trailing separator = %q", got)
	}
	dsn := "postgres://u:p@localhost:5432/app"
	if got := ResolveDBPath(cliopt.GlobalOptions{Backend: "postgres", DB: dsn}); got != dsn {
		t.Fatalf("dsn = %q", got)
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	PrintJSON(&buf, map[string]int{"a": 1})
	if !strings.Contains(buf.String(), `"a": 1`) {
		t.Fatalf("PrintJSON = %q", buf.String())
	}
}
