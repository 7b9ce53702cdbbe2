package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExecuteCommands(t *testing.T) {
	dir := t.TempDir()

	if code := Execute([]string{"ops"}); code != 0 {
		t.Fatalf("ops exit code = %d", code)
	}
	if code := Execute([]string{"--db", dir, "--log-level", "error", "migrate"}); code != 0 {
		t.Fatalf("migrate exit code = %d", code)
	}
	if _, err := os.Stat(filepath.Join(dir, "secondbrain.db")); err != nil {
		t.Fatalf("migrate did not create the database: %v", err)
	}
	op := `{"type":"addCollection","payload":{"name":"Books"}}`
	if code := Execute([]string{"--db", dir, "--log-level", "error", "exec", op}); code != 0 {
		t.Fatalf("exec exit code = %d", code)
	}
	if code := Execute([]string{"--db", dir, "--log-level", "error", "exec", `{"type":"deleteItem","payload":{"id":99}}`}); code != 1 {
		t.Fatalf("failing exec exit code = %d, want 1", code)
	}
	if code := Execute([]string{"--backend", "mysql", "ops"}); code != 2 {
		t.Fatalf("bad enum exit code = %d, want 2", code)
	}
}
