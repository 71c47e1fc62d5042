package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/multierr"
)

func TestValidateDir_Embedded(t *testing.T) {
	for _, dir := range []string{"migrations/postgres", "migrations/sqlite"} {
		if err := ValidateDir(dir); err != nil {
			t.Fatalf("%s should validate: %v", dir, err)
		}
	}
}

func TestValidateDir_ReportsEveryProblem(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	write("bad-name.sql", "-- +goose Up\n-- +goose Down\n")
	write("20250101000000_first.sql", "-- +goose Up\n-- +goose Down\n")
	write("20250101000000_second.sql", "-- +goose Up\n-- +goose Down\n")
	write("20250101000001_no_down.sql", "-- +goose Up\nSELECT 1;\n")
	write("README.md", "ignored")

	err := ValidateDir(dir)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	errs := multierr.Errors(err)
	if len(errs) != 3 {
		t.Fatalf("expected 3 problems, got %d: %v", len(errs), err)
	}
	if !strings.Contains(err.Error(), "bad-name.sql") {
		t.Fatalf("filename problem missing: %v", err)
	}
}

func TestCreateSQLMigration(t *testing.T) {
	root := t.TempDir()
	paths, err := CreateSQLMigration(root, "Add  Shelf--Zones!")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected one file per dialect, got %v", paths)
	}
	for i, dialect := range []string{"postgres", "sqlite"} {
		if filepath.Base(filepath.Dir(paths[i])) != dialect {
			t.Fatalf("expected %s file, got %q", dialect, paths[i])
		}
		if !strings.HasSuffix(paths[i], "_add_shelf_zones.sql") {
			t.Fatalf("unexpected filename %q", paths[i])
		}
		body, err := os.ReadFile(paths[i])
		if err != nil {
			t.Fatalf("read %s: %v", paths[i], err)
		}
		if !strings.HasPrefix(string(body), "-- "+dialect+": add_shelf_zones") {
			t.Fatalf("missing dialect header in %s", body)
		}
		if err := ValidateDir(filepath.Dir(paths[i])); err != nil {
			t.Fatalf("generated migration should validate: %v", err)
		}
	}
	if filepath.Base(paths[0]) != filepath.Base(paths[1]) {
		t.Fatalf("dialect files should share a version: %v", paths)
	}

	if _, err := CreateSQLMigration(root, "!!!"); err == nil {
		t.Fatal("expected empty sanitized name to fail")
	}
	if _, err := CreateSQLMigration(root, "  "); err == nil {
		t.Fatal("expected blank name to fail")
	}
}
