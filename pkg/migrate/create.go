package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var (
	nameSanitizeRe  = regexp.MustCompile(`[^a-z0-9]+`)
	underscoreRunRe = regexp.MustCompile(`_{2,}`)
)

// CreateSQLMigration scaffolds one goose SQL migration per dialect under root. Both files
// share a version so the postgres and sqlite sets stay in step:
//
//	<root>/postgres/<YYYYMMDDHHMMSS>_<name>.sql
//	<root>/sqlite/<YYYYMMDDHHMMSS>_<name>.sql
func CreateSQLMigration(root string, name string) ([]string, error) {
	if root == "" {
		return nil, fmt.Errorf("root is required")
	}
	safe, err := migrationName(name)
	if err != nil {
		return nil, err
	}

	version := time.Now().UTC().Format("20060102150405")
	filename := fmt.Sprintf("%s_%s.sql", version, safe)

	paths := make([]string, 0, len(dialectDirs))
	for _, dialect := range dialectDirs {
		fullpath := filepath.Join(root, dialect, filename)
		if _, err := os.Stat(fullpath); err == nil {
			return nil, fmt.Errorf("migration already exists: %s", fullpath)
		}
		paths = append(paths, fullpath)
	}

	for i, dialect := range dialectDirs {
		if err := os.MkdirAll(filepath.Dir(paths[i]), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %q: %w", filepath.Dir(paths[i]), err)
		}
		if err := os.WriteFile(paths[i], []byte(migrationTemplate(dialect, safe)), 0o644); err != nil {
			return nil, fmt.Errorf("write migration %q: %w", paths[i], err)
		}
	}
	return paths, nil
}

// migrationName lowercases name into snake_case made of [a-z0-9_].
func migrationName(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("name is required")
	}
	safe := nameSanitizeRe.ReplaceAllString(strings.ToLower(name), "_")
	safe = underscoreRunRe.ReplaceAllString(safe, "_")
	safe = strings.Trim(safe, "_")
	if safe == "" {
		return "", fmt.Errorf("name %q results in empty sanitized filename", name)
	}
	return safe, nil
}

func migrationTemplate(dialect, name string) string {
	return fmt.Sprintf(`-- %s: %s
-- Name constraints explicitly (uq_, fk_, chk_); the services classify violations by name.

-- +goose Up
-- +goose StatementBegin
-- %s
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- rollback %s
-- +goose StatementEnd
`, dialect, name, name, name)
}
