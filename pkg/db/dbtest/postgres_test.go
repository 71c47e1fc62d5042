package dbtest

import "testing"

func TestWithSearchPath(t *testing.T) {
	got, err := withSearchPath("postgres://u:p@localhost:5432/db?sslmode=disable", "test_abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "postgres://u:p@localhost:5432/db?search_path=test_abc&sslmode=disable" {
		t.Fatalf("unexpected url dsn %q", got)
	}

	got, err = withSearchPath("host=localhost user=u dbname=db ", "test_abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "host=localhost user=u dbname=db search_path=test_abc" {
		t.Fatalf("unexpected keyword dsn %q", got)
	}
}
