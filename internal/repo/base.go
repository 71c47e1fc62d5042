package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

// Base provides a shared foundation for the inventory repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection or transaction.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// LikeEscapeClause is appended to LIKE predicates built with ContainsPattern.
const LikeEscapeClause = `ESCAPE '\'`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern turns fragment into a LIKE pattern that matches it literally anywhere.
func ContainsPattern(fragment string) string {
	return "%" + likeEscaper.Replace(fragment) + "%"
}

// Dedupe returns values without repeats, keeping first-seen order.
func Dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
