// Package ids generates the opaque, type-prefixed identifiers used as primary keys for
// products, containers and shelves.
package ids

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// Kind selects the entity prefix.
type Kind string

const (
	KindProduct   Kind = "product"
	KindContainer Kind = "container"
	KindShelf     Kind = "shelf"
)

// RandomBytes is the size of the random suffix source; it encodes to twice as many hex chars.
const RandomBytes = 16

var prefixes = map[Kind]string{
	KindProduct:   "p",
	KindContainer: "c",
	KindShelf:     "s",
}

// Prefix returns the single-letter prefix for kind.
func (k Kind) Prefix() (string, error) {
	p, ok := prefixes[k]
	if !ok {
		return "", fmt.Errorf("unknown identifier kind %q", string(k))
	}
	return p, nil
}

// Generator produces identifiers from a random source.
type Generator struct {
	random io.Reader
}

// NewGenerator returns a generator over crypto/rand.
func NewGenerator() *Generator {
	return &Generator{random: rand.Reader}
}

// NewGeneratorFrom builds a generator reading from r. Tests use it to force collisions.
func NewGeneratorFrom(r io.Reader) *Generator {
	return &Generator{random: r}
}

// Generate returns prefix + 32 lowercase hex characters. Uniqueness is not checked here;
// a collision surfaces as a primary key violation on insert.
func (g *Generator) Generate(kind Kind) (string, error) {
	prefix, err := kind.Prefix()
	if err != nil {
		return "", err
	}
	src := g.random
	if src == nil {
		src = rand.Reader
	}
	buf := make([]byte, RandomBytes)
	if _, err := io.ReadFull(src, buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return prefix + hex.EncodeToString(buf), nil
}

// GenerateN returns n identifiers of the same kind in generation order.
func (g *Generator) GenerateN(kind Kind, n int) ([]string, error) {
	if n <= 0 {
		return nil, fmt.Errorf("identifier count must be positive, got %d", n)
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id, err := g.Generate(kind)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// KindOf reports the entity kind encoded in id's prefix.
func KindOf(id string) (Kind, bool) {
	if len(id) != 1+2*RandomBytes {
		return "", false
	}
	if _, err := hex.DecodeString(id[1:]); err != nil {
		return "", false
	}
	for kind, prefix := range prefixes {
		if strings.HasPrefix(id, prefix) {
			return kind, true
		}
	}
	return "", false
}
