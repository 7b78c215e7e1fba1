// Package uuid wraps ID generation behind an interface so tests can
// substitute deterministic IDs.
package uuid

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator produces unique string IDs for entities and effects.
type Generator interface {
	New() string
}

// GoogleUUIDGenerator implements Generator using Google's UUID package
type GoogleUUIDGenerator struct{}

// New generates a new UUID string
func (g *GoogleUUIDGenerator) New() string {
	return uuid.New().String()
}

// NewGoogleUUIDGenerator creates a new GoogleUUIDGenerator
func NewGoogleUUIDGenerator() *GoogleUUIDGenerator {
	return &GoogleUUIDGenerator{}
}

// SequentialGenerator produces predictable IDs with a fixed prefix.
// Intended for tests and dry runs where entity IDs appear in output.
type SequentialGenerator struct {
	Prefix string
	next   int
}

// New returns the next sequential ID
func (g *SequentialGenerator) New() string {
	g.next++
	return fmt.Sprintf("%s-%d", g.Prefix, g.next)
}
