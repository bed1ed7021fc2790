package engine

import (
	"sync"

	"github.com/google/uuid"
)

// TokenGenerator produces run identifiers. Production uses UUIDv7Generator;
// tests use FixedGenerator for deterministic output.
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run tokens.
//
// UUIDv7 embeds a timestamp in the most significant bits, making tokens
// sortable by creation time, which keeps audit-store listings in run order
// without a separate counter.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined run tokens for testing.
//
// This enables deterministic test execution and golden file comparison.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixedGenerator creates a generator that returns tokens in order.
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

// Generate returns the next predetermined token.
//
// Panics if all tokens have been consumed. This is a fail-fast approach to
// catch test misconfiguration (test analyzed more documents than expected).
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.tokens) {
		panic("FixedGenerator: all tokens exhausted")
	}
	token := g.tokens[g.idx]
	g.idx++
	return token
}
