// Package ids generates the opaque identifiers the protocol engine hands
// out: per-transport request ids, progress tokens, and per-connection
// session ids. It follows the counter-plus-random pattern the teacher uses
// in dkmcp/internal/mcp/server.go's generateClientID, generalized to a
// reusable generator instead of a package-level function tied to one
// naming scheme.
package ids

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator produces request ids and progress tokens unique within the
// lifetime of a single transport. It is safe for concurrent use.
type Generator struct {
	counter atomic.Uint64
}

// NewGenerator returns a ready-to-use Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// NextRequestID returns an opaque, non-empty string unique within this
// generator's lifetime: a random component plus a monotonic counter.
func (g *Generator) NextRequestID() string {
	n := g.counter.Add(1)
	return fmt.Sprintf("%s-%d", randomHex(8), n)
}

// NextProgressToken returns a token prefixed with "progress_" so it reads
// unambiguously in logs, per spec.md §4.2.
func (g *Generator) NextProgressToken() string {
	return "progress_" + randomHex(12)
}

// NewSessionID returns a fresh session identifier. Session ids are
// generated with google/uuid rather than the ad hoc timestamp scheme the
// teacher used, since session ids must be collision-resistant across
// server restarts and persisted-store round trips, not just unique within
// one process's clients map.
func NewSessionID() string {
	return uuid.NewString()
}

// NewStreamID returns a fresh identifier for a logical SSE stream within a
// streamable HTTP session.
func NewStreamID() string {
	return uuid.NewString()
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand on a supported platform does not fail; if it ever
		// does, fall back to a uuid so callers still get a usable token.
		return uuid.NewString()
	}
	return hex.EncodeToString(buf)
}
