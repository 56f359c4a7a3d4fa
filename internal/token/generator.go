package token

import (
	"crypto/rand"
	"fmt"
	"io"
)

// Alphabet is the id character set: uppercase letters and digits with
// visually confusable characters (0/O, 1/I) removed. 32 symbols, so a
// random byte maps onto it without modulo bias.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Length is the fixed id length. 32^8 ids is ample headroom against
// collision among live invitations.
const Length = 8

// Generator mints short human-transcribable meeting ids. It does not
// track liveness; collision retry against the live id set is owned by
// the caller.
type Generator struct {
	length int
	rand   io.Reader
}

func NewGenerator() *Generator {
	return &Generator{length: Length, rand: rand.Reader}
}

// NewGeneratorWithSource uses a caller-supplied randomness source.
// Intended for tests exercising degenerate sources.
func NewGeneratorWithSource(src io.Reader) *Generator {
	return &Generator{length: Length, rand: src}
}

// Generate returns one candidate id. The only failure mode is the
// randomness source itself failing.
func (g *Generator) Generate() (string, error) {
	buf := make([]byte, g.length)
	if _, err := io.ReadFull(g.rand, buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	id := make([]byte, g.length)
	for i, b := range buf {
		id[i] = Alphabet[int(b)%len(Alphabet)]
	}
	return string(id), nil
}
