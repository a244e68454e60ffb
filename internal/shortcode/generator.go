// Package shortcode generates random short codes for links.
package shortcode

import (
	"crypto/rand"
	"fmt"
	"io"

	customerrors "github.com/axellelanca/linkquota/internal/errors"
)

// Alphabet defines the character set used for short codes: 26 lower, 26 upper, 10 digits.
// 62^6 gives ~56 billion codes for the default length of 6.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Bytes at or above this value are discarded so that byte % 62 stays uniform.
const rejectAbove = 256 - 256%len(Alphabet)

// Generator draws codes from an injected random source.
type Generator struct {
	random io.Reader
}

// NewGenerator returns a generator reading from random, or from crypto/rand when random is nil.
func NewGenerator(random io.Reader) *Generator {
	if random == nil {
		random = rand.Reader
	}
	return &Generator{random: random}
}

// Generate returns a code of exactly length characters from Alphabet.
// It does not check uniqueness.
func (g *Generator) Generate(length int) (string, error) {
	if length <= 0 {
		return "", customerrors.Validation("generate code", "length must be > 0, got %d", length)
	}

	code := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(code) < length {
		if _, err := io.ReadFull(g.random, buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= rejectAbove {
				continue
			}
			code = append(code, Alphabet[int(b)%len(Alphabet)])
			if len(code) == length {
				break
			}
		}
	}
	return string(code), nil
}
