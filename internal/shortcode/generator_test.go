package shortcode

import (
	"bytes"
	mrand "math/rand"
	"strings"
	"testing"
	"testing/iotest"

	customerrors "github.com/axellelanca/linkquota/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlphabet(t *testing.T) {
	assert.Len(t, Alphabet, 62)
	seen := make(map[rune]bool)
	for _, r := range Alphabet {
		assert.False(t, seen[r], "duplicate %q", r)
		seen[r] = true
	}
	assert.Equal(t, 248, rejectAbove)
}

func TestGenerateLengthAndCharset(t *testing.T) {
	g := NewGenerator(nil)

	for _, length := range []int{1, 6, 12, 64} {
		code, err := g.Generate(length)
		require.NoError(t, err)
		assert.Len(t, code, length)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(Alphabet, r), "unexpected %q", r)
		}
	}
}

func TestGenerateIsDeterministicWithSeededSource(t *testing.T) {
	a := NewGenerator(mrand.New(mrand.NewSource(42)))
	b := NewGenerator(mrand.New(mrand.NewSource(42)))

	for i := 0; i < 10; i++ {
		codeA, err := a.Generate(8)
		require.NoError(t, err)
		codeB, err := b.Generate(8)
		require.NoError(t, err)
		assert.Equal(t, codeA, codeB)
	}
}

func TestGenerateSkipsBiasedBytes(t *testing.T) {
	// 255 and 248 are rejected, 0 -> 'a', 61 -> '9', 62 -> 'a', 247 -> '9'
	src := bytes.NewReader([]byte{255, 0, 248, 61, 62, 247})
	g := NewGenerator(src)

	code, err := g.Generate(2)
	require.NoError(t, err)
	assert.Equal(t, "a9", code)

	code, err = g.Generate(2)
	require.NoError(t, err)
	assert.Equal(t, "a9", code)
}

func TestGenerateRejectsBadLength(t *testing.T) {
	_, err := NewGenerator(nil).Generate(0)
	assert.ErrorIs(t, err, customerrors.ErrValidation)
}

func TestGenerateReturnsReaderError(t *testing.T) {
	g := NewGenerator(iotest.ErrReader(assert.AnError))

	_, err := g.Generate(6)
	assert.ErrorIs(t, err, assert.AnError)
}
