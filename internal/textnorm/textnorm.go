// Package textnorm canonicalizes claim text and derives its content hash.
// The hash is the textual identity key for deduplication: trivial case,
// whitespace and punctuation variants must collide, semantic paraphrases
// must not.
package textnorm

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// Normalize canonicalizes text for content identity:
//  1. lowercase (Unicode-aware)
//  2. drop every rune that is neither a word character (letter, digit,
//     underscore) nor whitespace; accented letters are kept
//  3. collapse whitespace runs to a single ASCII space and trim
func Normalize(text string) string {
	lowered := strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// ContentHash returns the lowercased hex SHA-256 of the normalized text.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(Normalize(text)))
	return hex.EncodeToString(sum[:])
}
