// Package contenthash derives the de-duplication key for material content.
package contenthash

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Size is the length of a hex encoded digest.
const Size = sha256.Size * 2

// Hash returns the lowercase hex SHA-256 of content exactly as submitted.
// Whitespace and casing are not normalized.
func Hash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether hash was produced from content.
func Verify(content, hash string) bool {
	return strings.EqualFold(Hash(content), strings.TrimSpace(hash))
}

// Valid reports whether s looks like a digest produced by Hash.
func Valid(s string) bool {
	if len(s) != Size {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// WordCount counts whitespace separated words.
func WordCount(content string) int {
	return len(strings.Fields(content))
}
