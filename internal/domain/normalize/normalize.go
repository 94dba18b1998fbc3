// Package normalize implements the pure text-normalization and
// content-fingerprinting rules the dedup engine and alert dispatcher both
// depend on. Normalization operates over Unicode code points rather than
// bytes so that two sources serving the same story in different encodings
// of the same characters still normalize identically.
package normalize

import (
	"crypto/md5"  //nolint:gosec // configurable weak-hash option, not used for security
	"crypto/sha1" //nolint:gosec // configurable weak-hash option, not used for security
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Text lowercases, strips non-word runes and collapses whitespace over
// Unicode code points. It is pure and idempotent: Text(Text(x)) == Text(x).
func Text(s string) string {
	s = norm.NFC.String(s)
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r):
			if !prevSpace && b.Len() > 0 {
				b.WriteRune(' ')
			}
			prevSpace = true
		default:
			// punctuation and symbols are dropped, not replaced with a
			// space, so "Acme, Inc." and "Acme Inc" fold to the same key
		}
	}
	return strings.TrimSpace(b.String())
}

// HashAlgorithm is the configurable content-fingerprint digest.
type HashAlgorithm string

const (
	HashSHA256 HashAlgorithm = "sha256"
	HashSHA1   HashAlgorithm = "sha1"
	HashMD5    HashAlgorithm = "md5"
)

// ContentHash computes H(Text(title + " " + content)) with the configured
// digest. Two inputs differing only in punctuation, case, or whitespace
// produce the same hash because Text is applied before hashing.
func ContentHash(algo HashAlgorithm, title, content string) string {
	normalized := Text(title + " " + content)

	var sum []byte
	switch algo {
	case HashMD5:
		s := md5.Sum([]byte(normalized)) //nolint:gosec
		sum = s[:]
	case HashSHA1:
		s := sha1.Sum([]byte(normalized)) //nolint:gosec
		sum = s[:]
	case HashSHA256, "":
		s := sha256.Sum256([]byte(normalized))
		sum = s[:]
	default:
		s := sha256.Sum256([]byte(normalized))
		sum = s[:]
	}
	return hex.EncodeToString(sum)
}

// Tokens splits normalized text into a word-token stream, used by both
// title Jaccard scoring and TF-IDF.
func Tokens(normalized string) []string {
	if normalized == "" {
		return nil
	}
	return strings.Fields(normalized)
}

// Bigrams returns the set of character bigrams of s, used by the Dice
// string-similarity component of title_sim. Operates over runes so
// multi-byte characters count as single characters.
func Bigrams(s string) map[string]int {
	r := []rune(s)
	out := make(map[string]int, len(r))
	if len(r) < 2 {
		if len(r) == 1 {
			out[string(r)]++
		}
		return out
	}
	for i := 0; i < len(r)-1; i++ {
		out[string(r[i:i+2])]++
	}
	return out
}

// CleanBoilerplate collapses runs of whitespace and unescapes a small set
// of common HTML entities left over from feed-provided summaries. Full
// HTML unescaping happens upstream via html.UnescapeString; this handles
// the residue full-page extraction sometimes leaves behind.
func CleanBoilerplate(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}
