// Package question derives stable identities from question content.
package question

import (
	"crypto/md5"
	"encoding/hex"
	"path/filepath"
	"strings"
)

// Punctuation is the set of characters removed before hashing and grading.
const Punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// StripPunctuation removes every punctuation character and trims surrounding whitespace.
func StripPunctuation(text string) string {
	stripped := strings.Map(func(r rune) rune {
		if r < 0x80 && strings.ContainsRune(Punctuation, r) {
			return -1
		}
		return r
	}, text)
	return strings.TrimSpace(stripped)
}

// Fingerprint returns the MD5 hex digest of the punctuation-stripped content.
// Case is preserved.
func Fingerprint(content string) string {
	sum := md5.Sum([]byte(StripPunctuation(content)))
	return hex.EncodeToString(sum[:])
}

// AudioRefFunc maps a fingerprint to its cached audio location.
type AudioRefFunc func(fingerprint string) string

// AudioRefIn returns an AudioRefFunc placing files in dir with the given extension.
func AudioRefIn(dir, ext string) AudioRefFunc {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = "mp3"
	}
	return func(fingerprint string) string {
		return filepath.Join(dir, fingerprint+"."+ext)
	}
}
