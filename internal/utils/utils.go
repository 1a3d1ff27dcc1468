// Package utils provides utility functions for filename sanitization and UUID generation.
//
// Functions:
//   - SanitizeFilename: Returns a safe filename for storage.
//     Input: string (filename, possibly with a path and accented letters)
//     Output: string (ASCII-only base name, at most 100 bytes)
//   - GenerateUUID: Returns a new UUID string.
//     Output: string (UUID)
//
// Used throughout the backend for safe file handling and unique IDs.
package utils

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SanitizeFilename folds accents ("Übersicht.pdf" -> "Ubersicht.pdf") and
// replaces every remaining unsafe character with an underscore.
func SanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), base)
	if err != nil {
		folded = base
	}
	safe := unsafeChars.ReplaceAllString(folded, "_")
	if len(safe) > 100 {
		ext := filepath.Ext(safe)
		if len(ext) > 10 {
			ext = ""
		}
		safe = safe[:100-len(ext)] + ext
	}
	if safe == "" || safe == "." || safe == ".." {
		safe = "file"
	}
	return safe
}

func GenerateUUID() string {
	return uuid.New().String()
}
