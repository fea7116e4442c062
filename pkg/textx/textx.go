// Package textx provides small text utilities used across the project.
package textx

import (
	"strings"

	"golang.org/x/text/width"
)

// SanitizeText removes control characters except tab/newline/CR and trims spaces.
func SanitizeText(s string) string {
	// strip control chars outside tab/newline/carriage return
	var b strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// FoldWidth maps full-width letters, digits and punctuation to their ASCII forms,
// so "Ａ" reads as "A" and "１８" as "18".
func FoldWidth(s string) string { return width.Fold.String(s) }
