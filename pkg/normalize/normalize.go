// Package normalize provides pure string canonicalization for duplicate
// detection. Every function is deterministic and idempotent: applying it
// twice yields the same result as applying it once.
package normalize

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Legal-entity suffix tokens stripped from titles at word boundaries.
// Punctuation is stripped first so "Inc." arrives here as "inc".
var suffixRE = regexp.MustCompile(`\b(?:inc|llc|ltd|corp|co|company|incorporated)\b`)

var (
	punctRE      = regexp.MustCompile(`[^\w\s]`)
	whitespaceRE = regexp.MustCompile(`\s+`)
	nonDigitRE   = regexp.MustCompile(`\D`)
)

// accentFolder decomposes characters and drops combining marks so that
// "Café" and "Cafe" produce the same key.
var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Title returns the canonical comparison key for a record title:
// lowercased, accents folded, legal-entity suffixes removed, punctuation
// stripped, whitespace collapsed.
func Title(title string) string {
	normalized := strings.ToLower(title)
	if folded, _, err := transform.String(accentFolder, normalized); err == nil {
		normalized = folded
	}
	normalized = punctRE.ReplaceAllString(normalized, "")
	normalized = suffixRE.ReplaceAllString(normalized, "")
	normalized = whitespaceRE.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(normalized)
}

// Phone reduces a phone number to its digits, dropping a leading country
// code 1 from eleven-digit numbers.
func Phone(phone string) string {
	digits := nonDigitRE.ReplaceAllString(phone, "")
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	return digits
}

// WebsiteHost extracts the lowercased host from a website URL, without
// scheme, "www." prefix, port, or path. Returns "" when no host can be
// derived.
func WebsiteHost(website string) string {
	s := strings.TrimSpace(strings.ToLower(website))
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	host := u.Hostname()
	host = strings.TrimPrefix(host, "www.")
	return host
}
