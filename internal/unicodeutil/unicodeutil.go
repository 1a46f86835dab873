// Package unicodeutil is the Unicode service consumed by normalize and
// pretokenize: normalization forms, case mapping, accent stripping, and
// whitespace/control detection. It is a thin, stateless wrapper over
// golang.org/x/text and the standard library's unicode package — the spec
// describes this as a service with a narrow documented surface (spec.md
// §1, §4.2, §9 "Global Unicode service"), not an implementation detail we
// own, so it does not reinvent normalization or casing tables.
//
// Unlike the C++ original's icu_integration.cpp/icu_utils.cpp, which hold
// normalizer and break-iterator handles in process-wide static state
// guarded by a mutex, x/text's norm.Form values and the case transformer
// are stateless and safe for concurrent use without pooling — see
// DESIGN.md's note on spec.md §9's Unicode-service open design point.
package unicodeutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Form mirrors spec.md §3's normalization_form enum.
type Form int

const (
	FormNone Form = iota
	FormNFC
	FormNFD
	FormNFKC
	FormNFKD
)

// Normalize applies the requested Unicode normalization form. FormNone is
// the identity transform.
func Normalize(f Form, s string) string {
	switch f {
	case FormNFC:
		return norm.NFC.String(s)
	case FormNFD:
		return norm.NFD.String(s)
	case FormNFKC:
		return norm.NFKC.String(s)
	case FormNFKD:
		return norm.NFKD.String(s)
	default:
		return s
	}
}

var lowerCaser = cases.Lower(language.Und)

// Lowercase applies full Unicode, locale-independent lowercasing —
// spec.md §4.2 requires this rather than the teacher's ASCII-oriented
// strings.ToLower fallback.
func Lowercase(s string) string {
	return lowerCaser.String(s)
}

// StripAccents removes Unicode "Nonspacing Mark" (Mn) characters from s.
// Callers are expected to have already applied NFD; see
// normalize.Normalizer.Normalize for the NFD -> strip -> NFC pipeline
// spec.md §4.2 step (3) describes.
func StripAccents(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IsWhitespace reports whether r is Unicode whitespace, including the
// ASCII control whitespace characters the Zs category alone misses
// (ported from the teacher's hftokenizer.go#isWhitespace).
func IsWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

// IsControl reports whether r is a control character that should be
// stripped by remove_control_chars, excluding the whitespace controls
// that normalize_whitespace handles separately.
func IsControl(r rune) bool {
	switch r {
	case '\t', '\n', '\r':
		return false
	}
	return unicode.IsControl(r)
}

// IsPunctuation reports whether r is punctuation by the ASCII ranges the
// BERT pre-tokenizer convention uses, falling back to unicode.IsPunct for
// non-ASCII (ported from hftokenizer.go#isPunctuation).
func IsPunctuation(r rune) bool {
	switch {
	case r >= 33 && r <= 47, r >= 58 && r <= 64, r >= 91 && r <= 96, r >= 123 && r <= 126:
		return true
	}
	return unicode.IsPunct(r)
}

// NormalizeWhitespace collapses runs of whitespace to a single space and
// trims the result, the convention the BertNormalizer uses (spec.md §3
// "normalize_whitespace").
func NormalizeWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if IsWhitespace(r) {
			if !inSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			inSpace = true
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return strings.TrimRight(b.String(), " ")
}

// RemoveControlChars drops control characters (other than \t\n\r) from s.
func RemoveControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == 0 || r == 0xFFFD || IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
