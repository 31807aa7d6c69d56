// Package arabic canonicalizes Arabic query text before matching.
//
// Classified-ad queries in Algeria mix Arabic and French, and Arabic input
// varies in orthography: the same word arrives with or without tashkeel,
// with hamza-bearing or bare alef, with teh marbuta or heh. Matching runs
// on the folded form so those variants hit the same listings.
package arabic

import (
	"strings"
	"unicode"
)

// Normalize returns the canonical form of s: tashkeel and tatweel stripped,
// alef/teh marbuta/alef maqsura variants folded, case lowered and whitespace
// collapsed. It is idempotent and returns "" for "".
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))

	lastSpace := true // leading whitespace is dropped
	for _, r := range s {
		if isTashkeel(r) || r == tatweel {
			continue
		}
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
			continue
		}
		lastSpace = false
		b.WriteRune(foldRune(unicode.ToLower(r)))
	}

	return strings.TrimRight(b.String(), " ")
}

// Tokens splits s into normalized whitespace-separated tokens.
func Tokens(s string) []string {
	norm := Normalize(s)
	if norm == "" {
		return nil
	}
	return strings.Split(norm, " ")
}

const tatweel = 'ـ'

// isTashkeel reports whether r is an Arabic diacritic mark.
func isTashkeel(r rune) bool {
	switch {
	case r >= 'ؐ' && r <= 'ؚ':
		return true
	case r >= 'ً' && r <= 'ٟ':
		return true
	case r == 'ٰ': // superscript alef
		return true
	}
	return false
}

// foldRune maps Arabic letter variants to a single canonical form.
func foldRune(r rune) rune {
	switch r {
	case 'آ', 'أ', 'إ', 'ٱ': // آ أ إ ٱ
		return 'ا' // ا bare alef
	case 'ة': // ة teh marbuta
		return 'ه' // ه heh
	case 'ى': // ى alef maqsura
		return 'ي' // ي yeh
	}
	return r
}
