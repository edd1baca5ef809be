package lexicon

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const tatweel = 'ـ'

// foldChain strips combining marks (harakat, hamza above/below, madda) after
// decomposition, so أ إ آ fold to ا, ؤ to و and ئ to ي.
// transform.Chain keeps internal buffers: build one per call.
func foldChain() transform.Transformer {
	return transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Remove(runes.Predicate(func(r rune) bool { return r == tatweel })),
		runes.Map(foldRune),
		norm.NFC,
	)
}

func foldRune(r rune) rune {
	switch {
	case r == 'ى':
		return 'ي'
	case r == 'ة':
		return 'ه'
	case r >= '٠' && r <= '٩':
		return '0' + (r - '٠')
	case r >= '۰' && r <= '۹':
		return '0' + (r - '۰')
	}
	return r
}

// Fold lowercases s and reduces Arabic spelling variance to one surface form
// (e.g. "فستانٌ أحمرُ" -> "فستان احمر", "صيفى" -> "صيفي", "٥٠٠" -> "500").
// Fold is idempotent.
func Fold(s string) string {
	result, _, err := transform.String(foldChain(), strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return result
}

// Tokenize folds s and splits it on anything that is not a letter or digit.
func Tokenize(s string) []string {
	return strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// isWord reports whether every rune of s is a letter.
func isWord(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}

func isASCIILetters(s string) bool {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c < 'a' || c > 'z' {
			return false
		}
	}
	return s != ""
}
