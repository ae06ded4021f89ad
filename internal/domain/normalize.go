package domain

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// KeySeparator joins the province and district tokens of a composite key.
const KeySeparator = "|"

// folders pools the Turkish folding chain. Casers and chains carry state and
// must not be shared between goroutines.
var folders = sync.Pool{
	New: func() any {
		return transform.Chain(
			cases.Lower(language.Turkish),
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			runes.Map(func(r rune) rune {
				if r == 'ı' {
					return 'i'
				}
				return r
			}),
		)
	},
}

// Normalize folds a place name to its canonical key token: Turkish-aware
// lower-casing, diacritics removed, dotless ı folded to i, and every run of
// characters outside [a-z0-9] collapsed to a single space. The result is
// trimmed. Normalize is idempotent.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	t := folders.Get().(transform.Transformer)
	folded, _, err := transform.String(t, s)
	folders.Put(t)
	if err != nil {
		folded = strings.ToLower(s)
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}

// CompositeKey returns the canonical lookup key for a province/district pair.
func CompositeKey(province, district string) string {
	return JoinKey(Normalize(province), Normalize(district))
}

// JoinKey joins two already-normalized tokens. It returns "" when either is empty.
func JoinKey(provinceKey, districtKey string) string {
	if provinceKey == "" || districtKey == "" {
		return ""
	}
	return provinceKey + KeySeparator + districtKey
}
