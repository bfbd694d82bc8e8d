package bm25

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Stopwords for the two languages found in municipal corpora.
// The list is shared by index time and query time; changing it
// requires a full re-index.
var stopwords = map[string]struct{}{
	// German
	"der": {}, "die": {}, "das": {}, "den": {}, "dem": {}, "des": {},
	"ein": {}, "eine": {}, "einer": {}, "eines": {}, "einem": {}, "einen": {},
	"und": {}, "oder": {}, "aber": {}, "auch": {}, "auf": {}, "aus": {},
	"bei": {}, "bis": {}, "durch": {}, "für": {}, "gegen": {}, "im": {},
	"in": {}, "ist": {}, "mit": {}, "nach": {}, "nicht": {}, "noch": {},
	"nur": {}, "sich": {}, "sie": {}, "sind": {}, "so": {}, "über": {},
	"um": {}, "vom": {}, "von": {}, "vor": {}, "war": {}, "werden": {},
	"wird": {}, "wie": {}, "zu": {}, "zum": {}, "zur": {}, "als": {},
	"am": {}, "an": {}, "dass": {}, "er": {}, "es": {}, "hat": {},
	"haben": {}, "kann": {}, "sowie": {}, "wenn": {},
	// English
	"a": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "if": {},
	"is": {}, "it": {}, "of": {}, "on": {}, "or": {}, "that": {},
	"the": {}, "to": {}, "was": {}, "were": {}, "will": {}, "with": {},
	"this": {}, "which": {},
}

// tokenize lower-cases text and splits it into terms on
// letter/digit boundaries. The section sign is kept attached to the
// following number so "§12" and "§ 12" index to the same term,
// letting exact statute references match regardless of spacing.
func tokenize(text string) []string {
	text = strings.ToLower(text)

	var tokens []string
	var current strings.Builder
	sawSection := false

	flush := func() {
		if current.Len() == 0 {
			return
		}
		term := current.String()
		current.Reset()
		if utf8.RuneCountInString(term) < 2 && !strings.HasPrefix(term, "§") {
			return
		}
		if _, stop := stopwords[term]; stop {
			return
		}
		tokens = append(tokens, term)
	}

	for _, r := range text {
		switch {
		case r == '§':
			flush()
			sawSection = true
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if sawSection {
				current.WriteRune('§')
				sawSection = false
			}
			current.WriteRune(r)
		default:
			sawSection = sawSection && unicode.IsSpace(r)
			flush()
		}
	}
	flush()

	return tokens
}
