// Package spellcheck corrects likely misspellings in free-text queries
// against a dictionary, using Levenshtein distance. Correction is limited
// to Cyrillic tokens: anything containing a Latin letter or a digit passes
// through verbatim, as do tokens shorter than three runes.
package spellcheck

import (
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
)

const minCorrectableLen = 3

// Result is the outcome of validating one query.
type Result struct {
	Valid bool
	// Fix is the corrected query; set only when Valid is false.
	Fix string
}

// Check validates query against dictionary. It is a pure function: the
// dictionary is owned by the caller and iterated in slice order, which
// makes the equal-distance tie-break deterministic (first entry wins).
func Check(query string, dictionary []string) Result {
	sanitized := sanitize(query)

	tokens := strings.Fields(sanitized)
	corrected := make([]string, 0, len(tokens))
	for _, token := range tokens {
		corrected = append(corrected, correctToken(token, dictionary))
	}

	fix := strings.Join(corrected, " ")
	normalized := strings.Join(tokens, " ")

	if fix == normalized {
		return Result{Valid: true}
	}
	return Result{Valid: false, Fix: fix}
}

// correctToken returns the dictionary entry closest to token, or the token
// itself when it is too short or not purely Cyrillic.
func correctToken(token string, dictionary []string) string {
	if len([]rune(token)) < minCorrectableLen {
		return token
	}
	if !isCyrillic(token) {
		return token
	}

	best := token
	bestDistance := -1
	for _, entry := range dictionary {
		d := matchr.Levenshtein(token, entry)
		if bestDistance == -1 || d < bestDistance {
			best = entry
			bestDistance = d
		}
	}

	return best
}

// sanitize lowercases the query and blanks out every character outside the
// Latin and Cyrillic lowercase alphabets, so splitting yields clean tokens.
func sanitize(query string) string {
	query = strings.ToLower(query)

	var b strings.Builder
	b.Grow(len(query))
	for _, r := range query {
		if (r >= 'a' && r <= 'z') || (r >= 'а' && r <= 'я') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		b.WriteRune(' ')
	}
	return b.String()
}

// isCyrillic reports whether every rune of the token is a Cyrillic letter.
// Mixed tokens stay uncorrected even when part of them looks misspelled; a
// quirk inherited from the original checker, kept on purpose.
func isCyrillic(token string) bool {
	for _, r := range token {
		if !unicode.Is(unicode.Cyrillic, r) {
			return false
		}
	}
	return true
}
