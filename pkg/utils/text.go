package utils

import (
	"unicode"

	"github.com/aryann/difflib"
)

// TokenizeWords splits s into runs of whitespace, word characters and punctuation.
func TokenizeWords(s string) []string {
	var out []string
	var cur []rune
	kind := -1 // 0=space,1=word,2=punct
	flush := func() {
		if len(cur) == 0 {
			return
		}
		out = append(out, string(cur))
		cur = cur[:0]
	}
	for _, r := range s {
		k := 2
		switch {
		case unicode.IsSpace(r):
			k = 0
		case unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || r == '-' || r == '\'':
			k = 1
		}
		if kind == -1 {
			kind = k
		}
		if k != kind {
			flush()
			kind = k
		}
		cur = append(cur, r)
	}
	flush()
	return out
}

// WordChanges counts the words added and removed going from a to b.
// Whitespace runs are ignored.
func WordChanges(a, b string) (added, removed int) {
	for _, r := range difflib.Diff(TokenizeWords(a), TokenizeWords(b)) {
		if isSpace(r.Payload) {
			continue
		}
		switch r.Delta {
		case difflib.LeftOnly:
			removed++
		case difflib.RightOnly:
			added++
		}
	}
	return added, removed
}

func isSpace(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
