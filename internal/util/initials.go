package util

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Initials takes the first letter of each word, uppercased, keeping two.
func Initials(name string) string {
	var b strings.Builder
	n := 0
	for _, w := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(w)
		b.WriteRune(unicode.ToUpper(r))
		n++
		if n == 2 {
			break
		}
	}
	if n == 0 {
		return "U"
	}
	return b.String()
}
