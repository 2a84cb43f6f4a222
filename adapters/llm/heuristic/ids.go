package heuristic

import (
	"fmt"
	"strings"
	"unicode"
)

// idAllocator hands out batch-unique IDs, suffixing _2, _3 on collisions.
type idAllocator struct {
	used map[string]bool
}

func newIDAllocator() *idAllocator {
	return &idAllocator{used: make(map[string]bool)}
}

func (a *idAllocator) next(base string) string {
	id := base
	for n := 2; a.used[id]; n++ {
		id = fmt.Sprintf("%s_%d", base, n)
	}
	a.used[id] = true
	return id
}

// slug lowercases s and joins alphanumeric runs with underscores.
func slug(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	if b.Len() == 0 {
		return "unnamed"
	}
	return b.String()
}

// label makes a Data Agent supplied name safe to quote inside a one-sentence
// claim: no sentence terminators, semicolons or line breaks survive.
func label(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case r == '-', r == '_', r == '&', r == '/', r == '\'':
			return r
		}
		return ' '
	}, s)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return "unnamed"
	}
	return cleaned
}
