package query

import (
	"regexp"
	"strings"
)

const textSearchConfig = "english"

// Mode selects how a text term is handed to the search engine.
type Mode int

const (
	// Plain treats the term as a phrase of words; operators are not interpreted.
	Plain Mode = iota
	// Boolean translates and/or/not into tsquery operators.
	Boolean
)

// ModeOf maps the integer flag used in request parameters to a Mode.
func ModeOf(flag int) Mode {
	if flag != 0 {
		return Boolean
	}
	return Plain
}

func (m Mode) function() string {
	if m == Boolean {
		return "to_tsquery"
	}
	return "plainto_tsquery"
}

var (
	wordPattern = regexp.MustCompile(`\S+`)
	operators   = map[string]string{"and": "&", "or": "|", "not": "!"}
)

// Translate prepares a user term for the text-search engine. In boolean mode
// every '*' is removed and each whitespace-delimited and/or/not (any case)
// becomes &, | or !. Everything else, whitespace included, is kept as is.
// In plain mode the term is returned untouched.
func Translate(term string, boolean bool) string {
	if !boolean {
		return term
	}
	term = strings.ReplaceAll(term, "*", "")
	return wordPattern.ReplaceAllStringFunc(term, func(word string) string {
		if op, ok := operators[strings.ToLower(word)]; ok {
			return op
		}
		return word
	})
}
