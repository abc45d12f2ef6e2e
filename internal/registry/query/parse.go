package query

import (
	"regexp"
	"strconv"
	"strings"
)

// Op is a numeric comparison operator.
type Op int

const (
	Eq Op = iota
	Lt
	Le
	Gt
	Ge
)

var opSQL = [...]string{Eq: "=", Lt: "<", Le: "<=", Gt: ">", Ge: ">="}

func (o Op) String() string {
	if o < 0 || int(o) >= len(opSQL) {
		return opSQL[Eq]
	}
	return opSQL[o]
}

var (
	comparisonPattern = regexp.MustCompile(`^(=|==|<|<=|>|>=)?\s*(\d+)$`)
	opTokens          = map[string]Op{"": Ge, "=": Eq, "==": Eq, "<": Lt, "<=": Le, ">": Gt, ">=": Ge}
)

// ParseComparison parses "[op]n" where op is one of = == < <= > >=. A missing
// operator means >=. ok is false when s does not have that shape.
func ParseComparison(s string) (op Op, n int64, ok bool) {
	m := comparisonPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	n, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return opTokens[m[1]], n, true
}

// ParseIDs splits a comma-separated list and keeps only tokens made entirely
// of decimal digits (surrounding spaces are trimmed). Everything else is
// dropped. The result is non-nil even when every token was rejected.
func ParseIDs(s string) []int64 {
	ids := []int64{}
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if !isDigits(tok) {
			continue
		}
		id, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
