package pagination

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Params holds the limit/offset window of a listing. A zero Limit means the
// listing is unbounded.
type Params struct {
	Limit  int
	Offset int
}

// FromContext reads the limit and offset query parameters. Absent values
// default to zero; anything that is not a non-negative integer is rejected.
func FromContext(c echo.Context) (Params, error) {
	var p Params
	var err error
	if p.Limit, err = nonNegative(c.QueryParam("limit"), "limit"); err != nil {
		return Params{}, err
	}
	if p.Offset, err = nonNegative(c.QueryParam("offset"), "offset"); err != nil {
		return Params{}, err
	}
	return p, nil
}

func nonNegative(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}

// Unbounded reports whether the window has no row limit.
func (p Params) Unbounded() bool {
	return p.Limit == 0
}

// SQL returns the LIMIT/OFFSET suffix for the window using positional
// parameters numbered from next, together with the values to bind. Parts
// that are zero are omitted.
func (p Params) SQL(next int) (string, []interface{}) {
	var (
		sql  string
		args []interface{}
	)
	if p.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT $%d", next)
		args = append(args, p.Limit)
		next++
	}
	if p.Offset > 0 {
		sql += fmt.Sprintf(" OFFSET $%d", next)
		args = append(args, p.Offset)
	}
	return sql, args
}
