package db

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
)

// syntaxError is the SQLSTATE Postgres raises for an unparsable tsquery.
const syntaxError = "42601"

// IsQueryError reports whether err is Postgres rejecting a statement because
// of a request value: any data exception (class 22) or a syntax error inside
// a bound text query. Missing tables and other class 42 errors are not
// caused by input and stay server errors.
func IsQueryError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == syntaxError || strings.HasPrefix(pgErr.Code, "22")
}

// QueryErrorMessage returns the engine's message for a query error, or the
// error text otherwise.
func QueryErrorMessage(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Message
	}
	return err.Error()
}

// HTTPError maps a failed read to a response: 400 with the engine's message
// for query errors, 500 with the error text for everything else.
func HTTPError(err error) *echo.HTTPError {
	if IsQueryError(err) {
		return echo.NewHTTPError(http.StatusBadRequest, QueryErrorMessage(err))
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
