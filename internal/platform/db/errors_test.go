package db

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsQueryError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"tsquery syntax", &pgconn.PgError{Code: "42601", Message: "syntax error in tsquery"}, true},
		{"wrapped data exception", fmt.Errorf("count studies: %w", &pgconn.PgError{Code: "22P02"}), true},
		{"numeric out of range", &pgconn.PgError{Code: "22003"}, true},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, false},
		{"connection failure", &pgconn.PgError{Code: "08006"}, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsQueryError(tt.err); got != tt.want {
				t.Errorf("IsQueryError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQueryErrorMessage(t *testing.T) {
	err := fmt.Errorf("search: %w", &pgconn.PgError{Code: "42601", Message: "syntax error in tsquery: \"&\""})
	if got := QueryErrorMessage(err); got != "syntax error in tsquery: \"&\"" {
		t.Errorf("unexpected message %q", got)
	}
	if got := QueryErrorMessage(errors.New("boom")); got != "boom" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestHTTPError(t *testing.T) {
	he := HTTPError(fmt.Errorf("search: %w", &pgconn.PgError{Code: "42601", Message: "syntax error in tsquery"}))
	if he.Code != http.StatusBadRequest || he.Message != "syntax error in tsquery" {
		t.Errorf("query error mapped to %d %v", he.Code, he.Message)
	}
	he = HTTPError(errors.New("connection reset"))
	if he.Code != http.StatusInternalServerError || he.Message != "connection reset" {
		t.Errorf("other error mapped to %d %v", he.Code, he.Message)
	}
}
