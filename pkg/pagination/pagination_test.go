package pagination

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/labstack/echo/v4"
)

func contextFor(target string) echo.Context {
	e := echo.New()
	return e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
}

func TestFromContext_Defaults(t *testing.T) {
	p, err := FromContext(contextFor("/"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Limit != 0 || p.Offset != 0 {
		t.Errorf("expected zero window, got %+v", p)
	}
	if !p.Unbounded() {
		t.Error("expected default window to be unbounded")
	}
}

func TestFromContext_CustomValues(t *testing.T) {
	p, err := FromContext(contextFor("/?limit=50&offset=10"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Limit != 50 || p.Offset != 10 {
		t.Errorf("expected 50/10, got %+v", p)
	}
	if p.Unbounded() {
		t.Error("expected bounded window")
	}
}

func TestFromContext_Invalid(t *testing.T) {
	for _, target := range []string{"/?limit=abc", "/?limit=-1", "/?offset=x", "/?offset=-5"} {
		if _, err := FromContext(contextFor(target)); err == nil {
			t.Errorf("%s: expected error", target)
		}
	}
}

func TestParams_SQL(t *testing.T) {
	tests := []struct {
		p    Params
		next int
		sql  string
		args []interface{}
	}{
		{Params{}, 1, "", nil},
		{Params{Limit: 10}, 1, " LIMIT $1", []interface{}{10}},
		{Params{Offset: 5}, 3, " OFFSET $3", []interface{}{5}},
		{Params{Limit: 10, Offset: 5}, 2, " LIMIT $2 OFFSET $3", []interface{}{10, 5}},
	}
	for _, tt := range tests {
		sql, args := tt.p.SQL(tt.next)
		if sql != tt.sql || !reflect.DeepEqual(args, tt.args) {
			t.Errorf("%+v.SQL(%d) = %q %v, want %q %v", tt.p, tt.next, sql, args, tt.sql, tt.args)
		}
	}
}
