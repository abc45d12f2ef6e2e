package study

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *mockRepo, *echo.Echo) {
	svc, repo, _ := newTestService()
	return NewHandler(svc), repo, echo.New()
}

func TestHandler_Search_Empty(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Search(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != `{"count":0,"records":[]}` {
		t.Errorf("unexpected body %s", body)
	}
}

func TestHandler_Search(t *testing.T) {
	h, repo, e := newTestHandler()
	repo.count = 1
	repo.results = []*SearchResult{{StudyID: 1, NCTID: "NCT01", Title: "NA"}}

	req := httptest.NewRequest(http.MethodGet, "/search?phase_ids=2&enrollment=%3E%3D10&limit=5", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Search(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var res struct {
		Count   int `json:"count"`
		Records []struct {
			StudyID int    `json:"study_id"`
			NCTID   string `json:"nct_id"`
			Title   string `json:"title"`
		} `json:"records"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Count != 1 || res.Records[0].NCTID != "NCT01" || res.Records[0].Title != "NA" {
		t.Errorf("unexpected response %+v", res)
	}
}

func TestHandler_Search_BadParams(t *testing.T) {
	h, _, e := newTestHandler()
	for _, q := range []string{"text_bool=yes", "overall_status_id=x", "limit=-1", "offset=abc"} {
		req := httptest.NewRequest(http.MethodGet, "/search?text=a&"+q, nil)
		c := e.NewContext(req, httptest.NewRecorder())
		err := h.Search(c)
		he, ok := err.(*echo.HTTPError)
		if !ok || he.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %v", q, err)
		}
	}
}

func TestHandler_Search_QueryErrorIs400(t *testing.T) {
	h, repo, e := newTestHandler()
	repo.countErr = &pgconn.PgError{Code: "42601", Message: "syntax error in tsquery: \"&\""}

	req := httptest.NewRequest(http.MethodGet, "/search?text=and&text_bool=1", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	err := h.Search(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
	if he.Message != "syntax error in tsquery: \"&\"" {
		t.Errorf("unexpected message %v", he.Message)
	}
}

func TestHandler_Search_DatastoreFailureIs500(t *testing.T) {
	h, repo, e := newTestHandler()
	repo.countErr = errors.New("connection reset by peer")

	req := httptest.NewRequest(http.MethodGet, "/search?text=asthma", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	he, ok := h.Search(c).(*echo.HTTPError)
	if !ok || he.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %v", he)
	}
}

func TestHandler_GetStudy(t *testing.T) {
	h, repo, e := newTestHandler()
	repo.details["NCT01"] = &Detail{StudyID: 1, NCTID: "NCT01"}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("nct_id")
	c.SetParamValues("NCT01")

	if err := h.GetStudy(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"study_id", "nct_id", "sponsors", "conditions", "interventions", "study_outcomes", "study_docs", "enrollment"} {
		if _, ok := body[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
}

func TestHandler_GetStudy_MissingIsNull(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("nct_id")
	c.SetParamValues("NCT404")

	if err := h.GetStudy(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "null" {
		t.Errorf("expected null body, got %s", body)
	}
}

func TestHandler_Download(t *testing.T) {
	h, repo, e := newTestHandler()
	repo.exports = []*ExportStudy{{StudyID: 1, NCTID: "NCT01"}}
	repo.conditions[1] = []Condition{{ConditionName: "Asthma"}}

	req := httptest.NewRequest(http.MethodGet, "/download?study_ids=1,x&fields=nct_id,conditions", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Download(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rec.Header().Get(echo.HeaderContentDisposition); got != "attachment; filename=download.csv" {
		t.Errorf("unexpected Content-Disposition %q", got)
	}
	if !strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), "text/csv") {
		t.Errorf("unexpected content type %q", rec.Header().Get(echo.HeaderContentType))
	}
	if body := rec.Body.String(); body != "nct_id,conditions\nNCT01,Asthma\n" {
		t.Errorf("unexpected body %q", body)
	}
}

func TestHandler_Download_RequiresIDs(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/download", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	he, ok := h.Download(c).(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", he)
	}
}

func TestHandler_ViewCart(t *testing.T) {
	h, repo, e := newTestHandler()
	repo.cart = []*CartItem{{StudyID: 4, NCTID: "NCT04", Title: "Brief"}}

	req := httptest.NewRequest(http.MethodGet, "/view_cart?study_ids=4,%20abc", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ViewCart(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != `[{"study_id":4,"nct_id":"NCT04","title":"Brief"}]` {
		t.Errorf("unexpected body %s", body)
	}
}

func TestHandler_Dataload(t *testing.T) {
	h, repo, e := newTestHandler()
	repo.numStudies = 2
	req := httptest.NewRequest(http.MethodGet, "/dataload", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Dataload(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != `{"num_studies":2,"updated_on":"NA"}` {
		t.Errorf("unexpected body %s", body)
	}
}
