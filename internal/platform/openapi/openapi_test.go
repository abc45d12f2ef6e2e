package openapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestGenerator() *Generator {
	g := NewGenerator("Registry API", "1.0.0", "/api")
	g.Add(
		Operation{
			Path: "/search", Summary: "Search studies", Tag: "studies",
			Params: append([]Param{{Name: "text", Description: "Full-text query"}}, PageParams()...),
		},
		Operation{Path: "/study/:nct_id", Summary: "Study detail", Tag: "studies"},
		Operation{Path: "/download", Summary: "CSV export", Tag: "studies", ContentType: "text/csv",
			Params: []Param{{Name: "study_ids", Required: true}}},
		Operation{Path: "/phases", Summary: "List phases", Tag: "lookups"},
	)
	return g
}

func TestGenerateSpec_Structure(t *testing.T) {
	spec := newTestGenerator().GenerateSpec()

	if spec["openapi"] != "3.0.3" {
		t.Errorf("expected openapi '3.0.3', got %v", spec["openapi"])
	}
	info, ok := spec["info"].(map[string]interface{})
	if !ok {
		t.Fatal("expected info object")
	}
	if info["title"] != "Registry API" || info["version"] != "1.0.0" {
		t.Errorf("unexpected info: %v", info)
	}

	servers, ok := spec["servers"].([]map[string]string)
	if !ok || len(servers) != 1 || servers[0]["url"] != "/api" {
		t.Errorf("unexpected servers: %v", spec["servers"])
	}

	tags, ok := spec["tags"].([]map[string]string)
	if !ok || len(tags) != 2 || tags[0]["name"] != "lookups" || tags[1]["name"] != "studies" {
		t.Errorf("expected sorted tags [lookups studies], got %v", spec["tags"])
	}

	paths, ok := spec["paths"].(map[string]interface{})
	if !ok {
		t.Fatal("expected paths object")
	}
	if len(paths) != 4 {
		t.Errorf("expected 4 paths, got %d", len(paths))
	}
}

func TestGenerateSpec_PathParams(t *testing.T) {
	paths := newTestGenerator().GenerateSpec()["paths"].(map[string]interface{})

	if _, ok := paths["/study/:nct_id"]; ok {
		t.Error("echo path syntax should be converted")
	}
	item, ok := paths["/study/{nct_id}"].(map[string]interface{})
	if !ok {
		t.Fatal("expected /study/{nct_id}")
	}
	get := item["get"].(map[string]interface{})
	if get["operationId"] != "getStudyByNctId" {
		t.Errorf("unexpected operationId %v", get["operationId"])
	}
	params := get["parameters"].([]map[string]interface{})
	if len(params) != 1 {
		t.Fatalf("expected 1 parameter, got %d", len(params))
	}
	if params[0]["in"] != "path" || params[0]["name"] != "nct_id" || params[0]["required"] != true {
		t.Errorf("unexpected path parameter %v", params[0])
	}
}

func TestGenerateSpec_QueryParams(t *testing.T) {
	paths := newTestGenerator().GenerateSpec()["paths"].(map[string]interface{})
	get := paths["/search"].(map[string]interface{})["get"].(map[string]interface{})
	params := get["parameters"].([]map[string]interface{})
	if len(params) != 3 {
		t.Fatalf("expected 3 parameters, got %d", len(params))
	}
	limit := params[1]
	if limit["name"] != "limit" || limit["in"] != "query" {
		t.Errorf("unexpected parameter %v", limit)
	}
	if schema := limit["schema"].(map[string]string); schema["type"] != "integer" {
		t.Errorf("expected integer schema, got %v", schema)
	}
	if _, ok := limit["required"]; ok {
		t.Error("optional parameter should not be marked required")
	}
}

func TestGenerateSpec_ContentType(t *testing.T) {
	paths := newTestGenerator().GenerateSpec()["paths"].(map[string]interface{})

	content := func(path string) map[string]interface{} {
		get := paths[path].(map[string]interface{})["get"].(map[string]interface{})
		ok := get["responses"].(map[string]interface{})["200"].(map[string]interface{})
		return ok["content"].(map[string]interface{})
	}
	if _, ok := content("/download")["text/csv"]; !ok {
		t.Error("expected text/csv response for /download")
	}
	if _, ok := content("/phases")["application/json"]; !ok {
		t.Error("expected application/json by default")
	}
}

func TestOperationID(t *testing.T) {
	tests := map[string]string{
		"/search":             "getSearch",
		"/view_cart":          "getViewCart",
		"/docs/search/:term":  "getDocsSearchByTerm",
		"/docs/study/:nct_id": "getDocsStudyByNctId",
		"/saved_searches":     "getSavedSearches",
	}
	for path, want := range tests {
		if got := operationID(path); got != want {
			t.Errorf("operationID(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestRegisterRoutes_ServesJSON(t *testing.T) {
	e := echo.New()
	newTestGenerator().RegisterRoutes(e.Group(""))

	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if doc["openapi"] != "3.0.3" {
		t.Errorf("unexpected document: %v", doc["openapi"])
	}
}

func TestGenerateSpec_EmptyPrefix(t *testing.T) {
	spec := NewGenerator("x", "1", "").GenerateSpec()
	servers := spec["servers"].([]map[string]string)
	if servers[0]["url"] != "/" {
		t.Errorf("expected root server url, got %q", servers[0]["url"])
	}
}
