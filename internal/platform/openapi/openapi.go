package openapi

import (
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
)

// Param is a query or path parameter of an operation.
type Param struct {
	Name        string
	Type        string // "string", "integer" or "boolean"
	Description string
	Required    bool
}

// Operation describes one GET endpoint. Path uses echo syntax; ":name"
// segments become required path parameters.
type Operation struct {
	Path        string
	Summary     string
	Tag         string
	Params      []Param
	ContentType string // defaults to application/json
}

// Generator builds an OpenAPI 3.0 document from registered operations.
type Generator struct {
	title   string
	version string
	prefix  string
	ops     []Operation
}

// NewGenerator creates a generator for an API mounted under prefix.
func NewGenerator(title, version, prefix string) *Generator {
	return &Generator{title: title, version: version, prefix: prefix}
}

// Add registers operations.
func (g *Generator) Add(ops ...Operation) {
	g.ops = append(g.ops, ops...)
}

// PageParams are the limit/offset parameters shared by paged listings.
func PageParams() []Param {
	return []Param{
		{Name: "limit", Type: "integer", Description: "Maximum number of rows"},
		{Name: "offset", Type: "integer", Description: "Number of rows to skip"},
	}
}

// GenerateSpec produces the OpenAPI 3.0 spec as a map.
func (g *Generator) GenerateSpec() map[string]interface{} {
	paths := make(map[string]interface{}, len(g.ops))
	tagSet := make(map[string]bool)

	for _, op := range g.ops {
		path, params := g.convertPath(op.Path)
		for _, p := range op.Params {
			params = append(params, buildParameter(p, "query"))
		}
		contentType := op.ContentType
		if contentType == "" {
			contentType = "application/json"
		}

		get := map[string]interface{}{
			"summary":     op.Summary,
			"operationId": operationID(op.Path),
			"parameters":  params,
			"responses": map[string]interface{}{
				"200": map[string]interface{}{
					"description": "OK",
					"content":     map[string]interface{}{contentType: map[string]interface{}{}},
				},
				"400": map[string]interface{}{"$ref": "#/components/responses/Error"},
				"500": map[string]interface{}{"$ref": "#/components/responses/Error"},
			},
		}
		if op.Tag != "" {
			get["tags"] = []string{op.Tag}
			tagSet[op.Tag] = true
		}
		paths[path] = map[string]interface{}{"get": get}
	}

	tagNames := make([]string, 0, len(tagSet))
	for t := range tagSet {
		tagNames = append(tagNames, t)
	}
	sort.Strings(tagNames)
	tags := make([]map[string]string, 0, len(tagNames))
	for _, t := range tagNames {
		tags = append(tags, map[string]string{"name": t})
	}

	server := g.prefix
	if server == "" {
		server = "/"
	}

	return map[string]interface{}{
		"openapi": "3.0.3",
		"info": map[string]interface{}{
			"title":   g.title,
			"version": g.version,
		},
		"servers": []map[string]string{{"url": server}},
		"tags":    tags,
		"paths":   paths,
		"components": map[string]interface{}{
			"responses": map[string]interface{}{
				"Error": map[string]interface{}{
					"description": "Error",
					"content": map[string]interface{}{
						"application/json": map[string]interface{}{
							"schema": map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"message": map[string]string{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
	}
}

// convertPath rewrites ":name" segments to "{name}" and returns the
// matching path parameters.
func (g *Generator) convertPath(path string) (string, []map[string]interface{}) {
	var params []map[string]interface{}
	segs := strings.Split(path, "/")
	for i, s := range segs {
		if strings.HasPrefix(s, ":") {
			name := s[1:]
			segs[i] = "{" + name + "}"
			params = append(params, buildParameter(Param{Name: name, Type: "string", Required: true}, "path"))
		}
	}
	if params == nil {
		params = []map[string]interface{}{}
	}
	return strings.Join(segs, "/"), params
}

func buildParameter(p Param, in string) map[string]interface{} {
	typ := p.Type
	if typ == "" {
		typ = "string"
	}
	param := map[string]interface{}{
		"name":   p.Name,
		"in":     in,
		"schema": map[string]string{"type": typ},
	}
	if p.Required {
		param["required"] = true
	}
	if p.Description != "" {
		param["description"] = p.Description
	}
	return param
}

// operationID derives a camel-case id from the path, e.g.
// "/docs/study/:nct_id" -> "getDocsStudyByNctId".
func operationID(path string) string {
	var b strings.Builder
	b.WriteString("get")
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		if strings.HasPrefix(seg, ":") {
			b.WriteString("By")
			seg = seg[1:]
		}
		for _, word := range strings.Split(seg, "_") {
			if word == "" {
				continue
			}
			b.WriteString(strings.ToUpper(word[:1]) + word[1:])
		}
	}
	return b.String()
}

// RegisterRoutes serves the document at /openapi.json.
func (g *Generator) RegisterRoutes(api *echo.Group) {
	api.GET("/openapi.json", func(c echo.Context) error {
		return c.JSON(http.StatusOK, g.GenerateSpec())
	})
}
