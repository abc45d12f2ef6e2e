package lookup

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/criticalpathinstitute/ctweb/internal/platform/db"
	"github.com/criticalpathinstitute/ctweb/internal/platform/openapi"
	"github.com/criticalpathinstitute/ctweb/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes serves GET /<kind> for every lookup kind.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	for _, k := range Kinds {
		api.GET("/"+k.Path, h.List(k))
	}
}

// List returns the handler for one lookup kind. Query parameters: name,
// bool_search, limit, offset.
func (h *Handler) List(kind Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		opts := ListOptions{Name: c.QueryParam("name")}
		if raw := c.QueryParam("bool_search"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "bool_search must be an integer")
			}
			opts.BoolSearch = n
		}
		page, err := pagination.FromContext(c)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		opts.Limit, opts.Offset = page.Limit, page.Offset

		rows, err := h.svc.List(c.Request().Context(), kind, opts)
		if err != nil {
			return db.HTTPError(err)
		}
		return c.JSON(http.StatusOK, rows)
	}
}

// Operations describes the routes served by RegisterRoutes.
func Operations() []openapi.Operation {
	params := append([]openapi.Param{
		{Name: "name", Description: "Name query"},
		{Name: "bool_search", Type: "integer", Description: "1 to parse name as a boolean expression"},
	}, openapi.PageParams()...)
	ops := make([]openapi.Operation, 0, len(Kinds))
	for _, k := range Kinds {
		ops = append(ops, openapi.Operation{
			Path: "/" + k.Path, Summary: "List " + strings.ReplaceAll(k.Path, "_", " "), Tag: "lookups", Params: params,
		})
	}
	return ops
}
