package docstore

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/criticalpathinstitute/ctweb/internal/platform/openapi"
)

type Handler struct {
	store Store
	log   zerolog.Logger
}

func NewHandler(store Store, log zerolog.Logger) *Handler {
	return &Handler{store: store, log: log.With().Str("component", "docstore").Logger()}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/docs")
	g.GET("/search/:term", h.Search)
	g.GET("/summary", h.Summary)
	g.GET("/study/:nct_id", h.GetStudy)
}

func (h *Handler) Search(c echo.Context) error {
	term := strings.TrimSpace(c.Param("term"))
	if term == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "term is required")
	}
	docs, err := h.store.Search(c.Request().Context(), term)
	if err != nil {
		return h.fail(err, "document search failed")
	}
	return c.JSON(http.StatusOK, docs)
}

func (h *Handler) Summary(c echo.Context) error {
	n, err := h.store.Count(c.Request().Context())
	if err != nil {
		return h.fail(err, "document count failed")
	}
	return c.JSON(http.StatusOK, Summary{NumStudies: n})
}

// GetStudy answers 200 with a null body when no document matches.
func (h *Handler) GetStudy(c echo.Context) error {
	d, err := h.store.GetByNCTID(c.Request().Context(), c.Param("nct_id"))
	if err != nil {
		return h.fail(err, "document lookup failed")
	}
	if d == nil {
		return c.JSON(http.StatusOK, nil)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) fail(err error, msg string) error {
	h.log.Error().Err(err).Msg(msg)
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

// Operations describes the routes served by RegisterRoutes.
func Operations() []openapi.Operation {
	return []openapi.Operation{
		{Path: "/docs/search/:term", Summary: "Text search over stored study documents", Tag: "documents"},
		{Path: "/docs/summary", Summary: "Stored document count", Tag: "documents"},
		{Path: "/docs/study/:nct_id", Summary: "Stored document for a study", Tag: "documents"},
	}
}
