package savedsearch

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/criticalpathinstitute/ctweb/internal/platform/db"
	"github.com/criticalpathinstitute/ctweb/internal/platform/openapi"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/save_search", h.Save)
	api.GET("/saved_searches", h.List)
}

func (h *Handler) Save(c echo.Context) error {
	ss, err := searchFromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.Save(c.Request().Context(), c.QueryParam("email_id"), ss)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) List(c echo.Context) error {
	out, err := h.svc.List(c.Request().Context(), c.QueryParam("email"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, out)
}

func searchFromContext(c echo.Context) (*SavedSearch, error) {
	ss := &SavedSearch{
		SearchName:    c.QueryParam("search_name"),
		FullText:      c.QueryParam("full_text"),
		Conditions:    c.QueryParam("conditions"),
		Sponsors:      c.QueryParam("sponsors"),
		Interventions: c.QueryParam("interventions"),
		PhaseIDs:      c.QueryParam("phase_ids"),
		StudyTypeIDs:  c.QueryParam("study_type_ids"),
		EmailTo:       c.QueryParam("email_to"),
	}
	ints := map[string]*int{
		"full_text_bool":     &ss.FullTextBool,
		"conditions_bool":    &ss.ConditionsBool,
		"sponsors_bool":      &ss.SponsorsBool,
		"interventions_bool": &ss.InterventionsBool,
		"enrollment":         &ss.Enrollment,
	}
	for name, dst := range ints {
		raw := c.QueryParam(name)
		if raw == "" {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%s must be an integer", name)
		}
		*dst = int(n)
	}
	return ss, nil
}

func httpError(err error) error {
	if errors.Is(err, ErrInvalidInput) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return db.HTTPError(err)
}

// Operations describes the routes served by RegisterRoutes.
func Operations() []openapi.Operation {
	return []openapi.Operation{
		{Path: "/save_search", Summary: "Save a search for a user", Tag: "saved searches", Params: []openapi.Param{
			{Name: "email_id", Required: true},
			{Name: "search_name", Required: true},
			{Name: "full_text"}, {Name: "full_text_bool", Type: "integer"},
			{Name: "conditions"}, {Name: "conditions_bool", Type: "integer"},
			{Name: "sponsors"}, {Name: "sponsors_bool", Type: "integer"},
			{Name: "interventions"}, {Name: "interventions_bool", Type: "integer"},
			{Name: "phase_ids"}, {Name: "study_type_ids"},
			{Name: "enrollment", Type: "integer"}, {Name: "email_to"},
		}},
		{Path: "/saved_searches", Summary: "List a user's saved searches", Tag: "saved searches",
			Params: []openapi.Param{{Name: "email", Required: true}}},
	}
}
