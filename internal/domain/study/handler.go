package study

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/criticalpathinstitute/ctweb/internal/platform/db"
	"github.com/criticalpathinstitute/ctweb/internal/platform/openapi"
	"github.com/criticalpathinstitute/ctweb/internal/registry/query"
	"github.com/criticalpathinstitute/ctweb/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/search", h.Search)
	api.GET("/study/:nct_id", h.GetStudy)
	api.GET("/download", h.Download)
	api.GET("/view_cart", h.ViewCart)
	api.GET("/summary", h.Summary)
	api.GET("/dataload", h.Dataload)
}

func (h *Handler) Search(c echo.Context) error {
	f, err := FilterFromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.Search(c.Request().Context(), f)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

// GetStudy answers 200 with a null body when the study does not exist.
func (h *Handler) GetStudy(c echo.Context) error {
	d, err := h.svc.Detail(c.Request().Context(), c.Param("nct_id"))
	if err != nil {
		return httpError(err)
	}
	if d == nil {
		return c.JSON(http.StatusOK, nil)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Download(c echo.Context) error {
	raw, ok := requiredParam(c, "study_ids")
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "study_ids is required")
	}
	body, err := h.svc.Export(c.Request().Context(), query.ParseIDs(raw), ExportFields(c.QueryParam("fields")))
	if err != nil {
		return httpError(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=download.csv")
	return c.Blob(http.StatusOK, "text/csv", body)
}

func (h *Handler) ViewCart(c echo.Context) error {
	raw, ok := requiredParam(c, "study_ids")
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "study_ids is required")
	}
	items, err := h.svc.Cart(c.Request().Context(), query.ParseIDs(raw))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Summary(c echo.Context) error {
	s, err := h.svc.Summary(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) Dataload(c echo.Context) error {
	d, err := h.svc.Dataload(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, d)
}

// FilterFromContext binds the search query parameters. Text parameters are
// taken as given; flag and id parameters must be integers.
func FilterFromContext(c echo.Context) (Filter, error) {
	f := Filter{
		Text:              c.QueryParam("text"),
		ConditionNames:    c.QueryParam("condition_names"),
		SponsorNames:      c.QueryParam("sponsor_names"),
		InterventionNames: c.QueryParam("intervention_names"),
		ConditionIDs:      c.QueryParam("condition_ids"),
		SponsorIDs:        c.QueryParam("sponsor_ids"),
		StudyTypeIDs:      c.QueryParam("study_type_ids"),
		PhaseIDs:          c.QueryParam("phase_ids"),
		Enrollment:        c.QueryParam("enrollment"),
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"text_bool", &f.TextBool},
		{"conditions_bool", &f.ConditionsBool},
		{"sponsors_bool", &f.SponsorsBool},
		{"interventions_bool", &f.InterventionsBool},
	}
	for _, p := range ints {
		n, err := intParam(c, p.name)
		if err != nil {
			return Filter{}, err
		}
		*p.dst = int(n)
	}

	var err error
	if f.OverallStatusID, err = intParam(c, "overall_status_id"); err != nil {
		return Filter{}, err
	}
	if f.LastKnownStatusID, err = intParam(c, "last_known_status_id"); err != nil {
		return Filter{}, err
	}

	page, err := pagination.FromContext(c)
	if err != nil {
		return Filter{}, err
	}
	f.Limit, f.Offset = page.Limit, page.Offset
	return f, nil
}

func intParam(c echo.Context, name string) (int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

func requiredParam(c echo.Context, name string) (string, bool) {
	if _, ok := c.QueryParams()[name]; !ok {
		return "", false
	}
	return c.QueryParam(name), true
}

func httpError(err error) error {
	if errors.Is(err, ErrInvalidInput) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return db.HTTPError(err)
}

// Operations describes the routes served by RegisterRoutes.
func Operations() []openapi.Operation {
	filter := []openapi.Param{
		{Name: "text", Description: "Full-text query over titles, summaries and keywords"},
		{Name: "text_bool", Type: "integer", Description: "1 to parse text as a boolean expression"},
		{Name: "condition_names", Description: "Condition name query"},
		{Name: "conditions_bool", Type: "integer"},
		{Name: "sponsor_names", Description: "Sponsor name query"},
		{Name: "sponsors_bool", Type: "integer"},
		{Name: "intervention_names", Description: "Intervention name query"},
		{Name: "interventions_bool", Type: "integer"},
		{Name: "condition_ids", Description: "Comma-separated condition ids"},
		{Name: "sponsor_ids", Description: "Comma-separated sponsor ids"},
		{Name: "study_type_ids", Description: "Comma-separated study type ids"},
		{Name: "phase_ids", Description: "Comma-separated phase ids"},
		{Name: "enrollment", Description: "Comparison such as >=100"},
		{Name: "overall_status_id", Type: "integer"},
		{Name: "last_known_status_id", Type: "integer"},
	}
	ids := openapi.Param{Name: "study_ids", Required: true, Description: "Comma-separated study ids"}
	return []openapi.Operation{
		{Path: "/search", Summary: "Search studies", Tag: "studies", Params: append(filter, openapi.PageParams()...)},
		{Path: "/study/:nct_id", Summary: "Study detail with child records", Tag: "studies"},
		{Path: "/download", Summary: "Export studies as CSV", Tag: "studies", ContentType: "text/csv",
			Params: []openapi.Param{ids, {Name: "fields", Description: "Comma-separated export columns"}}},
		{Path: "/view_cart", Summary: "Titles for a set of studies", Tag: "studies", Params: []openapi.Param{ids}},
		{Path: "/summary", Summary: "Registry study count", Tag: "studies"},
		{Path: "/dataload", Summary: "Last registry load", Tag: "studies"},
	}
}
