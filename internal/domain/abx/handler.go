package abx

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ipc/ipc/internal/extract/dates"
	"github.com/ipc/ipc/internal/extract/identifier"
	"github.com/ipc/ipc/internal/platform/spreadsheet"
	"github.com/ipc/ipc/pkg/pagination"
)

type Handler struct {
	svc *Service
	now func() time.Time
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/orders/parse", h.ParseOrders)
	api.POST("/orders/import", h.ImportOrders)
	api.GET("/abx-courses", h.ListCourses)
	api.GET("/abx-courses/:recordId", h.GetCourse)
	api.GET("/abx-courses/:recordId/review", h.ReviewCourse)
}

func readDocument(c echo.Context) (string, string, error) {
	text, source, err := spreadsheet.ReadRequest(c.Request())
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return "", "", he
		}
		return "", "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if s := c.QueryParam("source"); s != "" {
		source = s
	}
	return text, source, nil
}

func (h *Handler) ParseOrders(c echo.Context) error {
	text, _, err := readDocument(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.svc.ParseOrders(text))
}

func (h *Handler) ImportOrders(c echo.Context) error {
	text, source, err := readDocument(c)
	if err != nil {
		return err
	}
	sum, err := h.svc.ImportOrders(c.Request().Context(), source, text)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, sum)
}

// ListCourses supports ?identifier=, ?include=true and ?activeOn=<date>.
func (h *Handler) ListCourses(c echo.Context) error {
	var f Filter
	if v := c.QueryParam("identifier"); v != "" {
		f.Identifier = identifier.Canonicalize(v)
	}
	if v := c.QueryParam("include"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "include must be true or false")
		}
		f.IncludeOnly = b
	}
	if v := c.QueryParam("activeOn"); v != "" {
		t, ok := dates.Parse(v)
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid activeOn date")
		}
		f.ActiveOn = t.Format("2006-01-02")
	}

	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg, ""))
}

func (h *Handler) GetCourse(c echo.Context) error {
	course, err := h.svc.Get(c.Request().Context(), c.Param("recordId"))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "abx course not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, course)
}

// ReviewCourse flags a course as of ?asOf=<date>, defaulting to today.
func (h *Handler) ReviewCourse(c echo.Context) error {
	asOf := h.now()
	if v := c.QueryParam("asOf"); v != "" {
		t, ok := dates.Parse(v)
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid asOf date")
		}
		asOf = t
	}
	rv, err := h.svc.Review(c.Request().Context(), c.Param("recordId"), asOf)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "abx course not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rv)
}
