package census

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ipc/ipc/internal/platform/spreadsheet"
	"github.com/ipc/ipc/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/census/parse", h.ParseCensus)
	api.POST("/census/import", h.ImportCensus)
	api.GET("/residents", h.ListResidents)
	api.GET("/residents/:identifier", h.GetResident)
}

// readDocument returns the uploaded census and its source label. A
// ?source= query parameter overrides the label.
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

func (h *Handler) ParseCensus(c echo.Context) error {
	text, _, err := readDocument(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.svc.ParseRoster(text))
}

func (h *Handler) ImportCensus(c echo.Context) error {
	text, source, err := readDocument(c)
	if err != nil {
		return err
	}
	sum, err := h.svc.ImportRoster(c.Request().Context(), source, text)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, sum)
}

func (h *Handler) ListResidents(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg, c.Path()))
}

func (h *Handler) GetResident(c echo.Context) error {
	r, err := h.svc.ResolveResident(c.Request().Context(), c.Param("identifier"))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "resident not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, r)
}
