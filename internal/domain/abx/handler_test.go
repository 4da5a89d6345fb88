package abx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ipc/ipc/internal/extract/orders"
	"github.com/ipc/ipc/internal/stewardship"
)

func newTestHandler(t *testing.T) (*Handler, *echo.Echo) {
	t.Helper()
	svc, _, _ := newTestService(nil, stewardship.DefaultHeuristics())
	if _, err := svc.ImportOrders(context.Background(), "orders.txt", fosterOrder); err != nil {
		t.Fatalf("import: %v", err)
	}
	h := NewHandler(svc)
	h.now = func() time.Time { return day("2026-01-26") }
	return h, echo.New()
}

func TestHandler_ParseOrders(t *testing.T) {
	h, e := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(fosterOrder))
	req.Header.Set(echo.HeaderContentType, echo.MIMETextPlain)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ParseOrders(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var res orders.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0].RecordID != fosterRecordID {
		t.Errorf("unexpected rows %+v", res.Rows)
	}
}

func TestHandler_ParseOrders_NothingExtracted(t *testing.T) {
	h, e := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("Page 1 of 3\nnothing useful"))
	req.Header.Set(echo.HeaderContentType, echo.MIMETextPlain)
	rec := httptest.NewRecorder()

	if err := h.ParseOrders(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"rows":[]`) {
		t.Errorf("expected empty rows array, got %s", rec.Body.String())
	}
}

func TestHandler_ImportOrders(t *testing.T) {
	h, e := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(fosterOrder))
	req.Header.Set(echo.HeaderContentType, echo.MIMETextPlain)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ImportOrders(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
}

func TestHandler_ReviewCourse(t *testing.T) {
	h, e := newTestHandler(t)
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("recordId")
	c.SetParamValues(fosterRecordID)

	if err := h.ReviewCourse(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var rv Review
	if err := json.Unmarshal(rec.Body.Bytes(), &rv); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rv.AsOf != "2026-01-26" || rv.Flags.DaysOnTherapy != 3 {
		t.Errorf("expected day 3 as of 2026-01-26, got %s %+v", rv.AsOf, rv.Flags)
	}
}

func TestHandler_ReviewCourse_AsOf(t *testing.T) {
	h, e := newTestHandler(t)
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?asOf=02/15/2026", nil), rec)
	c.SetParamNames("recordId")
	c.SetParamValues(fosterRecordID)

	if err := h.ReviewCourse(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var rv Review
	if err := json.Unmarshal(rec.Body.Bytes(), &rv); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rv.Flags.Ongoing || rv.Flags.DaysOnTherapy != 8 {
		t.Errorf("expected finished 8-day course, got %+v", rv.Flags)
	}
}

func TestHandler_ReviewCourse_Errors(t *testing.T) {
	h, e := newTestHandler(t)
	tests := []struct {
		name     string
		target   string
		recordID string
		want     int
	}{
		{"bad date", "/?asOf=someday", fosterRecordID, http.StatusBadRequest},
		{"unknown course", "/", "abx_missing", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := e.NewContext(httptest.NewRequest(http.MethodGet, tt.target, nil), httptest.NewRecorder())
			c.SetParamNames("recordId")
			c.SetParamValues(tt.recordID)
			err := h.ReviewCourse(c)
			var he *echo.HTTPError
			if !errors.As(err, &he) || he.Code != tt.want {
				t.Errorf("expected %d, got %v", tt.want, err)
			}
		})
	}
}

func TestHandler_ListCourses(t *testing.T) {
	h, e := newTestHandler(t)
	tests := []struct {
		target string
		total  int
	}{
		{"/", 1},
		{"/?identifier=148831&include=true", 1},
		{"/?identifier=999", 0},
		{"/?activeOn=2026-01-30", 1},
		{"/?activeOn=02/01/2026", 0},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, tt.target, nil), rec)
		if err := h.ListCourses(c); err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.target, err)
		}
		var body struct {
			Total int `json:"total"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Total != tt.total {
			t.Errorf("%s: expected total %d, got %d", tt.target, tt.total, body.Total)
		}
	}
}

func TestHandler_ListCourses_BadParams(t *testing.T) {
	h, e := newTestHandler(t)
	for _, target := range []string{"/?include=maybe", "/?activeOn=nope"} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		err := h.ListCourses(c)
		var he *echo.HTTPError
		if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %v", target, err)
		}
	}
}
