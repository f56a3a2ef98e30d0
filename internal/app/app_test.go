package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportexport/internal/report"
)

type memorySource struct{}

func (memorySource) Rows(ctx context.Context, org report.Organisation, t report.ReportType, rng report.DateRange, filters []report.Filter) ([]report.Row, report.SummaryStats, error) {
	return nil, report.SummaryStats{}, nil
}

func (memorySource) SiteName(ctx context.Context, siteID string) (string, error) {
	return "Main Site", nil
}

func newTestApp(t *testing.T) *Application {
	t.Helper()
	t.Setenv("REPORTEXPORT_LOGGING_OUTPUT", "discard")
	t.Setenv("REPORTEXPORT_EXPORT_ORG_SLUG", "acme")

	app, err := NewApplication(memorySource{})
	require.NoError(t, err)
	return app
}

func TestNewApplication(t *testing.T) {
	app := newTestApp(t)

	assert.NotNil(t, app.Router)
	assert.NotNil(t, app.Server)
	assert.NotNil(t, app.ExportService)
	assert.NotNil(t, app.Governor)
	assert.Equal(t, ":8080", app.Server.Addr)
}

func TestRouter_Healthz(t *testing.T) {
	app := newTestApp(t)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_ExportRequiresPrincipal(t *testing.T) {
	app := newTestApp(t)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/incidents/export", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_ExportCSV(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/incidents/export", nil)
	req.Header.Set("X-Principal-ID", "user-1")

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "incidents_acme_")
}

func TestRouter_InvalidDateDoesNotConsumeGrant(t *testing.T) {
	app := newTestApp(t)

	bad := httptest.NewRequest(http.MethodGet, "/api/reports/incidents/export?from=25/01/2026", nil)
	bad.Header.Set("X-Principal-ID", "user-1")

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, bad)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// The corrected request for the same principal must still be granted.
	good := httptest.NewRequest(http.MethodGet, "/api/reports/incidents/export?from=2026-01-25", nil)
	good.Header.Set("X-Principal-ID", "user-1")

	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, good)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_Metrics(t *testing.T) {
	app := newTestApp(t)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
