package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"reportexport/internal/app"
	"reportexport/internal/report"
)

// emptySource is the standalone-binary data source. Row data arrives
// pre-filtered from collaborators in real deployments; embedders
// construct the application with their own implementation.
type emptySource struct{}

func (emptySource) Rows(ctx context.Context, org report.Organisation, t report.ReportType, rng report.DateRange, filters []report.Filter) ([]report.Row, report.SummaryStats, error) {
	return nil, report.SummaryStats{}, nil
}

func (emptySource) SiteName(ctx context.Context, siteID string) (string, error) {
	return "", fmt.Errorf("unknown site %q", siteID)
}

func main() {
	application, err := app.NewApplication(emptySource{})
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
