package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"reportexport/internal/exporter"
	"reportexport/internal/layout"
	"reportexport/internal/mailer"
	"reportexport/internal/metrics"
	"reportexport/internal/ratelimit"
	"reportexport/internal/report"
)

// Sentinel errors mapped to API errors by the transport layer.
var (
	ErrInvalidFormat     = errors.New("unsupported export format")
	ErrInvalidDate       = errors.New("invalid date filter")
	ErrUnknownReportType = errors.New("unknown report type")
)

// DataSource supplies already-authorized, already-filtered row data and
// summary statistics. The pipeline never queries or filters on its own.
type DataSource interface {
	Rows(ctx context.Context, org report.Organisation, t report.ReportType, rng report.DateRange, filters []report.Filter) ([]report.Row, report.SummaryStats, error)
	SiteName(ctx context.Context, siteID string) (string, error)
}

// ExportRequest carries the raw, unvalidated request parameters.
type ExportRequest struct {
	Principal  string
	ReportType string
	Format     string
	DateFrom   string
	DateTo     string
	SiteID     string
	Status     string
	Severity   string
}

// CSVExport is a prepared CSV export. WriteTo streams the document
// row-at-a-time; it may be called once.
type CSVExport struct {
	Filename    string
	ContentType string
	RowCount    int
	WriteTo     func(w io.Writer) error
}

// PDFExport is a fully materialized PDF export.
type PDFExport struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService is the orchestrator: it validates request parameters,
// draws from the rate governor, and drives the encoder, layout engine
// and dispatcher.
type ExportService struct {
	governor   *ratelimit.Governor
	cooldown   time.Duration
	engine     *layout.Engine
	renderer   *layout.Renderer
	dispatcher *mailer.Dispatcher
	source     DataSource
	org        report.Organisation
	logger     *slog.Logger
	now        func() time.Time
}

// NewExportService wires the orchestrator.
func NewExportService(
	governor *ratelimit.Governor,
	cooldown time.Duration,
	engine *layout.Engine,
	renderer *layout.Renderer,
	dispatcher *mailer.Dispatcher,
	source DataSource,
	org report.Organisation,
	logger *slog.Logger,
) *ExportService {
	return &ExportService{
		governor:   governor,
		cooldown:   cooldown,
		engine:     engine,
		renderer:   renderer,
		dispatcher: dispatcher,
		source:     source,
		org:        org,
		logger:     logger.With(slog.String("component", "export_service")),
		now:        time.Now,
	}
}

// Acquire draws the principal's single grant for the current cooldown
// window. Export endpoints and their email counterparts share this
// bucket, so the transport layer calls Acquire exactly once per request.
func (s *ExportService) Acquire(principal string) ratelimit.Decision {
	d := s.governor.TryAcquire(principal, s.now(), s.cooldown)
	if !d.Granted {
		metrics.RateLimitDenials.Inc()
	}
	return d
}

// Cooldown returns the configured rate-limit window.
func (s *ExportService) Cooldown() time.Duration {
	return s.cooldown
}

// ValidateRequest checks the cheap, side-effect-free request
// parameters: report type, format, and date filters. Transports call
// it before drawing the rate-limit grant so a malformed request never
// burns the principal's single grant per window.
func (s *ExportService) ValidateRequest(req ExportRequest) error {
	if _, err := report.ParseReportType(req.ReportType); err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownReportType, req.ReportType)
	}
	if _, err := report.ParseFormat(req.Format); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, req.Format)
	}
	if _, err := parseDateRange(req.DateFrom, req.DateTo); err != nil {
		return err
	}
	return nil
}

// ExportCSV validates the request and prepares a streaming CSV export.
func (s *ExportService) ExportCSV(ctx context.Context, req ExportRequest) (*CSVExport, error) {
	spec, err := s.buildSpec(ctx, req, report.FormatCSV)
	if err != nil {
		return nil, err
	}

	rows := spec.Rows
	columns := spec.Columns
	return &CSVExport{
		Filename:    s.downloadFilename(spec.Type, report.FormatCSV),
		ContentType: "text/csv; charset=utf-8",
		RowCount:    len(rows),
		WriteTo: func(w io.Writer) error {
			enc := exporter.NewEncoder(w, columns)
			if err := enc.WriteHeader(exporter.Options{BOMPrefix: true}); err != nil {
				return fmt.Errorf("failed to write CSV header: %w", err)
			}
			if err := enc.WriteAll(rows); err != nil {
				return err
			}
			if err := enc.Flush(); err != nil {
				return err
			}
			metrics.ExportsTotal.WithLabelValues(string(spec.Type), "csv").Inc()
			return nil
		},
	}, nil
}

// ExportPDF validates the request and materializes the PDF document.
// Layout and rendering are CPU-bound and run on a worker goroutine so
// the caller's goroutine only joins the finished result.
func (s *ExportService) ExportPDF(ctx context.Context, req ExportRequest) (*PDFExport, error) {
	spec, err := s.buildSpec(ctx, req, report.FormatPDF)
	if err != nil {
		return nil, err
	}

	content, err := s.renderPDF(ctx, spec)
	if err != nil {
		return nil, err
	}

	metrics.ExportsTotal.WithLabelValues(string(spec.Type), "pdf").Inc()
	return &PDFExport{
		Filename:    s.downloadFilename(spec.Type, report.FormatPDF),
		ContentType: "application/pdf",
		Content:     content,
	}, nil
}

// EmailPDF renders the PDF into memory (the delivery transports need a
// complete buffer, not a stream) and hands it to the dispatcher.
func (s *ExportService) EmailPDF(ctx context.Context, req ExportRequest, recipient string) (*mailer.DeliveryResult, error) {
	spec, err := s.buildSpec(ctx, req, report.FormatPDF)
	if err != nil {
		return nil, err
	}

	content, err := s.renderPDF(ctx, spec)
	if err != nil {
		return nil, err
	}
	metrics.ExportsTotal.WithLabelValues(string(spec.Type), "pdf").Inc()

	doc := mailer.Document{
		Bytes:    content,
		Filename: s.emailFilename(spec.Type),
		MIMEType: "application/pdf",
	}
	subject := fmt.Sprintf("%s - %s", report.Title(spec.Type), s.org.Name)
	text := fmt.Sprintf("Please find the attached %s for %s, generated on %s.",
		strings.ToLower(report.Title(spec.Type)), s.org.Name,
		spec.GeneratedAt.In(s.org.Location()).Format("02 Jan 2006 15:04 MST"))
	html := fmt.Sprintf("<p>Please find the attached <strong>%s</strong> for %s.</p>",
		report.Title(spec.Type), s.org.Name)

	result, err := s.dispatcher.Deliver(ctx, doc, recipient, subject, text, html)
	if err != nil {
		metrics.DeliveriesTotal.WithLabelValues(s.dispatcher.ProviderName(), "failure").Inc()
		return nil, err
	}
	metrics.DeliveriesTotal.WithLabelValues(result.Provider, "success").Inc()
	return result, nil
}

// renderPDF runs layout and rendering on a worker goroutine and joins
// the finished buffer. Once started the work is not cancelled mid-page;
// a caller whose context expires abandons the worker and its result is
// discarded.
func (s *ExportService) renderPDF(ctx context.Context, spec layout.Spec) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var g errgroup.Group
	var content []byte
	g.Go(func() error {
		pages := s.engine.Layout(spec)
		b, err := s.renderer.Render(spec, pages)
		if err != nil {
			return err
		}
		content = b
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-done:
		if err != nil {
			return nil, err
		}
		return content, nil
	}
}

// buildSpec validates parameters and assembles the layout input.
func (s *ExportService) buildSpec(ctx context.Context, req ExportRequest, want report.Format) (layout.Spec, error) {
	var zero layout.Spec

	reportType, err := report.ParseReportType(req.ReportType)
	if err != nil {
		return zero, fmt.Errorf("%w: %q", ErrUnknownReportType, req.ReportType)
	}
	format, err := report.ParseFormat(req.Format)
	if err != nil {
		return zero, fmt.Errorf("%w: %q", ErrInvalidFormat, req.Format)
	}
	if format != want {
		return zero, fmt.Errorf("%w: %q", ErrInvalidFormat, req.Format)
	}

	rng, err := parseDateRange(req.DateFrom, req.DateTo)
	if err != nil {
		return zero, err
	}

	filters, err := s.buildFilters(ctx, req)
	if err != nil {
		return zero, err
	}

	rows, summary, err := s.source.Rows(ctx, s.org, reportType, rng, filters)
	if err != nil {
		return zero, fmt.Errorf("failed to load report rows: %w", err)
	}

	s.logger.InfoContext(ctx, "export prepared",
		slog.String("report_type", string(reportType)),
		slog.String("format", string(format)),
		slog.Int("row_count", len(rows)),
		slog.String("principal", req.Principal),
	)

	return layout.Spec{
		Type:        reportType,
		Org:         s.org,
		Columns:     report.Columns(reportType),
		Rows:        rows,
		Filters:     filters,
		DateRange:   rng,
		Summary:     summary,
		GeneratedAt: s.now(),
	}, nil
}

// buildFilters assembles the ordered filter list for the PDF filter
// band, resolving the site id to its display name when present.
func (s *ExportService) buildFilters(ctx context.Context, req ExportRequest) ([]report.Filter, error) {
	var filters []report.Filter
	if req.SiteID != "" {
		name, err := s.source.SiteName(ctx, req.SiteID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve site %q: %w", req.SiteID, err)
		}
		filters = append(filters, report.Filter{Name: "Site", Value: name})
	}
	if req.Status != "" {
		filters = append(filters, report.Filter{Name: "Status", Value: req.Status})
	}
	if req.Severity != "" {
		filters = append(filters, report.Filter{Name: "Severity", Value: req.Severity})
	}
	return filters, nil
}

// parseDateRange parses the optional date-range bounds. Dates arrive as
// YYYY-MM-DD or full RFC 3339 timestamps.
func parseDateRange(from, to string) (report.DateRange, error) {
	var rng report.DateRange
	if from != "" {
		t, err := parseDate(from)
		if err != nil {
			return rng, fmt.Errorf("%w: %q", ErrInvalidDate, from)
		}
		rng.Start = &t
	}
	if to != "" {
		t, err := parseDate(to)
		if err != nil {
			return rng, fmt.Errorf("%w: %q", ErrInvalidDate, to)
		}
		rng.End = &t
	}
	return rng, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// downloadFilename builds the direct-download name:
// {reportType}_{orgSlug}_{date}.{ext}
func (s *ExportService) downloadFilename(t report.ReportType, f report.Format) string {
	return fmt.Sprintf("%s_%s_%s.%s",
		string(t), s.org.Slug, s.now().In(s.org.Location()).Format("2006-01-02"), f.Extension())
}

// emailFilename builds the email attachment name:
// {ReportType}_Report_{orgSlug}_{compactTimestamp}.pdf
func (s *ExportService) emailFilename(t report.ReportType) string {
	name := string(t)
	name = strings.ToUpper(name[:1]) + name[1:]
	return fmt.Sprintf("%s_Report_%s_%s.pdf",
		name, s.org.Slug, s.now().In(s.org.Location()).Format("20060102150405"))
}
