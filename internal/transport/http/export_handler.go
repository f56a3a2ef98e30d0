package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "reportexport/internal/errors"
	"reportexport/internal/mailer"
	"reportexport/internal/middleware"
	"reportexport/internal/ratelimit"
	"reportexport/internal/services"
)

// ExportServiceInterface is the orchestrator surface the handler needs.
type ExportServiceInterface interface {
	Acquire(principal string) ratelimit.Decision
	ValidateRequest(req services.ExportRequest) error
	ExportCSV(ctx context.Context, req services.ExportRequest) (*services.CSVExport, error)
	ExportPDF(ctx context.Context, req services.ExportRequest) (*services.PDFExport, error)
	EmailPDF(ctx context.Context, req services.ExportRequest, recipient string) (*mailer.DeliveryResult, error)
}

// ExportHandler handles report export and email-delivery requests.
type ExportHandler struct {
	service  ExportServiceInterface
	logger   *slog.Logger
	validate *validator.Validate
}

// NewExportHandler creates an export handler.
func NewExportHandler(service ExportServiceInterface, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		service:  service,
		logger:   logger.With(slog.String("component", "export_handler")),
		validate: validator.New(),
	}
}

// Routes returns the export routes.
func (h *ExportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Principal)

	r.Route("/{reportType}", func(r chi.Router) {
		r.Get("/export", h.Export)
		r.Post("/export/email", h.EmailExport)
	})
	return r
}

// emailExportBody is the POST body for email delivery requests.
type emailExportBody struct {
	Recipient string `json:"recipient" validate:"required,email"`
}

// Export handles GET /api/reports/{reportType}/export.
// Streams CSV directly; PDF responses are materialized then written.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req := h.exportRequest(r)

	// Parameter validation is free of side effects; it runs before the
	// rate-limit draw so a malformed request does not burn the grant.
	if err := h.service.ValidateRequest(req); err != nil {
		h.writeError(w, r, err)
		return
	}

	decision := h.service.Acquire(req.Principal)
	setRateLimitHeaders(w, decision)
	if !decision.Granted {
		h.denyRateLimited(w, r, decision)
		return
	}

	switch req.Format {
	case "pdf":
		export, err := h.service.ExportPDF(ctx, req)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", export.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
		w.Header().Set("Content-Length", strconv.Itoa(len(export.Content)))
		w.Write(export.Content)

	default:
		export, err := h.service.ExportCSV(ctx, req)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", export.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
		if err := export.WriteTo(w); err != nil {
			// Headers are gone; all we can do is log the broken stream.
			h.logger.ErrorContext(ctx, "csv stream aborted",
				slog.String("error", err.Error()),
				slog.String("request_id", middleware.GetReqID(ctx)),
			)
		}
	}
}

// EmailExport handles POST /api/reports/{reportType}/export/email.
// Draws from the same per-principal bucket as the download endpoint.
func (h *ExportHandler) EmailExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req := h.exportRequest(r)
	req.Format = "pdf"

	var body emailExportBody
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		apierrors.WriteError(w, apierrors.ErrInvalidRequest)
		return
	}
	if err := h.validate.Struct(body); err != nil {
		apierrors.WriteError(w, apierrors.ErrValidation("recipient", "A valid recipient address is required"))
		return
	}
	if err := h.service.ValidateRequest(req); err != nil {
		h.writeError(w, r, err)
		return
	}

	decision := h.service.Acquire(req.Principal)
	setRateLimitHeaders(w, decision)
	if !decision.Granted {
		h.denyRateLimited(w, r, decision)
		return
	}

	result, err := h.service.EmailPDF(ctx, req, body.Recipient)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   result,
	})
}

// exportRequest assembles the raw service request from path and query.
func (h *ExportHandler) exportRequest(r *http.Request) services.ExportRequest {
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = "csv"
	}
	return services.ExportRequest{
		Principal:  middleware.GetPrincipal(r.Context()),
		ReportType: chi.URLParam(r, "reportType"),
		Format:     format,
		DateFrom:   q.Get("from"),
		DateTo:     q.Get("to"),
		SiteID:     q.Get("site_id"),
		Status:     q.Get("status"),
		Severity:   q.Get("severity"),
	}
}

// setRateLimitHeaders writes the rate-limit headers on every response,
// success included: one grant per window means remaining is always zero
// after a successful acquire.
func setRateLimitHeaders(w http.ResponseWriter, d ratelimit.Decision) {
	w.Header().Set("X-RateLimit-Limit", "1")
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
	if !d.Granted {
		w.Header().Set("Retry-After", strconv.Itoa(d.RetryAfterSeconds()))
	}
}

func (h *ExportHandler) denyRateLimited(w http.ResponseWriter, r *http.Request, d ratelimit.Decision) {
	h.logger.InfoContext(r.Context(), "export rate limited",
		slog.String("principal", middleware.GetPrincipal(r.Context())),
		slog.Int("retry_after_seconds", d.RetryAfterSeconds()),
	)
	apierrors.WriteError(w, apierrors.ErrRateLimitedWithReset(
		d.RetryAfterSeconds(), d.ResetAt.UTC().Format("2006-01-02T15:04:05Z")))
}

// writeError maps pipeline errors to API errors and responds.
func (h *ExportHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "export failed",
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("path", r.URL.Path),
	)
	apierrors.WriteError(w, mapError(err))
}

func mapError(err error) *apierrors.APIError {
	switch {
	case errors.Is(err, services.ErrInvalidFormat):
		return apierrors.ErrInvalidFormat
	case errors.Is(err, services.ErrInvalidDate):
		return apierrors.NewWithDetails(http.StatusBadRequest, "INVALID_DATE", "Unparsable date filter", err.Error())
	case errors.Is(err, services.ErrUnknownReportType):
		return apierrors.ErrValidation("reportType", "Report type must be one of: incidents, inspections, actions")
	case errors.Is(err, mailer.ErrInvalidRecipient):
		return apierrors.ErrValidation("recipient", "A valid recipient address is required")
	case errors.Is(err, mailer.ErrMissingSubject):
		return apierrors.ErrValidation("subject", "Subject is required")
	}

	var derr *mailer.DeliveryError
	if errors.As(err, &derr) {
		switch {
		case errors.Is(err, mailer.ErrNotConfigured):
			return apierrors.ProviderError(apierrors.ErrProviderNotConfigured, derr.Provider, derr.Detail)
		case errors.Is(err, mailer.ErrRejected):
			return apierrors.ProviderError(apierrors.ErrProviderRejected, derr.Provider, derr.Detail)
		case errors.Is(err, mailer.ErrUnreachable):
			return apierrors.ProviderError(apierrors.ErrProviderUnreachable, derr.Provider, derr.Detail)
		}
	}

	return apierrors.ErrInternalServer
}
