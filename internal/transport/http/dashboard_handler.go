package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "bikedash/internal/errors"
	"bikedash/internal/exporter"
	"bikedash/internal/middleware"
	"bikedash/internal/services"
)

// labelsParamPrefix prefixes heatmap toggle query parameters.
const labelsParamPrefix = "labels_"

// DashboardHandler serves the dashboard page, its JSON view model and the
// table exports.
type DashboardHandler struct {
	service      DashboardServiceInterface
	validator    *middleware.Validator
	exporter     *exporter.TableExporter
	page         *PageRenderer
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, validator *middleware.Validator, exp *exporter.TableExporter, page *PageRenderer, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		validator:    validator,
		exporter:     exp,
		page:         page,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// APIRoutes returns the JSON and export routes, mounted under /api
func (h *DashboardHandler) APIRoutes() chi.Router {
	r := chi.NewRouter()
	r.With(render.SetContentType(render.ContentTypeJSON)).Get("/dashboard", h.GetDashboard)
	r.Get("/export/{file}", h.Export)
	return r
}

// Page handles GET /
func (h *DashboardHandler) Page(w http.ResponseWriter, r *http.Request) {
	q, err := h.decodeQuery(r)
	if err != nil {
		h.renderErrorPage(w, r, err)
		return
	}

	dash, err := h.service.Build(r.Context(), q)
	if err != nil {
		h.renderErrorPage(w, r, err)
		return
	}

	if err := h.page.RenderDashboard(w, dash, r.URL.Query()); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render dashboard page",
			slog.String("error", err.Error()))
	}
}

// GetDashboard handles GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	q, err := h.decodeQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	dash, err := h.service.Build(r.Context(), q)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, dash)
}

// Export handles GET /api/export/{file}, where file is <table>.<format>
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")

	name, ext, ok := strings.Cut(file, ".")
	if !ok || name == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "file must look like <table>.<csv|xlsx>"))
		return
	}
	format, err := exporter.ParseFormat(ext)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", err.Error()))
		return
	}

	table, err := h.service.ExportTable(r.Context(), name)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", table.FileName(format)))

	// Headers are sent with the first byte, so a failure from here on can
	// only be logged.
	if err := h.exporter.Export(w, format, table); err != nil {
		h.logger.ErrorContext(r.Context(), "export failed",
			slog.String("table", table.Name),
			slog.String("format", string(format)),
			slog.String("error", err.Error()))
	}
}

// decodeQuery reads year and labels_<key> parameters and validates them.
func (h *DashboardHandler) decodeQuery(r *http.Request) (services.DashboardQuery, error) {
	q, err := parseDashboardQuery(r.URL.Query())
	if err != nil {
		return q, err
	}
	if err := h.validator.ValidateStruct(q); err != nil {
		return q, err
	}
	return q, nil
}

func parseDashboardQuery(values url.Values) (services.DashboardQuery, error) {
	var q services.DashboardQuery

	if year := values.Get("year"); year != "" {
		n, err := strconv.Atoi(year)
		if err != nil {
			return q, apierrors.ErrValidation("year", "year must be a valid integer")
		}
		q.Year = n
	}

	for key, vals := range values {
		if !strings.HasPrefix(key, labelsParamPrefix) || len(vals) == 0 {
			continue
		}
		show, err := strconv.ParseBool(vals[len(vals)-1])
		if err != nil {
			return q, apierrors.ErrValidation(key, fmt.Sprintf("%s must be true or false", key))
		}
		if q.Labels == nil {
			q.Labels = make(map[string]bool)
		}
		q.Labels[strings.TrimPrefix(key, labelsParamPrefix)] = show
	}

	return q, nil
}

// renderErrorPage shows the problem for err as an HTML page with the
// matching status code.
func (h *DashboardHandler) renderErrorPage(w http.ResponseWriter, r *http.Request, err error) {
	problem := h.errorHandler.ErrorToProblem(err, r)

	h.logger.ErrorContext(r.Context(), "dashboard unavailable",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("problem_type", problem.Type))

	if rerr := h.page.RenderError(w, problem); rerr != nil {
		h.logger.ErrorContext(r.Context(), "failed to render error page",
			slog.String("error", rerr.Error()))
	}
}
