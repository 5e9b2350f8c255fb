package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/pazarnet/discovery/internal/archive"
	"github.com/pazarnet/discovery/internal/audit"
	"github.com/pazarnet/discovery/internal/middleware"
)

// defaultArchiveWindow is how far back an impression export reaches when the
// caller does not say.
const defaultArchiveWindow = 24 * time.Hour

// ArchiveHandlers triggers batch exports to object storage. Admin only.
type ArchiveHandlers struct {
	exporter    *archive.Exporter
	impressions archive.ImpressionSource
	auditor     audit.Repository
}

// NewArchiveHandlers creates archive handlers. The exporter may be nil when
// no archive bucket is configured; both endpoints then return 503.
func NewArchiveHandlers(exporter *archive.Exporter, impressions archive.ImpressionSource, auditor audit.Repository) *ArchiveHandlers {
	return &ArchiveHandlers{
		exporter:    exporter,
		impressions: impressions,
		auditor:     auditor,
	}
}

func (h *ArchiveHandlers) configured(w http.ResponseWriter, r *http.Request) bool {
	if h.exporter != nil {
		return true
	}
	ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
	WriteError(w, ctx, http.StatusServiceUnavailable, ErrCodeInternal, "Archive storage is not configured")
	return false
}

// ExportImpressions handles POST /admin/archive/impressions. The optional
// since_hours query parameter widens or narrows the export window.
func (h *ArchiveHandlers) ExportImpressions(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w, r) {
		return
	}

	window := defaultArchiveWindow
	if raw := r.URL.Query().Get("since_hours"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "since_hours must be a positive integer")
			return
		}
		window = time.Duration(hours) * time.Hour
	}

	result, err := h.exporter.ExportImpressions(r.Context(), h.impressions, time.Now().UTC().Add(-window))
	if err != nil {
		if errors.Is(err, archive.ErrNothingToExport) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeNothingToExport)
			WriteError(w, ctx, http.StatusNotFound, ErrCodeNothingToExport, "No impressions in the requested window")
			return
		}
		slog.ErrorContext(r.Context(), "impression export failed", "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to export impressions")
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, result)
}

// ExportAudit handles POST /admin/archive/audit. Query parameters: actor_id
// (defaults to the caller), format (json or csv, default json), limit.
func (h *ArchiveHandlers) ExportAudit(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w, r) {
		return
	}

	q := r.URL.Query()
	format := audit.ExportFormatJSON
	switch q.Get("format") {
	case "", "json":
	case "csv":
		format = audit.ExportFormatCSV
	default:
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "format must be json or csv")
		return
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	actorID := q.Get("actor_id")
	if actorID == "" {
		actorID = middleware.GetViewerTenant(r.Context())
	}

	result, err := h.exporter.ExportAudit(r.Context(), h.auditor, audit.ExportOptions{
		Format:  format,
		ActorID: actorID,
		Limit:   limit,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "audit export failed", "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to export audit entries")
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, result)
}
