package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/pazarnet/discovery/internal/audit"
	"github.com/pazarnet/discovery/internal/boost"
	"github.com/pazarnet/discovery/internal/middleware"
)

// BoostHandlers serves boost rule administration: creation, deactivation,
// and the audit trail. All routes sit behind the admin role.
type BoostHandlers struct {
	store   boost.Store
	auditor audit.Repository
}

// NewBoostHandlers creates boost administration handlers.
func NewBoostHandlers(store boost.Store, auditor audit.Repository) *BoostHandlers {
	return &BoostHandlers{store: store, auditor: auditor}
}

// createBoostRequest is the body of POST /network/boosts.
type createBoostRequest struct {
	Scope      string    `json:"scope"`
	TargetID   string    `json:"target_id"`
	Multiplier float64   `json:"multiplier"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
}

// Create handles POST /network/boosts.
func (h *BoostHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req createBoostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body")
		return
	}

	rule, err := h.store.Create(r.Context(), boost.CreateParams{
		Scope:             boost.Scope(req.Scope),
		TargetID:          req.TargetID,
		Multiplier:        req.Multiplier,
		StartsAt:          req.StartsAt,
		EndsAt:            req.EndsAt,
		CreatedByTenantID: middleware.GetViewerTenant(r.Context()),
		RequestID:         middleware.GetRequestID(r.Context()),
	})
	if err != nil {
		h.writeCreateError(w, r, err)
		return
	}

	writeJSON(w, r.Context(), http.StatusCreated, rule)
}

func (h *BoostHandlers) writeCreateError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, boost.ErrOverlappingRule):
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeOverlappingRule)
		WriteError(w, ctx, http.StatusConflict, ErrCodeOverlappingRule,
			"An active rule for this target overlaps the requested window")
	case errors.Is(err, boost.ErrInvalidScope),
		errors.Is(err, boost.ErrInvalidTarget),
		errors.Is(err, boost.ErrInvalidMultiplier),
		errors.Is(err, boost.ErrInvalidWindow):
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, err.Error())
	default:
		slog.ErrorContext(r.Context(), "failed to create boost rule", "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to create boost rule")
	}
}

// Deactivate handles DELETE /network/boosts/{id}. Boost rules are
// soft-deleted only; the row and its audit history remain.
func (h *BoostHandlers) Deactivate(w http.ResponseWriter, r *http.Request) {
	ruleID := r.PathValue("id")
	if ruleID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "Rule ID is required")
		return
	}

	actor := middleware.GetViewerTenant(r.Context())
	if err := h.store.Deactivate(r.Context(), ruleID, actor); err != nil {
		if errors.Is(err, boost.ErrRuleNotFound) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
			WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Boost rule not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to deactivate boost rule",
			"rule_id", ruleID,
			"error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to deactivate boost rule")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// auditEntryResponse is the serialized shape of one audit entry.
type auditEntryResponse struct {
	ID           string          `json:"id"`
	ActorID      string          `json:"actor_id"`
	EntityType   string          `json:"entity_type"`
	EntityID     string          `json:"entity_id"`
	Action       string          `json:"action"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	RequestID    string          `json:"request_id,omitempty"`
	PreviousHash string          `json:"previous_hash,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Audit handles GET /network/boosts/audit. Entries can be filtered by
// entity_id or actor_id; without either, the caller's own trail is
// returned. Newest first.
func (h *BoostHandlers) Audit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

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

	var entries []*audit.Entry
	var err error
	if entityID := q.Get("entity_id"); entityID != "" {
		entries, err = h.auditor.QueryByEntity(audit.EntityBoostRule, entityID, limit)
	} else {
		actorID := q.Get("actor_id")
		if actorID == "" {
			actorID = middleware.GetViewerTenant(r.Context())
		}
		entries, err = h.auditor.QueryByActor(actorID, limit)
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to query audit entries", "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to query audit entries")
		return
	}

	out := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditEntryResponse{
			ID:           e.ID,
			ActorID:      e.ActorID,
			EntityType:   e.EntityType,
			EntityID:     e.EntityID,
			Action:       e.Action,
			Payload:      e.Payload,
			RequestID:    e.RequestID,
			PreviousHash: e.PreviousHash,
			CreatedAt:    e.CreatedAt,
		})
	}
	writeJSON(w, r.Context(), http.StatusOK, map[string]any{"entries": out})
}
