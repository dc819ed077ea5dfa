package handlers

import (
	"context"
	"net/http"

	"rentflow-backend/internal/models"
)

const defaultAuditLimit = 50

// AuditReader lists a user's own workflow decisions
type AuditReader interface {
	ListByActor(ctx context.Context, actorID string, limit int) ([]*models.AuditEntry, error)
}

type AuditHandler struct {
	Repo AuditReader
}

func NewAuditHandler(repo AuditReader) *AuditHandler {
	return &AuditHandler{Repo: repo}
}

// ListMine returns the caller's audit trail, newest first
func (h *AuditHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if h.Repo == nil {
		writeError(w, http.StatusServiceUnavailable, "Audit log is not configured")
		return
	}

	limit, _ := paging(r)
	if limit == 0 || limit > 200 {
		limit = defaultAuditLimit
	}

	entries, err := h.Repo.ListByActor(r.Context(), actor.UserID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load audit log")
		return
	}
	if entries == nil {
		entries = []*models.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
