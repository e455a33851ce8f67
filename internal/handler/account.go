package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"candlebliss-api/internal/middleware"
	"candlebliss-api/internal/model"
	"candlebliss-api/internal/repository"
	"candlebliss-api/internal/service/svip"
)

// AccountHandler handles the signed-in customer's own data
type AccountHandler struct {
	history HistoryStore
	svip    *svip.Service
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(history HistoryStore, svipSvc *svip.Service) *AccountHandler {
	return &AccountHandler{
		history: history,
		svip:    svipSvc,
	}
}

// GetHistory handles GET /api/v1/me/history/{kind}
func (h *AccountHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	kind := model.HistoryKind(r.PathValue("kind"))
	if !kind.Valid() {
		BadRequest(w, "Unknown history kind")
		return
	}
	if h.history == nil {
		Success(w, "", map[string]interface{}{"kind": kind, "entries": []model.HistoryEntry{}})
		return
	}

	sess := middleware.SessionFrom(r.Context())
	entries, err := h.history.List(r.Context(), sess.UserID, kind)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidHistoryKind) {
			BadRequest(w, "Unknown history kind")
			return
		}
		InternalError(w, "Failed to load history")
		return
	}
	if entries == nil {
		entries = []model.HistoryEntry{}
	}

	Success(w, "", map[string]interface{}{
		"kind":    kind,
		"entries": entries,
	})
}

// ClearHistory handles DELETE /api/v1/me/history/{kind}
func (h *AccountHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	kind := model.HistoryKind(r.PathValue("kind"))
	if !kind.Valid() {
		BadRequest(w, "Unknown history kind")
		return
	}
	if h.history == nil {
		Success(w, "History cleared", nil)
		return
	}

	sess := middleware.SessionFrom(r.Context())
	if err := h.history.Clear(r.Context(), sess.UserID, kind); err != nil {
		InternalError(w, "Failed to clear history")
		return
	}

	Success(w, "History cleared", nil)
}

// GetSVIP handles GET /api/v1/me/svip. ?refresh=true recounts the orders
// instead of using the cached status, e.g. right after checkout.
func (h *AccountHandler) GetSVIP(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFrom(r.Context())
	if refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh")); refresh {
		if err := h.svip.Invalidate(r.Context(), sess.UserID); err != nil {
			log.Printf("[SVIP] Refresh for user %d: %v", sess.UserID, err)
		}
	}

	status, err := h.svip.Status(r.Context(), sess)
	if err != nil {
		UpstreamError(w, "svip status", err)
		return
	}

	Success(w, "", status)
}
