package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"candlebliss-api/internal/middleware"
	"candlebliss-api/internal/model"
	"candlebliss-api/internal/service/catalog"
)

// HistoryStore keeps the per-user browsing history lists
type HistoryStore interface {
	Touch(ctx context.Context, userID int64, kind model.HistoryKind, value string) error
	List(ctx context.Context, userID int64, kind model.HistoryKind) ([]model.HistoryEntry, error)
	Clear(ctx context.Context, userID int64, kind model.HistoryKind) error
}

// GiftHandler handles gift listing, search and gift page requests
type GiftHandler struct {
	catalog *catalog.Service
	history HistoryStore
}

// NewGiftHandler creates a new GiftHandler. A nil history disables recording.
func NewGiftHandler(catalogSvc *catalog.Service, history HistoryStore) *GiftHandler {
	return &GiftHandler{
		catalog: catalogSvc,
		history: history,
	}
}

// GetGifts handles GET /api/v1/gifts
func (h *GiftHandler) GetGifts(w http.ResponseWriter, r *http.Request) {
	gifts, err := h.catalog.ListGifts(r.Context())
	if err != nil {
		UpstreamError(w, "list gifts", err)
		return
	}

	Success(w, "", map[string]interface{}{
		"gifts": gifts,
		"total": len(gifts),
	})
}

// SearchGifts handles GET /api/v1/gifts/search?q=
func (h *GiftHandler) SearchGifts(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		BadRequest(w, "q is required")
		return
	}

	sess := middleware.SessionFrom(r.Context())
	gifts, err := h.catalog.SearchGifts(r.Context(), query)
	if err != nil {
		UpstreamError(w, "search gifts", err)
		return
	}

	h.record(r.Context(), sess, model.HistoryGiftSearch, query)

	Success(w, "", map[string]interface{}{
		"gifts": gifts,
		"total": len(gifts),
		"query": query,
	})
}

// GetGift handles GET /api/v1/gifts/{id}
func (h *GiftHandler) GetGift(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		BadRequest(w, "Invalid gift ID")
		return
	}

	sess := middleware.SessionFrom(r.Context())
	gift, err := h.catalog.GetGift(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrGiftNotFound) {
			NotFound(w, "Gift not found")
			return
		}
		UpstreamError(w, "get gift", err)
		return
	}

	h.record(r.Context(), sess, model.HistoryGiftView, strconv.FormatInt(id, 10))

	Success(w, "", gift)
}

// record touches the history of a signed-in user whose token was verified.
// Failures never fail the request.
func (h *GiftHandler) record(ctx context.Context, sess *model.Session, kind model.HistoryKind, value string) {
	if h.history == nil || !sess.Authenticated() || !sess.Verified {
		return
	}
	if err := h.history.Touch(ctx, sess.UserID, kind, value); err != nil {
		log.Printf("[History] Failed to record %s for user %d: %v", kind, sess.UserID, err)
	}
}
