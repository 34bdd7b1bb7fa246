package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/tunedeck/internal/discovery"
	"github.com/hitoshi/tunedeck/internal/middleware"
	"github.com/hitoshi/tunedeck/internal/model"
)

// DiscoveryServiceInterface はディスカバリーハンドラーが必要とするサービスインターフェース。
type DiscoveryServiceInterface interface {
	Record(ctx context.Context, userID, cardTitle, trackURI string, added bool) (*discovery.RecordResult, error)
	MarkAdded(ctx context.Context, userID, trackURI string) (*discovery.MarkResult, error)
	ListAll(ctx context.Context, userID string) ([]*model.DiscoveryLog, error)
	Today(ctx context.Context, userID string) (*model.DiscoveryLog, error)
}

// DiscoveryHandler はディスカバリーログ関連のHTTPハンドラー。
type DiscoveryHandler struct {
	service DiscoveryServiceInterface
}

// NewDiscoveryHandler はDiscoveryHandlerを生成する。
func NewDiscoveryHandler(service DiscoveryServiceInterface) *DiscoveryHandler {
	return &DiscoveryHandler{service: service}
}

// discoveryLogResponse はディスカバリーログのAPI表現。
type discoveryLogResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CardTitle string    `json:"cardTitle"`
	TrackURI  string    `json:"trackUri"`
	Added     bool      `json:"added"`
	CreatedAt time.Time `json:"createdAt"`
}

func toDiscoveryLogResponse(log *model.DiscoveryLog) discoveryLogResponse {
	return discoveryLogResponse{
		ID:        log.ID,
		UserID:    log.UserID,
		CardTitle: log.CardTitle,
		TrackURI:  log.TrackURI,
		Added:     log.Added,
		CreatedAt: log.CreatedAt,
	}
}

type recordDiscoveryRequest struct {
	UserID    string `json:"userId"`
	CardTitle string `json:"cardTitle"`
	TrackURI  string `json:"trackUri"`
	Added     bool   `json:"added"`
}

// Record はディスカバリーログを記録する。同一(userId, trackUri)の再記録は冪等。
// POST /api/discovery
func (h *DiscoveryHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req recordDiscoveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("body"))
		return
	}

	missing := ""
	switch {
	case req.UserID == "":
		missing = "userId"
	case req.CardTitle == "":
		missing = "cardTitle"
	case req.TrackURI == "":
		missing = "trackUri"
	}
	if missing != "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError(missing))
		return
	}

	result, err := h.service.Record(r.Context(), req.UserID, req.CardTitle, req.TrackURI, req.Added)
	if err != nil {
		slog.Error("failed to record discovery", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toDiscoveryLogResponse(result.Entry))
}

type markAddedRequest struct {
	UserID   string `json:"userId"`
	TrackURI string `json:"trackUri"`
}

// MarkAsAdded はディスカバリーログのaddedフラグをtrueへ遷移させる。冪等。
// POST /api/discovery/mark-as-added
func (h *DiscoveryHandler) MarkAsAdded(w http.ResponseWriter, r *http.Request) {
	var req markAddedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("body"))
		return
	}
	if req.UserID == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("userId"))
		return
	}
	if req.TrackURI == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("trackUri"))
		return
	}

	result, err := h.service.MarkAdded(r.Context(), req.UserID, req.TrackURI)
	if err != nil {
		if errors.Is(err, discovery.ErrNotFound) {
			middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("discovery log"))
			return
		}
		slog.Error("failed to mark discovery as added", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"log":           toDiscoveryLogResponse(result.Entry),
		"alreadyMarked": result.AlreadyMarked,
	})
}

// All はユーザーの全ディスカバリーログを新しい順に返す。
// GET /api/discovery/all?userId=
func (h *DiscoveryHandler) All(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("userId"))
		return
	}

	logs, err := h.service.ListAll(r.Context(), userID)
	if err != nil {
		slog.Error("failed to list discoveries", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	responses := make([]discoveryLogResponse, 0, len(logs))
	for _, l := range logs {
		responses = append(responses, toDiscoveryLogResponse(l))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

// Today は当日（UTC）最初のディスカバリーログを返す。
// GET /api/discovery/today?userId=
func (h *DiscoveryHandler) Today(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("userId"))
		return
	}

	log, err := h.service.Today(r.Context(), userID)
	if err != nil {
		if errors.Is(err, discovery.ErrNotFound) {
			middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("today's discovery"))
			return
		}
		slog.Error("failed to fetch today's discovery", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toDiscoveryLogResponse(log))
}
