package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/tunedeck/internal/middleware"
	"github.com/hitoshi/tunedeck/internal/model"
	"github.com/hitoshi/tunedeck/internal/spotify"
)

// PlaylistServiceInterface はプレイリストハンドラーが必要とするサービスインターフェース。
type PlaylistServiceInterface interface {
	GetOrCreate(ctx context.Context, accessToken string) (string, error)
	EnsureExists(ctx context.Context, accessToken string) (string, bool, error)
	AddTrack(ctx context.Context, accessToken, trackURI string) error
}

// PlaylistHandler は管理プレイリスト関連のHTTPハンドラー。
type PlaylistHandler struct {
	service PlaylistServiceInterface
}

// NewPlaylistHandler はPlaylistHandlerを生成する。
func NewPlaylistHandler(service PlaylistServiceInterface) *PlaylistHandler {
	return &PlaylistHandler{service: service}
}

// Create は管理プレイリストを取得または作成する。
// POST /api/playlist/create
func (h *PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	token, err := middleware.AccessTokenFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	playlistID, err := h.service.GetOrCreate(r.Context(), token)
	if err != nil {
		slog.Error("failed to get or create playlist", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"playlist_id": playlistID,
	})
}

type addTrackRequest struct {
	URI string `json:"uri"`
}

// Add は管理プレイリストにトラックを追加する。
// POST /api/playlist/add
func (h *PlaylistHandler) Add(w http.ResponseWriter, r *http.Request) {
	token, err := middleware.AccessTokenFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req addTrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URI == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("uri"))
		return
	}

	if err := h.service.AddTrack(r.Context(), token, req.URI); err != nil {
		// ローカルに記録済みのプレイリストが上流で削除されていた場合は404を返す
		var statusErr *spotify.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			slog.Warn("stored playlist no longer exists upstream",
				slog.String("uri", req.URI),
			)
			middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewPlaylistNotFoundError())
			return
		}
		slog.Error("failed to add track", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
	})
}

// Exists は管理プレイリストが上流に実在するかを検証して返す。
// GET /api/playlist/exists
func (h *PlaylistHandler) Exists(w http.ResponseWriter, r *http.Request) {
	token, err := middleware.AccessTokenFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	_, exists, err := h.service.EnsureExists(r.Context(), token)
	if err != nil {
		slog.Error("failed to verify playlist existence", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"exists": exists,
	})
}
