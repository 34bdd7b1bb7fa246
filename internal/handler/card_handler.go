package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/tunedeck/internal/middleware"
	"github.com/hitoshi/tunedeck/internal/model"
)

// CardServiceInterface はカードハンドラーが必要とするサービスインターフェース。
type CardServiceInterface interface {
	List(ctx context.Context) ([]*model.Card, error)
	Daily(ctx context.Context, userID string, today time.Time) ([]*model.Card, error)
	Seed(ctx context.Context) error
}

// CardHandler はコンテンツカード関連のHTTPハンドラー。
type CardHandler struct {
	service CardServiceInterface
}

// NewCardHandler はCardHandlerを生成する。
func NewCardHandler(service CardServiceInterface) *CardHandler {
	return &CardHandler{service: service}
}

// cardResponse はカードのAPI表現。
type cardResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	URI         string `json:"uri"`
	Img         string `json:"img"`
	Cover       string `json:"cover"`
	Description string `json:"description"`
}

func toCardResponses(cards []*model.Card) []cardResponse {
	responses := make([]cardResponse, 0, len(cards))
	for _, c := range cards {
		responses = append(responses, cardResponse{
			ID:          c.ID,
			Title:       c.Title,
			Artist:      c.Artist,
			URI:         c.URI,
			Img:         c.Img,
			Cover:       c.Cover,
			Description: c.Description,
		})
	}
	return responses
}

// List は全カードを返す。
// GET /api/cards
func (h *CardHandler) List(w http.ResponseWriter, r *http.Request) {
	cards, err := h.service.List(r.Context())
	if err != nil {
		slog.Error("failed to list cards", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toCardResponses(cards))
}

// Daily はユーザーの本日（UTC）のカード3枚を返す。同日中の再取得は同一セット。
// GET /api/cards/daily?userId=
func (h *CardHandler) Daily(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("userId"))
		return
	}

	cards, err := h.service.Daily(r.Context(), userID, time.Now())
	if err != nil {
		slog.Error("failed to select daily cards",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toCardResponses(cards))
}

// Seed は組み込みカードセットをDBへ投入する。再実行はuri単位のupsertで冪等。
// POST /api/cards/seed
func (h *CardHandler) Seed(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Seed(r.Context()); err != nil {
		slog.Error("failed to seed cards", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
	})
}
