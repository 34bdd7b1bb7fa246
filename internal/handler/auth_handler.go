// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hitoshi/tunedeck/internal/auth"
	"github.com/hitoshi/tunedeck/internal/middleware"
	"github.com/hitoshi/tunedeck/internal/model"
	"github.com/hitoshi/tunedeck/internal/spotify"
)

const (
	stateCookieName   = "spotify_state"
	refreshCookieName = "refresh_token"

	stateCookieMaxAge   = 600 // 10分
	refreshCookieMaxAge = 30 * 24 * 60 * 60
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	LoginURL(state string) string
	HandleCallback(ctx context.Context, code string) (*spotify.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*spotify.TokenPair, error)
}

// ProfileFetcher はアクセストークンからSpotifyプロフィールを取得する。
type ProfileFetcher interface {
	CurrentUser(ctx context.Context, accessToken string) (*spotify.Profile, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	FrontendURL  string
	CookieSecure bool
}

// AuthHandler はSpotify OAuth認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	profile ProfileFetcher
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, profile ProfileFetcher, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		profile: profile,
		config:  config,
	}
}

// Login はSpotify OAuthフローを開始する。
// GET /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := auth.NewState()
	if err != nil {
		slog.Error("failed to generate oauth state", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	// stateをCookieに保存（CSRF対策）
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   stateCookieMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.service.LoginURL(state), http.StatusFound)
}

// Callback はSpotifyからのOAuthコールバックを処理する。
// GET /api/auth/callback?code=xxx&state=yyy
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	// ユーザーが認可を拒否した場合はトークン交換せずフロントへ戻す
	if query.Get("error") == "access_denied" {
		h.redirectWithError(w, r, "access_denied")
		return
	}

	// stateの検証（CSRF対策）。バイト単位の完全一致のみ許可する。
	state := query.Get("state")
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || state == "" || stateCookie.Value != state {
		slog.Warn("oauth state mismatch", slog.String("query_state", state))
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("state"))
		return
	}

	// stateは使い捨て。検証後すぐに破棄する。
	h.clearCookie(w, stateCookieName)

	code := query.Get("code")
	if code == "" {
		h.redirectWithError(w, r, "invalid_code")
		return
	}

	pair, err := h.service.HandleCallback(r.Context(), code)
	if err != nil {
		slog.Error("oauth code exchange failed", slog.String("error", err.Error()))
		h.redirectWithError(w, r, "invalid_code")
		return
	}

	if pair.RefreshToken != "" {
		h.setRefreshCookie(w, pair.RefreshToken)
	}

	// アクセストークンは短命なのでサーバー側には保持せず、
	// リダイレクトのクエリパラメータでクライアントへ引き渡す。
	params := url.Values{}
	params.Set("access_token", pair.AccessToken)
	params.Set("expires_in", strconv.Itoa(pair.ExpiresIn))
	http.Redirect(w, r, h.config.FrontendURL+"/callback?"+params.Encode(), http.StatusFound)
}

// Refresh はリフレッシュトークンCookieから新しいアクセストークンを発行する。
// GET /api/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	pair, err := h.service.Refresh(r.Context(), cookie.Value)
	if err != nil {
		var statusErr *spotify.StatusError
		if errors.As(err, &statusErr) {
			// 上流のエラーボディをそのままクライアントへ返す
			slog.Warn("token refresh rejected by upstream",
				slog.Int("upstream_status", statusErr.StatusCode),
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(statusErr.Body))
			return
		}
		slog.Error("token refresh failed", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	// 新しいリフレッシュトークンが発行された場合のみCookieを更新する。
	// 発行されなかった場合は既存のトークンが有効なまま。
	if pair.RefreshToken != "" {
		h.setRefreshCookie(w, pair.RefreshToken)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"access_token": pair.AccessToken,
		"expires_in":   pair.ExpiresIn,
	})
}

// Logout はリフレッシュトークンCookieを破棄する。冪等。
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearCookie(w, refreshCookieName)
	w.WriteHeader(http.StatusNoContent)
}

// Me は現在のユーザーのSpotifyプロフィールを返す。
// GET /api/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	token, err := middleware.AccessTokenFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	profile, err := h.profile.CurrentUser(r.Context(), token)
	if err != nil {
		var statusErr *spotify.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized {
			middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
			return
		}
		slog.Error("failed to fetch user profile", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"userId":      profile.ID,
		"displayName": profile.DisplayName,
		"avatarUrl":   profile.AvatarURL,
	})
}

func (h *AuthHandler) redirectWithError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, h.config.FrontendURL+"/login?error="+code, http.StatusFound)
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   refreshCookieMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
