// Package auth はSpotifyとのOAuth認可コードフローとリフレッシュトークンの
// ライフサイクルを提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/hitoshi/tunedeck/internal/spotify"
)

// TokenExchanger は認証サービスが必要とするトークンエンドポイント操作。
// spotify.Clientの部分集合として定義する。
type TokenExchanger interface {
	AuthorizeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*spotify.TokenPair, error)
	ExchangeRefreshToken(ctx context.Context, refreshToken string) (*spotify.TokenPair, error)
}

// Service は認証フローのビジネスロジックを提供する。
// サーバー側に永続状態を持たない。アクセストークンはクライアントへ引き渡し、
// リフレッシュトークンはCookieで往復する。
type Service struct {
	exchanger TokenExchanger
}

// NewService はServiceを生成する。
func NewService(exchanger TokenExchanger) *Service {
	return &Service{exchanger: exchanger}
}

// NewState はCSRF対策用のnonceを生成する。128ビットのエントロピーを持つ。
func NewState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state nonce: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// LoginURL は認可エンドポイントへのリダイレクトURLを返す。
func (s *Service) LoginURL(state string) string {
	return s.exchanger.AuthorizeURL(state)
}

// HandleCallback は認可コードをトークンペアに交換する。
// コードが拒否された場合（期限切れ・使用済み・redirect_uri不一致）はエラーを返し、
// 呼び出し側はログインページへの再誘導で対処する。
func (s *Service) HandleCallback(ctx context.Context, code string) (*spotify.TokenPair, error) {
	pair, err := s.exchanger.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	slog.Info("authorization code exchanged",
		slog.Int("expires_in", pair.ExpiresIn),
		slog.Bool("refresh_token_issued", pair.RefreshToken != ""),
	)

	return pair, nil
}

// Refresh はリフレッシュトークンで新しいアクセストークンを取得する。
// 応答のRefreshTokenが空の場合は従来のトークンが引き続き有効で、
// 呼び出し側は保存済みのCookieを維持しなければならない。
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*spotify.TokenPair, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("refresh token is required")
	}

	pair, err := s.exchanger.ExchangeRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh access token: %w", err)
	}

	slog.Info("access token refreshed",
		slog.Int("expires_in", pair.ExpiresIn),
		slog.Bool("refresh_token_rotated", pair.RefreshToken != ""),
	)

	return pair, nil
}
