// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/hitoshi/tunedeck/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// accessTokenContextKey はリクエストコンテキストにアクセストークンを格納するためのキー。
var accessTokenContextKey = contextKey("access_token")

// NewBearerMiddleware はAuthorizationヘッダーからBearerトークンを読み取り、
// リクエストコンテキストに注入するミドルウェアを返す。
// トークンはサーバー側で検証しない（検証は上流サービスが行う）。
// ヘッダーがないリクエストには401 Unauthorizedを返す。
func NewBearerMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			ctx := context.WithValue(r.Context(), accessTokenContextKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccessTokenFromContext はリクエストコンテキストからアクセストークンを取得する。
// Bearerミドルウェアを通過したリクエストでのみ有効。
func AccessTokenFromContext(ctx context.Context) (string, error) {
	token, ok := ctx.Value(accessTokenContextKey).(string)
	if !ok || token == "" {
		return "", fmt.Errorf("access token not found in context")
	}
	return token, nil
}

// ContextWithAccessToken はコンテキストにアクセストークンを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenContextKey, token)
}
