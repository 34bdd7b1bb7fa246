package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, playlist, discovery, upstream, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeUpstream         = "UPSTREAM_ERROR"
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodePlaylistNotFound = "PLAYLIST_NOT_FOUND"
)

// NewValidationError は必須入力の欠落エラーを生成する。
func NewValidationError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("必須パラメータが指定されていません: %s", field),
		Category: "validation",
		Action:   "リクエスト内容を確認してください。",
	}
}

// NewUnauthorizedError は認証情報の欠落・無効エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証されていません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewNotFoundError は参照先リソースの不在エラーを生成する。
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("対象が見つかりません: %s", resource),
		Category: "discovery",
		Action:   "指定した内容を確認してください。",
	}
}

// NewPlaylistNotFoundError は管理プレイリスト未作成エラーを生成する。
func NewPlaylistNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodePlaylistNotFound,
		Message:  "管理プレイリストが存在しません。",
		Category: "playlist",
		Action:   "先にプレイリストを作成してください。",
	}
}

// NewUpstreamError はSpotify APIの失敗応答エラーを生成する。
func NewUpstreamError(detail string) *APIError {
	return &APIError{
		Code:     ErrCodeUpstream,
		Message:  fmt.Sprintf("Spotify APIの呼び出しに失敗しました: %s", detail),
		Category: "upstream",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
