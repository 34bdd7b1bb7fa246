// Package spotify はSpotifyのアカウントサービス（トークン交換）と
// Web APIへのクライアントを提供する。
//
// レスポンス型は https://developer.spotify.com/documentation/web-api/reference/ に基づく。
package spotify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultAccountsURL = "https://accounts.spotify.com"
	defaultAPIBaseURL  = "https://api.spotify.com/v1"
)

// 認可リクエストで要求するスコープ。
// プレイリストの参照・作成・更新とプロフィール取得に必要な最小集合。
var authScopes = []string{
	"user-read-private",
	"user-read-email",
	"playlist-read-private",
	"playlist-modify-private",
	"playlist-modify-public",
}

// ClientConfig はSpotifyクライアントの設定。
type ClientConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// テスト用にオーバーライド可能なURL
	AccountsURL string
	APIBaseURL  string

	// 全アウトバウンド呼び出しに適用するタイムアウト
	Timeout time.Duration
}

// MetricsRecorder は上流呼び出しの計測インターフェース。
// nilの場合は計測しない。
type MetricsRecorder interface {
	RecordUpstreamRequest(endpoint string, statusCode int, duration time.Duration)
}

// Client はSpotifyアカウントサービスとWeb APIのHTTPクライアント。
// ローカル状態は保持せず、呼び出しごとに1回のアウトバウンドリクエストを発行する。
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	metrics    MetricsRecorder
}

// NewClient はClientを生成する。
func NewClient(config ClientConfig, metrics MetricsRecorder) *Client {
	if config.AccountsURL == "" {
		config.AccountsURL = defaultAccountsURL
	}
	if config.APIBaseURL == "" {
		config.APIBaseURL = defaultAPIBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		metrics:    metrics,
	}
}

// StatusError は上流が失敗応答を返したことを表す。
// Bodyは上流レスポンスをそのまま保持する（リフレッシュ失敗時に呼び出し元へ素通しするため）。
type StatusError struct {
	StatusCode int
	Body       string
}

// Error はerrorインターフェースを実装する。
func (e *StatusError) Error() string {
	return fmt.Sprintf("spotify returned status %d: %s", e.StatusCode, e.Body)
}

// TokenPair はトークンエンドポイントの応答を表す。
// RefreshTokenは空の場合がある（上流がローテーションしなかったケース）。
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

// Profile はSpotifyユーザープロフィールを表す。
type Profile struct {
	ID          string
	DisplayName string
	AvatarURL   string
}

// AuthorizeURL は認可エンドポイントへのリダイレクトURLを生成する。
// show_dialog=trueで毎回同意画面を表示させる。stateはCSRF対策のnonce。
func (c *Client) AuthorizeURL(state string) string {
	params := url.Values{
		"client_id":     {c.config.ClientID},
		"redirect_uri":  {c.config.RedirectURL},
		"response_type": {"code"},
		"scope":         {strings.Join(authScopes, " ")},
		"state":         {state},
		"show_dialog":   {"true"},
	}
	return c.config.AccountsURL + "/authorize?" + params.Encode()
}

// ExchangeCode は認可コードをアクセストークン・リフレッシュトークンに交換する。
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenPair, error) {
	data := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {c.config.RedirectURL},
	}
	return c.requestToken(ctx, data)
}

// ExchangeRefreshToken はリフレッシュトークンで新しいアクセストークンを取得する。
// 応答のRefreshTokenが空の場合、従来のリフレッシュトークンは引き続き有効であり、
// 呼び出し側が保持し続けなければならない。
func (c *Client) ExchangeRefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	return c.requestToken(ctx, data)
}

// requestToken はトークンエンドポイントを呼び出す。
// 上流の契約に従いapplication/x-www-form-urlencodedボディとBasic認証を使用する。
func (c *Client) requestToken(ctx context.Context, data url.Values) (*TokenPair, error) {
	endpoint := c.config.AccountsURL + "/api/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Basic "+basicAuth(c.config.ClientID, c.config.ClientSecret))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record("token", 0, start)
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()
	c.record("token", resp.StatusCode, start)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var pair TokenPair
	if err := json.Unmarshal(body, &pair); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	if pair.AccessToken == "" {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return &pair, nil
}

// spotifyUser は/meエンドポイントの応答。
type spotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Images      []spotifyImage `json:"images"`
}

type spotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// CurrentUser はアクセストークンから上流のユーザーアイデンティティを解決する。
func (c *Client) CurrentUser(ctx context.Context, accessToken string) (*Profile, error) {
	var user spotifyUser
	if err := c.doAPI(ctx, http.MethodGet, "/me", accessToken, nil, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, fmt.Errorf("empty user ID in profile response")
	}

	profile := &Profile{
		ID:          user.ID,
		DisplayName: user.DisplayName,
	}
	if len(user.Images) > 0 {
		profile.AvatarURL = user.Images[0].URL
	}
	return profile, nil
}

// SimplePlaylist はプレイリスト一覧の1要素を表す。
type SimplePlaylist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// paginatedPlaylists は/me/playlistsのページ応答。
type paginatedPlaylists struct {
	Items  []SimplePlaylist `json:"items"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
	Next   *string          `json:"next"`
}

// playlistPageSize は一覧取得のページサイズ。
const playlistPageSize = 50

// Playlists はユーザーの全プレイリストをページングしながら取得する。
// nextカーソルが尽きるまで50件ずつ辿る。
func (c *Client) Playlists(ctx context.Context, accessToken string) ([]SimplePlaylist, error) {
	var all []SimplePlaylist
	offset := 0

	for {
		endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", playlistPageSize, offset)

		var page paginatedPlaylists
		if err := c.doAPI(ctx, http.MethodGet, endpoint, accessToken, nil, &page); err != nil {
			return nil, err
		}

		all = append(all, page.Items...)

		if page.Next == nil || len(page.Items) == 0 {
			break
		}
		offset += len(page.Items)
	}

	return all, nil
}

// CreatePlaylist は非公開プレイリストを作成し、そのIDを返す。
func (c *Client) CreatePlaylist(ctx context.Context, accessToken, userID, name, description string) (string, error) {
	payload := map[string]interface{}{
		"name":        name,
		"description": description,
		"public":      false,
	}

	var created SimplePlaylist
	endpoint := "/users/" + url.PathEscape(userID) + "/playlists"
	if err := c.doAPI(ctx, http.MethodPost, endpoint, accessToken, payload, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("empty playlist ID in create response")
	}

	return created.ID, nil
}

// PlaylistExists は指定IDのプレイリストが上流に実在するかを返す。
// 404はfalse（帯域外削除）として扱い、それ以外の失敗はエラーを返す。
func (c *Client) PlaylistExists(ctx context.Context, accessToken, playlistID string) (bool, error) {
	endpoint := "/playlists/" + url.PathEscape(playlistID) + "?fields=id"
	err := c.doAPI(ctx, http.MethodGet, endpoint, accessToken, nil, &struct{}{})
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// AddTrack はプレイリストにトラックを追加する。失敗応答はそのままエラーになる（リトライしない）。
func (c *Client) AddTrack(ctx context.Context, accessToken, playlistID, trackURI string) error {
	payload := map[string]interface{}{
		"uris": []string{trackURI},
	}
	endpoint := "/playlists/" + url.PathEscape(playlistID) + "/tracks"
	return c.doAPI(ctx, http.MethodPost, endpoint, accessToken, payload, &struct{}{})
}

// doAPI はWeb APIへの認証付きリクエストを1回発行する。
// 2xx以外は*StatusErrorを返す。resultがnilでなければJSONデコードする。
func (c *Client) doAPI(ctx context.Context, method, endpoint, accessToken string, payload interface{}, result interface{}) error {
	apiURL := c.config.APIBaseURL + endpoint

	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(metricPath(endpoint), 0, start)
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	c.record(metricPath(endpoint), resp.StatusCode, start)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

func (c *Client) record(endpoint string, statusCode int, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordUpstreamRequest(endpoint, statusCode, time.Since(start))
}

// metricPath はクエリ・IDを除いたメトリクス用のエンドポイント名を返す。
func metricPath(endpoint string) string {
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		endpoint = endpoint[:i]
	}
	parts := strings.Split(endpoint, "/")
	// /playlists/{id}/tracks のようなパスからIDを落とす
	if len(parts) >= 3 && (parts[1] == "playlists" || parts[1] == "users") {
		parts[2] = "{id}"
	}
	return strings.Join(parts, "/")
}

func basicAuth(clientID, clientSecret string) string {
	return base64.StdEncoding.EncodeToString([]byte(clientID + ":" + clientSecret))
}
