// Package playlist は管理プレイリストの照合（get-or-create）を提供する。
package playlist

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/tunedeck/internal/model"
	"github.com/hitoshi/tunedeck/internal/repository"
	"github.com/hitoshi/tunedeck/internal/spotify"
)

const (
	// ManagedPlaylistName はサービスが管理するプレイリストの固定名。
	ManagedPlaylistName = "Tunedeck Discoveries"

	managedPlaylistDescription = "Daily discoveries picked on Tunedeck."
)

// SpotifyAPI はプレイリスト照合が必要とする上流操作。
// spotify.Clientの部分集合として定義する。
type SpotifyAPI interface {
	CurrentUser(ctx context.Context, accessToken string) (*spotify.Profile, error)
	Playlists(ctx context.Context, accessToken string) ([]spotify.SimplePlaylist, error)
	CreatePlaylist(ctx context.Context, accessToken, userID, name, description string) (string, error)
	PlaylistExists(ctx context.Context, accessToken, playlistID string) (bool, error)
	AddTrack(ctx context.Context, accessToken, playlistID, trackURI string) error
}

// Service は管理プレイリストのビジネスロジックを提供する。
//
// プレイリスト名の照合は一律に大文字小文字を区別しない。上流サービスは
// 表示名を正規化して返すことがあるため、単一の契約として統一している。
type Service struct {
	api  SpotifyAPI
	repo repository.PlaylistRepository
}

// NewService はServiceを生成する。
func NewService(api SpotifyAPI, repo repository.PlaylistRepository) *Service {
	return &Service{api: api, repo: repo}
}

// GetOrCreate はユーザーの管理プレイリストIDを返す。存在しなければ作成する。
// 高速パス: 保存済みの対応は上流検証なしで信用する。帯域外削除による
// わずかな陳腐化リスクと引き換えに上流呼び出しを減らす。
func (s *Service) GetOrCreate(ctx context.Context, accessToken string) (string, error) {
	profile, err := s.api.CurrentUser(ctx, accessToken)
	if err != nil {
		return "", fmt.Errorf("failed to resolve user identity: %w", err)
	}

	mapping, err := s.repo.FindByUserID(ctx, profile.ID)
	if err != nil {
		return "", err
	}
	if mapping != nil {
		return mapping.PlaylistID, nil
	}

	return s.findOrCreate(ctx, accessToken, profile.ID)
}

// EnsureExists は管理プレイリストの存在確認を行う。
// 堅牢パス: 保存済みの対応は上流で実在検証し、帯域外削除されていた場合は
// 陳腐化した行を削除して名前検索まで自己修復する。見つからなくても作成はしない。
// 存在確認が常にtrueを返すことを避けるため、作成は次のGetOrCreateに委ねる。
func (s *Service) EnsureExists(ctx context.Context, accessToken string) (string, bool, error) {
	profile, err := s.api.CurrentUser(ctx, accessToken)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve user identity: %w", err)
	}

	mapping, err := s.repo.FindByUserID(ctx, profile.ID)
	if err != nil {
		return "", false, err
	}

	if mapping != nil {
		exists, err := s.api.PlaylistExists(ctx, accessToken, mapping.PlaylistID)
		if err != nil {
			return "", false, fmt.Errorf("failed to verify playlist upstream: %w", err)
		}
		if exists {
			return mapping.PlaylistID, true, nil
		}

		// 帯域外で削除されていた。陳腐化した対応を消して検索し直す。
		slog.Warn("managed playlist deleted out-of-band, healing stale mapping",
			slog.String("user_id", profile.ID),
			slog.String("playlist_id", mapping.PlaylistID),
		)
		if err := s.repo.DeleteByUserID(ctx, profile.ID); err != nil {
			return "", false, err
		}
	}

	playlistID, err := s.findByName(ctx, accessToken, profile.ID)
	if err != nil {
		return "", false, err
	}
	if playlistID == "" {
		return "", false, nil
	}
	return playlistID, true, nil
}

// AddTrack は管理プレイリストにトラックを追加する。
// プレイリストの解決は高速パスのget-or-create。上流の失敗応答は
// リトライせずそのままエラーとして返す。
func (s *Service) AddTrack(ctx context.Context, accessToken, trackURI string) error {
	playlistID, err := s.GetOrCreate(ctx, accessToken)
	if err != nil {
		return err
	}

	if err := s.api.AddTrack(ctx, accessToken, playlistID, trackURI); err != nil {
		return fmt.Errorf("failed to add track to playlist: %w", err)
	}

	slog.Info("track added to managed playlist",
		slog.String("playlist_id", playlistID),
		slog.String("track_uri", trackURI),
	)
	return nil
}

// findOrCreate は名前検索で既存の管理プレイリストを探し、なければ作成して対応を永続化する。
func (s *Service) findOrCreate(ctx context.Context, accessToken, userID string) (string, error) {
	playlistID, err := s.findByName(ctx, accessToken, userID)
	if err != nil {
		return "", err
	}

	if playlistID == "" {
		playlistID, err = s.api.CreatePlaylist(ctx, accessToken, userID, ManagedPlaylistName, managedPlaylistDescription)
		if err != nil {
			return "", fmt.Errorf("failed to create managed playlist: %w", err)
		}
		slog.Info("managed playlist created",
			slog.String("user_id", userID),
			slog.String("playlist_id", playlistID),
		)
	}

	mapping := &model.ManagedPlaylist{
		UserID:     userID,
		PlaylistID: playlistID,
		CreatedAt:  time.Now(),
	}
	persisted, err := s.repo.Upsert(ctx, mapping)
	if err != nil {
		return "", err
	}

	// 同時初回リクエストに敗れた場合は勝者の行を採用する。
	// こちらが作成した上流プレイリストは孤児になる（許容された競合）。
	if persisted.PlaylistID != playlistID {
		slog.Warn("lost first-request race, adopting winner mapping",
			slog.String("user_id", userID),
			slog.String("orphaned_playlist_id", playlistID),
			slog.String("winner_playlist_id", persisted.PlaylistID),
		)
	}

	return persisted.PlaylistID, nil
}

// findByName は上流のプレイリスト一覧から固定名に一致するものを探す。
// 比較は大文字小文字を区別しない（単一契約）。見つからない場合は空文字を返す。
func (s *Service) findByName(ctx context.Context, accessToken, userID string) (string, error) {
	playlists, err := s.api.Playlists(ctx, accessToken)
	if err != nil {
		return "", fmt.Errorf("failed to list playlists upstream: %w", err)
	}

	for _, p := range playlists {
		if strings.EqualFold(p.Name, ManagedPlaylistName) {
			// 既存を発見。対応を永続化して再利用する。
			persisted, err := s.repo.Upsert(ctx, &model.ManagedPlaylist{
				UserID:     userID,
				PlaylistID: p.ID,
				CreatedAt:  time.Now(),
			})
			if err != nil {
				return "", err
			}
			return persisted.PlaylistID, nil
		}
	}

	return "", nil
}
