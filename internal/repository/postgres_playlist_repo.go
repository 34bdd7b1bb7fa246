package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/tunedeck/internal/model"
)

// PostgresPlaylistRepo はPostgreSQLを使用した管理プレイリストリポジトリ。
type PostgresPlaylistRepo struct {
	db *sql.DB
}

// NewPostgresPlaylistRepo はPostgresPlaylistRepoを生成する。
func NewPostgresPlaylistRepo(db *sql.DB) *PostgresPlaylistRepo {
	return &PostgresPlaylistRepo{db: db}
}

// FindByUserID は指定ユーザーの管理プレイリスト対応を取得する。見つからない場合はnilを返す。
func (r *PostgresPlaylistRepo) FindByUserID(ctx context.Context, userID string) (*model.ManagedPlaylist, error) {
	mapping := &model.ManagedPlaylist{}
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, playlist_id, created_at FROM managed_playlists WHERE user_id = $1`,
		userID,
	).Scan(&mapping.UserID, &mapping.PlaylistID, &mapping.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find managed playlist: %w", err)
	}

	return mapping, nil
}

// Upsert は対応を挿入する。
// ON CONFLICT DO NOTHINGで同時初回リクエストの競合をDB側で決着させ、
// 勝敗によらず永続化済みの行を返す。
func (r *PostgresPlaylistRepo) Upsert(ctx context.Context, mapping *model.ManagedPlaylist) (*model.ManagedPlaylist, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO managed_playlists (user_id, playlist_id, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO NOTHING`,
		mapping.UserID, mapping.PlaylistID, mapping.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert managed playlist: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return mapping, nil
	}

	// 挿入に敗れた場合は勝者の行を読み直す
	winner, err := r.FindByUserID(ctx, mapping.UserID)
	if err != nil {
		return nil, err
	}
	if winner == nil {
		return nil, fmt.Errorf("managed playlist row disappeared after conflict for user %s", mapping.UserID)
	}
	return winner, nil
}

// DeleteByUserID は指定ユーザーの対応を削除する。存在しない場合もエラーにしない。
func (r *PostgresPlaylistRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM managed_playlists WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete managed playlist: %w", err)
	}
	return nil
}

// compile-time interface check
var _ PlaylistRepository = (*PostgresPlaylistRepo)(nil)
