package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/tunedeck/internal/model"
)

// PostgresDiscoveryRepo はPostgreSQLを使用した発見ログリポジトリ。
type PostgresDiscoveryRepo struct {
	db *sql.DB
}

// NewPostgresDiscoveryRepo はPostgresDiscoveryRepoを生成する。
func NewPostgresDiscoveryRepo(db *sql.DB) *PostgresDiscoveryRepo {
	return &PostgresDiscoveryRepo{db: db}
}

// FindByUserAndURI は(user_id, track_uri)でログを検索する。見つからない場合はnilを返す。
// 一意性はアプリ層のcheck-before-insertで担保しているため、万一重複があれば最古の1件を返す。
func (r *PostgresDiscoveryRepo) FindByUserAndURI(ctx context.Context, userID, trackURI string) (*model.DiscoveryLog, error) {
	entry := &model.DiscoveryLog{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, card_title, track_uri, added, created_at
		 FROM discovery_logs
		 WHERE user_id = $1 AND track_uri = $2
		 ORDER BY created_at ASC
		 LIMIT 1`,
		userID, trackURI,
	).Scan(&entry.ID, &entry.UserID, &entry.CardTitle, &entry.TrackURI, &entry.Added, &entry.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find discovery log: %w", err)
	}

	return entry, nil
}

// Create はログを作成する。
func (r *PostgresDiscoveryRepo) Create(ctx context.Context, entry *model.DiscoveryLog) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO discovery_logs (id, user_id, card_title, track_uri, added, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.UserID, entry.CardTitle, entry.TrackURI, entry.Added, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert discovery log: %w", err)
	}
	return nil
}

// SetAdded は指定ログのaddedをtrueに更新する。
func (r *PostgresDiscoveryRepo) SetAdded(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE discovery_logs SET added = TRUE WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update discovery log: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("discovery log not found: %s", id)
	}
	return nil
}

// ListByUserID はユーザーの全ログを作成日時降順で返す。
func (r *PostgresDiscoveryRepo) ListByUserID(ctx context.Context, userID string) ([]*model.DiscoveryLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, card_title, track_uri, added, created_at
		 FROM discovery_logs
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list discovery logs: %w", err)
	}
	defer rows.Close()

	var entries []*model.DiscoveryLog
	for rows.Next() {
		entry := &model.DiscoveryLog{}
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.CardTitle, &entry.TrackURI, &entry.Added, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan discovery log: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate discovery logs: %w", err)
	}

	return entries, nil
}

// FindEarliestSince はsince以降に作成された最古のログを返す。見つからない場合はnilを返す。
func (r *PostgresDiscoveryRepo) FindEarliestSince(ctx context.Context, userID string, since time.Time) (*model.DiscoveryLog, error) {
	entry := &model.DiscoveryLog{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, card_title, track_uri, added, created_at
		 FROM discovery_logs
		 WHERE user_id = $1 AND created_at >= $2
		 ORDER BY created_at ASC
		 LIMIT 1`,
		userID, since,
	).Scan(&entry.ID, &entry.UserID, &entry.CardTitle, &entry.TrackURI, &entry.Added, &entry.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find earliest discovery log: %w", err)
	}

	return entry, nil
}

// ListURIsByUserID はユーザーが発見済みのトラックURI一覧を返す。
func (r *PostgresDiscoveryRepo) ListURIsByUserID(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT track_uri FROM discovery_logs WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list discovered URIs: %w", err)
	}
	defer rows.Close()

	var uris []string
	for rows.Next() {
		var uri string
		if err := rows.Scan(&uri); err != nil {
			return nil, fmt.Errorf("failed to scan discovered URI: %w", err)
		}
		uris = append(uris, uri)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate discovered URIs: %w", err)
	}

	return uris, nil
}

// compile-time interface check
var _ DiscoveryRepository = (*PostgresDiscoveryRepo)(nil)
