package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/tunedeck/internal/model"
)

// PostgresCardRepo はPostgreSQLを使用したカードリポジトリ。
type PostgresCardRepo struct {
	db *sql.DB
}

// NewPostgresCardRepo はPostgresCardRepoを生成する。
func NewPostgresCardRepo(db *sql.DB) *PostgresCardRepo {
	return &PostgresCardRepo{db: db}
}

// ListAll は全カードをタイトル昇順で返す。
func (r *PostgresCardRepo) ListAll(ctx context.Context) ([]*model.Card, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, artist, uri, img, cover, description FROM cards ORDER BY title ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	return scanCards(rows)
}

// ListByIDs は指定IDのカードを返す。順序は保証しない。
func (r *PostgresCardRepo) ListByIDs(ctx context.Context, ids []string) ([]*model.Card, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, artist, uri, img, cover, description FROM cards WHERE id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards by IDs: %w", err)
	}
	defer rows.Close()

	return scanCards(rows)
}

// UpsertByURI はuriをキーにカードをupsertする。
// 既存カードはシード内容で上書きされる（シード以外の更新経路はない）。
func (r *PostgresCardRepo) UpsertByURI(ctx context.Context, card *model.Card) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cards (id, title, artist, uri, img, cover, description)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (uri) DO UPDATE SET
		   title = EXCLUDED.title,
		   artist = EXCLUDED.artist,
		   img = EXCLUDED.img,
		   cover = EXCLUDED.cover,
		   description = EXCLUDED.description`,
		card.ID, card.Title, card.Artist, card.URI, card.Img, card.Cover, card.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert card: %w", err)
	}
	return nil
}

func scanCards(rows *sql.Rows) ([]*model.Card, error) {
	var cards []*model.Card
	for rows.Next() {
		card := &model.Card{}
		if err := rows.Scan(&card.ID, &card.Title, &card.Artist, &card.URI, &card.Img, &card.Cover, &card.Description); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cards: %w", err)
	}
	return cards, nil
}

// compile-time interface check
var _ CardRepository = (*PostgresCardRepo)(nil)
