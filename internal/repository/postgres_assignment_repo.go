package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/tunedeck/internal/model"
)

// ErrAlreadyAssigned は同日の割り当てが既に確定していたことを示す。
// 当日初回リクエストの競合に敗れた呼び出し側は勝者の割り当てを読み直す。
var ErrAlreadyAssigned = errors.New("daily card assignments already exist")

// PostgresAssignmentRepo はPostgreSQLを使用した日次割り当てリポジトリ。
type PostgresAssignmentRepo struct {
	db *sql.DB
}

// NewPostgresAssignmentRepo はPostgresAssignmentRepoを生成する。
func NewPostgresAssignmentRepo(db *sql.DB) *PostgresAssignmentRepo {
	return &PostgresAssignmentRepo{db: db}
}

// ListByUserAndDate は指定ユーザー・UTC日の割り当てを返す。
func (r *PostgresAssignmentRepo) ListByUserAndDate(ctx context.Context, userID string, date time.Time) ([]*model.DailyCardAssignment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, card_id, date FROM daily_card_assignments
		 WHERE user_id = $1 AND date = $2`,
		userID, date,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*model.DailyCardAssignment
	for rows.Next() {
		a := &model.DailyCardAssignment{}
		if err := rows.Scan(&a.UserID, &a.CardID, &a.Date); err != nil {
			return nil, fmt.Errorf("failed to scan daily assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate daily assignments: %w", err)
	}

	return assignments, nil
}

// CreateBatch は割り当てを1トランザクションで挿入する。
// いずれかの行がON CONFLICTで挿入できなかった場合は全体をロールバックし、
// ErrAlreadyAssignedを返す。割り当ては全部入るか1行も入らないかのどちらか。
func (r *PostgresAssignmentRepo) CreateBatch(ctx context.Context, assignments []*model.DailyCardAssignment) error {
	if len(assignments) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, a := range assignments {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO daily_card_assignments (user_id, card_id, date)
			 VALUES ($1, $2, $3)
			 ON CONFLICT DO NOTHING`,
			a.UserID, a.CardID, a.Date,
		)
		if err != nil {
			return fmt.Errorf("failed to insert daily assignment: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return ErrAlreadyAssigned
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// compile-time interface check
var _ AssignmentRepository = (*PostgresAssignmentRepo)(nil)
