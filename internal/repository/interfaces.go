// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/tunedeck/internal/model"
)

// PlaylistRepository は管理プレイリスト対応の永続化インターフェース。
type PlaylistRepository interface {
	// FindByUserID は指定ユーザーの管理プレイリスト対応を取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.ManagedPlaylist, error)

	// Upsert は対応を挿入する。同一ユーザーの行が既に存在する場合は挿入せず、
	// 永続化済みの行（勝者）を返す。同時初回リクエストの競合はDB制約で決着する。
	Upsert(ctx context.Context, mapping *model.ManagedPlaylist) (*model.ManagedPlaylist, error)

	// DeleteByUserID は指定ユーザーの対応を削除する。存在しない場合もエラーにしない。
	DeleteByUserID(ctx context.Context, userID string) error
}

// DiscoveryRepository は発見ログの永続化インターフェース。
type DiscoveryRepository interface {
	// FindByUserAndURI は(user_id, track_uri)でログを検索する。見つからない場合はnilを返す。
	// 重複行が存在した場合は最古の1件を返す。
	FindByUserAndURI(ctx context.Context, userID, trackURI string) (*model.DiscoveryLog, error)

	// Create はログを作成する。
	Create(ctx context.Context, entry *model.DiscoveryLog) error

	// SetAdded は指定ログのaddedをtrueに更新する。
	SetAdded(ctx context.Context, id string) error

	// ListByUserID はユーザーの全ログを作成日時降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.DiscoveryLog, error)

	// FindEarliestSince はsince以降に作成された最古のログを返す。見つからない場合はnilを返す。
	FindEarliestSince(ctx context.Context, userID string, since time.Time) (*model.DiscoveryLog, error)

	// ListURIsByUserID はユーザーが発見済みのトラックURI一覧を返す。
	ListURIsByUserID(ctx context.Context, userID string) ([]string, error)
}

// CardRepository はコンテンツカードの永続化インターフェース。
type CardRepository interface {
	// ListAll は全カードを返す。
	ListAll(ctx context.Context) ([]*model.Card, error)

	// ListByIDs は指定IDのカードを返す。順序は保証しない。
	ListByIDs(ctx context.Context, ids []string) ([]*model.Card, error)

	// UpsertByURI はuriをキーにカードをupsertする。
	UpsertByURI(ctx context.Context, card *model.Card) error
}

// AssignmentRepository は日次カード割り当ての永続化インターフェース。
type AssignmentRepository interface {
	// ListByUserAndDate は指定ユーザー・UTC日の割り当てを返す。
	ListByUserAndDate(ctx context.Context, userID string, date time.Time) ([]*model.DailyCardAssignment, error)

	// CreateBatch は割り当てを1トランザクションで挿入する。
	// 既に同日の行が存在する競合時は何も挿入せずErrAlreadyAssignedを返す。
	CreateBatch(ctx context.Context, assignments []*model.DailyCardAssignment) error
}
