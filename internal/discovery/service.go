// Package discovery はユーザーとカード楽曲の出会いを記録する台帳を提供する。
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/tunedeck/internal/model"
	"github.com/hitoshi/tunedeck/internal/repository"
)

// ErrNotFound は指定した出会いの記録が存在しないことを示す。
var ErrNotFound = fmt.Errorf("discovery log not found")

// RecordResult はRecordの結果を表す。
type RecordResult struct {
	Entry           *model.DiscoveryLog
	AlreadyRecorded bool
}

// MarkResult はMarkAddedの結果を表す。
type MarkResult struct {
	Entry         *model.DiscoveryLog
	AlreadyMarked bool
}

// Service は発見台帳のビジネスロジックを提供する。
type Service struct {
	repo repository.DiscoveryRepository
}

// NewService はServiceを生成する。
func NewService(repo repository.DiscoveryRepository) *Service {
	return &Service{repo: repo}
}

// Record は出会いを記録する。(userID, trackURI) の既存記録があれば
// 新しい行を作らずそのまま返す（冪等）。
// 一意性はcheck-before-insertで担保しており、同時書き込みの僅かな窓は許容する。
func (s *Service) Record(ctx context.Context, userID, cardTitle, trackURI string, added bool) (*RecordResult, error) {
	existing, err := s.repo.FindByUserAndURI(ctx, userID, trackURI)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &RecordResult{Entry: existing, AlreadyRecorded: true}, nil
	}

	entry := &model.DiscoveryLog{
		ID:        uuid.New().String(),
		UserID:    userID,
		CardTitle: cardTitle,
		TrackURI:  trackURI,
		Added:     added,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}

	slog.Info("discovery recorded",
		slog.String("user_id", userID),
		slog.String("track_uri", trackURI),
	)
	return &RecordResult{Entry: entry}, nil
}

// MarkAdded は記録のaddedをtrueへ遷移させる。false→trueの一方向のみで、
// 既にtrueの場合はストアを更新せずAlreadyMarkedを報告する。
// 記録が存在しない場合はErrNotFoundを返す。
func (s *Service) MarkAdded(ctx context.Context, userID, trackURI string) (*MarkResult, error) {
	entry, err := s.repo.FindByUserAndURI(ctx, userID, trackURI)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrNotFound
	}

	if entry.Added {
		return &MarkResult{Entry: entry, AlreadyMarked: true}, nil
	}

	if err := s.repo.SetAdded(ctx, entry.ID); err != nil {
		return nil, err
	}
	entry.Added = true

	slog.Info("discovery marked as added",
		slog.String("user_id", userID),
		slog.String("track_uri", trackURI),
	)
	return &MarkResult{Entry: entry}, nil
}

// ListAll はユーザーの全記録を新しい順で返す。
func (s *Service) ListAll(ctx context.Context, userID string) ([]*model.DiscoveryLog, error) {
	return s.repo.ListByUserID(ctx, userID)
}

// Today はUTC当日中に作成された最古の記録を返す。
// 当日まだ何も選んでいない場合はErrNotFoundを返す。
func (s *Service) Today(ctx context.Context, userID string) (*model.DiscoveryLog, error) {
	midnight := time.Now().UTC().Truncate(24 * time.Hour)

	entry, err := s.repo.FindEarliestSince(ctx, userID, midnight)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrNotFound
	}
	return entry, nil
}
