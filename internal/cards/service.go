// Package cards はコンテンツカードのカタログと日次カード選出を提供する。
package cards

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/hitoshi/tunedeck/internal/model"
	"github.com/hitoshi/tunedeck/internal/repository"
)

// dailyCardCount は1ユーザー・1日あたりのカード枚数。
const dailyCardCount = 3

// AssignmentRecorder は日次割り当ての新規確定の計測インターフェース。
// nilの場合は計測しない。
type AssignmentRecorder interface {
	RecordDailyAssignment()
}

// Service はカードカタログと日次選出のビジネスロジックを提供する。
type Service struct {
	cardRepo       repository.CardRepository
	assignmentRepo repository.AssignmentRepository
	discoveryRepo  repository.DiscoveryRepository
	sanitizer      *bluemonday.Policy
	metrics        AssignmentRecorder
}

// NewService はServiceを生成する。
func NewService(
	cardRepo repository.CardRepository,
	assignmentRepo repository.AssignmentRepository,
	discoveryRepo repository.DiscoveryRepository,
	metrics AssignmentRecorder,
) *Service {
	return &Service{
		cardRepo:       cardRepo,
		assignmentRepo: assignmentRepo,
		discoveryRepo:  discoveryRepo,
		// カード説明はWebクライアントでそのまま描画されるため、マークアップを全て除去する
		sanitizer: bluemonday.StrictPolicy(),
		metrics:   metrics,
	}
}

// List は全カードを返す。
func (s *Service) List(ctx context.Context) ([]*model.Card, error) {
	return s.cardRepo.ListAll(ctx)
}

// Seed は組み込みのカードセットをuri単位でupsertする。
// 再実行しても安全で、既存カードはシード内容で上書きされる。
func (s *Service) Seed(ctx context.Context) error {
	for _, seed := range seedCards {
		card := seed
		card.ID = uuid.New().String()
		card.Description = s.sanitizer.Sanitize(card.Description)

		if err := s.cardRepo.UpsertByURI(ctx, &card); err != nil {
			return fmt.Errorf("failed to seed card %q: %w", card.URI, err)
		}
	}

	slog.Info("cards seeded", slog.Int("count", len(seedCards)))
	return nil
}

// UTCDate はtをUTC日（真夜中）に正規化する。
func UTCDate(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

// Daily は指定ユーザーのUTC日次カードを返す。
//
// その日の割り当てが既に確定していれば再抽選せずそのまま返す（メモ化）。
// 未確定なら発見済みトラックを除いた候補から一様に3枚を非復元抽選する。
// 未発見カードが3枚未満になったら全カードへプールを広げ、それでも
// 3枚に満たない場合は選出済みカードを循環で繰り返して3枚に揃える
// （割り当て行は重複カードを持てないため、永続化は選出分のみ）。
func (s *Service) Daily(ctx context.Context, userID string, today time.Time) ([]*model.Card, error) {
	date := UTCDate(today)

	assignments, err := s.assignmentRepo.ListByUserAndDate(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if len(assignments) > 0 {
		return s.cardsForAssignments(ctx, assignments)
	}

	selected, err := s.selectCards(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no cards available for daily selection")
	}

	batch := make([]*model.DailyCardAssignment, len(selected))
	for i, card := range selected {
		batch[i] = &model.DailyCardAssignment{UserID: userID, CardID: card.ID, Date: date}
	}

	if err := s.assignmentRepo.CreateBatch(ctx, batch); err != nil {
		if errors.Is(err, repository.ErrAlreadyAssigned) {
			// 当日初回リクエストの競合に敗れた。勝者の割り当てを読み直す。
			winners, err := s.assignmentRepo.ListByUserAndDate(ctx, userID, date)
			if err != nil {
				return nil, err
			}
			return s.cardsForAssignments(ctx, winners)
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordDailyAssignment()
	}

	slog.Info("daily cards assigned",
		slog.String("user_id", userID),
		slog.Time("date", date),
		slog.Int("count", len(selected)),
	)
	return padToDailyCount(selected), nil
}

// selectCards は候補プールから一様な非復元抽選でカードを選ぶ。
func (s *Service) selectCards(ctx context.Context, userID string) ([]*model.Card, error) {
	all, err := s.cardRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}

	seenURIs, err := s.discoveryRepo.ListURIsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(seenURIs))
	for _, uri := range seenURIs {
		seen[uri] = true
	}

	pool := make([]*model.Card, 0, len(all))
	for _, card := range all {
		if !seen[card.URI] {
			pool = append(pool, card)
		}
	}

	// 未発見カードが尽きかけたら全カードにプールを広げる
	if len(pool) < dailyCardCount {
		pool = all
	}

	shuffled := make([]*model.Card, len(pool))
	copy(shuffled, pool)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	n := dailyCardCount
	if len(shuffled) < n {
		n = len(shuffled)
	}
	return shuffled[:n], nil
}

// cardsForAssignments は割り当て行に対応するカードを返す。
func (s *Service) cardsForAssignments(ctx context.Context, assignments []*model.DailyCardAssignment) ([]*model.Card, error) {
	ids := make([]string, len(assignments))
	for i, a := range assignments {
		ids[i] = a.CardID
	}

	cards, err := s.cardRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return padToDailyCount(cards), nil
}

// padToDailyCount はカードが3枚に満たない場合に循環の繰り返しで3枚に揃える。
// プール全体が3枚未満のときだけ起こる。決定的な埋め方なので同日内の再リクエストでも
// 同じ並びが返る。
func padToDailyCount(cards []*model.Card) []*model.Card {
	if len(cards) == 0 || len(cards) >= dailyCardCount {
		return cards
	}
	out := make([]*model.Card, 0, dailyCardCount)
	for i := 0; i < dailyCardCount; i++ {
		out = append(out, cards[i%len(cards)])
	}
	return out
}
