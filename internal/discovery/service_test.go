package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/tunedeck/internal/model"
)

// インメモリのDiscoveryRepository実装
type memDiscoveryRepo struct {
	entries       []*model.DiscoveryLog
	setAddedCalls int
}

func (r *memDiscoveryRepo) FindByUserAndURI(ctx context.Context, userID, trackURI string) (*model.DiscoveryLog, error) {
	for _, e := range r.entries {
		if e.UserID == userID && e.TrackURI == trackURI {
			return e, nil
		}
	}
	return nil, nil
}

func (r *memDiscoveryRepo) Create(ctx context.Context, entry *model.DiscoveryLog) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *memDiscoveryRepo) SetAdded(ctx context.Context, id string) error {
	r.setAddedCalls++
	for _, e := range r.entries {
		if e.ID == id {
			e.Added = true
			return nil
		}
	}
	return errors.New("not found")
}

func (r *memDiscoveryRepo) ListByUserID(ctx context.Context, userID string) ([]*model.DiscoveryLog, error) {
	var out []*model.DiscoveryLog
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].UserID == userID {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}

func (r *memDiscoveryRepo) FindEarliestSince(ctx context.Context, userID string, since time.Time) (*model.DiscoveryLog, error) {
	var earliest *model.DiscoveryLog
	for _, e := range r.entries {
		if e.UserID != userID || e.CreatedAt.Before(since) {
			continue
		}
		if earliest == nil || e.CreatedAt.Before(earliest.CreatedAt) {
			earliest = e
		}
	}
	return earliest, nil
}

func (r *memDiscoveryRepo) ListURIsByUserID(ctx context.Context, userID string) ([]string, error) {
	var uris []string
	for _, e := range r.entries {
		if e.UserID == userID {
			uris = append(uris, e.TrackURI)
		}
	}
	return uris, nil
}

// --- テスト ---

func TestRecord_NewEntry_CreatesRow(t *testing.T) {
	repo := &memDiscoveryRepo{}
	svc := NewService(repo)

	result, err := svc.Record(context.Background(), "user-1", "Midnight City", "spotify:track:abc", false)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if result.AlreadyRecorded {
		t.Error("AlreadyRecorded = true, want false for new entry")
	}
	if result.Entry.ID == "" {
		t.Error("expected generated entry ID")
	}
	if len(repo.entries) != 1 {
		t.Errorf("rows = %d, want 1", len(repo.entries))
	}
}

func TestRecord_CalledTwice_IsIdempotent(t *testing.T) {
	repo := &memDiscoveryRepo{}
	svc := NewService(repo)

	first, err := svc.Record(context.Background(), "user-1", "Midnight City", "spotify:track:abc", false)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	second, err := svc.Record(context.Background(), "user-1", "Midnight City", "spotify:track:abc", false)
	if err != nil {
		t.Fatalf("second Record() error = %v", err)
	}

	if !second.AlreadyRecorded {
		t.Error("AlreadyRecorded = false, want true on duplicate")
	}
	// 同じエントリIDが返り、行は1つだけ
	if first.Entry.ID != second.Entry.ID {
		t.Errorf("entry IDs differ: %q vs %q", first.Entry.ID, second.Entry.ID)
	}
	if len(repo.entries) != 1 {
		t.Errorf("rows = %d, want exactly 1", len(repo.entries))
	}
}

func TestRecord_SameURIDifferentUser_CreatesSeparateRows(t *testing.T) {
	repo := &memDiscoveryRepo{}
	svc := NewService(repo)

	if _, err := svc.Record(context.Background(), "user-1", "Midnight City", "spotify:track:abc", false); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if _, err := svc.Record(context.Background(), "user-2", "Midnight City", "spotify:track:abc", false); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if len(repo.entries) != 2 {
		t.Errorf("rows = %d, want 2", len(repo.entries))
	}
}

func TestMarkAdded_NoEntry_ReturnsNotFound(t *testing.T) {
	svc := NewService(&memDiscoveryRepo{})

	_, err := svc.MarkAdded(context.Background(), "user-1", "spotify:track:missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestMarkAdded_FlipsFalseToTrue(t *testing.T) {
	repo := &memDiscoveryRepo{}
	svc := NewService(repo)

	if _, err := svc.Record(context.Background(), "user-1", "Midnight City", "spotify:track:abc", false); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	result, err := svc.MarkAdded(context.Background(), "user-1", "spotify:track:abc")
	if err != nil {
		t.Fatalf("MarkAdded() error = %v", err)
	}
	if result.AlreadyMarked {
		t.Error("AlreadyMarked = true, want false on first mark")
	}
	if !result.Entry.Added {
		t.Error("Added = false, want true")
	}
}

func TestMarkAdded_AlreadyAdded_NoStoreWrite(t *testing.T) {
	repo := &memDiscoveryRepo{}
	svc := NewService(repo)

	if _, err := svc.Record(context.Background(), "user-1", "Midnight City", "spotify:track:abc", true); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	result, err := svc.MarkAdded(context.Background(), "user-1", "spotify:track:abc")
	if err != nil {
		t.Fatalf("MarkAdded() error = %v", err)
	}
	if !result.AlreadyMarked {
		t.Error("AlreadyMarked = false, want true")
	}
	if !result.Entry.Added {
		t.Error("Added must stay true")
	}
	// ストア書き込みが発生しないこと
	if repo.setAddedCalls != 0 {
		t.Errorf("SetAdded calls = %d, want 0", repo.setAddedCalls)
	}
}

func TestListAll_ReturnsNewestFirst(t *testing.T) {
	repo := &memDiscoveryRepo{}
	svc := NewService(repo)

	if _, err := svc.Record(context.Background(), "user-1", "First", "spotify:track:1", false); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if _, err := svc.Record(context.Background(), "user-1", "Second", "spotify:track:2", false); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	entries, err := svc.ListAll(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].CardTitle != "Second" {
		t.Errorf("first entry = %q, want newest (Second)", entries[0].CardTitle)
	}
}

func TestToday_NoEntryToday_ReturnsNotFound(t *testing.T) {
	repo := &memDiscoveryRepo{}
	// 昨日の記録のみ
	repo.entries = append(repo.entries, &model.DiscoveryLog{
		ID:        "old",
		UserID:    "user-1",
		TrackURI:  "spotify:track:old",
		CreatedAt: time.Now().UTC().Add(-48 * time.Hour),
	})
	svc := NewService(repo)

	_, err := svc.Today(context.Background(), "user-1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestToday_ReturnsEarliestOfCurrentDay(t *testing.T) {
	now := time.Now().UTC()
	midnight := now.Truncate(24 * time.Hour)

	repo := &memDiscoveryRepo{}
	repo.entries = append(repo.entries,
		&model.DiscoveryLog{ID: "later", UserID: "user-1", TrackURI: "spotify:track:2", CreatedAt: now},
		&model.DiscoveryLog{ID: "earliest", UserID: "user-1", TrackURI: "spotify:track:1", CreatedAt: midnight.Add(time.Minute)},
		&model.DiscoveryLog{ID: "yesterday", UserID: "user-1", TrackURI: "spotify:track:0", CreatedAt: midnight.Add(-time.Hour)},
	)
	svc := NewService(repo)

	entry, err := svc.Today(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Today() error = %v", err)
	}
	if entry.ID != "earliest" {
		t.Errorf("entry.ID = %q, want earliest", entry.ID)
	}
}
