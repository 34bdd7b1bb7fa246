package playlist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/tunedeck/internal/model"
	"github.com/hitoshi/tunedeck/internal/spotify"
)

// --- モック定義 ---

type mockSpotifyAPI struct {
	currentUserFn    func(ctx context.Context, accessToken string) (*spotify.Profile, error)
	playlistsFn      func(ctx context.Context, accessToken string) ([]spotify.SimplePlaylist, error)
	createPlaylistFn func(ctx context.Context, accessToken, userID, name, description string) (string, error)
	playlistExistsFn func(ctx context.Context, accessToken, playlistID string) (bool, error)
	addTrackFn       func(ctx context.Context, accessToken, playlistID, trackURI string) error
}

func (m *mockSpotifyAPI) CurrentUser(ctx context.Context, accessToken string) (*spotify.Profile, error) {
	if m.currentUserFn != nil {
		return m.currentUserFn(ctx, accessToken)
	}
	return &spotify.Profile{ID: "user-1", DisplayName: "Listener"}, nil
}

func (m *mockSpotifyAPI) Playlists(ctx context.Context, accessToken string) ([]spotify.SimplePlaylist, error) {
	if m.playlistsFn != nil {
		return m.playlistsFn(ctx, accessToken)
	}
	return nil, nil
}

func (m *mockSpotifyAPI) CreatePlaylist(ctx context.Context, accessToken, userID, name, description string) (string, error) {
	if m.createPlaylistFn != nil {
		return m.createPlaylistFn(ctx, accessToken, userID, name, description)
	}
	return "", errors.New("unexpected CreatePlaylist call")
}

func (m *mockSpotifyAPI) PlaylistExists(ctx context.Context, accessToken, playlistID string) (bool, error) {
	if m.playlistExistsFn != nil {
		return m.playlistExistsFn(ctx, accessToken, playlistID)
	}
	return true, nil
}

func (m *mockSpotifyAPI) AddTrack(ctx context.Context, accessToken, playlistID, trackURI string) error {
	if m.addTrackFn != nil {
		return m.addTrackFn(ctx, accessToken, playlistID, trackURI)
	}
	return nil
}

// インメモリのPlaylistRepository実装
type memPlaylistRepo struct {
	rows    map[string]*model.ManagedPlaylist
	deletes int
}

func newMemPlaylistRepo() *memPlaylistRepo {
	return &memPlaylistRepo{rows: map[string]*model.ManagedPlaylist{}}
}

func (r *memPlaylistRepo) FindByUserID(ctx context.Context, userID string) (*model.ManagedPlaylist, error) {
	if m, ok := r.rows[userID]; ok {
		return m, nil
	}
	return nil, nil
}

func (r *memPlaylistRepo) Upsert(ctx context.Context, mapping *model.ManagedPlaylist) (*model.ManagedPlaylist, error) {
	if existing, ok := r.rows[mapping.UserID]; ok {
		return existing, nil
	}
	r.rows[mapping.UserID] = mapping
	return mapping, nil
}

func (r *memPlaylistRepo) DeleteByUserID(ctx context.Context, userID string) error {
	delete(r.rows, userID)
	r.deletes++
	return nil
}

// --- テスト ---

func TestGetOrCreate_StoredMapping_TrustsItWithoutUpstreamCheck(t *testing.T) {
	repo := newMemPlaylistRepo()
	repo.rows["user-1"] = &model.ManagedPlaylist{UserID: "user-1", PlaylistID: "stored-pl", CreatedAt: time.Now()}

	verifyCalled := false
	api := &mockSpotifyAPI{
		playlistExistsFn: func(ctx context.Context, accessToken, playlistID string) (bool, error) {
			verifyCalled = true
			return true, nil
		},
	}
	svc := NewService(api, repo)

	id, err := svc.GetOrCreate(context.Background(), "token")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if id != "stored-pl" {
		t.Errorf("id = %q, want stored-pl", id)
	}
	// 高速パス: 上流検証しない
	if verifyCalled {
		t.Error("fast path should not verify upstream")
	}
}

func TestGetOrCreate_FindsExistingByName_CaseInsensitive(t *testing.T) {
	repo := newMemPlaylistRepo()
	api := &mockSpotifyAPI{
		playlistsFn: func(ctx context.Context, accessToken string) ([]spotify.SimplePlaylist, error) {
			return []spotify.SimplePlaylist{
				{ID: "other", Name: "Workout Mix"},
				{ID: "found-pl", Name: "TUNEDECK DISCOVERIES"},
			}, nil
		},
	}
	svc := NewService(api, repo)

	id, err := svc.GetOrCreate(context.Background(), "token")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if id != "found-pl" {
		t.Errorf("id = %q, want found-pl", id)
	}
	// 対応が永続化されること
	if repo.rows["user-1"] == nil || repo.rows["user-1"].PlaylistID != "found-pl" {
		t.Error("mapping should be persisted after name match")
	}
}

func TestGetOrCreate_NoMatch_CreatesPlaylist(t *testing.T) {
	repo := newMemPlaylistRepo()
	api := &mockSpotifyAPI{
		playlistsFn: func(ctx context.Context, accessToken string) ([]spotify.SimplePlaylist, error) {
			return []spotify.SimplePlaylist{{ID: "other", Name: "Workout Mix"}}, nil
		},
		createPlaylistFn: func(ctx context.Context, accessToken, userID, name, description string) (string, error) {
			if name != ManagedPlaylistName {
				t.Errorf("name = %q, want %q", name, ManagedPlaylistName)
			}
			return "created-pl", nil
		},
	}
	svc := NewService(api, repo)

	id, err := svc.GetOrCreate(context.Background(), "token")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if id != "created-pl" {
		t.Errorf("id = %q, want created-pl", id)
	}
}

func TestGetOrCreate_LosesRace_AdoptsWinnerMapping(t *testing.T) {
	repo := newMemPlaylistRepo()
	// 別リクエストが先に対応を書き込んだ状況をUpsert時に再現する
	repo.rows["user-1"] = &model.ManagedPlaylist{UserID: "user-1", PlaylistID: "winner-pl", CreatedAt: time.Now()}

	api := &mockSpotifyAPI{
		playlistsFn: func(ctx context.Context, accessToken string) ([]spotify.SimplePlaylist, error) {
			return nil, nil
		},
		createPlaylistFn: func(ctx context.Context, accessToken, userID, name, description string) (string, error) {
			return "loser-pl", nil
		},
	}
	svc := NewService(api, repo)

	// FindByUserIDを素通りさせ、Upsertで競合に敗れるパスを直接検証する
	id, err := svc.findOrCreate(context.Background(), "token", "user-1")
	if err != nil {
		t.Fatalf("findOrCreate() error = %v", err)
	}
	if id != "winner-pl" {
		t.Errorf("id = %q, want winner-pl (winner row adopted)", id)
	}
}

func TestEnsureExists_StaleMapping_HealsAndSearches(t *testing.T) {
	repo := newMemPlaylistRepo()
	repo.rows["user-1"] = &model.ManagedPlaylist{UserID: "user-1", PlaylistID: "stale-pl", CreatedAt: time.Now()}

	api := &mockSpotifyAPI{
		playlistExistsFn: func(ctx context.Context, accessToken, playlistID string) (bool, error) {
			return false, nil // 帯域外削除済み
		},
		playlistsFn: func(ctx context.Context, accessToken string) ([]spotify.SimplePlaylist, error) {
			return nil, nil
		},
	}
	svc := NewService(api, repo)

	_, exists, err := svc.EnsureExists(context.Background(), "token")
	if err != nil {
		t.Fatalf("EnsureExists() error = %v", err)
	}
	if exists {
		t.Error("exists = true, want false after stale mapping healed")
	}
	if repo.deletes != 1 {
		t.Errorf("deletes = %d, want 1 (stale row removed)", repo.deletes)
	}
	if _, ok := repo.rows["user-1"]; ok {
		t.Error("stale mapping should be deleted")
	}
}

func TestEnsureExists_ValidMapping_ReturnsTrue(t *testing.T) {
	repo := newMemPlaylistRepo()
	repo.rows["user-1"] = &model.ManagedPlaylist{UserID: "user-1", PlaylistID: "live-pl", CreatedAt: time.Now()}

	svc := NewService(&mockSpotifyAPI{}, repo)

	id, exists, err := svc.EnsureExists(context.Background(), "token")
	if err != nil {
		t.Fatalf("EnsureExists() error = %v", err)
	}
	if !exists || id != "live-pl" {
		t.Errorf("got (%q, %v), want (live-pl, true)", id, exists)
	}
}

func TestEnsureExists_NeverCreates(t *testing.T) {
	repo := newMemPlaylistRepo()
	created := false
	api := &mockSpotifyAPI{
		playlistsFn: func(ctx context.Context, accessToken string) ([]spotify.SimplePlaylist, error) {
			return nil, nil
		},
		createPlaylistFn: func(ctx context.Context, accessToken, userID, name, description string) (string, error) {
			created = true
			return "should-not-happen", nil
		},
	}
	svc := NewService(api, repo)

	_, exists, err := svc.EnsureExists(context.Background(), "token")
	if err != nil {
		t.Fatalf("EnsureExists() error = %v", err)
	}
	if exists {
		t.Error("exists = true, want false")
	}
	if created {
		t.Error("EnsureExists must not create a playlist")
	}
}

func TestAddTrack_ResolvesPlaylistThenAdds(t *testing.T) {
	repo := newMemPlaylistRepo()
	repo.rows["user-1"] = &model.ManagedPlaylist{UserID: "user-1", PlaylistID: "stored-pl", CreatedAt: time.Now()}

	var addedTo, addedURI string
	api := &mockSpotifyAPI{
		addTrackFn: func(ctx context.Context, accessToken, playlistID, trackURI string) error {
			addedTo = playlistID
			addedURI = trackURI
			return nil
		},
	}
	svc := NewService(api, repo)

	if err := svc.AddTrack(context.Background(), "token", "spotify:track:abc"); err != nil {
		t.Fatalf("AddTrack() error = %v", err)
	}
	if addedTo != "stored-pl" || addedURI != "spotify:track:abc" {
		t.Errorf("added (%q, %q), want (stored-pl, spotify:track:abc)", addedTo, addedURI)
	}
}

func TestAddTrack_UpstreamFailure_IsTerminal(t *testing.T) {
	repo := newMemPlaylistRepo()
	repo.rows["user-1"] = &model.ManagedPlaylist{UserID: "user-1", PlaylistID: "stored-pl", CreatedAt: time.Now()}

	calls := 0
	api := &mockSpotifyAPI{
		addTrackFn: func(ctx context.Context, accessToken, playlistID, trackURI string) error {
			calls++
			return &spotify.StatusError{StatusCode: 502, Body: "bad gateway"}
		},
	}
	svc := NewService(api, repo)

	err := svc.AddTrack(context.Background(), "token", "spotify:track:abc")
	if err == nil {
		t.Fatal("expected error for upstream failure")
	}
	// リトライしないこと
	if calls != 1 {
		t.Errorf("upstream calls = %d, want 1 (no retry)", calls)
	}
}
