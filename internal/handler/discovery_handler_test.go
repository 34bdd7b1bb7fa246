package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/tunedeck/internal/discovery"
	"github.com/hitoshi/tunedeck/internal/model"
)

// mockDiscoveryService はDiscoveryServiceInterfaceのモック実装。
type mockDiscoveryService struct {
	recordFn    func(ctx context.Context, userID, cardTitle, trackURI string, added bool) (*discovery.RecordResult, error)
	markAddedFn func(ctx context.Context, userID, trackURI string) (*discovery.MarkResult, error)
	listAllFn   func(ctx context.Context, userID string) ([]*model.DiscoveryLog, error)
	todayFn     func(ctx context.Context, userID string) (*model.DiscoveryLog, error)
}

func (m *mockDiscoveryService) Record(ctx context.Context, userID, cardTitle, trackURI string, added bool) (*discovery.RecordResult, error) {
	if m.recordFn != nil {
		return m.recordFn(ctx, userID, cardTitle, trackURI, added)
	}
	return &discovery.RecordResult{Entry: &model.DiscoveryLog{ID: "log-1"}}, nil
}

func (m *mockDiscoveryService) MarkAdded(ctx context.Context, userID, trackURI string) (*discovery.MarkResult, error) {
	if m.markAddedFn != nil {
		return m.markAddedFn(ctx, userID, trackURI)
	}
	return &discovery.MarkResult{Entry: &model.DiscoveryLog{ID: "log-1", Added: true}}, nil
}

func (m *mockDiscoveryService) ListAll(ctx context.Context, userID string) ([]*model.DiscoveryLog, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockDiscoveryService) Today(ctx context.Context, userID string) (*model.DiscoveryLog, error) {
	if m.todayFn != nil {
		return m.todayFn(ctx, userID)
	}
	return &model.DiscoveryLog{ID: "log-today"}, nil
}

// --- POST /api/discovery テスト ---

func TestDiscoveryHandler_Record_Success(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	svc := &mockDiscoveryService{
		recordFn: func(ctx context.Context, userID, cardTitle, trackURI string, added bool) (*discovery.RecordResult, error) {
			if userID != "user-1" || cardTitle != "夜駆け" || trackURI != "spotify:track:abc" {
				t.Errorf("unexpected args: %q %q %q", userID, cardTitle, trackURI)
			}
			return &discovery.RecordResult{
				Entry: &model.DiscoveryLog{
					ID:        "log-1",
					UserID:    userID,
					CardTitle: cardTitle,
					TrackURI:  trackURI,
					CreatedAt: now,
				},
			}, nil
		},
	}
	h := NewDiscoveryHandler(svc)

	body := []byte(`{"userId":"user-1","cardTitle":"夜駆け","trackUri":"spotify:track:abc"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/discovery", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Record(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var res discoveryLogResponse
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.ID != "log-1" {
		t.Errorf("id = %q, want log-1", res.ID)
	}
	if res.CardTitle != "夜駆け" {
		t.Errorf("cardTitle = %q", res.CardTitle)
	}
}

func TestDiscoveryHandler_Record_MissingField_Returns400(t *testing.T) {
	h := NewDiscoveryHandler(&mockDiscoveryService{})

	cases := []struct {
		name string
		body string
	}{
		{"missing userId", `{"cardTitle":"t","trackUri":"u"}`},
		{"missing cardTitle", `{"userId":"u1","trackUri":"u"}`},
		{"missing trackUri", `{"userId":"u1","cardTitle":"t"}`},
		{"invalid json", `{`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/discovery", bytes.NewReader([]byte(tc.body)))
			w := httptest.NewRecorder()
			h.Record(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

// --- POST /api/discovery/mark-as-added テスト ---

func TestDiscoveryHandler_MarkAsAdded_Success(t *testing.T) {
	svc := &mockDiscoveryService{
		markAddedFn: func(ctx context.Context, userID, trackURI string) (*discovery.MarkResult, error) {
			return &discovery.MarkResult{
				Entry: &model.DiscoveryLog{ID: "log-1", UserID: userID, TrackURI: trackURI, Added: true},
			}, nil
		},
	}
	h := NewDiscoveryHandler(svc)

	body := []byte(`{"userId":"user-1","trackUri":"spotify:track:abc"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/discovery/mark-as-added", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.MarkAsAdded(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var res struct {
		Log           discoveryLogResponse `json:"log"`
		AlreadyMarked bool                 `json:"alreadyMarked"`
	}
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !res.Log.Added {
		t.Error("log.added should be true")
	}
	if res.AlreadyMarked {
		t.Error("alreadyMarked should be false on first transition")
	}
}

func TestDiscoveryHandler_MarkAsAdded_AlreadyMarked(t *testing.T) {
	svc := &mockDiscoveryService{
		markAddedFn: func(ctx context.Context, userID, trackURI string) (*discovery.MarkResult, error) {
			return &discovery.MarkResult{
				Entry:         &model.DiscoveryLog{ID: "log-1", Added: true},
				AlreadyMarked: true,
			}, nil
		},
	}
	h := NewDiscoveryHandler(svc)

	body := []byte(`{"userId":"user-1","trackUri":"spotify:track:abc"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/discovery/mark-as-added", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.MarkAsAdded(w, req)

	var res struct {
		AlreadyMarked bool `json:"alreadyMarked"`
	}
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !res.AlreadyMarked {
		t.Error("alreadyMarked should be true")
	}
}

func TestDiscoveryHandler_MarkAsAdded_NotFound_Returns404(t *testing.T) {
	svc := &mockDiscoveryService{
		markAddedFn: func(ctx context.Context, userID, trackURI string) (*discovery.MarkResult, error) {
			return nil, discovery.ErrNotFound
		},
	}
	h := NewDiscoveryHandler(svc)

	body := []byte(`{"userId":"user-1","trackUri":"spotify:track:zzz"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/discovery/mark-as-added", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.MarkAsAdded(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

// --- GET /api/discovery/all テスト ---

func TestDiscoveryHandler_All_MissingUserID_Returns400(t *testing.T) {
	h := NewDiscoveryHandler(&mockDiscoveryService{})

	req := httptest.NewRequest(http.MethodGet, "/api/discovery/all", nil)
	w := httptest.NewRecorder()
	h.All(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestDiscoveryHandler_All_ReturnsList(t *testing.T) {
	svc := &mockDiscoveryService{
		listAllFn: func(ctx context.Context, userID string) ([]*model.DiscoveryLog, error) {
			return []*model.DiscoveryLog{
				{ID: "log-2"},
				{ID: "log-1"},
			}, nil
		},
	}
	h := NewDiscoveryHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/discovery/all?userId=user-1", nil)
	w := httptest.NewRecorder()
	h.All(w, req)

	var res []discoveryLogResponse
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(res) != 2 || res[0].ID != "log-2" {
		t.Errorf("unexpected list: %+v", res)
	}
}

func TestDiscoveryHandler_All_EmptyList_ReturnsJSONArray(t *testing.T) {
	h := NewDiscoveryHandler(&mockDiscoveryService{})

	req := httptest.NewRequest(http.MethodGet, "/api/discovery/all?userId=user-1", nil)
	w := httptest.NewRecorder()
	h.All(w, req)

	// nilスライスでも`[]`を返す
	if got := w.Body.String(); got != "[]\n" {
		t.Errorf("body = %q, want empty JSON array", got)
	}
}

// --- GET /api/discovery/today テスト ---

func TestDiscoveryHandler_Today_NoneToday_Returns404(t *testing.T) {
	svc := &mockDiscoveryService{
		todayFn: func(ctx context.Context, userID string) (*model.DiscoveryLog, error) {
			return nil, discovery.ErrNotFound
		},
	}
	h := NewDiscoveryHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/discovery/today?userId=user-1", nil)
	w := httptest.NewRecorder()
	h.Today(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestDiscoveryHandler_Today_ReturnsRecord(t *testing.T) {
	h := NewDiscoveryHandler(&mockDiscoveryService{})

	req := httptest.NewRequest(http.MethodGet, "/api/discovery/today?userId=user-1", nil)
	w := httptest.NewRecorder()
	h.Today(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var res discoveryLogResponse
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.ID != "log-today" {
		t.Errorf("id = %q, want log-today", res.ID)
	}
}
