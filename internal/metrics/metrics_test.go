package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCollector_RecordHTTPStatus_ExposedViaHandler(t *testing.T) {
	collector := NewCollector()
	collector.RecordHTTPStatus(200)
	collector.RecordHTTPStatus(200)
	collector.RecordHTTPStatus(404)

	body := scrape(t, collector)

	if !strings.Contains(body, `tunedeck_http_responses_total{code="200"} 2`) {
		t.Errorf("metrics output missing 200 counter:\n%s", body)
	}
	if !strings.Contains(body, `tunedeck_http_responses_total{code="404"} 1`) {
		t.Errorf("metrics output missing 404 counter:\n%s", body)
	}
}

func TestCollector_RecordUpstreamRequest(t *testing.T) {
	collector := NewCollector()
	collector.RecordUpstreamRequest("/v1/me", 200, 50*time.Millisecond)

	body := scrape(t, collector)

	if !strings.Contains(body, `tunedeck_spotify_requests_total{code="200",endpoint="/v1/me"} 1`) {
		t.Errorf("metrics output missing upstream counter:\n%s", body)
	}
	if !strings.Contains(body, "tunedeck_spotify_request_duration_seconds") {
		t.Errorf("metrics output missing duration histogram:\n%s", body)
	}
}

func TestCollector_RecordDailyAssignment(t *testing.T) {
	collector := NewCollector()
	collector.RecordDailyAssignment()

	body := scrape(t, collector)

	if !strings.Contains(body, "tunedeck_daily_assignments_created_total 1") {
		t.Errorf("metrics output missing daily assignment counter:\n%s", body)
	}
}

func scrape(t *testing.T, c *Collector) string {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("scrape status = %d, want 200", w.Code)
	}
	return w.Body.String()
}
