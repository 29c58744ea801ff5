package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// mockHTTPRecorder はHTTPRecorderのモック実装。
type mockHTTPRecorder struct {
	statuses  []int
	durations []time.Duration
}

func (m *mockHTTPRecorder) RecordHTTPStatus(statusCode int) {
	m.statuses = append(m.statuses, statusCode)
}

func (m *mockHTTPRecorder) RecordRequestDuration(duration time.Duration) {
	m.durations = append(m.durations, duration)
}

// TestMetricsMiddleware_RecordsStatusAndDuration はステータスと処理時間が
// 記録されることを検証する。
func TestMetricsMiddleware_RecordsStatusAndDuration(t *testing.T) {
	recorder := &mockHTTPRecorder{}
	handler := NewMetricsMiddleware(recorder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/todos/unknown", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if len(recorder.statuses) != 1 || recorder.statuses[0] != http.StatusNotFound {
		t.Errorf("statuses = %v, want [404]", recorder.statuses)
	}
	if len(recorder.durations) != 1 {
		t.Errorf("durations = %d entries, want 1", len(recorder.durations))
	}
}

// TestMetricsMiddleware_DefaultStatus200 はWriteHeader未呼び出し時に200が
// 記録されることを検証する。
func TestMetricsMiddleware_DefaultStatus200(t *testing.T) {
	recorder := &mockHTTPRecorder{}
	handler := NewMetricsMiddleware(recorder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if len(recorder.statuses) != 1 || recorder.statuses[0] != http.StatusOK {
		t.Errorf("statuses = %v, want [200]", recorder.statuses)
	}
}
