package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggingLevelsFollowStatusClass(t *testing.T) {
	cases := []struct {
		status  int
		level   zapcore.Level
		message string
	}{
		{http.StatusOK, zapcore.InfoLevel, "Request completed"},
		{http.StatusNotFound, zapcore.WarnLevel, "Request rejected"},
		{http.StatusInternalServerError, zapcore.ErrorLevel, "Request failed"},
	}

	for _, tc := range cases {
		core, logs := observer.New(zap.DebugLevel)
		logger := zap.New(core)

		handler := LoggingMiddleware(logger)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}),
		)

		req := httptest.NewRequest(http.MethodGet, "/api/products?page=2", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		entries := logs.All()
		if len(entries) != 1 {
			t.Fatalf("status %d: expected one log line, got %d", tc.status, len(entries))
		}

		entry := entries[0]
		if entry.Level != tc.level {
			t.Errorf("status %d: expected level %s, got %s", tc.status, tc.level, entry.Level)
		}
		if entry.Message != tc.message {
			t.Errorf("status %d: expected message %q, got %q", tc.status, tc.message, entry.Message)
		}

		fields := entry.ContextMap()
		if fields["status"] != int64(tc.status) {
			t.Errorf("expected status field %d, got %v", tc.status, fields["status"])
		}
		if fields["method"] != http.MethodGet || fields["path"] != "/api/products" {
			t.Errorf("request fields not captured: %v", fields)
		}
		if fields["query"] != "page=2" {
			t.Errorf("expected query field page=2, got %v", fields["query"])
		}
	}
}
