package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"bevera/internal/domain"

	"go.uber.org/zap"
)

func requestWithRole(role string) *http.Request {
	req := httptest.NewRequest("GET", "/test", nil)
	ctx := context.WithValue(req.Context(), UserRoleKey, role)
	return req.WithContext(ctx)
}

func TestRequireAdmin(t *testing.T) {
	logger := zap.NewNop()
	handler := RequireAdmin(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		role string
		want int
	}{
		{domain.RoleAdmin, http.StatusOK},
		{domain.RoleWorker, http.StatusForbidden},
		{domain.RoleClient, http.StatusForbidden},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestWithRole(tc.role))
		if w.Code != tc.want {
			t.Errorf("role %s: expected %d, got %d", tc.role, tc.want, w.Code)
		}
	}

	// Missing role in context is never authorized
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 without a role, got %d", w.Code)
	}
}

func TestRequireBackOffice(t *testing.T) {
	logger := zap.NewNop()
	handler := RequireBackOffice(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		role string
		want int
	}{
		{domain.RoleAdmin, http.StatusOK},
		{domain.RoleWorker, http.StatusOK},
		{domain.RoleClient, http.StatusForbidden},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestWithRole(tc.role))
		if w.Code != tc.want {
			t.Errorf("role %s: expected %d, got %d", tc.role, tc.want, w.Code)
		}
	}
}
