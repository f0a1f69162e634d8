package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"legalassist-backend/internal/services/health"
	"legalassist-backend/internal/shared/config"
)

func newTestRouter(h *health.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterDeps{
		Config: config.Config{Env: "dev", CORSAllowOrigin: []string{"http://localhost:5173"}},
		Health: h,
	})
}

func TestHealthDoesNotRequireIdentity(t *testing.T) {
	r := newTestRouter(nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestHealthReportsFailedDependency(t *testing.T) {
	h := health.NewService()
	h.Register("database", func(ctx context.Context) error { return errors.New("down") })
	r := newTestRouter(h)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}

func TestMeReturnsGuestIdentity(t *testing.T) {
	r := newTestRouter(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("X-Guest-Id", "g-1")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["userId"] != "guest:g-1" || body["isGuest"] != true || body["displayName"] != "Guest" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		me   meResponse
		want string
	}{
		{me: meResponse{IsGuest: true, Name: "ignored"}, want: "Guest"},
		{me: meResponse{Name: " Asha Rao ", Email: "asha@example.com"}, want: "Asha Rao"},
		{me: meResponse{Email: "asha@example.com"}, want: "asha"},
		{me: meResponse{}, want: "Guest"},
	}
	for _, tt := range tests {
		if got := displayName(tt.me); got != tt.want {
			t.Fatalf("displayName(%+v) = %q, want %q", tt.me, got, tt.want)
		}
	}
}

func TestMeRequiresIdentity(t *testing.T) {
	r := newTestRouter(nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "go_goroutines") {
		t.Fatalf("expected go collector output")
	}
}

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
