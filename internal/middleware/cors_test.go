package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/playpool/eightball/internal/config"
)

func newOriginRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", WebSocketOriginCheck(cfg), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestWebSocketOriginCheck(t *testing.T) {
	cfg := &config.Config{Environment: "production", FrontendURL: "https://pool.example.com"}
	r := newOriginRouter(cfg)

	cases := []struct {
		origin string
		want   int
	}{
		{"https://pool.example.com", http.StatusOK},
		{"https://evil.example.com", http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		req.Header.Set("Upgrade", "websocket")
		req.Header.Set("Origin", tc.origin)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Errorf("origin %s: status %d, want %d", tc.origin, w.Code, tc.want)
		}
	}
}

func TestWebSocketOriginCheckIgnoresPlainRequests(t *testing.T) {
	cfg := &config.Config{Environment: "production", FrontendURL: "https://pool.example.com"}
	r := newOriginRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("plain request status %d, want 200", w.Code)
	}
}
