package httpkit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"buildvive_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type adminTestConfig struct {
	key string
}

func (c adminTestConfig) GetAdminAPIKey() string { return c.key }

func newLimitedRouter(limiter *IPRateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/chat", limiter.RateLimit(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestRateLimitReturns429BeyondBurst(t *testing.T) {
	log := logger.New("development")
	limiter := NewIPRateLimiter(rate.Limit(1), 3, log)
	r := newLimitedRouter(limiter)

	var last int
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/chat", nil)
		req.RemoteAddr = "203.0.113.9:1234"
		r.ServeHTTP(w, req)
		last = w.Code
		if i < 3 && w.Code != http.StatusOK {
			t.Fatalf("request %d within burst: status = %d, want 200", i, w.Code)
		}
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("status beyond burst = %d, want 429", last)
	}
}

func TestRateLimitIsPerIP(t *testing.T) {
	log := logger.New("development")
	limiter := NewIPRateLimiter(rate.Limit(1), 1, log)
	r := newLimitedRouter(limiter)

	for _, addr := range []string{"198.51.100.1:1000", "198.51.100.2:1000"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/chat", nil)
		req.RemoteAddr = addr
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("first request from %s: status = %d, want 200", addr, w.Code)
		}
	}
}

func TestAdminKeyRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin/quotes", AdminKeyRequired(adminTestConfig{key: "secret"}), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/quotes", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("missing key: status = %d, want 401", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin/quotes", nil)
	req.Header.Set("X-Admin-API-Key", "wrong")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: status = %d, want 401", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin/quotes", nil)
	req.Header.Set("X-Admin-API-Key", "secret")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid key: status = %d, want 200", w.Code)
	}
}

func TestAdminOpenWhenKeyUnset(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin/quotes", AdminKeyRequired(adminTestConfig{}), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/quotes", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}
