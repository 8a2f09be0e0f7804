package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/quickquiz-console/internal/config"
	"github.com/stemsi/quickquiz-console/internal/model"
	"github.com/stemsi/quickquiz-console/internal/response"
	"github.com/stemsi/quickquiz-console/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuth() *service.AuthService {
	return service.NewAuthService(&config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour, BcryptCost: 4})
}

func protected(auth *service.AuthService, role model.Role) *gin.Engine {
	r := gin.New()
	r.Use(response.RequestIDMiddleware())
	r.GET("/x", RequireRole(auth, role), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetClaims(c).UserID})
	})
	return r
}

func do(t *testing.T, r http.Handler, token string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return rec.Code, body
}

func TestRequireRole(t *testing.T) {
	auth := newAuth()
	teacherToken, err := auth.GenerateToken(model.User{ID: 3, Role: model.RoleTeacher})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	r := protected(auth, model.RoleTeacher)

	status, body := do(t, r, "")
	if status != http.StatusUnauthorized || body["code"] != string(response.ErrTokenRequired) {
		t.Fatalf("missing token: %d %v", status, body)
	}

	status, body = do(t, r, "garbage")
	if status != http.StatusUnauthorized || body["code"] != string(response.ErrTokenInvalid) {
		t.Fatalf("bad token: %d %v", status, body)
	}

	status, body = do(t, r, teacherToken)
	if status != http.StatusOK || body["user_id"] != float64(3) {
		t.Fatalf("teacher token: %d %v", status, body)
	}

	status, body = do(t, protected(auth, model.RoleStudent), teacherToken)
	if status != http.StatusForbidden || body["error"] != "Only students can access this resource" {
		t.Fatalf("wrong role: %d %v", status, body)
	}
}

func TestRateLimiterRefills(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatalf("first two requests should pass")
	}
	if rl.Allow("a") {
		t.Fatalf("third request should be limited")
	}
	if !rl.Allow("b") {
		t.Fatalf("other clients have their own bucket")
	}

	now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Fatalf("bucket should refill after the interval")
	}
}

func TestRateLimiterMiddlewareRejectsWith429(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	r := gin.New()
	r.POST("/login", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}
}
