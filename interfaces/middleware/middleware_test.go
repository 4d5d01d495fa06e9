package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"youtube-card/domain/dto"
	"youtube-card/domain/repository"
	"youtube-card/infrastructure/ratelimit"
	"youtube-card/interfaces/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T, disabled bool) (*gin.Engine, *miniredis.Miniredis) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := ratelimit.NewSlidingWindowLimiter(client, map[repository.QuotaClass]ratelimit.Quota{
		repository.QuotaAbuse: {Limit: 5, Window: 10 * time.Second},
	})

	router := gin.New()
	router.Use(middleware.RequestLogger())
	router.GET("/api/youtube/video/:videoId", middleware.RateLimit(limiter, repository.QuotaAbuse, disabled), func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "ok")
	})
	return router, mr
}

func get(router *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/youtube/video/abc", nil)
	req.RemoteAddr = ip + ":1234"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimitRejectsSixthRequest(t *testing.T) {
	router, _ := newRouter(t, false)

	for i := 0; i < 5; i++ {
		w := get(router, "10.0.0.1")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, w.Header().Get(("X-Request-ID")))
	}

	w := get(router, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, strings.HasPrefix(body.Error, "Tu as dépassé la limite de 5 demandes sur 10s"), body.Error)

	assert.Equal(t, http.StatusOK, get(router, "10.0.0.2").Code, "other clients keep their own window")
}

func TestRateLimitDisabled(t *testing.T) {
	router, _ := newRouter(t, true)
	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, get(router, "10.0.0.1").Code)
	}
}

func TestRateLimitFailsClosed(t *testing.T) {
	router, mr := newRouter(t, false)
	mr.Close()

	w := get(router, "10.0.0.1")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRequestLoggerKeepsIncomingID(t *testing.T) {
	router, _ := newRouter(t, true)
	req := httptest.NewRequest(http.MethodGet, "/api/youtube/video/abc", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}

func TestOperatorAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	newEngine := func(token string) *gin.Engine {
		router := gin.New()
		router.DELETE("/api/cache/:kind/:id", middleware.OperatorAuth(token), func(ctx *gin.Context) {
			ctx.Status(http.StatusNoContent)
		})
		return router
	}
	del := func(router *gin.Engine, authorization string) int {
		req := httptest.NewRequest(http.MethodDelete, "/api/cache/video/abc", nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	router := newEngine("s3cret")
	assert.Equal(t, http.StatusUnauthorized, del(router, ""))
	assert.Equal(t, http.StatusUnauthorized, del(router, "Bearer wrong"))
	assert.Equal(t, http.StatusUnauthorized, del(router, "s3cret"))
	assert.Equal(t, http.StatusNoContent, del(router, "Bearer s3cret"))

	assert.Equal(t, http.StatusForbidden, del(newEngine(""), "Bearer "))
}
