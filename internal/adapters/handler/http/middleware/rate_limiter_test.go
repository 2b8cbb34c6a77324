package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/syllabus-pulse/internal/adapters/cache"
)

type brokenCounter struct{}

func (brokenCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	return 0, 0, errors.New("connection refused")
}

// counters returns the memory counter and, when REDIS_HOST answers, a Redis
// counter on DB 1.
func counters(t *testing.T) map[string]func() Counter {
	t.Helper()
	out := map[string]func() Counter{
		"memory": func() Counter { return NewMemoryCounter() },
	}

	opts := cache.Options{
		Host:     os.Getenv("REDIS_HOST"),
		Port:     os.Getenv("REDIS_PORT"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       1,
	}
	if !opts.Enabled() {
		return out
	}
	rdb, err := cache.NewRedisClient(opts)
	if err != nil {
		t.Logf("redis counter skipped: %v", err)
		return out
	}
	t.Cleanup(func() { rdb.Close() })
	out["redis"] = func() Counter {
		require.NoError(t, rdb.FlushDB(context.Background()).Err())
		return NewRedisCounter(rdb)
	}
	return out
}

func limitedRouter(counter Counter, limit int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimiterMiddleware(counter, limit, time.Minute))
	router.GET("/api/v1/dashboard", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func hit(router *gin.Engine, ip string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
	req.Header.Set("X-Forwarded-For", ip)
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiterMiddleware(t *testing.T) {
	for name, newCounter := range counters(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("Success: Headers count down under the limit", func(t *testing.T) {
				router := limitedRouter(newCounter(), 3)

				for i := 1; i <= 3; i++ {
					w := hit(router, "192.168.1.100")
					assert.Equal(t, http.StatusOK, w.Code)
					assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
					assert.Equal(t, strconv.Itoa(3-i), w.Header().Get("X-RateLimit-Remaining"))
					assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
				}
			})

			t.Run("Fail: Over the limit is rejected", func(t *testing.T) {
				router := limitedRouter(newCounter(), 1)

				assert.Equal(t, http.StatusOK, hit(router, "192.168.1.101").Code)
				w := hit(router, "192.168.1.101")
				assert.Equal(t, http.StatusTooManyRequests, w.Code)
				assert.Contains(t, w.Body.String(), "too many requests")
				assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

				assert.Equal(t, http.StatusOK, hit(router, "192.168.1.102").Code, "other clients keep their own window")
			})
		})
	}
}

func TestRateLimiterMiddleware_FailOpen(t *testing.T) {
	router := limitedRouter(brokenCounter{}, 1)

	for range 3 {
		w := hit(router, "10.0.0.1")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", w.Body.String())
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestMemoryCounter_WindowResets(t *testing.T) {
	counter := NewMemoryCounter()
	clock := time.Date(2025, 9, 16, 10, 0, 0, 0, time.UTC)
	counter.now = func() time.Time { return clock }
	ctx := context.Background()

	n, ttl, err := counter.Hit(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, time.Minute, ttl)

	clock = clock.Add(30 * time.Second)
	n, ttl, _ = counter.Hit(ctx, "k", time.Minute)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 30*time.Second, ttl)

	clock = clock.Add(31 * time.Second)
	n, _, _ = counter.Hit(ctx, "k", time.Minute)
	assert.Equal(t, int64(1), n, "a new window starts once the old one expires")
}
