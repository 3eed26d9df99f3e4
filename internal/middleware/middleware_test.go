package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/item-service/internal/config"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func cacheCfg() config.CacheConfig {
	return config.CacheConfig{
		Enabled:     true,
		Methods:     map[string]bool{http.MethodGet: true},
		TTL:         time.Minute,
		KeyStrategy: "route_query",
		Prefix:      "test:cache",
	}
}

func do(e *echo.Echo, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestRedisCacheHitAndInvalidate(t *testing.T) {
	mr, rdb := newRedis(t)
	cfg := cacheCfg()
	calls := 0

	e := echo.New()
	g := e.Group("/items", NewRedisCache(cfg, rdb), InvalidateOnWrite(cfg, rdb))
	g.GET("", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, []int{calls})
	})
	g.POST("", func(c echo.Context) error { return c.NoContent(http.StatusCreated) })

	first := do(e, http.MethodGet, "/items")
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	second := do(e, http.MethodGet, "/items")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, echo.MIMEApplicationJSON, second.Header().Get(echo.HeaderContentType))
	assert.Equal(t, 1, calls)
	assert.Len(t, mr.Keys(), 1)

	created := do(e, http.MethodPost, "/items")
	assert.Equal(t, http.StatusCreated, created.Code)
	gen, err := mr.Get(cfg.Prefix + ":gen")
	require.NoError(t, err)
	assert.Equal(t, "1", gen, "a successful write bumps the generation")

	third := do(e, http.MethodGet, "/items")
	assert.Equal(t, "MISS", third.Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)
}

func TestRedisCacheSkipsErrors(t *testing.T) {
	mr, rdb := newRedis(t)
	e := echo.New()
	e.GET("/items", func(c echo.Context) error {
		return c.JSON(http.StatusInternalServerError, map[string]string{"detail": "Database error"})
	}, NewRedisCache(cacheCfg(), rdb))

	do(e, http.MethodGet, "/items")
	assert.Empty(t, mr.Keys())
}

func TestRedisCacheSkipsOversizedBodies(t *testing.T) {
	mr, rdb := newRedis(t)
	cfg := cacheCfg()
	cfg.MaxBodyBytes = 4
	e := echo.New()
	e.GET("/items", func(c echo.Context) error {
		return c.String(http.StatusOK, "too long for the cache")
	}, NewRedisCache(cfg, rdb))

	rec := do(e, http.MethodGet, "/items")
	assert.Equal(t, "too long for the cache", rec.Body.String())
	assert.Empty(t, mr.Keys())
}

func TestFailedWriteKeepsCache(t *testing.T) {
	mr, rdb := newRedis(t)
	cfg := cacheCfg()

	e := echo.New()
	e.POST("/items", func(c echo.Context) error {
		return c.JSON(http.StatusBadRequest, map[string]string{"detail": "name is required"})
	}, InvalidateOnWrite(cfg, rdb))

	do(e, http.MethodPost, "/items")
	assert.False(t, mr.Exists(cfg.Prefix+":gen"))
}

func TestFillStartedBeforeWriteIsNotServed(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := cacheCfg()
	items := []string{}
	read := make(chan struct{})
	release := make(chan struct{})

	e := echo.New()
	g := e.Group("/items", NewRedisCache(cfg, rdb), InvalidateOnWrite(cfg, rdb))
	g.GET("", func(c echo.Context) error {
		snapshot := append([]string{}, items...)
		if len(snapshot) == 0 {
			read <- struct{}{}
			<-release
		}
		return c.JSON(http.StatusOK, snapshot)
	})
	g.POST("", func(c echo.Context) error {
		items = append(items, "new")
		return c.NoContent(http.StatusCreated)
	})

	done := make(chan string)
	go func() { done <- do(e, http.MethodGet, "/items").Body.String() }()
	<-read
	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/items").Code)
	close(release)
	assert.JSONEq(t, `[]`, <-done, "the slow list saw the table before the write")

	rec := do(e, http.MethodGet, "/items")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.JSONEq(t, `["new"]`, rec.Body.String())
}

func TestDisabledWithoutRedis(t *testing.T) {
	e := echo.New()
	e.GET("/items", func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
		NewRedisCache(cacheCfg(), nil), NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil))
	rec := do(e, http.MethodGet, "/items")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestEncodeDecodePayload(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`[]`))
	require.NoError(t, err)
	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, hdr, got)
	assert.Equal(t, `[]`, string(body))

	_, _, _, ok = decodePayload(bs[:6])
	assert.False(t, ok)
	_, _, _, ok = decodePayload(append([]byte{0, 0, 0, 200, 0, 0, 1, 0}, '{'))
	assert.False(t, ok, "header length beyond payload")
}

func TestTokenBucket(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled:     true,
		Capacity:    2,
		RefillEvery: time.Hour,
		TTL:         time.Hour,
		KeyStrategy: "ip_route",
		Prefix:      "test:rl",
	}
	e := echo.New()
	e.GET("/items", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, NewTokenBucket(cfg, rdb))

	for i := 0; i < 2; i++ {
		rec := do(e, http.MethodGet, "/items")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, strconv.Itoa(1-i), rec.Header().Get("X-RateLimit-Remaining"))
	}
	rec := do(e, http.MethodGet, "/items")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"detail": "rate limit exceeded"}`, rec.Body.String())
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "3600", rec.Header().Get("Retry-After"))
}

func TestTokenBucketFailsOpen(t *testing.T) {
	mr, rdb := newRedis(t)
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillEvery: time.Hour, TTL: time.Hour, Prefix: "test:rl"}
	e := echo.New()
	e.GET("/items", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, NewTokenBucket(cfg, rdb))

	mr.Close()
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/items").Code)
	}
}

func TestRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/items", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.7")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/items")

	cfg := config.RateLimitConfig{Prefix: "rl"}
	assert.Equal(t, "rl:ip:10.0.0.7:route:POST /items", rateKey(cfg, c))
	cfg.KeyStrategy = "ip"
	assert.Equal(t, "rl:ip:10.0.0.7", rateKey(cfg, c))
	cfg.KeyStrategy = "route"
	assert.Equal(t, "rl:route:POST /items", rateKey(cfg, c))
}
