package echomw

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.Use(RouteAccessLoggerMiddleware)
	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.POST("/trigger-report", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RateLimiterMiddleware)
	return e
}

func serve(e *echo.Echo, method, target, ip string) int {
	request := httptest.NewRequest(method, target, nil)
	request.Header.Set(echo.HeaderXRealIP, ip)
	recorder := httptest.NewRecorder()
	e.ServeHTTP(recorder, request)
	return recorder.Code
}

func TestRateLimiterMiddleware(t *testing.T) {
	UpdateRateLimits(1, 2)
	t.Cleanup(func() { UpdateRateLimits(DefaultValueConfig().MiddlewareRateLimit, DefaultValueConfig().MiddlewareBurst) })
	e := newEcho()

	assert.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/trigger-report", "10.0.0.1"))
	assert.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/trigger-report", "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, serve(e, http.MethodPost, "/trigger-report", "10.0.0.1"))

	// other clients and unlimited routes are not affected
	assert.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/trigger-report", "10.0.0.2"))
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/health", "10.0.0.1"))
}

func TestRateLimiterDisabled(t *testing.T) {
	UpdateRateLimits(0, 0)
	t.Cleanup(func() { UpdateRateLimits(DefaultValueConfig().MiddlewareRateLimit, DefaultValueConfig().MiddlewareBurst) })
	e := newEcho()

	for range 20 {
		assert.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/trigger-report", "10.0.0.3"))
	}
}

func TestInitializeConfigReadsEnv(t *testing.T) {
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "8080")
	t.Cleanup(func() { Cfg = DefaultValueConfig() })

	InitializeConfig(&Config{Port: 9000})

	assert.Equal(t, "127.0.0.1:8080", Cfg.ListenAddress())
	assert.Equal(t, "fuel-report", Cfg.ServiceName)
	assert.Equal(t, 30, Cfg.ShutdownTimeoutSeconds)
}
