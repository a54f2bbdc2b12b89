package echomw

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

// per-IP limiter for the trigger routes: every accepted trigger fetches the dataset and sends an email
var (
	clients   = make(map[string]*rate.Limiter)
	mu        sync.Mutex
	rateLimit int // Number of requests per second
	burst     int // Burst size (how many requests are allowed instantly)
)

func UpdateRateLimits(rateLimitInput, burstInput int) {
	mu.Lock()
	defer mu.Unlock()
	rateLimit = rateLimitInput
	burst = burstInput
	clients = make(map[string]*rate.Limiter)
}

// getLimiter returns the rate limiter for the given IP address.
func getLimiter(ip string) *rate.Limiter {
	mu.Lock()
	defer mu.Unlock()

	limiter, exists := clients[ip]
	if !exists {
		limit := rate.Limit(rateLimit)
		if rateLimit <= 0 {
			limit = rate.Inf
		}
		limiter = rate.NewLimiter(limit, max(burst, 1))
		clients[ip] = limiter

		// Forget the client after a minute
		time.AfterFunc(time.Minute, func() {
			mu.Lock()
			if clients[ip] == limiter {
				delete(clients, ip)
			}
			mu.Unlock()
		})
	}
	return limiter
}

// Custom rate limiting middleware based on client IP address
func RateLimiterMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ip := c.RealIP()
		if !getLimiter(ip).Allow() {
			tl.Log(tl.Warning, palette.Yellow, "Rate limit hit: Path='%s', ClientIP='%s'", c.Path(), ip)
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "Too many requests"})
		}
		return next(c)
	}
}
