package echomw

import (
	"time"

	"github.com/labstack/echo/v4"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

func RouteAccessLoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		startTime := time.Now()
		LogRouteAccess(c, tl.Info, "Accessing route", palette.Blue)
		err := next(c)
		LogRouteResult(c, time.Since(startTime), err)
		return err
	}
}

// Log route access
func LogRouteAccess(c echo.Context, logLevel tl.LogLevel, actionName string, colorizer palette.Colorizer) {
	if c.Path() == "/health" {
		logLevel = tl.Verbose
		colorizer = palette.CyanDim
	}
	tl.Log(logLevel, colorizer, "%s: Method='%s', Path='%s', ClientIP='%s'", actionName, c.Request().Method, c.Path(), c.RealIP())
}

// LogRouteResult logs the status code the handler answered with.
func LogRouteResult(c echo.Context, elapsed time.Duration, err error) {
	status := c.Response().Status
	logLevel, colorizer := tl.Info1, palette.Green
	switch {
	case err != nil || status >= 500:
		logLevel, colorizer = tl.Error, palette.Red
	case status >= 400:
		logLevel, colorizer = tl.Warning, palette.Yellow
	case c.Path() == "/health":
		logLevel, colorizer = tl.Verbose, palette.CyanDim
	}
	tl.Log(logLevel, colorizer, "Route accessed: Method='%s', Path='%s', Status=%s, Took=%s", c.Request().Method, c.Path(), status, elapsed)
}
