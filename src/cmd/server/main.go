// Long-running report service: health check plus the two trigger routes.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	echomw "fuel-report/src/pkg/echo-middleware"
	"fuel-report/src/pkg/mailer"
	"fuel-report/src/pkg/report"
	"fuel-report/src/pkg/setup"
	"fuel-report/src/pkg/source"
	"fuel-report/src/pkg/trigger"
)

func main() {
	configPath := flag.String("config", "./cfg/config.json", "Path to your configuration file.")
	flag.Parse()

	_, e := setup.InitializeConfig(*configPath)
	if e != nil {
		e.QuitIf(xerr.ErrorTypeError)
	}

	// one pool for the whole process, every trigger shares its sessions
	pool := mailer.NewPool(mailer.Cfg)
	go verifySMTP(pool)

	handler := &trigger.Handler{
		Runner: &trigger.Runner{
			Fetcher: source.NewClient(source.Cfg),
			Sender:  mailer.New(mailer.Cfg, pool),
			Report:  report.Cfg,
		},
		Service: echomw.Cfg.ServiceName,
	}

	server := echo.New()
	server.HideBanner = true
	server.HidePort = true
	server.Use(echomw.RouteAccessLoggerMiddleware)
	handler.Register(server, echomw.RateLimiterMiddleware)

	go func() {
		tl.Log(tl.Notice, palette.BlueBold, "%s %s on '%s'", "Starting", echomw.Cfg.ServiceName, echomw.Cfg.ListenAddress())
		startErr := server.Start(echomw.Cfg.ListenAddress())
		if startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
			xerr.QuitIfError(startErr, "Unable to start HTTP server")
		}
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	received := <-signals
	tl.Log(tl.Notice, palette.Purple, "Received %s, %s", received, "shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(echomw.Cfg.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if shutdownErr := server.Shutdown(ctx); shutdownErr != nil {
		tl.Log(tl.Warning, palette.Yellow, "HTTP server shutdown: %s", shutdownErr)
	}
	pool.Close()
	tl.Log(tl.Notice, palette.GreenBold, "%s stopped", echomw.Cfg.ServiceName)
}

// verifySMTP only logs: the service keeps serving even if the SMTP server is down at boot.
func verifySMTP(pool *mailer.Pool) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(mailer.Cfg.TimeoutSeconds)*time.Second)
	defer cancel()

	verifyErr := pool.Verify(ctx)
	if verifyErr != nil {
		tl.Log(tl.Warning, palette.Yellow, "SMTP server %s:%s is %s: %s", mailer.Cfg.Host, mailer.Cfg.Port, "not reachable", verifyErr)
		return
	}
	tl.Log(tl.Info, palette.Green, "SMTP server %s:%s is %s", mailer.Cfg.Host, mailer.Cfg.Port, "reachable")
}
