package trigger

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"fuel-report/src/pkg/mailer"
	"fuel-report/src/pkg/prices"
	"fuel-report/src/pkg/source"
)

// RunIDHeader carries the id of the run a trigger response belongs to.
const RunIDHeader = "X-Report-Run-ID"

type Handler struct {
	Runner  *Runner
	Service string
}

type PeriodResponse struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type TriggerResponse struct {
	Message string         `json:"message"`
	Period  PeriodResponse `json:"period"`
	Result  Result         `json:"result"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
}

/*
Register adds the health check and both trigger routes to e.

triggerMiddleware wraps the trigger routes only.
*/
func (h *Handler) Register(e *echo.Echo, triggerMiddleware ...echo.MiddlewareFunc) {
	e.GET("/health", h.Health)
	e.POST("/trigger-report", h.TriggerPost, triggerMiddleware...)
	e.GET("/trigger-report", h.TriggerGet, triggerMiddleware...)
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:    "OK",
		Timestamp: h.Runner.now().UTC().Format(time.RFC3339),
		Service:   h.Service,
	})
}

// TriggerPost reads optional startDate/endDate from a JSON body.
func (h *Handler) TriggerPost(c echo.Context) error {
	var request Request
	if bindErr := (&echo.DefaultBinder{}).BindBody(c, &request); bindErr != nil {
		tl.Log(tl.Warning, palette.Yellow, "Unable to bind trigger body: %s", bindErr)
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body."})
	}
	return h.trigger(c, request)
}

// TriggerGet reads optional startDate/endDate from the query string, for external schedulers.
func (h *Handler) TriggerGet(c echo.Context) error {
	request := Request{
		StartDate: c.QueryParam("startDate"),
		EndDate:   c.QueryParam("endDate"),
	}
	return h.trigger(c, request)
}

func (h *Handler) trigger(c echo.Context, request Request) error {
	period, e := ResolvePeriod(request, h.Runner.now())
	if e != nil {
		tl.Log(tl.Warning, palette.Yellow, "Rejected trigger: %s (%s)", e.Msg, e.Context)
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: e.Msg})
	}

	runID := uuid.NewString()
	c.Response().Header().Set(RunIDHeader, runID)

	result, e := h.Runner.Run(c.Request().Context(), period, runID)
	if e != nil {
		e.Print(xerr.ErrorTypeError, tl.Error, 0)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   failureMessage(e),
			Details: e.Msg + ": " + e.ErrStr,
		})
	}

	return c.JSON(http.StatusOK, TriggerResponse{
		Message: "Report generated and sent successfully",
		Period: PeriodResponse{
			StartDate: period.Start.Format(prices.DateLayout),
			EndDate:   period.End.Format(prices.DateLayout),
		},
		Result: result,
	})
}

// failureMessage names the stage that failed.
func failureMessage(e *xerr.Error) string {
	switch {
	case errors.Is(e.Err, source.ErrUpstreamFetch):
		return "Failed to fetch price data"
	case errors.Is(e.Err, mailer.ErrDelivery):
		return "Failed to send report email"
	default:
		return "Report generation failed"
	}
}
