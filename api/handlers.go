package api

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ckr3453/finito/domain"
)

// SweepRunner executes one instrumented dispatch tick for a channel.
type SweepRunner interface {
	Run(ctx context.Context, ch domain.Channel) domain.SweepReport
}

// Register wires the trigger routes on the provided Echo instance. The two
// sweep triggers mirror the scheduled cloud functions; the scheduler calls
// them with the shared functions key.
func Register(e *echo.Echo, runner SweepRunner, functionsKey string) {
	e.POST("/api/send-reminder-emails", triggerSweep(runner, domain.ChannelEmail, functionsKey))
	e.POST("/api/send-reminder-push", triggerSweep(runner, domain.ChannelPush, functionsKey))
	e.GET("/healthz", healthz())
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func triggerSweep(runner SweepRunner, ch domain.Channel, key string) echo.HandlerFunc {
	return func(c echo.Context) error {
		if key != "" {
			got := c.Request().Header.Get("x-functions-key")
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				return c.NoContent(http.StatusUnauthorized)
			}
		}
		// The tick must outlive the request: a client disconnect or
		// functions-host timeout would otherwise cancel storage and
		// transport calls for every remaining user.
		report := runner.Run(context.WithoutCancel(c.Request().Context()), ch)
		return c.JSON(http.StatusOK, report)
	}
}
