package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestTimeout bounds each request with a context deadline. When the
// deadline passes before the handler returns, a 504 is answered. The handler
// keeps running until it notices the cancelled context; database calls on
// the request connection are cancelled by pgx.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))

			done := make(chan error, 1)
			go func() {
				done <- next(c)
			}()

			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
					return ctx.Err()
				}
				// Wait for the handler so the connection it holds is
				// released before the response is written.
				<-done
				if c.Response().Committed {
					return nil
				}
				return c.JSON(http.StatusGatewayTimeout, map[string]string{
					"message": "request exceeded " + timeout.String(),
				})
			}
		}
	}
}
