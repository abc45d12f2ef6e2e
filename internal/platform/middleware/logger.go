package middleware

import (
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Logger writes one line per request. Handler errors are logged at error
// level with the status echo will answer with.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid, _ := c.Get("request_id").(string)

			err := next(c)

			status := c.Response().Status
			evt := logger.Info()
			if err != nil {
				status = statusOf(err)
				evt = logger.Error().Err(err)
				if status < 500 {
					evt = logger.Warn().Err(err)
				}
			}

			evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("query", redactQuery(req.URL.RawQuery)).
				Int("status", status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Msg("request")

			return err
		}
	}
}

// redactQuery masks the values of parameters that carry an email address.
// Queries without such parameters are logged as received.
func redactQuery(raw string) string {
	if !strings.Contains(strings.ToLower(raw), "email") {
		return raw
	}
	vals, err := url.ParseQuery(raw)
	if err != nil {
		return "REDACTED"
	}
	for k, vs := range vals {
		if strings.Contains(strings.ToLower(k), "email") {
			for i := range vs {
				vs[i] = "REDACTED"
			}
		}
	}
	return vals.Encode()
}

func statusOf(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 500
}
