package webserver

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequestLogger logs every request through zap
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req := c.Request()
			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", time.Since(start)),
				zap.String("remote", c.RealIP()),
			}
			if actor := req.Header.Get("X-Actor"); actor != "" {
				fields = append(fields, zap.String("actor", actor))
			}
			if c.Response().Status >= 500 {
				zap.L().Warn("http request", fields...)
			} else {
				zap.L().Debug("http request", fields...)
			}
			return nil
		}
	}
}
