package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/streamtv/internal/logger"
	"github.com/iliyamo/streamtv/internal/session"
)

// RequestLogger logs one line per request after the handler returns.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// Let the error handler write the response so the status is final.
				c.Error(err)
			}

			req := c.Request()
			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("route", c.Path()),
				zap.String("path", req.URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", c.RealIP()),
			}
			if id := session.Current(c); id.Authenticated {
				fields = append(fields, zap.String("cust_id", id.CustomerID))
			}
			if err != nil {
				fields = append(fields, zap.Error(err))
			}

			switch status := c.Response().Status; {
			case status >= 500:
				logger.Log.Error("request", fields...)
			case status >= 400:
				logger.Log.Warn("request", fields...)
			default:
				logger.Log.Info("request", fields...)
			}
			return nil
		}
	}
}
