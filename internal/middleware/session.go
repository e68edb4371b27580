package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/streamtv/internal/session"
)

// Session resolves the request's identity once, before any handler runs.
// Handlers and later middleware read it with session.Current.
func Session(g *session.Guard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			g.Resolve(c)
			return next(c)
		}
	}
}
