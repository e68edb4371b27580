package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/streamtv/internal/logger"
	"github.com/iliyamo/streamtv/internal/service"
)

// requestTimeout bounds the storage work of a single request.
const requestTimeout = 5 * time.Second

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// respondError turns recoverable domain errors into responses.  Anything
// else is returned for the top-level error handler.
func respondError(c echo.Context, err error) error {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": ve.Message, "field": ve.Field})
	case errors.Is(err, service.ErrDuplicateUsername):
		return c.JSON(http.StatusConflict, echo.Map{"error": "Username already exists. Please choose another."})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid username or password."})
	case errors.Is(err, service.ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Please log in first."})
	case errors.Is(err, service.ErrNotFound):
		return notFoundState(c)
	}
	return err
}

// notFoundState renders the empty state of a lookup that matched nothing.
func notFoundState(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"found": false})
}

// HTTPErrorHandler is the single sink for storage and unexpected errors.
// Details are logged and never sent to the client.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		}
		_ = c.JSON(he.Code, echo.Map{"error": msg})
		return
	}
	logger.Log.Error("request failed",
		zap.String("method", c.Request().Method),
		zap.String("path", c.Request().URL.Path),
		zap.Error(err))
	_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}

// splitPair parses the "{showId}&{episodeId}" path segment.
func splitPair(raw string) (showID, episodeID string, ok bool) {
	showID, episodeID, ok = strings.Cut(raw, "&")
	if !ok || showID == "" || episodeID == "" {
		return "", "", false
	}
	return showID, episodeID, true
}
