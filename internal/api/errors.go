package api

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/spacesedan/sentiflow/internal/sentiment"
)

type errorResponse struct {
	Error  string `json:"error"`
	Kind   string `json:"kind"`
	Status string `json:"status"`
}

// ErrorHandlingMiddleware turns errors returned by handlers into JSON responses
// using the status mapped from their kind. echo.HTTPErrors pass through unchanged.
func ErrorHandlingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				return err
			}

			e := sentiment.AsError(err)
			status := e.HTTPStatus()
			if status >= 500 {
				slog.Error("[API] Request failed",
					slog.String("path", c.Request().URL.Path),
					slog.String("kind", string(e.Kind)),
					slog.String("error", e.Error()))
			}

			if err := c.JSON(status, errorResponse{Error: e.Message, Kind: string(e.Kind), Status: "error"}); err != nil {
				return fmt.Errorf("failed to write error response: %w", err)
			}
			return nil
		}
	}
}

func bindRequest(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return sentiment.ValidationError("invalid request body")
	}
	return nil
}
