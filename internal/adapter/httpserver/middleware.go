package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pscheid92/hashpulse/internal/domain"
	"github.com/pscheid92/hashpulse/internal/platform/correlation"
	apperrors "github.com/pscheid92/hashpulse/internal/platform/errors"
)

const uploaderHeader = "X-Uploader-Identity"

// correlationMiddleware adopts a sane caller-supplied correlation ID or mints
// one, and echoes it back on the response.
func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := correlation.FromRequest(c.Request())
		ctx := correlation.WithID(c.Request().Context(), id)
		c.SetRequest(c.Request().WithContext(ctx))
		c.Response().Header().Set(correlation.Header, id)
		return next(c)
	}
}

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

			structuredErr := apperrors.AsStructuredError(err)
			logError(c, structuredErr)

			if err := c.JSON(structuredErr.HTTPStatus(), structuredErr.ToResponse()); err != nil {
				return fmt.Errorf("failed to write error response: %w", err)
			}
			return nil
		}
	}
}

func logError(c echo.Context, err *apperrors.Error) {
	ctx := c.Request().Context()
	attrs := []any{
		"error_type", err.Type,
		"message", err.Message,
		"path", c.Request().URL.Path,
		"method", c.Request().Method,
		"status", err.HTTPStatus(),
	}

	for k, v := range err.Context {
		attrs = append(attrs, k, v)
	}

	if uploader := c.Request().Header.Get(uploaderHeader); uploader != "" {
		attrs = append(attrs, "uploader", uploader)
	}

	switch err.Type {
	case apperrors.TypeValidation:
		if err.Cause != nil {
			attrs = append(attrs, "cause", err.Cause)
		}
		slog.InfoContext(ctx, "Validation error", attrs...)
	case apperrors.TypeNotFound:
		slog.InfoContext(ctx, "Not found", attrs...)
	case apperrors.TypeConflict:
		slog.WarnContext(ctx, "Conflict", attrs...)
	case apperrors.TypeInternal:
		if err.Cause != nil {
			attrs = append(attrs, "cause", err.Cause)
		}
		slog.ErrorContext(ctx, "Internal error", attrs...)
	case apperrors.TypeExternal:
		if err.Cause != nil {
			attrs = append(attrs, "cause", err.Cause)
		}
		slog.ErrorContext(ctx, "External service error", attrs...)
	default:
		slog.ErrorContext(ctx, "Unknown error type", attrs...)
	}
}

// uploaderIdentity reads the caller identity set by the trusted upstream.
func uploaderIdentity(c echo.Context) (string, error) {
	uploader := strings.TrimSpace(c.Request().Header.Get(uploaderHeader))
	if uploader == "" {
		return "", apperrors.ValidationError("missing uploader identity").WithField("header", uploaderHeader)
	}
	return uploader, nil
}

// bindPage reads the skip and take query parameters. Absent parameters are zero.
func bindPage(c echo.Context) (domain.Page, error) {
	var page domain.Page
	err := echo.QueryParamsBinder(c).
		Int("skip", &page.Skip).
		Int("take", &page.Take).
		BindError()
	if err != nil {
		return page, apperrors.ValidationError("skip and take must be integers").Wrap(err)
	}
	return page, nil
}
