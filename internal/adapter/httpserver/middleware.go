package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/veritas/internal/adapter/metrics"
	"github.com/pscheid92/veritas/internal/domain"
	"github.com/pscheid92/veritas/internal/platform/correlation"
	apperrors "github.com/pscheid92/veritas/internal/platform/errors"
)

func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := correlation.FromHeader(c.Request().Header.Get(correlation.HeaderName))
		c.Response().Header().Set(correlation.HeaderName, id)
		ctx := correlation.WithID(c.Request().Context(), id)
		c.SetRequest(c.Request().WithContext(ctx))
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

			// echo errors keep their own status unless the taxonomy has an exact match.
			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				wrapped := WrapHTTPError(httpErr)
				if wrapped.HTTPStatus() != httpErr.Code {
					return err
				}
				err = wrapped
			}

			return HandleError(c, err)
		}
	}
}

// sentinelErrors maps domain errors onto the structured taxonomy.
var sentinelErrors = []struct {
	target error
	build  func(msg string) *apperrors.Error
}{
	{domain.ErrUserNotFound, apperrors.NotFoundError},
	{domain.ErrRumorNotFound, apperrors.NotFoundError},
	{domain.ErrUserFrozen, apperrors.ForbiddenError},
	{domain.ErrAlreadyVoted, apperrors.ConflictError},
	{domain.ErrVotingClosed, apperrors.ClosedError},
	{domain.ErrNotSettleable, apperrors.ValidationError},
	{domain.ErrInvalidVoteType, apperrors.ValidationError},
	{domain.ErrEmptyContent, apperrors.ValidationError},
	{domain.ErrContentTooLong, apperrors.ValidationError},
	{domain.ErrInvalidFilter, apperrors.ValidationError},
	{domain.ErrRateLimited, apperrors.RateLimitedError},
}

// asAppError converts err into a structured error. Domain sentinels keep their
// message; anything unknown becomes an internal error.
func asAppError(err error) *apperrors.Error {
	var structured *apperrors.Error
	if errors.As(err, &structured) {
		return structured
	}
	for _, s := range sentinelErrors {
		if errors.Is(err, s.target) {
			return s.build(s.target.Error())
		}
	}
	return apperrors.AsStructuredError(err)
}

func logError(c echo.Context, err *apperrors.Error) {
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

	if userID := c.Get(contextKeyUserID); userID != nil {
		attrs = append(attrs, "user_id", userID)
	}

	ctx := c.Request().Context()
	switch err.Type {
	case apperrors.TypeValidation, apperrors.TypeClosed:
		slog.InfoContext(ctx, "Validation error", attrs...)
	case apperrors.TypeNotFound:
		slog.InfoContext(ctx, "Not found", attrs...)
	case apperrors.TypeUnauthorized, apperrors.TypeForbidden:
		slog.InfoContext(ctx, "Access denied", attrs...)
	case apperrors.TypeConflict, apperrors.TypeRateLimited:
		slog.WarnContext(ctx, "Request rejected", attrs...)
	case apperrors.TypeInternal:
		if err.Cause != nil {
			attrs = append(attrs, "cause", err.Cause)
		}
		slog.ErrorContext(ctx, "Internal error", attrs...)
	default:
		slog.ErrorContext(ctx, "Unknown error type", attrs...)
	}
}

func HandleError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}

	structuredErr := asAppError(err)
	c.Set(metrics.OutcomeKey, string(structuredErr.Type))
	logError(c, structuredErr)
	if err := c.JSON(structuredErr.HTTPStatus(), structuredErr.ToResponse()); err != nil {
		return fmt.Errorf("failed to write error response: %w", err)
	}
	return nil
}

func WrapHTTPError(httpErr *echo.HTTPError) *apperrors.Error {
	message := "internal server error"
	if httpErr.Message != nil {
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		}
	}

	var errType apperrors.ErrorType
	switch httpErr.Code {
	case http.StatusBadRequest:
		errType = apperrors.TypeValidation
	case http.StatusUnauthorized:
		errType = apperrors.TypeUnauthorized
	case http.StatusForbidden:
		errType = apperrors.TypeForbidden
	case http.StatusNotFound:
		errType = apperrors.TypeNotFound
	case http.StatusConflict:
		errType = apperrors.TypeConflict
	case http.StatusTooManyRequests:
		errType = apperrors.TypeRateLimited
	default:
		errType = apperrors.TypeInternal
	}

	err := &apperrors.Error{
		Type:    errType,
		Message: message,
		Context: make(map[string]any),
	}

	if httpErr.Internal != nil {
		err.Cause = httpErr.Internal
	}

	return err
}
