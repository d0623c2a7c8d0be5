package httpserver

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	apperrors "github.com/pscheid92/veritas/internal/platform/errors"
	"golang.org/x/time/rate"
)

const rateLimiterExpiry = 5 * time.Minute

// newRateLimiter is a coarse per-client flood guard in front of the API.
// Per-user action limits live in the application layer.
func newRateLimiter(ratePerSecond float64, burst int) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(ratePerSecond),
			Burst:     burst,
			ExpiresIn: rateLimiterExpiry,
		},
	)
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		IdentifierExtractor: clientIdentifier,
		Store:               store,
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return HandleError(c, apperrors.RateLimitedError("rate limit exceeded"))
		},
	})
}

// clientIdentifier keys on the caller token when present so users behind one
// NAT don't share a bucket.
func clientIdentifier(c echo.Context) (string, error) {
	if id := c.Request().Header.Get(headerUserID); id != "" {
		return "user:" + id, nil
	}
	return "ip:" + c.RealIP(), nil
}
