package httpserver

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	apperrors "github.com/pscheid92/veritas/internal/platform/errors"
)

// headerUserID carries the token issued by the identity system.
const headerUserID = "X-User-ID"

const contextKeyUserID = "userID"

// identify resolves the caller from headerUserID. Unknown users surface as 404
// and frozen users as 403 through the error middleware.
func (s *Server) identify(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := c.Request().Header.Get(headerUserID)
		if raw == "" {
			return apperrors.UnauthorizedError("missing " + headerUserID + " header")
		}

		userID, err := uuid.Parse(raw)
		if err != nil {
			return apperrors.UnauthorizedError("invalid " + headerUserID + " header")
		}

		if _, err := s.app.Authenticate(c.Request().Context(), userID); err != nil {
			return err
		}

		c.Set(contextKeyUserID, userID)
		return next(c)
	}
}

func callerID(c echo.Context) (uuid.UUID, error) {
	userID, ok := c.Get(contextKeyUserID).(uuid.UUID)
	if !ok {
		return uuid.Nil, apperrors.InternalError("invalid user ID in context", nil)
	}
	return userID, nil
}
