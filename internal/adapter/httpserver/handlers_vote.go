package httpserver

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/veritas/internal/domain"
	apperrors "github.com/pscheid92/veritas/internal/platform/errors"
)

func (s *Server) handleCastVote(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}

	var req castVoteRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	rumorID, err := uuid.Parse(req.RumorID)
	if err != nil {
		return apperrors.ValidationError("invalid rumor ID").WithField("rumor_id", req.RumorID)
	}

	result, err := s.app.CastVote(c.Request().Context(), userID, rumorID, domain.VoteType(req.Type))
	if err != nil {
		return err
	}

	resp := castVoteResponse{
		Vote:              toVoteResponse(result.Vote),
		UpdatedTrustScore: result.TrustScore,
		KillSwitchResult:  toTransitionResponse(result.KillSwitch),
	}
	if err := c.JSON(http.StatusOK, resp); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
