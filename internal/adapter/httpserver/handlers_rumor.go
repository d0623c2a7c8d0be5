package httpserver

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	apperrors "github.com/pscheid92/veritas/internal/platform/errors"
)

func (s *Server) handleCreateRumor(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}

	var req createRumorRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	created, err := s.app.CreateRumor(c.Request().Context(), userID, req.Content)
	if err != nil {
		return err
	}

	resp := createRumorResponse{
		Rumor:            toRumorResponse(created.Rumor, nil),
		NewReputation:    created.NewReputation,
		VisibleAt:        created.Rumor.VisibleAt,
		VisibleInMinutes: created.VisibleInMinutes,
	}
	if err := c.JSON(http.StatusCreated, resp); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleSettleRumor(c echo.Context) error {
	rawID := c.Param("id")
	rumorID, err := uuid.Parse(rawID)
	if err != nil {
		return apperrors.ValidationError("invalid rumor ID").WithField("rumor_id", rawID)
	}

	status, err := s.app.SettleRumor(c.Request().Context(), rumorID)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, settleResponse{Status: status}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
