package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/veritas/internal/domain"
)

func (s *Server) handleFeed(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}

	filter, err := domain.ParseFeedFilter(c.QueryParam("filter"))
	if err != nil {
		return err
	}

	feed, err := s.app.Feed(c.Request().Context(), userID, filter)
	if err != nil {
		return err
	}

	resp := feedResponse{
		Rumors:   make([]rumorResponse, 0, len(feed.Items)),
		IsSenior: feed.IsSenior,
	}
	for _, item := range feed.Items {
		resp.Rumors = append(resp.Rumors, toRumorResponse(item.Rumor, item.MyVote))
	}
	if err := c.JSON(http.StatusOK, resp); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleProfile(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}

	profile, err := s.app.Profile(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, toProfileResponse(profile)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
