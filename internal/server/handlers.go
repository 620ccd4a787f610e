package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hummingbird-labs/hummingbird/internal/session"
	"github.com/hummingbird-labs/hummingbird/models"
)

type messageRequest struct {
	Message string `json:"message"`
}

type messageResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	Planning  bool   `json:"planning"`
}

// handleMessage records one user turn and either asks the next clarifying
// question or kicks off the plan run.
func (s *Server) handleMessage(c echo.Context) error {
	var req messageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}

	res, err := s.controller.Submit(c.Request().Context(), c.Param("id"), req.Message)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "could not process the message, please try again")
	}
	if res.Ready {
		s.runs.Start(res.Session.ID, res.Session.Description)
	}
	return c.JSON(http.StatusOK, messageResponse{
		SessionID: res.Session.ID,
		Reply:     res.Reply,
		Planning:  res.Ready,
	})
}

// handleRecommendations returns the finished result, or the precise reason it
// is not available yet.
func (s *Server) handleRecommendations(c echo.Context) error {
	sess, err := s.store.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "session not found")
		}
		return err
	}

	switch {
	case sess.Status == session.StatusCompleted && sess.Result != nil:
		return c.JSON(http.StatusOK, sess.Result)
	case sess.RunErr != "":
		// The failure detail stays in the logs; callers get a retry hint.
		return echo.NewHTTPError(http.StatusBadGateway, "recommendation run failed, please try again")
	default:
		return echo.NewHTTPError(http.StatusConflict, models.ErrResultNotReady.Error())
	}
}

// handleEnd cuts the clarification loop short and starts (or re-arms) the run.
func (s *Server) handleEnd(c echo.Context) error {
	sess, err := s.controller.Terminate(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "session not found")
		}
		return err
	}
	if sess.Status == session.StatusCompleted {
		return c.JSON(http.StatusOK, messageResponse{SessionID: sess.ID, Reply: "Your recommendations are ready."})
	}
	s.runs.Start(sess.ID, sess.Description)
	return c.JSON(http.StatusOK, messageResponse{SessionID: sess.ID, Planning: true})
}
