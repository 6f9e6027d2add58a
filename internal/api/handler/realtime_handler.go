package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/live-tracking/internal/core/domain"
)

// PeerServer runs one authenticated realtime connection.
type PeerServer interface {
	Serve(w http.ResponseWriter, r *http.Request, id domain.Identity) error
}

// RealtimeHandler upgrades GET /ws to a realtime connection.
type RealtimeHandler struct {
	hub PeerServer
	log zerolog.Logger
}

func NewRealtimeHandler(hub PeerServer, log zerolog.Logger) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, log: log}
}

// Connect checks that the identity announced in the query (user_id, role)
// is the one carried by the token, then hands the connection to the hub.
func (h *RealtimeHandler) Connect(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	userID := c.QueryParam("user_id")
	role := domain.Role(c.QueryParam("role"))
	if userID == "" || !role.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id and role are required")
	}
	if userID != caller.UserID || role != caller.Role {
		return echo.NewHTTPError(http.StatusForbidden, "identity does not match token")
	}

	if err := h.hub.Serve(c.Response(), c.Request(), domain.Identity{UserID: userID, Role: role}); err != nil {
		// The upgrader has already written the failure response.
		h.log.Warn().Err(err).Str("user_id", userID).Msg("realtime upgrade failed")
	}
	return nil
}
