package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/gigflow/marketplace/internal/core/ports"
	"github.com/gigflow/marketplace/internal/infrastructure/ws"
)

// WSHandler upgrades authenticated requests to the push-only presence
// channel.
type WSHandler struct {
	upgrader *ws.Upgrader
	presence ports.PresenceRegistry
	log      zerolog.Logger
}

func NewWSHandler(upgrader *ws.Upgrader, presence ports.PresenceRegistry, log zerolog.Logger) *WSHandler {
	return &WSHandler{upgrader: upgrader, presence: presence, log: log}
}

// Connect handles GET /ws.
//
// @Summary      Open the live notification channel
// @Description  Upgrades to a websocket. The server pushes {"type":"hired",...} events to the authenticated user.
// @Tags         presence
// @Security     BearerAuth
// @Param        token  query  string  false  "Bearer token for clients that cannot set headers"
// @Success      101
// @Failure      401  {object}  errorResponse
// @Router       /ws [get]
func (h *WSHandler) Connect(c echo.Context) error {
	userID, err := requesterID(c)
	if err != nil {
		return err
	}

	log := h.log.With().Str("user_id", userID).Logger()
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), log)
	if err != nil {
		// the upgrader already answered the handshake
		log.Debug().Err(err).Msg("websocket upgrade failed")
		return nil
	}

	h.presence.Register(userID, conn)
	log.Info().Str("conn_id", conn.ID()).Msg("user online")

	conn.Serve(c.Request().Context())

	if _, ok := h.presence.Unregister(conn); ok {
		log.Info().Str("conn_id", conn.ID()).Msg("user offline")
	}
	return nil
}
