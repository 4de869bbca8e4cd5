package server

import (
	"errors"
	"log/slog"
	"strconv"

	"devconnect/internal/cache"
	"devconnect/internal/middleware"
	"devconnect/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

var errNoTicketStore = errors.New("websocket tickets need redis")

// IssueWSTicket handles POST /api/v1/ws/ticket
// @Summary Issue a websocket ticket
// @Description Returns a single-use ticket for GET /ws?ticket=...
// @Tags ws
// @Produce json
// @Security TokenAuth
// @Success 200 {object} object{ticket=string,expiresIn=int}
// @Failure 401 {object} models.AuthErrorResponse
// @Router /ws/ticket [post]
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	if s.redis == nil {
		return s.respondServiceError(c, models.NewInternalError(errNoTicketStore))
	}
	claim := claimOf(c)

	ticket := uuid.NewString()
	err := s.redis.Set(c.UserContext(), middleware.WSTicketKey(ticket),
		strconv.FormatUint(uint64(claim.UserID), 10), cache.WSTicketTTL).Err()
	if err != nil {
		return s.respondServiceError(c, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"ticket":    ticket,
		"expiresIn": int(cache.WSTicketTTL.Seconds()),
	})
}

// WebsocketHandler returns a websocket handler that registers connections with the Hub.
// Authentication is handled by route middleware and the claim is read from connection locals.
func (s *Server) WebsocketHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		uid, ok := conn.Locals("userID").(uint)
		if !ok || uid == 0 {
			_ = conn.Close()
			return
		}

		if s.hub == nil {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(uid, conn)
		if err != nil {
			middleware.Logger.Warn("websocket register failed",
				slog.Uint64("user_id", uint64(uid)),
				slog.String("error", err.Error()),
			)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}
		defer s.hub.UnregisterClient(client)

		go client.WritePump()
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return upgrade(c)
	}
}
