// Package middleware provides the HTTP middleware chain: authentication,
// request logging, rate limiting, metrics and tracing.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"devconnect/internal/auth"
	"devconnect/internal/models"
	"devconnect/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const (
	// TokenHeader carries the session token on every authenticated request.
	TokenHeader = "auth-token"

	claimLocal  = "claim"
	userIDLocal = "userID"

	// wsPath is the only route that accepts a ?ticket= in place of the header.
	wsPath = "/api/v1/ws"
)

// WSTicketKey is the Redis key holding the user id a websocket ticket was issued to.
func WSTicketKey(ticket string) string {
	return fmt.Sprintf("ws_ticket:%s", ticket)
}

// Gate turns the auth-token header into a verified SessionClaim.
type Gate struct {
	codec *auth.Codec
	redis *redis.Client
}

// NewGate returns a gate verifying tokens with codec. rdb may be nil, in which
// case websocket tickets are never accepted.
func NewGate(codec *auth.Codec, rdb *redis.Client) *Gate {
	return &Gate{codec: codec, redis: rdb}
}

// Required rejects requests without a valid session and stores the claim in
// locals for the handlers behind it.
func (g *Gate) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodGet && strings.TrimSuffix(c.Path(), "/") == wsPath {
			if ticket := c.Query("ticket"); ticket != "" {
				claim, err := g.consumeTicket(c.UserContext(), ticket)
				if err != nil {
					return g.reject(c, err)
				}
				return g.admit(c, claim)
			}
		}

		raw := strings.TrimSpace(c.Get(TokenHeader))
		if raw == "" {
			return g.reject(c, models.NewNoTokenError())
		}

		claim, err := g.codec.Verify(raw)
		switch {
		case errors.Is(err, auth.ErrExpired):
			return g.reject(c, models.NewExpiredTokenError())
		case err != nil:
			return g.reject(c, models.NewInvalidTokenError())
		}
		return g.admit(c, claim)
	}
}

func (g *Gate) consumeTicket(ctx context.Context, ticket string) (auth.SessionClaim, error) {
	if g.redis == nil {
		return auth.SessionClaim{}, models.NewInvalidTokenError()
	}
	raw, err := g.redis.GetDel(ctx, WSTicketKey(ticket)).Result()
	if err != nil {
		return auth.SessionClaim{}, models.NewInvalidTokenError()
	}
	userID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || userID == 0 {
		return auth.SessionClaim{}, models.NewInvalidTokenError()
	}
	return auth.SessionClaim{UserID: uint(userID)}, nil
}

func (g *Gate) admit(c *fiber.Ctx, claim auth.SessionClaim) error {
	c.Locals(claimLocal, claim)
	c.Locals(userIDLocal, claim.UserID)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, claim.UserID))
	return c.Next()
}

func (g *Gate) reject(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		observability.AuthFailures.WithLabelValues(strings.ToLower(appErr.Code)).Inc()
	}
	return models.RespondWithError(c, fiber.StatusUnauthorized, err)
}

// ClaimFrom returns the claim stored by Gate.Required.
func ClaimFrom(c *fiber.Ctx) (auth.SessionClaim, bool) {
	claim, ok := c.Locals(claimLocal).(auth.SessionClaim)
	return claim, ok
}
