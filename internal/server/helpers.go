package server

import (
	"errors"
	"log/slog"
	"strings"

	"devconnect/internal/auth"
	"devconnect/internal/middleware"
	"devconnect/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

var statusByCode = map[string]int{
	models.CodeValidation:      fiber.StatusBadRequest,
	models.CodeAlreadyLiked:    fiber.StatusBadRequest,
	models.CodeNotLiked:        fiber.StatusBadRequest,
	models.CodeNoToken:         fiber.StatusUnauthorized,
	models.CodeInvalidToken:    fiber.StatusUnauthorized,
	models.CodeTokenExpired:    fiber.StatusUnauthorized,
	models.CodeUnauthorized:    fiber.StatusUnauthorized,
	models.CodeForbidden:       fiber.StatusForbidden,
	models.CodeNotFound:        fiber.StatusNotFound,
	models.CodeConflict:        fiber.StatusConflict,
	models.CodeTooManyRequests: fiber.StatusTooManyRequests,
	models.CodeInternal:        fiber.StatusInternalServerError,
}

// mapServiceError returns the HTTP status for an error coming out of the
// service layer. Anything that is not an AppError is a 500.
func mapServiceError(err error) int {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	if status, ok := statusByCode[appErr.Code]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

// respondServiceError writes err with its mapped status. Server errors are
// logged with their cause, which never reaches the client.
func (s *Server) respondServiceError(c *fiber.Ctx, err error) error {
	status := mapServiceError(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, status, err)
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "user_id" -> "user ID", "comment_id" -> "comment ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if prefix, ok := strings.CutSuffix(param, "_id"); ok {
		return strings.ReplaceAll(prefix, "_", " ") + " ID"
	}
	return param
}

// parseBody decodes the JSON body into dst. On failure it writes a 400 JSON
// response and returns errResponseWritten.
func (s *Server) parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// claimOf returns the session claim stored by the gate. Routes without the
// gate get the zero claim, which every policy check rejects.
func claimOf(c *fiber.Ctx) auth.SessionClaim {
	claim, _ := middleware.ClaimFrom(c)
	return claim
}

func messageResponse(message string) fiber.Map {
	return fiber.Map{"message": message}
}
