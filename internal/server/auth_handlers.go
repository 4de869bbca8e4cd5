package server

import (
	"devconnect/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Register handles POST /api/v1/users
// @Summary Register
// @Description Create a Member account and return a session token
// @Tags users
// @Accept json
// @Produce json
// @Param request body service.RegisterInput true "Registration"
// @Success 200 {object} object{token=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /users [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	token, err := s.authService.Register(c.UserContext(), req)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"token": token})
}

// Login handles POST /api/v1/auth
// @Summary Login
// @Description Exchange email and password for a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.LoginInput true "Credentials"
// @Success 200 {object} object{token=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /auth [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req service.LoginInput
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	token, err := s.authService.Login(c.UserContext(), req)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"token": token})
}

// CurrentUser handles GET /api/v1/auth
// @Summary Current user
// @Tags auth
// @Produce json
// @Security TokenAuth
// @Success 200 {object} models.User
// @Failure 401 {object} models.AuthErrorResponse
// @Router /auth [get]
func (s *Server) CurrentUser(c *fiber.Ctx) error {
	user, err := s.authService.Me(c.UserContext(), claimOf(c))
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(user)
}
