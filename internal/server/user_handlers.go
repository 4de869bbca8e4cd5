package server

import (
	"devconnect/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UpdateUser handles PUT /api/v1/users/update/:id
// @Summary Update own account
// @Description Only the account owner may update it; changing the role also needs Admin
// @Tags users
// @Accept json
// @Produce json
// @Security TokenAuth
// @Param id path int true "User ID"
// @Param request body service.UpdateUserInput true "Fields to change"
// @Success 200 {object} object{user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /users/update/{id} [put]
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.UpdateUserInput
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.UpdateSelf(c.UserContext(), claimOf(c), id, req)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// DeleteAccount handles DELETE /api/v1/users/delete
// @Summary Delete own account
// @Description Removes the caller's account and profile. Posts are kept.
// @Tags users
// @Produce json
// @Security TokenAuth
// @Success 201 {object} object{message=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /users/delete [delete]
func (s *Server) DeleteAccount(c *fiber.Ctx) error {
	if err := s.userService.DeleteSelf(c.UserContext(), claimOf(c)); err != nil {
		return s.respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(messageResponse("user deleted successfully"))
}
