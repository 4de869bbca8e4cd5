package server

import (
	"devconnect/internal/service"

	"github.com/gofiber/fiber/v2"
)

// AdminDashboard handles GET /api/v1/admin
// @Summary Admin dashboard
// @Tags admin
// @Produce json
// @Security TokenAuth
// @Success 200 {object} service.Dashboard
// @Failure 403 {object} models.ErrorResponse
// @Router /admin [get]
func (s *Server) AdminDashboard(c *fiber.Ctx) error {
	dashboard, err := s.adminService.Dashboard(c.UserContext())
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(dashboard)
}

// AdminListUsers handles GET /api/v1/admin/users
// @Summary List users
// @Tags admin
// @Produce json
// @Security TokenAuth
// @Success 200 {array} models.UserSummary
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/users [get]
func (s *Server) AdminListUsers(c *fiber.Ctx) error {
	users, err := s.adminService.ListUsers(c.UserContext())
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(users)
}

// AdminCreateUser handles POST /api/v1/admin/users/add
// @Summary Create a user
// @Tags admin
// @Accept json
// @Produce json
// @Security TokenAuth
// @Param request body service.CreateUserInput true "Account"
// @Success 201 {object} object{user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/users/add [post]
func (s *Server) AdminCreateUser(c *fiber.Ctx) error {
	var req service.CreateUserInput
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	user, err := s.adminService.CreateUser(c.UserContext(), req)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": user})
}

// AdminUpdateUser handles PUT /api/v1/admin/update/:user_id
// @Summary Update any user
// @Tags admin
// @Accept json
// @Produce json
// @Security TokenAuth
// @Param user_id path int true "User ID"
// @Param request body service.UpdateUserInput true "Fields to change"
// @Success 200 {object} object{user=models.User}
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/update/{user_id} [put]
func (s *Server) AdminUpdateUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "user_id")
	if err != nil {
		return nil
	}
	var req service.UpdateUserInput
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	user, err := s.adminService.UpdateUser(c.UserContext(), id, req)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// AdminDeleteUser handles DELETE /api/v1/admin/delete/:user_id
// @Summary Delete any user
// @Description Removes the account and its profile. Posts are kept.
// @Tags admin
// @Produce json
// @Security TokenAuth
// @Param user_id path int true "User ID"
// @Success 201 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/delete/{user_id} [delete]
func (s *Server) AdminDeleteUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "user_id")
	if err != nil {
		return nil
	}
	if err := s.adminService.DeleteUser(c.UserContext(), id); err != nil {
		return s.respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(messageResponse("user deleted successfully"))
}
