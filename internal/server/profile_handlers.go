package server

import (
	"devconnect/internal/models"
	"devconnect/internal/service"

	"github.com/gofiber/fiber/v2"
)

func profileResponse(p *models.Profile) fiber.Map {
	return fiber.Map{"profile": p}
}

// GetProfiles handles GET /api/v1/profile
// @Summary List profiles
// @Tags profile
// @Produce json
// @Success 200 {array} models.Profile
// @Router /profile [get]
func (s *Server) GetProfiles(c *fiber.Ctx) error {
	profiles, err := s.profileService.List(c.UserContext())
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(profiles)
}

// GetProfileByUser handles GET /api/v1/profile/user/:user_id
// @Summary Profile of a user
// @Tags profile
// @Produce json
// @Param user_id path int true "User ID"
// @Success 200 {object} object{profile=models.Profile}
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/user/{user_id} [get]
func (s *Server) GetProfileByUser(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "user_id")
	if err != nil {
		return nil
	}
	profile, err := s.profileService.GetByUser(c.UserContext(), userID)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(profileResponse(profile))
}

// GetMyProfile handles GET /api/v1/profile/me
// @Summary Own profile
// @Tags profile
// @Produce json
// @Security TokenAuth
// @Success 200 {object} object{profile=models.Profile}
// @Failure 400 {object} models.ErrorResponse
// @Router /profile/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	profile, err := s.profileService.GetMine(c.UserContext(), claimOf(c))
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(profileResponse(profile))
}

// UpsertProfile handles POST /api/v1/profile
// @Summary Create or update own profile
// @Description Status and skills are required when the profile does not exist yet.
// @Tags profile
// @Accept json
// @Produce json
// @Security TokenAuth
// @Param request body service.UpsertProfileInput true "Profile fields"
// @Success 200 {object} object{profile=models.Profile}
// @Failure 400 {object} models.ErrorResponse
// @Router /profile [post]
func (s *Server) UpsertProfile(c *fiber.Ctx) error {
	var req service.UpsertProfileInput
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	profile, err := s.profileService.Upsert(c.UserContext(), claimOf(c), req)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(profileResponse(profile))
}

// DeleteProfile handles DELETE /api/v1/profile
// @Summary Delete own profile
// @Tags profile
// @Produce json
// @Security TokenAuth
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /profile [delete]
func (s *Server) DeleteProfile(c *fiber.Ctx) error {
	if err := s.profileService.Delete(c.UserContext(), claimOf(c)); err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(messageResponse("Profile deleted"))
}

// AddExperience handles PUT /api/v1/profile/experience
// @Summary Add experience
// @Description The new entry becomes the first one.
// @Tags profile
// @Accept json
// @Produce json
// @Security TokenAuth
// @Param request body service.ExperienceInput true "Experience"
// @Success 200 {object} object{profile=models.Profile}
// @Failure 400 {object} models.ErrorResponse
// @Router /profile/experience [put]
func (s *Server) AddExperience(c *fiber.Ctx) error {
	var req service.ExperienceInput
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	profile, err := s.profileService.AddExperience(c.UserContext(), claimOf(c), req)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(profileResponse(profile))
}

// UpdateExperience handles PUT /api/v1/profile/experience/:exp_id
// @Summary Update experience
// @Tags profile
// @Accept json
// @Produce json
// @Security TokenAuth
// @Param exp_id path string true "Experience ID"
// @Param request body service.ExperienceInput true "Experience"
// @Success 200 {object} object{profile=models.Profile}
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/experience/{exp_id} [put]
func (s *Server) UpdateExperience(c *fiber.Ctx) error {
	var req service.ExperienceInput
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	profile, err := s.profileService.UpdateExperience(c.UserContext(), claimOf(c), c.Params("exp_id"), req)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(profileResponse(profile))
}

// RemoveExperience handles DELETE /api/v1/profile/experience/:exp_id
// @Summary Remove experience
// @Description Removing an unknown entry leaves the profile unchanged.
// @Tags profile
// @Produce json
// @Security TokenAuth
// @Param exp_id path string true "Experience ID"
// @Success 200 {object} object{profile=models.Profile}
// @Router /profile/experience/{exp_id} [delete]
func (s *Server) RemoveExperience(c *fiber.Ctx) error {
	profile, err := s.profileService.RemoveExperience(c.UserContext(), claimOf(c), c.Params("exp_id"))
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(profileResponse(profile))
}

// AddEducation handles PUT /api/v1/profile/education
// @Summary Add education
// @Tags profile
// @Accept json
// @Produce json
// @Security TokenAuth
// @Param request body service.EducationInput true "Education"
// @Success 200 {object} object{profile=models.Profile}
// @Failure 400 {object} models.ErrorResponse
// @Router /profile/education [put]
func (s *Server) AddEducation(c *fiber.Ctx) error {
	var req service.EducationInput
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	profile, err := s.profileService.AddEducation(c.UserContext(), claimOf(c), req)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(profileResponse(profile))
}

// UpdateEducation handles PUT /api/v1/profile/education/:edu_id
// @Summary Update education
// @Tags profile
// @Accept json
// @Produce json
// @Security TokenAuth
// @Param edu_id path string true "Education ID"
// @Param request body service.EducationInput true "Education"
// @Success 200 {object} object{profile=models.Profile}
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/education/{edu_id} [put]
func (s *Server) UpdateEducation(c *fiber.Ctx) error {
	var req service.EducationInput
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	profile, err := s.profileService.UpdateEducation(c.UserContext(), claimOf(c), c.Params("edu_id"), req)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(profileResponse(profile))
}

// RemoveEducation handles DELETE /api/v1/profile/education/:edu_id
// @Summary Remove education
// @Tags profile
// @Produce json
// @Security TokenAuth
// @Param edu_id path string true "Education ID"
// @Success 200 {object} object{profile=models.Profile}
// @Router /profile/education/{edu_id} [delete]
func (s *Server) RemoveEducation(c *fiber.Ctx) error {
	profile, err := s.profileService.RemoveEducation(c.UserContext(), claimOf(c), c.Params("edu_id"))
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(profileResponse(profile))
}
