package server

import (
	"bhreads/internal/models"
	"bhreads/internal/service"
	"bhreads/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// UpdateProfile handles PUT /api/users/profile
// @Summary Update own profile
// @Description Empty fields are left unchanged.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.UpdateProfileInput true "Profile"
// @Success 200 {object} object{success=bool,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Router /users/profile [put]
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	var req service.UpdateProfileInput
	if err := validation.Bind(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), userID, req)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return success(c, fiber.StatusOK, fiber.Map{"user": user})
}

// GetUserProfile handles GET /api/users/:id
// @Summary Public profile
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} object{success=bool,user=models.PublicProfile}
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}

	profile, err := s.userService.GetPublicProfile(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return success(c, fiber.StatusOK, fiber.Map{"user": profile})
}

// SetUserRole handles PUT /api/users/:id/role
// @Summary Change role
// @Description Admin only.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body object{role=string} true "Role"
// @Success 200 {object} object{success=bool,user=models.User}
// @Failure 403 {object} models.ErrorResponse
// @Router /users/{id}/role [put]
func (s *Server) SetUserRole(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}

	var req struct {
		Role string `json:"role" validate:"required"`
	}
	if err := validation.BindAndValidate(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}

	user, err := s.userService.SetRole(c.UserContext(), userID, req.Role)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return success(c, fiber.StatusOK, fiber.Map{"user": user})
}
