package server

import (
	"marketplace/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetProfile handles GET /users/profile
// @Summary Get own profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserPublic
// @Failure 401 {object} models.ErrorResponse
// @Router /users/profile [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	return c.JSON(currentUser(c).Public())
}

// UpdateProfile handles PUT /users/profile
// @Summary Update own profile
// @Description Partial update of username, email and password
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.UpdateProfileInput true "Profile changes"
// @Success 200 {object} models.UserPublic
// @Failure 401 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /users/profile [put]
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var req service.UpdateProfileInput
	if err := parseBody(c, &req); err != nil {
		return respondServiceError(c, err)
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), currentUser(c), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user.Public())
}

// DeleteProfile handles DELETE /users/profile
// @Summary Delete own account
// @Description Deletes the account and every product it listed
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.DeleteResult
// @Failure 401 {object} models.ErrorResponse
// @Router /users/profile [delete]
func (s *Server) DeleteProfile(c *fiber.Ctx) error {
	res, err := s.userService.Delete(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(res)
}

// GetProfileStats handles GET /users/profile/stats
// @Summary Own listing statistics
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserStats
// @Failure 401 {object} models.ErrorResponse
// @Router /users/profile/stats [get]
func (s *Server) GetProfileStats(c *fiber.Ctx) error {
	stats, err := s.userService.Stats(c.UserContext(), currentUser(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(stats)
}
