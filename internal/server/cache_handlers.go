package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetCacheStats handles GET /cache/stats
// @Summary Cache statistics
// @Tags ops
// @Produce json
// @Security BearerAuth
// @Success 200 {object} cache.Stats
// @Failure 401 {object} models.ErrorResponse
// @Router /cache/stats [get]
func (s *Server) GetCacheStats(c *fiber.Ctx) error {
	if s.cache == nil {
		return c.JSON(fiber.Map{"backend": "disabled"})
	}
	stats, err := s.cache.Stats(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(stats)
}
