package server

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"marketplace/internal/models"
	"marketplace/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UploadImage handles POST /upload/image
// @Summary Upload an image
// @Description Stores the original and writes thumbnail, medium and large JPEG variants
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image file"
// @Success 200 {object} service.UploadResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 413 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /upload/image [post]
func (s *Server) UploadImage(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewBadRequestError("No file uploaded"))
	}
	if file.Size > s.imageService.MaxBytes() {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewBadRequestError(
			fmt.Sprintf("File size too large. Maximum size: %dMB", s.imageService.MaxBytes()/(1024*1024))))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewBadRequestError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewBadRequestError("Unable to read uploaded file"))
	}

	uploaded, err := s.imageService.Upload(c.UserContext(), service.UploadImageInput{
		Filename: file.Filename,
		Content:  content,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(uploaded)
}

// ListImages handles GET /upload/images
// @Summary List uploaded images
// @Description Originals only; variants are not listed
// @Tags uploads
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any
// @Failure 401 {object} models.ErrorResponse
// @Router /upload/images [get]
func (s *Server) ListImages(c *fiber.Ctx) error {
	images, err := s.imageService.List()
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"images": images,
		"total":  len(images),
	})
}

// GetImage handles GET /upload/images/:filename
// @Summary Serve an uploaded image
// @Tags uploads
// @Produce image/jpeg,image/png,image/gif,image/webp
// @Param filename path string true "Stored filename"
// @Success 200 {file} binary
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /upload/images/{filename} [get]
func (s *Server) GetImage(c *fiber.Ctx) error {
	path, err := s.imageService.Resolve(c.Params("filename"))
	if err != nil {
		return respondServiceError(c, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return respondServiceError(c, models.NewInternalError(err))
	}

	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000")
	c.Type(strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
	return c.Send(data)
}

// DeleteImage handles DELETE /upload/images/:filename
// @Summary Delete an image and its variants
// @Tags uploads
// @Produce json
// @Security BearerAuth
// @Param filename path string true "Stored filename of the original"
// @Success 200 {object} map[string]any
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /upload/images/{filename} [delete]
func (s *Server) DeleteImage(c *fiber.Ctx) error {
	filename := c.Params("filename")
	deleted, err := s.imageService.Delete(c.UserContext(), filename)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":       fmt.Sprintf("Successfully deleted %d files", deleted),
		"filename":      filename,
		"deleted_count": deleted,
	})
}
