package server

import (
	"memehub/internal/models"
	"memehub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListMemes handles GET /memes/. Supports ?sort=new|top, ?page and ?limit.
func (s *Server) ListMemes(c *fiber.Ctx) error {
	sortBy := c.Query("sort", "new")
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	memes, err := s.memeService.ListMemes(c.UserContext(), sortBy, page, limit)
	if err != nil {
		return mapServiceError(c, err)
	}
	if memes == nil {
		memes = []*models.Meme{}
	}
	return c.JSON(memes)
}

// GetMeme handles GET /memes/:id
func (s *Server) GetMeme(c *fiber.Ctx) error {
	meme, err := s.memeService.GetMeme(c.UserContext(), c.Params("id"))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(meme)
}

// ToggleLike handles PUT /memes/:id. The same call likes an unliked meme and
// unlikes a liked one.
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	principal := principalFromLocals(c)

	result, err := s.memeService.ToggleLike(c.UserContext(), *principal, c.Params("id"))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(result)
}

// CreateMeme handles POST /memes/. Expects a multipart form with a "file"
// part and title/description fields.
func (s *Server) CreateMeme(c *fiber.Ctx) error {
	principal := principalFromLocals(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("image file is required"))
	}
	file, err := fileHeader.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("could not read uploaded file"))
	}
	defer file.Close()

	input := service.CreateMemeInput{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		File: service.Upload{
			Filename:    fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Size:        fileHeader.Size,
			Content:     file,
		},
	}

	meme, err := s.memeService.CreateMeme(c.UserContext(), *principal, input)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(meme)
}
