package server

import (
	"strings"

	"memehub/internal/models"
	"memehub/internal/service"

	"github.com/gofiber/fiber/v2"
)

type tokenRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
	// Scope follows the OAuth2 convention: space-separated scope names.
	Scope string `json:"scope" form:"scope"`
}

// IssueToken handles POST /token. It accepts both a JSON body and an OAuth2
// password-grant form, verifies the credentials and returns a bearer token
// narrowed to the requested scopes.
func (s *Server) IssueToken(c *fiber.Ctx) error {
	var req tokenRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Username == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("username and password are required"))
	}

	user, err := s.authService.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return mapServiceError(c, err)
	}

	token, err := s.authService.IssueToken(user, strings.Fields(req.Scope))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(token)
}

// Register handles POST /register. Open to anyone; the account receives the
// default scope bundle.
func (s *Server) Register(c *fiber.Ctx) error {
	var input service.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Register(c.UserContext(), input)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}
