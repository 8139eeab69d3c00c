package server

import (
	"memehub/internal/models"
	"memehub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateUser handles POST /user/. Unlike Register it lets the caller choose
// the scope bundle, so the route is guarded by the user.create scope.
func (s *Server) CreateUser(c *fiber.Ctx) error {
	var input service.CreateUserInput
	if err := c.BodyParser(&input); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.CreateUser(c.UserContext(), input)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// ListUsers handles GET /user/
func (s *Server) ListUsers(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	users, err := s.userService.ListUsers(c.UserContext(), limit, offset)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(users)
}

// GetUser handles GET /user/:name
func (s *Server) GetUser(c *fiber.Ctx) error {
	principal := principalFromLocals(c)

	user, err := s.userService.GetUser(c.UserContext(), *principal, c.Params("name"))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(user)
}

// UpdateUser handles PUT /user/:name
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	principal := principalFromLocals(c)

	var input service.UpdateUserInput
	if err := c.BodyParser(&input); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateUser(c.UserContext(), *principal, c.Params("name"), input)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(user)
}

// DeleteUser handles DELETE /user/:name
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	principal := principalFromLocals(c)

	if err := s.userService.DeleteUser(c.UserContext(), *principal, c.Params("name")); err != nil {
		return mapServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
