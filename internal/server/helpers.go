package server

import (
	"memehub/internal/models"

	"github.com/gofiber/fiber/v2"
)

// principalFromLocals returns the principal AuthRequired stored, or nil when
// the request was not authenticated.
func principalFromLocals(c *fiber.Ctx) *models.Principal {
	principal, _ := c.Locals("principal").(*models.Principal)
	return principal
}

// mapServiceError translates the service error taxonomy into HTTP responses.
func mapServiceError(c *fiber.Ctx, err error) error {
	appErr, ok := err.(*models.AppError)
	if !ok {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	status := fiber.StatusInternalServerError
	switch appErr.Code {
	case "VALIDATION_ERROR":
		status = fiber.StatusBadRequest
	case "UNAUTHORIZED":
		status = fiber.StatusUnauthorized
	case "FORBIDDEN":
		status = fiber.StatusForbidden
	case "NOT_FOUND":
		status = fiber.StatusNotFound
	case "CONFLICT":
		status = fiber.StatusConflict
	}
	return models.RespondWithError(c, status, appErr)
}
