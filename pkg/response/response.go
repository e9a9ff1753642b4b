package response

import "github.com/gofiber/fiber/v2"

// ErrorResponse is the flat error envelope of the public API
type ErrorResponse struct {
	Error string `json:"error"`
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(ErrorResponse{Error: message})
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

func RateLimited(c *fiber.Ctx) error {
	return Error(c, fiber.StatusTooManyRequests, "Rate limit exceeded")
}

func InternalError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}

func OK(c *fiber.Ctx, data interface{}) error {
	return c.JSON(data)
}
