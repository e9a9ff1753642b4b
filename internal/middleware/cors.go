package middleware

import "github.com/gofiber/fiber/v2"

// CORS sets the permissive CORS headers on every response and answers
// OPTIONS preflight with 200 and an empty body, which is what the frontend
// contract expects (fiber's cors middleware answers preflight with 204).
func CORS() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Access-Control-Allow-Origin", "*")
		c.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Set("Access-Control-Allow-Headers", "Content-Type, X-User-Id")

		if c.Method() == fiber.MethodOptions {
			return c.Status(fiber.StatusOK).SendString("")
		}
		return c.Next()
	}
}
