package handler

import (
	"github.com/gofiber/fiber/v2"

	"notaryapi/internal/service"
)

// Register handles POST /auth/register.
func Register(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Email    string `json:"email"`
			Name     string `json:"name"`
			Password string `json:"password"`
			Role     string `json:"role"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		user, err := svc.Register(c.UserContext(), service.RegisterParams{
			Email:    body.Email,
			Name:     body.Name,
			Password: body.Password,
			Role:     body.Role,
		})
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(user)
	}
}

// Login handles POST /auth/login.
func Login(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		token, user, err := svc.Login(c.UserContext(), body.Email, body.Password)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"token": token, "user": user})
	}
}
