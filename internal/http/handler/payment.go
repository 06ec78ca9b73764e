package handler

import (
	"github.com/gofiber/fiber/v2"

	"notaryapi/internal/service"
)

// CreatePayment handles POST /payments.
func CreatePayment(svc service.PaymentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Amount      int64  `json:"amount"`
			Description string `json:"description"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		userID, _ := actorFromCtx(c)
		pay, err := svc.Create(c.UserContext(), userID, body.Amount, body.Description)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(pay)
	}
}

// GetPayment handles GET /payments/:id.
func GetPayment(svc service.PaymentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pay, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(pay)
	}
}

// GetPaymentStatus handles GET /payments/:id/status.
func GetPaymentStatus(svc service.PaymentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status, err := svc.StatusByID(c.UserContext(), c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"status": status})
	}
}

// PaymentCallback handles POST /payments/callback. The body carries what the
// gateway claims happened; the service re-verifies before settling.
func PaymentCallback(svc service.PaymentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			OrderCode int64  `json:"orderCode"`
			Status    string `json:"status"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		pay, err := svc.HandleCallback(c.UserContext(), body.OrderCode, body.Status)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(pay)
	}
}

// UpdateAllPayments handles POST /payments/update-all, the manual trigger for
// the reconciliation sweep the scheduler also runs.
func UpdateAllPayments(svc service.PaymentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := svc.ReconcileAll(c.UserContext())
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(stats)
	}
}
