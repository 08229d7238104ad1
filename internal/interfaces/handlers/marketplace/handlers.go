package marketplace

import (
	mktsvc "carbon-ledger/internal/application/marketplace"
	"carbon-ledger/internal/middleware"
	"carbon-ledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *mktsvc.Service
}

// POST /api/v1/marketplace/purchase: the caller is the buyer.
func (h *Handlers) Purchase(c *fiber.Ctx) error {
	var in mktsvc.PurchaseInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	in.Buyer = middleware.GetPrincipal(c)
	receipt, err := h.Service.PurchaseCredits(c.UserContext(), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Purchase settled", receipt, nil)
}
