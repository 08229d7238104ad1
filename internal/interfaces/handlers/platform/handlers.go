package platform

import (
	"carbon-ledger/internal/application/registry"
	"carbon-ledger/internal/application/tokens"
	"carbon-ledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Registry *registry.Service
	Tokens   *tokens.Service
}

// GET /api/v1/platform/stats
func (h *Handlers) Stats(c *fiber.Ctx) error {
	ctx := c.UserContext()
	stats, err := h.Registry.GetPlatformStats(ctx)
	if err != nil {
		return response.FromError(c, err)
	}
	supply, err := h.Tokens.TotalSupply(ctx)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Platform stats retrieved", stats, fiber.Map{"token_supply": supply})
}

// GET /api/v1/platform/fee
func (h *Handlers) Fee(c *fiber.Ctx) error {
	bps, err := h.Registry.GetPlatformFee(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Platform fee retrieved", fiber.Map{"fee_bps": bps}, nil)
}

// GET /api/v1/platform/min-price
func (h *Handlers) MinPrice(c *fiber.Ctx) error {
	p, err := h.Registry.GetMinPrice(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Minimum price retrieved", fiber.Map{"min_price": p}, nil)
}
