package admin

import (
	adminsvc "carbon-ledger/internal/application/admin"
	"carbon-ledger/internal/domain"
	"carbon-ledger/internal/interfaces/handlers/projects"
	"carbon-ledger/internal/middleware"
	"carbon-ledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *adminsvc.Service
}

// POST /api/v1/admin/projects/:id/verify
func (h *Handlers) VerifyProject(c *fiber.Ctx) error {
	id, err := projects.ProjectID(c)
	if err != nil {
		return response.FromError(c, err)
	}
	if err := h.Service.VerifyProject(c.UserContext(), middleware.GetPrincipal(c), id); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Project verified", fiber.Map{"project_id": id}, nil)
}

// POST /api/v1/admin/sensors/:address/verify
func (h *Handlers) VerifySensor(c *fiber.Ctx) error {
	addr := c.Params("address")
	if err := h.Service.VerifySensor(c.UserContext(), middleware.GetPrincipal(c), addr); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Sensor verified", fiber.Map{"sensor_address": addr}, nil)
}

type footprintBody struct {
	Value *int64 `json:"value"`
}

// PUT /api/v1/admin/footprints/:account
func (h *Handlers) SetFootprint(c *fiber.Ctx) error {
	var body footprintBody
	if err := c.BodyParser(&body); err != nil || body.Value == nil {
		return response.Error(c, "value is required", fiber.StatusBadRequest, nil)
	}
	account := c.Params("account")
	if err := h.Service.SetUserFootprint(c.UserContext(), middleware.GetPrincipal(c), account, *body.Value); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Footprint updated", fiber.Map{"account": account, "footprint": *body.Value}, nil)
}

type feeBody struct {
	FeeBps *int64 `json:"fee_bps"`
}

// PUT /api/v1/admin/fee
func (h *Handlers) SetFee(c *fiber.Ctx) error {
	var body feeBody
	if err := c.BodyParser(&body); err != nil || body.FeeBps == nil {
		return response.Error(c, "fee_bps is required", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.SetPlatformFeeBps(c.UserContext(), middleware.GetPrincipal(c), *body.FeeBps); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Platform fee updated", fiber.Map{"fee_bps": *body.FeeBps}, nil)
}

type minPriceBody struct {
	MinPrice *domain.Amount `json:"min_price"`
}

// PUT /api/v1/admin/min-price
func (h *Handlers) SetMinPrice(c *fiber.Ctx) error {
	var body minPriceBody
	if err := c.BodyParser(&body); err != nil || body.MinPrice == nil {
		return response.Error(c, "min_price is required", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.SetMinPrice(c.UserContext(), middleware.GetPrincipal(c), *body.MinPrice); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Minimum price updated", fiber.Map{"min_price": body.MinPrice}, nil)
}

// POST /api/v1/admin/withdraw
func (h *Handlers) Withdraw(c *fiber.Ctx) error {
	amount, err := h.Service.WithdrawPlatformFees(c.UserContext(), middleware.GetPrincipal(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Platform fees withdrawn", fiber.Map{"amount": amount}, nil)
}

type activeBody struct {
	Active *bool `json:"active"`
}

// PATCH /api/v1/admin/projects/:id/active
func (h *Handlers) SetProjectActive(c *fiber.Ctx) error {
	id, err := projects.ProjectID(c)
	if err != nil {
		return response.FromError(c, err)
	}
	var body activeBody
	if err := c.BodyParser(&body); err != nil || body.Active == nil {
		return response.Error(c, "active is required", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.EmergencySetProjectActive(c.UserContext(), middleware.GetPrincipal(c), id, *body.Active); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Project status overridden", fiber.Map{"project_id": id, "is_active": *body.Active}, nil)
}

// POST /api/v1/admin/pause
func (h *Handlers) Pause(c *fiber.Ctx) error {
	if err := h.Service.Pause(c.UserContext(), middleware.GetPrincipal(c)); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Platform paused", fiber.Map{"paused": true}, nil)
}

// POST /api/v1/admin/unpause
func (h *Handlers) Unpause(c *fiber.Ctx) error {
	if err := h.Service.Unpause(c.UserContext(), middleware.GetPrincipal(c)); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Platform unpaused", fiber.Map{"paused": false}, nil)
}
