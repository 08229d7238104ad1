package projects

import (
	"fmt"
	"strconv"

	"carbon-ledger/internal/application/registry"
	"carbon-ledger/internal/domain"
	"carbon-ledger/internal/middleware"
	"carbon-ledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *registry.Service
}

// POST /api/v1/projects: the caller becomes the owner.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var in registry.RegisterProjectInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	id, err := h.Service.RegisterProject(c.UserContext(), middleware.GetPrincipal(c), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Project registered", fiber.Map{"project_id": id}, nil)
}

// GET /api/v1/projects/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := ProjectID(c)
	if err != nil {
		return response.FromError(c, err)
	}
	p, err := h.Service.GetProject(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Project retrieved", p, nil)
}

// GET /api/v1/projects/:id/sensors
func (h *Handlers) Sensors(c *fiber.Ctx) error {
	id, err := ProjectID(c)
	if err != nil {
		return response.FromError(c, err)
	}
	sensors, err := h.Service.ListProjectSensors(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Sensors retrieved", sensors, fiber.Map{"count": len(sensors)})
}

// GET /api/v1/projects/:id/offsets
func (h *Handlers) Offsets(c *fiber.Ctx) error {
	id, err := ProjectID(c)
	if err != nil {
		return response.FromError(c, err)
	}
	offsets, err := h.Service.GetProjectOffsets(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Offsets retrieved", offsets, fiber.Map{"count": len(offsets)})
}

type statusBody struct {
	Active *bool `json:"active"`
}

// PATCH /api/v1/projects/:id/status
func (h *Handlers) SetStatus(c *fiber.Ctx) error {
	id, err := ProjectID(c)
	if err != nil {
		return response.FromError(c, err)
	}
	var body statusBody
	if err := c.BodyParser(&body); err != nil || body.Active == nil {
		return response.Error(c, "active is required", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.SetProjectStatus(c.UserContext(), middleware.GetPrincipal(c), id, *body.Active); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Project status updated", fiber.Map{"project_id": id, "is_active": *body.Active}, nil)
}

type priceBody struct {
	Price *domain.Amount `json:"price"`
}

// PATCH /api/v1/projects/:id/price
func (h *Handlers) SetPrice(c *fiber.Ctx) error {
	id, err := ProjectID(c)
	if err != nil {
		return response.FromError(c, err)
	}
	var body priceBody
	if err := c.BodyParser(&body); err != nil || body.Price == nil {
		return response.Error(c, "price is required", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.SetProjectPrice(c.UserContext(), middleware.GetPrincipal(c), id, *body.Price); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Project price updated", fiber.Map{"project_id": id, "price_per_credit": body.Price}, nil)
}

// GET /api/v1/users/:account/projects
func (h *Handlers) UserProjects(c *fiber.Ctx) error {
	ids, err := h.Service.GetUserProjects(c.UserContext(), c.Params("account"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Projects retrieved", ids, fiber.Map{"count": len(ids)})
}

// GET /api/v1/users/:account/footprint
func (h *Handlers) Footprint(c *fiber.Ctx) error {
	account := c.Params("account")
	v, err := h.Service.GetFootprint(c.UserContext(), account)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Footprint retrieved", fiber.Map{"account": account, "footprint": v}, nil)
}

// ProjectID parses the :id route parameter.
func ProjectID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: project id must be an integer", domain.ErrValidation)
	}
	return id, nil
}
