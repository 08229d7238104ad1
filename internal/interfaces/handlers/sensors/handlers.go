package sensors

import (
	"carbon-ledger/internal/application/issuance"
	"carbon-ledger/internal/application/registry"
	"carbon-ledger/internal/middleware"
	"carbon-ledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Registry *registry.Service
	Issuance *issuance.Service
}

// GET /api/v1/sensors/:address
func (h *Handlers) Get(c *fiber.Ctx) error {
	s, err := h.Registry.GetSensor(c.UserContext(), c.Params("address"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Sensor retrieved", s, nil)
}

// POST /api/v1/sensors/readings: the gateway reports as the sensor, the
// project owner, or the admin.
func (h *Handlers) Report(c *fiber.Ctx) error {
	var in issuance.SensorReading
	if err := c.BodyParser(&in); err != nil || in.SensorAddress == "" {
		return response.Error(c, "sensor_address, reading and timestamp are required", fiber.StatusBadRequest, nil)
	}
	in.Caller = middleware.GetPrincipal(c)
	res, err := h.Issuance.ReportSensorReading(c.UserContext(), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Reading accepted", res, nil)
}
