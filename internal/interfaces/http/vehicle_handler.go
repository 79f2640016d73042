package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Flota-api/internal/application/dto"
	"github.com/jhoicas/Flota-api/internal/application/measurement"
	"github.com/jhoicas/Flota-api/internal/application/servicing"
)

// VehicleHandler consultas por vehículo: historial de servicios, vencimiento y lecturas.
type VehicleHandler struct {
	recorder *servicing.RecorderUseCase
	tracker  *measurement.Tracker
}

// NewVehicleHandler construye el handler.
func NewVehicleHandler(recorder *servicing.RecorderUseCase, tracker *measurement.Tracker) *VehicleHandler {
	return &VehicleHandler{recorder: recorder, tracker: tracker}
}

// ServiceHistory godoc
// @Summary      Historial de servicios del vehículo
// @Tags         vehicles
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID del vehículo"
// @Param        limit   query  int     false  "máximo 100"
// @Param        offset  query  int     false  "desplazamiento"
// @Success      200  {array}   dto.ServiceEventResponse
// @Router       /api/vehicles/{id}/service-history [get]
func (h *VehicleHandler) ServiceHistory(c *fiber.Ctx) error {
	page := pageParams(c)
	list, err := h.recorder.History(c.Context(), c.Params("id"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromServiceEvents(list))
}

// DueStatus godoc
// @Summary      Estado del próximo cambio de aceite
// @Description  never_serviced, normal, warning (>=75%), critical (>=90%) u overdue.
// @Tags         vehicles
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del vehículo"
// @Success      200  {object}  dto.DueStatusResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/vehicles/{id}/due-status [get]
func (h *VehicleHandler) DueStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	status, err := h.recorder.DueStatus(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromDueStatus(id, status))
}

// Measurement godoc
// @Summary      Lectura vigente del vehículo
// @Tags         vehicles
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del vehículo"
// @Success      200  {object}  dto.MeasurementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/vehicles/{id}/measurement [get]
func (h *VehicleHandler) Measurement(c *fiber.Ctx) error {
	m, err := h.tracker.Current(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromMeasurement(m))
}

// RecordMeasurement godoc
// @Summary      Registrar lectura manual
// @Description  Una lectura menor a la vigente se rechaza salvo allow_decrease y política habilitada.
// @Tags         vehicles
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                  true  "ID del vehículo"
// @Param        body  body      dto.MeasurementRequest  true  "lectura"
// @Success      200   {object}  dto.MeasurementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/vehicles/{id}/measurement [post]
func (h *VehicleHandler) RecordMeasurement(c *fiber.Ctx) error {
	var in dto.MeasurementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	m, err := h.tracker.Record(c.Context(), c.Params("id"), in.Reading, GetEmployeeID(c), in.Note, in.AllowDecrease)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromMeasurement(m))
}

// MeasurementHistory godoc
// @Summary      Historial de lecturas del vehículo
// @Tags         vehicles
// @Security     Bearer
// @Produce      json
// @Param        id     path   string  true   "ID del vehículo"
// @Param        limit  query  int     false  "máximo 100"
// @Success      200  {array}   dto.MeasurementHistoryResponse
// @Router       /api/vehicles/{id}/measurement/history [get]
func (h *VehicleHandler) MeasurementHistory(c *fiber.Ctx) error {
	page := pageParams(c)
	list, err := h.tracker.History(c.Context(), c.Params("id"), page.Limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromMeasurementHistory(list))
}
