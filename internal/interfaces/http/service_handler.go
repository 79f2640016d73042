package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Flota-api/internal/application/dto"
	"github.com/jhoicas/Flota-api/internal/application/servicing"
	"github.com/jhoicas/Flota-api/internal/domain/entity"
)

// ServiceHandler registra y elimina cambios de aceite y mantenimientos.
type ServiceHandler struct {
	uc *servicing.RecorderUseCase
}

// NewServiceHandler construye el handler.
func NewServiceHandler(uc *servicing.RecorderUseCase) *ServiceHandler {
	return &ServiceHandler{uc: uc}
}

// RegisterOilChange godoc
// @Summary      Registrar cambio de aceite
// @Description  Descuenta aceite y repuestos, calcula la próxima lectura de servicio y
// @Description  actualiza la lectura del vehículo, todo en una sola transacción.
// @Tags         service-events
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.OilChangeRequest  true  "vehículo, lectura, aceite y repuestos"
// @Success      201   {object}  dto.ServiceEventResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/service-events/oil-changes [post]
func (h *ServiceHandler) RegisterOilChange(c *fiber.Ctx) error {
	var in dto.OilChangeRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	ev, err := h.uc.RegisterOilChange(c.Context(), servicing.OilChangeInput{
		VehicleID:        in.VehicleID,
		OrderID:          in.OrderID,
		Actor:            GetEmployeeID(c),
		Reading:          in.Reading,
		PerformedAt:      timeOrZero(in.PerformedAt),
		PrimaryProductID: in.PrimaryProductID,
		PrimaryQuantity:  in.PrimaryQuantity,
		Secondary:        toItems(in.Secondary),
		Checklist:        entity.OilChangeChecklist(in.Checklist),
		Notes:            in.Notes,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromServiceEvent(ev))
}

// RegisterMaintenance godoc
// @Summary      Registrar mantenimiento puntual
// @Tags         service-events
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.MaintenanceRequest  true  "vehículo, lectura, repuestos y descripción"
// @Success      201   {object}  dto.ServiceEventResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/service-events/maintenance [post]
func (h *ServiceHandler) RegisterMaintenance(c *fiber.Ctx) error {
	var in dto.MaintenanceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	ev, err := h.uc.RegisterMaintenance(c.Context(), servicing.MaintenanceInput{
		VehicleID:   in.VehicleID,
		OrderID:     in.OrderID,
		Actor:       GetEmployeeID(c),
		Reading:     in.Reading,
		PerformedAt: timeOrZero(in.PerformedAt),
		Items:       toItems(in.Items),
		Description: in.Description,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromServiceEvent(ev))
}

// Delete godoc
// @Summary      Eliminar evento de servicio
// @Description  Revierte las salidas de inventario del evento y, si sigue vigente, la lectura que registró.
// @Tags         service-events
// @Security     Bearer
// @Param        id   path  string  true  "ID del evento"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/service-events/{id} [delete]
func (h *ServiceHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.DeleteServiceEvent(c.Context(), c.Params("id"), GetEmployeeID(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func toItems(items []dto.ItemRequest) []servicing.Item {
	out := make([]servicing.Item, 0, len(items))
	for _, it := range items {
		out = append(out, servicing.Item{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
