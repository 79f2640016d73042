package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Flota-api/internal/application/dto"
	"github.com/jhoicas/Flota-api/internal/application/orders"
	"github.com/jhoicas/Flota-api/internal/domain/entity"
	"github.com/jhoicas/Flota-api/internal/domain/workflow"
)

// OrderHandler maneja las órdenes de mantenimiento y su flujo con bodega/compras.
type OrderHandler struct {
	uc *orders.OrderUseCase
}

// NewOrderHandler construye el handler.
func NewOrderHandler(uc *orders.OrderUseCase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

// Open godoc
// @Summary      Abrir orden de mantenimiento
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.OpenOrderRequest  true  "vehículo, solicitante, mecánico, falla y lectura"
// @Success      201   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/orders [post]
func (h *OrderHandler) Open(c *fiber.Ctx) error {
	var in dto.OpenOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	order, err := h.uc.Open(c.Context(), orders.OpenInput{
		VehicleID:      in.VehicleID,
		RequesterID:    in.RequesterID,
		MechanicID:     in.MechanicID,
		ReportedDefect: in.ReportedDefect,
		RequestedWork:  in.RequestedWork,
		Reading:        in.Reading,
		Actor:          GetEmployeeID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromOrder(order))
}

// List godoc
// @Summary      Listar órdenes
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "Open | Pending | Completed"
// @Param        limit   query  int     false  "máximo 100"
// @Param        offset  query  int     false  "desplazamiento"
// @Success      200  {array}   dto.OrderResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/orders [get]
func (h *OrderHandler) List(c *fiber.Ctx) error {
	var status entity.OrderStatus
	if s := c.Query("status"); s != "" {
		parsed, err := workflow.ParseStatus(s)
		if err != nil {
			return respondError(c, err)
		}
		status = parsed
	}
	page := pageParams(c)
	list, err := h.uc.List(c.Context(), status, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromOrders(list))
}

// Get godoc
// @Summary      Consultar orden
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la orden"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	order, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromOrder(order))
}

// Delete godoc
// @Summary      Eliminar orden
// @Description  Elimina la orden, su historial y la actualización de lectura que originó.
// @Description  Se rechaza si hay movimientos de inventario o servicios que la referencien.
// @Tags         orders
// @Security     Bearer
// @Param        id   path  string  true  "ID de la orden"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [delete]
func (h *OrderHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.Context(), c.Params("id"), GetEmployeeID(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Submit godoc
// @Summary      Enviar orden a bodega
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                 true   "ID de la orden"
// @Param        body  body      dto.TransitionRequest  false  "nota"
// @Success      200   {object}  dto.OrderResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/submit [post]
func (h *OrderHandler) Submit(c *fiber.Ctx) error {
	var in dto.TransitionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	order, err := h.uc.SubmitToWarehouse(c.Context(), c.Params("id"), in.Note, GetEmployeeID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromOrder(order))
}

// SetSubStatus godoc
// @Summary      Cambiar etapa de la solicitud (bodega/compras)
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                true  "ID de la orden"
// @Param        body  body      dto.SubStatusRequest  true  "sub_status y nota"
// @Success      200   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/sub-status [post]
func (h *OrderHandler) SetSubStatus(c *fiber.Ctx) error {
	var in dto.SubStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	sub, err := workflow.ParseSubStatus(in.SubStatus)
	if err != nil {
		return respondError(c, err)
	}
	order, err := h.uc.SetSubStatus(c.Context(), c.Params("id"), sub, in.Note, GetEmployeeID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromOrder(order))
}

// Reject godoc
// @Summary      Rechazar solicitud
// @Description  Devuelve la orden a Open/Rejected. La nota es obligatoria.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                 true  "ID de la orden"
// @Param        body  body      dto.TransitionRequest  true  "motivo"
// @Success      200   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/reject [post]
func (h *OrderHandler) Reject(c *fiber.Ctx) error {
	var in dto.TransitionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	order, err := h.uc.Reject(c.Context(), c.Params("id"), in.Note, GetEmployeeID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromOrder(order))
}

// RecordConsumption godoc
// @Summary      Atender solicitud con salidas de almacén
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                  true  "ID de la orden"
// @Param        body  body      dto.ConsumptionRequest  true  "repuestos entregados"
// @Success      201   {array}   dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/consumptions [post]
func (h *OrderHandler) RecordConsumption(c *fiber.Ctx) error {
	var in dto.ConsumptionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	movs, err := h.uc.RecordConsumption(c.Context(), c.Params("id"), toConsumption(in.Items), GetEmployeeID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromMovements(movs))
}

// Finalize godoc
// @Summary      Finalizar orden
// @Description  Requiere al menos un consumo atendido (previo o incluido en el body).
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string               true   "ID de la orden"
// @Param        body  body      dto.FinalizeRequest  false  "consumos finales y nota"
// @Success      200   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/finalize [post]
func (h *OrderHandler) Finalize(c *fiber.Ctx) error {
	var in dto.FinalizeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	order, err := h.uc.Finalize(c.Context(), c.Params("id"), toConsumption(in.Items), in.Note, GetEmployeeID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromOrder(order))
}

// History godoc
// @Summary      Historial de estados de la orden
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la orden"
// @Success      200  {array}   dto.StatusHistoryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/history [get]
func (h *OrderHandler) History(c *fiber.Ctx) error {
	list, err := h.uc.History(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromHistory(list))
}

func toConsumption(items []dto.ItemRequest) []orders.ConsumptionItem {
	out := make([]orders.ConsumptionItem, 0, len(items))
	for _, it := range items {
		out = append(out, orders.ConsumptionItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}
