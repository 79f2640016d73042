package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Flota-api/internal/application/dto"
	"github.com/jhoicas/Flota-api/internal/application/inventory"
	"github.com/jhoicas/Flota-api/internal/domain/entity"
)

// InventoryHandler entradas, salidas y reversiones del libro de inventario.
type InventoryHandler struct {
	uc *inventory.LedgerUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *inventory.LedgerUseCase) *InventoryHandler {
	return &InventoryHandler{uc: uc}
}

// CreateProduct godoc
// @Summary      Registrar producto
// @Description  La existencia inicial, si se indica, queda como movimiento de entrada.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateProductRequest  true  "código opcional, nombre, categoría, unidad y existencia inicial"
// @Success      201   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/products [post]
func (h *InventoryHandler) CreateProduct(c *fiber.Ctx) error {
	var in dto.CreateProductRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	p, err := h.uc.CreateProduct(c.Context(), inventory.CreateProductInput{
		ID:           in.ID,
		Name:         in.Name,
		Category:     in.Category,
		UnitMeasure:  in.UnitMeasure,
		InitialStock: in.InitialStock,
		Actor:        GetEmployeeID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromProduct(p))
}

// RecordEntry godoc
// @Summary      Registrar entrada de almacén
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.MovementRequest  true  "product_id, quantity, reference"
// @Success      201   {object}  dto.PostingResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/entries [post]
func (h *InventoryHandler) RecordEntry(c *fiber.Ctx) error {
	var in dto.MovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	p, err := h.uc.RecordEntry(c.Context(), toMovementInput(c, in))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toPosting(p))
}

// RecordExit godoc
// @Summary      Registrar salida de almacén
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.MovementRequest  true  "product_id, quantity, reference (solicitante o destino)"
// @Success      201   {object}  dto.PostingResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/exits [post]
func (h *InventoryHandler) RecordExit(c *fiber.Ctx) error {
	var in dto.MovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	p, err := h.uc.RecordExit(c.Context(), toMovementInput(c, in))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toPosting(p))
}

// Reverse godoc
// @Summary      Revertir movimiento
// @Description  Registra el movimiento compensatorio. Un movimiento solo se revierte una vez.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del movimiento"
// @Success      201  {object}  dto.PostingResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id}/reverse [post]
func (h *InventoryHandler) Reverse(c *fiber.Ctx) error {
	p, err := h.uc.Reverse(c.Context(), c.Params("id"), GetEmployeeID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toPosting(p))
}

// GetProduct godoc
// @Summary      Consultar producto y existencia
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id} [get]
func (h *InventoryHandler) GetProduct(c *fiber.Ctx) error {
	p, err := h.uc.GetProduct(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromProduct(p))
}

// ListMovements godoc
// @Summary      Movimientos de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID del producto"
// @Param        limit   query  int     false  "máximo 100"
// @Param        offset  query  int     false  "desplazamiento"
// @Success      200  {array}   dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	page := pageParams(c)
	list, err := h.uc.ListMovements(c.Context(), c.Params("id"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromMovements(list))
}

func toMovementInput(c *fiber.Ctx, in dto.MovementRequest) inventory.MovementInput {
	return inventory.MovementInput{
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		Origin:    entity.Origin{Reference: in.Reference, OrderID: in.OrderID},
		Actor:     GetEmployeeID(c),
	}
}

func toPosting(p inventory.Posting) dto.PostingResponse {
	return dto.PostingResponse{Movement: dto.FromMovement(p.Movement), OnHand: p.OnHand}
}
