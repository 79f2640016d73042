package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Flota-api/internal/domain/entity"
)

// MovementRequest body para POST /api/inventory/entries y /api/inventory/exits.
type MovementRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Reference string          `json:"reference"`
	OrderID   string          `json:"order_id,omitempty"`
}

// MovementResponse movimiento del libro.
type MovementResponse struct {
	ID             string          `json:"id"`
	ProductID      string          `json:"product_id"`
	Kind           string          `json:"kind"`
	Quantity       decimal.Decimal `json:"quantity"`
	OccurredAt     time.Time       `json:"occurred_at"`
	Reference      string          `json:"reference,omitempty"`
	OrderID        string          `json:"order_id,omitempty"`
	ServiceEventID string          `json:"service_event_id,omitempty"`
	ReversalOf     string          `json:"reversal_of,omitempty"`
	Reversed       bool            `json:"reversed"`
	CreatedBy      string          `json:"created_by"`
}

// FromMovement mapea un movimiento.
func FromMovement(m *entity.StockMovement) MovementResponse {
	return MovementResponse{
		ID:             m.ID,
		ProductID:      m.ProductID,
		Kind:           m.Kind,
		Quantity:       m.Quantity,
		OccurredAt:     m.OccurredAt,
		Reference:      m.Origin.Reference,
		OrderID:        m.Origin.OrderID,
		ServiceEventID: m.Origin.ServiceEventID,
		ReversalOf:     m.ReversalOf,
		Reversed:       m.Reversed,
		CreatedBy:      m.CreatedBy,
	}
}

// FromMovements mapea una lista.
func FromMovements(list []*entity.StockMovement) []MovementResponse {
	out := make([]MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, FromMovement(m))
	}
	return out
}

// PostingResponse movimiento registrado y existencia resultante.
type PostingResponse struct {
	Movement MovementResponse `json:"movement"`
	OnHand   decimal.Decimal  `json:"on_hand"`
}

// CreateProductRequest body para POST /api/inventory/products.
type CreateProductRequest struct {
	ID           string          `json:"id,omitempty"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	UnitMeasure  string          `json:"unit_measure"`
	InitialStock decimal.Decimal `json:"initial_stock"`
}

// ProductResponse producto con su existencia.
type ProductResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	UnitMeasure string          `json:"unit_measure"`
	OnHand      decimal.Decimal `json:"on_hand"`
}

// FromProduct mapea un producto.
func FromProduct(p *entity.Product) ProductResponse {
	return ProductResponse{ID: p.ID, Name: p.Name, Category: p.Category, UnitMeasure: p.UnitMeasure, OnHand: p.OnHand}
}
