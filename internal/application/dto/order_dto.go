package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Flota-api/internal/domain/entity"
)

// OpenOrderRequest body para POST /api/orders.
type OpenOrderRequest struct {
	VehicleID      string          `json:"vehicle_id"`
	RequesterID    string          `json:"requester_id"`
	MechanicID     string          `json:"mechanic_id"`
	ReportedDefect string          `json:"reported_defect"`
	RequestedWork  string          `json:"requested_work"`
	Reading        decimal.Decimal `json:"reading"`
}

// TransitionRequest nota opcional de una transición (obligatoria al rechazar).
type TransitionRequest struct {
	Note string `json:"note"`
}

// SubStatusRequest body para POST /api/orders/:id/sub-status.
type SubStatusRequest struct {
	SubStatus string `json:"sub_status"`
	Note      string `json:"note"`
}

// ItemRequest repuesto y cantidad.
type ItemRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// ConsumptionRequest body para POST /api/orders/:id/consumptions.
type ConsumptionRequest struct {
	Items []ItemRequest `json:"items"`
}

// FinalizeRequest body para POST /api/orders/:id/finalize. Items se consumen en la misma transacción.
type FinalizeRequest struct {
	Items []ItemRequest `json:"items"`
	Note  string        `json:"note"`
}

// OrderResponse orden de mantenimiento.
type OrderResponse struct {
	ID              string          `json:"id"`
	VehicleID       string          `json:"vehicle_id"`
	OpenedAt        time.Time       `json:"opened_at"`
	RequesterID     string          `json:"requester_id"`
	MechanicID      string          `json:"mechanic_id"`
	ReportedDefect  string          `json:"reported_defect"`
	RequestedWork   string          `json:"requested_work"`
	OpeningReading  decimal.Decimal `json:"opening_reading"`
	MeasurementKind string          `json:"measurement_kind"`
	Status          string          `json:"status"`
	SubStatus       string          `json:"sub_status,omitempty"`
	State           string          `json:"state"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// FromOrder mapea la entidad a su respuesta.
func FromOrder(o *entity.MaintenanceOrder) OrderResponse {
	return OrderResponse{
		ID:              o.ID,
		VehicleID:       o.VehicleID,
		OpenedAt:        o.OpenedAt,
		RequesterID:     o.RequesterID,
		MechanicID:      o.MechanicID,
		ReportedDefect:  o.ReportedDefect,
		RequestedWork:   o.RequestedWork,
		OpeningReading:  o.OpeningReading,
		MeasurementKind: string(o.MeasurementKind),
		Status:          string(o.Status),
		SubStatus:       string(o.SubStatus),
		State:           o.StateLabel(),
		UpdatedAt:       o.UpdatedAt,
	}
}

// FromOrders mapea una lista (nunca nil, para serializar []).
func FromOrders(list []*entity.MaintenanceOrder) []OrderResponse {
	out := make([]OrderResponse, 0, len(list))
	for _, o := range list {
		out = append(out, FromOrder(o))
	}
	return out
}

// StatusHistoryResponse entrada del historial de la orden.
type StatusHistoryResponse struct {
	ID                string    `json:"id"`
	PreviousStatus    string    `json:"previous_status"`
	NewStatus         string    `json:"new_status"`
	PreviousSubStatus string    `json:"previous_sub_status,omitempty"`
	NewSubStatus      string    `json:"new_sub_status,omitempty"`
	Note              string    `json:"note,omitempty"`
	Actor             string    `json:"actor"`
	CreatedAt         time.Time `json:"created_at"`
}

// FromHistory mapea el historial.
func FromHistory(list []*entity.StatusHistoryEntry) []StatusHistoryResponse {
	out := make([]StatusHistoryResponse, 0, len(list))
	for _, e := range list {
		out = append(out, StatusHistoryResponse{
			ID:                e.ID,
			PreviousStatus:    string(e.PreviousStatus),
			NewStatus:         string(e.NewStatus),
			PreviousSubStatus: string(e.PreviousSubStatus),
			NewSubStatus:      string(e.NewSubStatus),
			Note:              e.Note,
			Actor:             e.Actor,
			CreatedAt:         e.CreatedAt,
		})
	}
	return out
}
