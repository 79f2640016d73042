package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Flota-api/internal/domain/entity"
	"github.com/jhoicas/Flota-api/internal/domain/maintenance"
)

// ChecklistDTO filtros reemplazados en el cambio de aceite.
type ChecklistDTO struct {
	OilFilter   bool `json:"oil_filter"`
	AirFilter   bool `json:"air_filter"`
	FuelFilter  bool `json:"fuel_filter"`
	CabinFilter bool `json:"cabin_filter"`
}

// OilChangeRequest body para POST /api/service-events/oil-changes.
type OilChangeRequest struct {
	VehicleID        string          `json:"vehicle_id"`
	OrderID          string          `json:"order_id,omitempty"`
	Reading          decimal.Decimal `json:"reading"`
	PerformedAt      *time.Time      `json:"performed_at,omitempty"`
	PrimaryProductID string          `json:"primary_product_id"`
	PrimaryQuantity  decimal.Decimal `json:"primary_quantity"`
	Secondary        []ItemRequest   `json:"secondary_items"`
	Checklist        ChecklistDTO    `json:"checklist"`
	Notes            string          `json:"notes"`
}

// MaintenanceRequest body para POST /api/service-events/maintenance.
type MaintenanceRequest struct {
	VehicleID   string          `json:"vehicle_id"`
	OrderID     string          `json:"order_id,omitempty"`
	Reading     decimal.Decimal `json:"reading"`
	PerformedAt *time.Time      `json:"performed_at,omitempty"`
	Items       []ItemRequest   `json:"items"`
	Description string          `json:"description"`
}

// ServiceItemResponse consumo de un evento.
type ServiceItemResponse struct {
	ProductID  string          `json:"product_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Primary    bool            `json:"primary"`
	MovementID string          `json:"movement_id"`
}

// ServiceEventResponse cambio de aceite o mantenimiento.
type ServiceEventResponse struct {
	ID              string                `json:"id"`
	Kind            string                `json:"kind"`
	VehicleID       string                `json:"vehicle_id"`
	OrderID         string                `json:"order_id,omitempty"`
	PerformedAt     time.Time             `json:"performed_at"`
	Actor           string                `json:"actor"`
	Reading         decimal.Decimal       `json:"reading"`
	NextDue         *decimal.Decimal      `json:"next_due,omitempty"`
	MeasurementKind string                `json:"measurement_kind"`
	Items           []ServiceItemResponse `json:"items"`
	Checklist       *ChecklistDTO         `json:"checklist,omitempty"`
	Notes           string                `json:"notes,omitempty"`
}

// FromServiceEvent mapea un evento de servicio.
func FromServiceEvent(e *entity.ServiceEvent) ServiceEventResponse {
	out := ServiceEventResponse{
		ID:              e.ID,
		Kind:            e.Kind,
		VehicleID:       e.VehicleID,
		OrderID:         e.OrderID,
		PerformedAt:     e.PerformedAt,
		Actor:           e.Actor,
		Reading:         e.Reading,
		MeasurementKind: string(e.MeasurementKind),
		Items:           make([]ServiceItemResponse, 0, len(e.Items)),
		Notes:           e.Notes,
	}
	for _, it := range e.Items {
		out.Items = append(out.Items, ServiceItemResponse{
			ProductID: it.ProductID, Quantity: it.Quantity, Primary: it.Primary, MovementID: it.MovementID,
		})
	}
	if e.Kind == entity.ServiceOilChange {
		next := e.NextDue
		out.NextDue = &next
		c := ChecklistDTO(e.Checklist)
		out.Checklist = &c
	}
	return out
}

// FromServiceEvents mapea una lista.
func FromServiceEvents(list []*entity.ServiceEvent) []ServiceEventResponse {
	out := make([]ServiceEventResponse, 0, len(list))
	for _, e := range list {
		out = append(out, FromServiceEvent(e))
	}
	return out
}

// DueStatusResponse estado del próximo cambio de aceite.
type DueStatusResponse struct {
	VehicleID   string           `json:"vehicle_id"`
	Level       string           `json:"level"`
	Current     decimal.Decimal  `json:"current"`
	LastService *decimal.Decimal `json:"last_service,omitempty"`
	NextDue     *decimal.Decimal `json:"next_due,omitempty"`
	Percent     decimal.Decimal  `json:"percent"`
	Remaining   *decimal.Decimal `json:"remaining,omitempty"`
}

// FromDueStatus mapea el cálculo de vencimiento. Sin servicio previo solo se informa la lectura.
func FromDueStatus(vehicleID string, s maintenance.DueStatus) DueStatusResponse {
	out := DueStatusResponse{VehicleID: vehicleID, Level: string(s.Level), Current: s.Current, Percent: s.Percent}
	if s.Level != maintenance.DueNeverServiced {
		last, next, rem := s.LastService, s.NextDue, s.Remaining
		out.LastService, out.NextDue, out.Remaining = &last, &next, &rem
	}
	return out
}
