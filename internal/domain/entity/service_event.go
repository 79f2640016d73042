package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de evento de servicio.
const (
	ServiceOilChange   = "oil_change"
	ServiceMaintenance = "maintenance"
)

// ServiceItem consumo de un repuesto por un evento de servicio. MovementID apunta a la salida
// del libro que lo descontó, y es la que se revierte al eliminar el evento.
type ServiceItem struct {
	ProductID  string
	Quantity   decimal.Decimal
	Primary    bool
	MovementID string
}

// OilChangeChecklist filtros reemplazados durante el cambio de aceite.
type OilChangeChecklist struct {
	OilFilter   bool `json:"oil_filter"`
	AirFilter   bool `json:"air_filter"`
	FuelFilter  bool `json:"fuel_filter"`
	CabinFilter bool `json:"cabin_filter"`
}

// ServiceEvent acto de mantenimiento (cambio de aceite o mantenimiento puntual) que consume inventario.
type ServiceEvent struct {
	ID              string
	Kind            string
	VehicleID       string
	OrderID         string // opcional: orden que originó el servicio
	PerformedAt     time.Time
	Actor           string
	Reading         decimal.Decimal
	NextDue         decimal.Decimal // cero si el evento no programa un próximo servicio
	MeasurementKind MeasurementKind
	Items           []ServiceItem
	Checklist       OilChangeChecklist
	Notes           string
	CreatedAt       time.Time
}

// PrimaryItem devuelve el consumible principal, si existe.
func (e *ServiceEvent) PrimaryItem() *ServiceItem {
	for i := range e.Items {
		if e.Items[i].Primary {
			return &e.Items[i]
		}
	}
	return nil
}
