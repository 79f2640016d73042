package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus estado general de la orden de mantenimiento.
type OrderStatus string

const (
	OrderOpen      OrderStatus = "Open"
	OrderPending   OrderStatus = "Pending"
	OrderCompleted OrderStatus = "Completed"
)

// SubStatus etapa de la solicitud ante bodega/compras mientras la orden está pendiente.
// El valor vacío representa "sin solicitud".
type SubStatus string

const (
	SubNone              SubStatus = ""
	SubPendingApproval   SubStatus = "PendingApproval"
	SubApproved          SubStatus = "Approved"
	SubAwaitingSupplier  SubStatus = "AwaitingSupplier"
	SubAwaitingWorkOrder SubStatus = "AwaitingWorkOrder"
	SubServiceQueue      SubStatus = "ServiceQueue"
	SubExternalService   SubStatus = "ExternalService"
	SubInService         SubStatus = "InService"
	SubRejected          SubStatus = "Rejected"
	SubFinalized         SubStatus = "Finalized"
)

// MeasurementKind unidad con la que se controla el vehículo.
type MeasurementKind string

const (
	MeasureDistance MeasurementKind = "distance"
	MeasureHours    MeasurementKind = "hours"
	MeasureMonths   MeasurementKind = "months"
)

// Valid indica si el tipo de medición es conocido.
func (k MeasurementKind) Valid() bool {
	switch k {
	case MeasureDistance, MeasureHours, MeasureMonths:
		return true
	}
	return false
}

// MaintenanceOrder solicitud de mantenimiento: vehículo, solicitante, mecánico y trabajo pedido.
type MaintenanceOrder struct {
	ID              string
	VehicleID       string
	OpenedAt        time.Time
	RequesterID     string
	MechanicID      string
	ReportedDefect  string
	RequestedWork   string
	OpeningReading  decimal.Decimal
	MeasurementKind MeasurementKind
	Status          OrderStatus
	SubStatus       SubStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// StateLabel representación "Status/SubStatus" usada en historiales y errores.
func (o *MaintenanceOrder) StateLabel() string {
	return StateLabel(o.Status, o.SubStatus)
}

// StateLabel formatea un par de estados.
func StateLabel(s OrderStatus, sub SubStatus) string {
	if sub == SubNone {
		return string(s)
	}
	return string(s) + "/" + string(sub)
}

// StatusHistoryEntry registro append-only de cada transición de la orden.
type StatusHistoryEntry struct {
	ID                string
	OrderID           string
	PreviousStatus    OrderStatus
	NewStatus         OrderStatus
	PreviousSubStatus SubStatus
	NewSubStatus      SubStatus
	Note              string
	Actor             string
	CreatedAt         time.Time
}
