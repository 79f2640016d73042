package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fuentes de una actualización de lectura.
const (
	SourceManual       = "manual"
	SourceOrder        = "order"
	SourceServiceEvent = "service_event"
)

// ReadingPlaces decimales que admite una lectura de vehículo (NUMERIC(14,2)).
const ReadingPlaces = 2

// VehicleMeasurement lectura vigente (odómetro, horómetro o contador de meses) de un vehículo.
type VehicleMeasurement struct {
	VehicleID string
	Reading   decimal.Decimal
	Kind      MeasurementKind
	UpdatedAt time.Time
}

// MeasurementHistoryEntry cambio de lectura con su origen. Anomaly marca una lectura
// aceptada aunque fuera menor a la vigente (p. ej. cambio de odómetro).
type MeasurementHistoryEntry struct {
	ID         string
	VehicleID  string
	Previous   decimal.Decimal
	New        decimal.Decimal
	Actor      string
	Note       string
	SourceType string
	SourceID   string
	Anomaly    bool
	CreatedAt  time.Time
}
