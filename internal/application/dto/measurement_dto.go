package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Flota-api/internal/domain/entity"
)

// MeasurementRequest body para POST /api/vehicles/:id/measurement.
type MeasurementRequest struct {
	Reading       decimal.Decimal `json:"reading"`
	Note          string          `json:"note"`
	AllowDecrease bool            `json:"allow_decrease"`
}

// MeasurementResponse lectura vigente del vehículo.
type MeasurementResponse struct {
	VehicleID string          `json:"vehicle_id"`
	Reading   decimal.Decimal `json:"reading"`
	Kind      string          `json:"kind"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// FromMeasurement mapea la lectura.
func FromMeasurement(m *entity.VehicleMeasurement) MeasurementResponse {
	return MeasurementResponse{VehicleID: m.VehicleID, Reading: m.Reading, Kind: string(m.Kind), UpdatedAt: m.UpdatedAt}
}

// MeasurementHistoryResponse cambio de lectura.
type MeasurementHistoryResponse struct {
	ID         string          `json:"id"`
	Previous   decimal.Decimal `json:"previous"`
	New        decimal.Decimal `json:"new"`
	Actor      string          `json:"actor"`
	Note       string          `json:"note,omitempty"`
	SourceType string          `json:"source_type"`
	SourceID   string          `json:"source_id,omitempty"`
	Anomaly    bool            `json:"anomaly"`
	CreatedAt  time.Time       `json:"created_at"`
}

// FromMeasurementHistory mapea el historial.
func FromMeasurementHistory(list []*entity.MeasurementHistoryEntry) []MeasurementHistoryResponse {
	out := make([]MeasurementHistoryResponse, 0, len(list))
	for _, e := range list {
		out = append(out, MeasurementHistoryResponse{
			ID: e.ID, Previous: e.Previous, New: e.New, Actor: e.Actor, Note: e.Note,
			SourceType: e.SourceType, SourceID: e.SourceID, Anomaly: e.Anomaly, CreatedAt: e.CreatedAt,
		})
	}
	return out
}
