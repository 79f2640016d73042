package repository

import (
	"context"

	"github.com/jhoicas/Flota-api/internal/domain/entity"
)

// VehicleMeasurementRepository lectura vigente por vehículo y su historial.
type VehicleMeasurementRepository interface {
	// GetForUpdate bloquea la lectura del vehículo; nil si aún no tiene lectura registrada.
	GetForUpdate(ctx context.Context, vehicleID string) (*entity.VehicleMeasurement, error)
	Get(ctx context.Context, vehicleID string) (*entity.VehicleMeasurement, error)
	Upsert(ctx context.Context, m *entity.VehicleMeasurement) error
	AppendHistory(ctx context.Context, entry *entity.MeasurementHistoryEntry) error
	ListHistory(ctx context.Context, vehicleID string, limit int) ([]*entity.MeasurementHistoryEntry, error)
	LatestHistory(ctx context.Context, vehicleID string) (*entity.MeasurementHistoryEntry, error)
	ListHistoryBySource(ctx context.Context, sourceType, sourceID string) ([]*entity.MeasurementHistoryEntry, error)
	DeleteHistory(ctx context.Context, id string) error
}
