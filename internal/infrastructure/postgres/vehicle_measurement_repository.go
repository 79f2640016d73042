package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Flota-api/internal/domain/entity"
	"github.com/jhoicas/Flota-api/internal/domain/repository"
)

var _ repository.VehicleMeasurementRepository = (*VehicleMeasurementRepo)(nil)

// VehicleMeasurementRepo lectura vigente y su historial sobre PostgreSQL.
type VehicleMeasurementRepo struct {
	q Querier
}

// NewVehicleMeasurementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewVehicleMeasurementRepository(q Querier) *VehicleMeasurementRepo {
	return &VehicleMeasurementRepo{q: q}
}

func (r *VehicleMeasurementRepo) Get(ctx context.Context, vehicleID string) (*entity.VehicleMeasurement, error) {
	return r.get(ctx, `SELECT vehicle_id, reading, kind, updated_at FROM vehicle_measurements WHERE vehicle_id = $1`, vehicleID)
}

// GetForUpdate bloquea la lectura. Si el vehículo aún no tiene fila se bloquea el vehículo,
// para que dos primeras lecturas concurrentes no se pisen.
func (r *VehicleMeasurementRepo) GetForUpdate(ctx context.Context, vehicleID string) (*entity.VehicleMeasurement, error) {
	if _, err := r.q.Exec(ctx, `SELECT 1 FROM vehicles WHERE id = $1 FOR UPDATE`, vehicleID); err != nil {
		return nil, fail("lock vehicle", err)
	}
	return r.get(ctx, `SELECT vehicle_id, reading, kind, updated_at FROM vehicle_measurements WHERE vehicle_id = $1 FOR UPDATE`, vehicleID)
}

func (r *VehicleMeasurementRepo) get(ctx context.Context, query, vehicleID string) (*entity.VehicleMeasurement, error) {
	var m entity.VehicleMeasurement
	err := r.q.QueryRow(ctx, query, vehicleID).Scan(&m.VehicleID, &m.Reading, &m.Kind, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fail("get vehicle measurement", err)
	}
	return &m, nil
}

func (r *VehicleMeasurementRepo) Upsert(ctx context.Context, m *entity.VehicleMeasurement) error {
	query := `
		INSERT INTO vehicle_measurements (vehicle_id, reading, kind, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (vehicle_id)
		DO UPDATE SET reading = EXCLUDED.reading, kind = EXCLUDED.kind, updated_at = EXCLUDED.updated_at`
	if _, err := r.q.Exec(ctx, query, m.VehicleID, m.Reading, m.Kind, m.UpdatedAt); err != nil {
		return fail("upsert vehicle measurement", err)
	}
	return nil
}

const measurementHistoryColumns = `id, vehicle_id, previous, new_reading, actor, note, source_type, source_id, anomaly, created_at`

func (r *VehicleMeasurementRepo) AppendHistory(ctx context.Context, e *entity.MeasurementHistoryEntry) error {
	query := `INSERT INTO vehicle_measurement_history (` + measurementHistoryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		e.ID, e.VehicleID, e.Previous, e.New, e.Actor, e.Note, e.SourceType, e.SourceID, e.Anomaly, e.CreatedAt,
	)
	if err != nil {
		return fail("insert measurement history", err)
	}
	return nil
}

// ListHistory entradas del vehículo, la más reciente primero.
func (r *VehicleMeasurementRepo) ListHistory(ctx context.Context, vehicleID string, limit int) ([]*entity.MeasurementHistoryEntry, error) {
	query := `SELECT ` + measurementHistoryColumns + ` FROM vehicle_measurement_history
		WHERE vehicle_id = $1
		ORDER BY seq DESC
		LIMIT NULLIF($2::int, 0)`
	return r.list(ctx, query, vehicleID, limit)
}

func (r *VehicleMeasurementRepo) LatestHistory(ctx context.Context, vehicleID string) (*entity.MeasurementHistoryEntry, error) {
	list, err := r.ListHistory(ctx, vehicleID, 1)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

func (r *VehicleMeasurementRepo) ListHistoryBySource(ctx context.Context, sourceType, sourceID string) ([]*entity.MeasurementHistoryEntry, error) {
	query := `SELECT ` + measurementHistoryColumns + ` FROM vehicle_measurement_history
		WHERE source_type = $1 AND source_id = $2
		ORDER BY seq`
	return r.list(ctx, query, sourceType, sourceID)
}

func (r *VehicleMeasurementRepo) DeleteHistory(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM vehicle_measurement_history WHERE id = $1`, id); err != nil {
		return fail("delete measurement history", err)
	}
	return nil
}

func (r *VehicleMeasurementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.MeasurementHistoryEntry, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fail("list measurement history", err)
	}
	defer rows.Close()
	var list []*entity.MeasurementHistoryEntry
	for rows.Next() {
		var e entity.MeasurementHistoryEntry
		if err := rows.Scan(&e.ID, &e.VehicleID, &e.Previous, &e.New, &e.Actor, &e.Note,
			&e.SourceType, &e.SourceID, &e.Anomaly, &e.CreatedAt); err != nil {
			return nil, fail("scan measurement history", err)
		}
		list = append(list, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fail("list measurement history", err)
	}
	return list, nil
}
