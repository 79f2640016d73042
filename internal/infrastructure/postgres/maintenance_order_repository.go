package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Flota-api/internal/domain"
	"github.com/jhoicas/Flota-api/internal/domain/entity"
	"github.com/jhoicas/Flota-api/internal/domain/repository"
)

var _ repository.MaintenanceOrderRepository = (*MaintenanceOrderRepo)(nil)

// MaintenanceOrderRepo órdenes de mantenimiento sobre PostgreSQL.
type MaintenanceOrderRepo struct {
	q Querier
}

// NewMaintenanceOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMaintenanceOrderRepository(q Querier) *MaintenanceOrderRepo {
	return &MaintenanceOrderRepo{q: q}
}

const orderColumns = `id, vehicle_id, opened_at, requester_id, mechanic_id, reported_defect, requested_work,
	opening_reading, measurement_kind, status, sub_status, created_at, updated_at`

func (r *MaintenanceOrderRepo) Create(ctx context.Context, o *entity.MaintenanceOrder) error {
	query := `INSERT INTO maintenance_orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		o.ID, o.VehicleID, o.OpenedAt, o.RequesterID, o.MechanicID, o.ReportedDefect, o.RequestedWork,
		o.OpeningReading, o.MeasurementKind, o.Status, o.SubStatus, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fail("insert maintenance order", err)
	}
	return nil
}

func (r *MaintenanceOrderRepo) GetByID(ctx context.Context, id string) (*entity.MaintenanceOrder, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM maintenance_orders WHERE id = $1`, id)
}

// GetForUpdate bloquea la orden: dos transiciones concurrentes sobre la misma orden se serializan.
func (r *MaintenanceOrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.MaintenanceOrder, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM maintenance_orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *MaintenanceOrderRepo) get(ctx context.Context, query, id string) (*entity.MaintenanceOrder, error) {
	o, err := scanOrder(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fail("get maintenance order", err)
	}
	return o, nil
}

// UpdateStatus persiste solo el par de estados.
func (r *MaintenanceOrderRepo) UpdateStatus(ctx context.Context, o *entity.MaintenanceOrder) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE maintenance_orders SET status = $2, sub_status = $3, updated_at = $4 WHERE id = $1`,
		o.ID, o.Status, o.SubStatus, o.UpdatedAt,
	)
	if err != nil {
		return fail("update maintenance order status", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("orden", o.ID)
	}
	return nil
}

// List órdenes más recientes primero; status vacío lista todas.
func (r *MaintenanceOrderRepo) List(ctx context.Context, status entity.OrderStatus, limit, offset int) ([]*entity.MaintenanceOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM maintenance_orders
		WHERE ($1::text = '' OR status = $1)
		ORDER BY opened_at DESC, id DESC
		LIMIT NULLIF($2::int, 0) OFFSET $3`
	rows, err := r.q.Query(ctx, query, string(status), limit, offset)
	if err != nil {
		return nil, fail("list maintenance orders", err)
	}
	defer rows.Close()
	var list []*entity.MaintenanceOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fail("scan maintenance order", err)
		}
		list = append(list, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fail("list maintenance orders", err)
	}
	return list, nil
}

func (r *MaintenanceOrderRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM maintenance_orders WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return &domain.ConflictError{Reason: "la orden tiene registros asociados"}
		}
		return fail("delete maintenance order", err)
	}
	return nil
}

func scanOrder(row pgxScanner) (*entity.MaintenanceOrder, error) {
	var o entity.MaintenanceOrder
	err := row.Scan(
		&o.ID, &o.VehicleID, &o.OpenedAt, &o.RequesterID, &o.MechanicID, &o.ReportedDefect, &o.RequestedWork,
		&o.OpeningReading, &o.MeasurementKind, &o.Status, &o.SubStatus, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
