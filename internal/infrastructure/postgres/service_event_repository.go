package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Flota-api/internal/domain"
	"github.com/jhoicas/Flota-api/internal/domain/entity"
	"github.com/jhoicas/Flota-api/internal/domain/repository"
)

var _ repository.ServiceEventRepository = (*ServiceEventRepo)(nil)

// ServiceEventRepo cambios de aceite y mantenimientos sobre PostgreSQL.
// Los consumos viven en service_event_items y se cargan junto al evento.
type ServiceEventRepo struct {
	q Querier
}

// NewServiceEventRepository construye el adaptador. Pasar pool o tx (Querier).
func NewServiceEventRepository(q Querier) *ServiceEventRepo {
	return &ServiceEventRepo{q: q}
}

const serviceEventColumns = `id, kind, vehicle_id, order_id, performed_at, actor, reading, next_due,
	measurement_kind, checklist, notes, created_at`

// Create inserta el evento y sus ítems.
func (r *ServiceEventRepo) Create(ctx context.Context, e *entity.ServiceEvent) error {
	query := `INSERT INTO service_events (` + serviceEventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		e.ID, e.Kind, e.VehicleID, nullable(e.OrderID), e.PerformedAt, e.Actor, e.Reading, e.NextDue,
		e.MeasurementKind, e.Checklist, e.Notes, e.CreatedAt,
	)
	if err != nil {
		return fail("insert service event", err)
	}
	for i, it := range e.Items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO service_event_items (service_event_id, position, product_id, quantity, is_primary, movement_id)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			e.ID, i, it.ProductID, it.Quantity, it.Primary, it.MovementID,
		)
		if err != nil {
			return fail("insert service event item", err)
		}
	}
	return nil
}

// GetForUpdate obtiene el evento bloqueando su fila.
func (r *ServiceEventRepo) GetForUpdate(ctx context.Context, id string) (*entity.ServiceEvent, error) {
	query := `SELECT ` + serviceEventColumns + ` FROM service_events WHERE id = $1 FOR UPDATE`
	e, err := scanServiceEvent(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fail("get service event for update", err)
	}
	if err := r.loadItems(ctx, []*entity.ServiceEvent{e}); err != nil {
		return nil, err
	}
	return e, nil
}

// ListByVehicle historial de servicios del vehículo, más recientes primero.
func (r *ServiceEventRepo) ListByVehicle(ctx context.Context, vehicleID string, limit, offset int) ([]*entity.ServiceEvent, error) {
	query := `SELECT ` + serviceEventColumns + ` FROM service_events
		WHERE vehicle_id = $1
		ORDER BY performed_at DESC, created_at DESC
		LIMIT NULLIF($2::int, 0) OFFSET $3`
	rows, err := r.q.Query(ctx, query, vehicleID, limit, offset)
	if err != nil {
		return nil, fail("list service events", err)
	}
	var list []*entity.ServiceEvent
	for rows.Next() {
		e, err := scanServiceEvent(rows)
		if err != nil {
			rows.Close()
			return nil, fail("scan service event", err)
		}
		list = append(list, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fail("list service events", err)
	}
	if err := r.loadItems(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// LatestByVehicle último evento del tipo por fecha de realización.
func (r *ServiceEventRepo) LatestByVehicle(ctx context.Context, vehicleID, kind string) (*entity.ServiceEvent, error) {
	query := `SELECT ` + serviceEventColumns + ` FROM service_events
		WHERE vehicle_id = $1 AND kind = $2
		ORDER BY performed_at DESC, created_at DESC
		LIMIT 1`
	e, err := scanServiceEvent(r.q.QueryRow(ctx, query, vehicleID, kind))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fail("latest service event", err)
	}
	if err := r.loadItems(ctx, []*entity.ServiceEvent{e}); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *ServiceEventRepo) CountByOrder(ctx context.Context, orderID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM service_events WHERE order_id = $1`, orderID).Scan(&n); err != nil {
		return 0, fail("count order service events", err)
	}
	return n, nil
}

// Delete elimina el evento; los ítems caen por ON DELETE CASCADE.
func (r *ServiceEventRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM service_events WHERE id = $1`, id)
	if err != nil {
		return fail("delete service event", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("evento de servicio", id)
	}
	return nil
}

func (r *ServiceEventRepo) loadItems(ctx context.Context, events []*entity.ServiceEvent) error {
	if len(events) == 0 {
		return nil
	}
	byID := make(map[string]*entity.ServiceEvent, len(events))
	ids := make([]string, 0, len(events))
	for _, e := range events {
		byID[e.ID] = e
		ids = append(ids, e.ID)
	}
	rows, err := r.q.Query(ctx, `
		SELECT service_event_id, product_id, quantity, is_primary, movement_id
		FROM service_event_items
		WHERE service_event_id = ANY($1)
		ORDER BY service_event_id, position`, ids)
	if err != nil {
		return fail("list service event items", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			eventID string
			it      entity.ServiceItem
		)
		if err := rows.Scan(&eventID, &it.ProductID, &it.Quantity, &it.Primary, &it.MovementID); err != nil {
			return fail("scan service event item", err)
		}
		if e := byID[eventID]; e != nil {
			e.Items = append(e.Items, it)
		}
	}
	if err := rows.Err(); err != nil {
		return fail("list service event items", err)
	}
	return nil
}

func scanServiceEvent(row pgxScanner) (*entity.ServiceEvent, error) {
	var (
		e       entity.ServiceEvent
		orderID *string
	)
	err := row.Scan(
		&e.ID, &e.Kind, &e.VehicleID, &orderID, &e.PerformedAt, &e.Actor, &e.Reading, &e.NextDue,
		&e.MeasurementKind, &e.Checklist, &e.Notes, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.OrderID = deref(orderID)
	return &e, nil
}
