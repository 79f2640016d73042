package postgres

import (
	"context"

	"github.com/jhoicas/Flota-api/internal/domain/entity"
	"github.com/jhoicas/Flota-api/internal/domain/repository"
)

var _ repository.StatusHistoryRepository = (*StatusHistoryRepo)(nil)

// StatusHistoryRepo historial de transiciones (append-only) sobre PostgreSQL.
type StatusHistoryRepo struct {
	q Querier
}

// NewStatusHistoryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStatusHistoryRepository(q Querier) *StatusHistoryRepo {
	return &StatusHistoryRepo{q: q}
}

func (r *StatusHistoryRepo) Append(ctx context.Context, e *entity.StatusHistoryEntry) error {
	query := `
		INSERT INTO order_status_history
			(id, order_id, previous_status, new_status, previous_sub_status, new_sub_status, note, actor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		e.ID, e.OrderID, e.PreviousStatus, e.NewStatus, e.PreviousSubStatus, e.NewSubStatus,
		e.Note, e.Actor, e.CreatedAt,
	)
	if err != nil {
		return fail("insert order status history", err)
	}
	return nil
}

// ListByOrder historial en orden cronológico.
func (r *StatusHistoryRepo) ListByOrder(ctx context.Context, orderID string) ([]*entity.StatusHistoryEntry, error) {
	query := `
		SELECT id, order_id, previous_status, new_status, previous_sub_status, new_sub_status, note, actor, created_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY seq`
	rows, err := r.q.Query(ctx, query, orderID)
	if err != nil {
		return nil, fail("list order status history", err)
	}
	defer rows.Close()
	var list []*entity.StatusHistoryEntry
	for rows.Next() {
		var e entity.StatusHistoryEntry
		if err := rows.Scan(&e.ID, &e.OrderID, &e.PreviousStatus, &e.NewStatus, &e.PreviousSubStatus,
			&e.NewSubStatus, &e.Note, &e.Actor, &e.CreatedAt); err != nil {
			return nil, fail("scan order status history", err)
		}
		list = append(list, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fail("list order status history", err)
	}
	return list, nil
}

// DeleteByOrder solo se usa al eliminar la orden.
func (r *StatusHistoryRepo) DeleteByOrder(ctx context.Context, orderID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM order_status_history WHERE order_id = $1`, orderID); err != nil {
		return fail("delete order status history", err)
	}
	return nil
}
