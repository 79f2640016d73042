package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Flota-api/internal/domain"
	"github.com/jhoicas/Flota-api/internal/domain/entity"
	"github.com/jhoicas/Flota-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo libro de movimientos sobre PostgreSQL (usable con pool o tx).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `id, product_id, kind, quantity, occurred_at, reference, order_id, service_event_id, reversal_of, reversed, created_by`

// Create persiste un movimiento.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	query := `INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.ProductID, m.Kind, m.Quantity, m.OccurredAt, m.Origin.Reference,
		nullable(m.Origin.OrderID), nullable(m.Origin.ServiceEventID), nullable(m.ReversalOf),
		m.Reversed, m.CreatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// reversal_of es único: otra transacción ya compensó el mismo movimiento.
			return &domain.AlreadyReversedError{MovementID: m.ReversalOf}
		}
		return fail("insert stock movement", err)
	}
	return nil
}

// GetForUpdate obtiene el movimiento y bloquea la fila (SELECT FOR UPDATE).
func (r *StockMovementRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE id = $1 FOR UPDATE`
	m, err := scanMovement(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fail("get stock movement for update", err)
	}
	return m, nil
}

// MarkReversed marca el movimiento original como compensado.
func (r *StockMovementRepo) MarkReversed(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `UPDATE stock_movements SET reversed = true WHERE id = $1 AND NOT reversed`, id)
	if err != nil {
		return fail("mark stock movement reversed", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.AlreadyReversedError{MovementID: id}
	}
	return nil
}

// ListByProduct movimientos del producto, más recientes primero.
func (r *StockMovementRepo) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements
		WHERE product_id = $1
		ORDER BY occurred_at DESC, id DESC
		LIMIT NULLIF($2::int, 0) OFFSET $3`
	rows, err := r.q.Query(ctx, query, productID, limit, offset)
	if err != nil {
		return nil, fail("list stock movements", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fail("scan stock movement", err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fail("list stock movements", err)
	}
	return list, nil
}

// CountActiveExitsByOrder salidas vigentes (no compensadas) que atienden la orden.
func (r *StockMovementRepo) CountActiveExitsByOrder(ctx context.Context, orderID string) (int, error) {
	query := `SELECT count(*) FROM stock_movements
		WHERE order_id = $1 AND kind = 'exit' AND NOT reversed AND reversal_of IS NULL`
	var n int
	if err := r.q.QueryRow(ctx, query, orderID).Scan(&n); err != nil {
		return 0, fail("count order exits", err)
	}
	return n, nil
}

// CountByOrder cualquier movimiento que referencie la orden.
func (r *StockMovementRepo) CountByOrder(ctx context.Context, orderID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM stock_movements WHERE order_id = $1`, orderID).Scan(&n); err != nil {
		return 0, fail("count order movements", err)
	}
	return n, nil
}

func scanMovement(row pgxScanner) (*entity.StockMovement, error) {
	var (
		m                            entity.StockMovement
		orderID, eventID, reversalOf *string
	)
	err := row.Scan(
		&m.ID, &m.ProductID, &m.Kind, &m.Quantity, &m.OccurredAt, &m.Origin.Reference,
		&orderID, &eventID, &reversalOf, &m.Reversed, &m.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	m.Origin.OrderID = deref(orderID)
	m.Origin.ServiceEventID = deref(eventID)
	m.ReversalOf = deref(reversalOf)
	return &m, nil
}
