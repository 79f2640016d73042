package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Flota-api/internal/application/ports"
)

var _ ports.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción READ COMMITTED, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Las carreras se resuelven con bloqueos de fila (FOR UPDATE) y actualizaciones condicionales.
func (r *TxRunner) Run(ctx context.Context, fn func(repos ports.Repositories) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fail("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if err := fn(Repositories(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fail("commit transaction", err)
	}
	return nil
}

// Repositories construye el juego de repositorios sobre q (pool o tx).
func Repositories(q Querier) ports.Repositories {
	return ports.Repositories{
		Products:      NewProductRepository(q),
		Movements:     NewStockMovementRepository(q),
		Orders:        NewMaintenanceOrderRepository(q),
		History:       NewStatusHistoryRepository(q),
		ServiceEvents: NewServiceEventRepository(q),
		Measurements:  NewVehicleMeasurementRepository(q),
	}
}
