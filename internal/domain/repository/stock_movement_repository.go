package repository

import (
	"context"

	"github.com/jhoicas/Flota-api/internal/domain/entity"
)

// StockMovementRepository define el puerto de persistencia del libro de movimientos.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	// GetForUpdate bloquea el movimiento (SELECT FOR UPDATE) para marcar la reversión sin carreras.
	GetForUpdate(ctx context.Context, id string) (*entity.StockMovement, error)
	MarkReversed(ctx context.Context, id string) error
	ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.StockMovement, error)
	// CountActiveExitsByOrder salidas no revertidas ligadas a la orden (consumos atendidos).
	CountActiveExitsByOrder(ctx context.Context, orderID string) (int, error)
	CountByOrder(ctx context.Context, orderID string) (int, error)
}
