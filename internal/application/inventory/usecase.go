package inventory

import (
	"context"

	"github.com/jhoicas/Flota-api/internal/application/ports"
	"github.com/jhoicas/Flota-api/internal/domain"
	"github.com/jhoicas/Flota-api/internal/domain/entity"
	"github.com/jhoicas/Flota-api/internal/domain/repository"
	"github.com/jhoicas/Flota-api/pkg/logger"
)

// LedgerUseCase libro de inventario: única puerta para modificar existencias.
// Cada operación es una mutación de Product.OnHand más una inserción de StockMovement
// en la misma transacción. Las variantes *InTx se componen dentro de transacciones
// de órdenes y eventos de servicio.
type LedgerUseCase struct {
	txRunner    ports.TxRunner
	productRepo repository.ProductRepository
	movRepo     repository.StockMovementRepository
	notifier    *ports.Notifier
	log         *logger.Logger
}

// NewLedgerUseCase construye el caso de uso.
func NewLedgerUseCase(
	txRunner ports.TxRunner,
	productRepo repository.ProductRepository,
	movRepo repository.StockMovementRepository,
	notifier *ports.Notifier,
	log *logger.Logger,
) *LedgerUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &LedgerUseCase{
		txRunner:    txRunner,
		productRepo: productRepo,
		movRepo:     movRepo,
		notifier:    notifier,
		log:         log.Component("ledger"),
	}
}

// RecordExit salida general de almacén (repuesto entregado a un solicitante o destino).
func (uc *LedgerUseCase) RecordExit(ctx context.Context, in MovementInput) (Posting, error) {
	return uc.post(ctx, func(r ports.Repositories) (Posting, error) {
		return uc.RecordExitInTx(ctx, r, in)
	})
}

// RecordEntry entrada de almacén (reposición).
func (uc *LedgerUseCase) RecordEntry(ctx context.Context, in MovementInput) (Posting, error) {
	return uc.post(ctx, func(r ports.Repositories) (Posting, error) {
		return uc.RecordEntryInTx(ctx, r, in)
	})
}

// Reverse corrección manual de un movimiento. Los consumos de eventos de servicio solo se
// devuelven eliminando el evento, para que exista un único camino de compensación por registro.
func (uc *LedgerUseCase) Reverse(ctx context.Context, movementID, actor string) (Posting, error) {
	return uc.post(ctx, func(r ports.Repositories) (Posting, error) {
		orig, err := r.Movements.GetForUpdate(ctx, movementID)
		if err != nil {
			return Posting{}, err
		}
		if orig != nil && orig.Origin.ServiceEventID != "" && orig.ReversalOf == "" && !orig.Reversed {
			return Posting{}, &domain.ConflictError{
				Reason: "el movimiento pertenece al evento de servicio " + orig.Origin.ServiceEventID + "; elimine el evento",
			}
		}
		return uc.ReverseInTx(ctx, r, movementID, actor)
	})
}

func (uc *LedgerUseCase) post(ctx context.Context, fn func(r ports.Repositories) (Posting, error)) (Posting, error) {
	var p Posting
	err := uc.txRunner.Run(ctx, func(r ports.Repositories) error {
		var err error
		p, err = fn(r)
		return err
	})
	if err != nil {
		return Posting{}, err
	}
	uc.log.Info().
		Str("product_id", p.Movement.ProductID).
		Str("movement_id", p.Movement.ID).
		Str("kind", p.Movement.Kind).
		Str("quantity", p.Movement.Quantity.String()).
		Str("on_hand", p.OnHand.String()).
		Msg("movimiento de inventario registrado")
	uc.notifier.Notify(ctx, p.Event())
	return p, nil
}

// GetProduct consulta de producto (nombre, categoría, unidad, existencia).
func (uc *LedgerUseCase) GetProduct(ctx context.Context, productID string) (*entity.Product, error) {
	p, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.NewNotFoundError("producto", productID)
	}
	return p, nil
}

// ListMovements kardex de un producto, más reciente primero.
func (uc *LedgerUseCase) ListMovements(ctx context.Context, productID string, limit, offset int) ([]*entity.StockMovement, error) {
	if _, err := uc.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	return uc.movRepo.ListByProduct(ctx, productID, limit, offset)
}
