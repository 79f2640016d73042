package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Flota-api/internal/application/ports"
	"github.com/jhoicas/Flota-api/internal/domain"
	"github.com/jhoicas/Flota-api/internal/domain/entity"
)

// MovementInput entrada para una entrada o salida del libro.
type MovementInput struct {
	ProductID string
	Quantity  decimal.Decimal
	Origin    entity.Origin
	Actor     string
	At        time.Time // cero = ahora
}

func (in MovementInput) validate() error {
	if in.ProductID == "" {
		return domain.NewValidationError("product_id", "requerido")
	}
	if !in.Quantity.IsPositive() {
		return domain.NewValidationError("quantity", "debe ser mayor que cero")
	}
	if !entity.FitsPlaces(in.Quantity, entity.QuantityPlaces) {
		return domain.NewValidationError("quantity", "admite como máximo 3 decimales")
	}
	return nil
}

// Posting resultado de aplicar un movimiento: el movimiento creado y la existencia resultante.
type Posting struct {
	Movement *entity.StockMovement
	OnHand   decimal.Decimal
}

// StockChangedPayload cuerpo del evento stock.changed.
type StockChangedPayload struct {
	ProductID  string          `json:"product_id"`
	MovementID string          `json:"movement_id"`
	Kind       string          `json:"kind"`
	Quantity   decimal.Decimal `json:"quantity"`
	OnHand     decimal.Decimal `json:"on_hand"`
	ReversalOf string          `json:"reversal_of,omitempty"`
	OrderID    string          `json:"order_id,omitempty"`
	ServiceID  string          `json:"service_event_id,omitempty"`
}

// Event evento stock.changed del posting.
func (p Posting) Event() ports.Event {
	m := p.Movement
	return ports.Event{
		Type:       ports.EventStockChanged,
		Key:        m.ProductID,
		OccurredAt: m.OccurredAt,
		Payload: StockChangedPayload{
			ProductID:  m.ProductID,
			MovementID: m.ID,
			Kind:       m.Kind,
			Quantity:   m.Quantity,
			OnHand:     p.OnHand,
			ReversalOf: m.ReversalOf,
			OrderID:    m.Origin.OrderID,
			ServiceID:  m.Origin.ServiceEventID,
		},
	}
}

// Events convierte una lista de postings en eventos.
func Events(postings []Posting) []ports.Event {
	out := make([]ports.Event, 0, len(postings))
	for _, p := range postings {
		out = append(out, p.Event())
	}
	return out
}

// RecordExitInTx descuenta la existencia y registra la salida usando los repositorios del caller
// (misma transacción). La resta es condicional: si la existencia no alcanza devuelve
// *domain.InsufficientStockError sin tocar nada y el caller debe hacer rollback.
func (uc *LedgerUseCase) RecordExitInTx(ctx context.Context, r ports.Repositories, in MovementInput) (Posting, error) {
	if err := in.validate(); err != nil {
		return Posting{}, err
	}
	onHand, ok, err := r.Products.Decrement(ctx, in.ProductID, in.Quantity)
	if err != nil {
		return Posting{}, err
	}
	if !ok {
		return Posting{}, insufficient(ctx, r, in.ProductID, in.Quantity)
	}
	mov := newMovement(in, entity.MovementExit)
	if err := r.Movements.Create(ctx, mov); err != nil {
		return Posting{}, err
	}
	return Posting{Movement: mov, OnHand: onHand}, nil
}

// RecordEntryInTx suma la existencia y registra la entrada en la transacción del caller.
func (uc *LedgerUseCase) RecordEntryInTx(ctx context.Context, r ports.Repositories, in MovementInput) (Posting, error) {
	if err := in.validate(); err != nil {
		return Posting{}, err
	}
	product, err := r.Products.GetByID(ctx, in.ProductID)
	if err != nil {
		return Posting{}, err
	}
	if product == nil {
		return Posting{}, domain.NewNotFoundError("producto", in.ProductID)
	}
	onHand, err := r.Products.Increment(ctx, in.ProductID, in.Quantity)
	if err != nil {
		return Posting{}, err
	}
	mov := newMovement(in, entity.MovementEntry)
	if err := r.Movements.Create(ctx, mov); err != nil {
		return Posting{}, err
	}
	return Posting{Movement: mov, OnHand: onHand}, nil
}

// ReverseInTx crea el movimiento compensatorio de movementID: bloquea el original, falla con
// *domain.AlreadyReversedError si ya fue revertido, aplica la cantidad inversa y lo marca revertido.
func (uc *LedgerUseCase) ReverseInTx(ctx context.Context, r ports.Repositories, movementID, actor string) (Posting, error) {
	orig, err := r.Movements.GetForUpdate(ctx, movementID)
	if err != nil {
		return Posting{}, err
	}
	if orig == nil {
		return Posting{}, domain.NewNotFoundError("movimiento", movementID)
	}
	if orig.Reversed {
		return Posting{}, &domain.AlreadyReversedError{MovementID: orig.ID}
	}
	if orig.ReversalOf != "" {
		return Posting{}, domain.NewValidationError("movement_id", "un movimiento compensatorio no se revierte")
	}

	in := MovementInput{
		ProductID: orig.ProductID,
		Quantity:  orig.Quantity,
		Origin:    orig.Origin,
		Actor:     actor,
	}
	in.Origin.Reference = "reversión de " + orig.ID

	var onHand decimal.Decimal
	if orig.Kind == entity.MovementExit {
		onHand, err = r.Products.Increment(ctx, orig.ProductID, orig.Quantity)
		if err != nil {
			return Posting{}, err
		}
	} else {
		var ok bool
		onHand, ok, err = r.Products.Decrement(ctx, orig.ProductID, orig.Quantity)
		if err != nil {
			return Posting{}, err
		}
		if !ok {
			return Posting{}, insufficient(ctx, r, orig.ProductID, orig.Quantity)
		}
	}

	mov := newMovement(in, orig.OppositeKind())
	mov.ReversalOf = orig.ID
	if err := r.Movements.Create(ctx, mov); err != nil {
		return Posting{}, err
	}
	if err := r.Movements.MarkReversed(ctx, orig.ID); err != nil {
		return Posting{}, err
	}
	orig.Reversed = true
	return Posting{Movement: mov, OnHand: onHand}, nil
}

func newMovement(in MovementInput, kind string) *entity.StockMovement {
	at := in.At
	if at.IsZero() {
		at = time.Now()
	}
	return &entity.StockMovement{
		ID:         uuid.New().String(),
		ProductID:  in.ProductID,
		Kind:       kind,
		Quantity:   in.Quantity,
		OccurredAt: at,
		Origin:     in.Origin,
		CreatedBy:  in.Actor,
	}
}

// insufficient arma el error con la existencia vigente, o NotFound si el producto no existe.
func insufficient(ctx context.Context, r ports.Repositories, productID string, requested decimal.Decimal) error {
	product, err := r.Products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return domain.NewNotFoundError("producto", productID)
	}
	return &domain.InsufficientStockError{
		ProductID:   product.ID,
		ProductName: product.Name,
		Requested:   requested,
		Available:   product.OnHand,
	}
}
