package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Flota-api/internal/application/ports"
	"github.com/jhoicas/Flota-api/internal/domain"
	"github.com/jhoicas/Flota-api/internal/domain/entity"
)

// CreateProductInput alta de un repuesto o insumo. ID vacío genera uno nuevo; si viene, es el
// código del catálogo de bodega. InitialStock entra como movimiento de entrada.
type CreateProductInput struct {
	ID           string
	Name         string
	Category     string
	UnitMeasure  string
	InitialStock decimal.Decimal
	Actor        string
}

// CreateProduct registra el producto con existencia cero y, si hay existencia inicial, la
// entrada correspondiente en la misma transacción.
func (uc *LedgerUseCase) CreateProduct(ctx context.Context, in CreateProductInput) (*entity.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, domain.NewValidationError("name", "requerido")
	}
	if in.InitialStock.IsNegative() {
		return nil, domain.NewValidationError("initial_stock", "no puede ser negativa")
	}
	if in.UnitMeasure == "" {
		in.UnitMeasure = "UND"
	}
	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now()
	product := &entity.Product{
		ID:          id,
		Name:        in.Name,
		Category:    strings.TrimSpace(in.Category),
		UnitMeasure: strings.ToUpper(strings.TrimSpace(in.UnitMeasure)),
		OnHand:      decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var posting *Posting
	err := uc.txRunner.Run(ctx, func(r ports.Repositories) error {
		if err := r.Products.Create(ctx, product); err != nil {
			return err
		}
		if !in.InitialStock.IsPositive() {
			return nil
		}
		p, err := uc.RecordEntryInTx(ctx, r, MovementInput{
			ProductID: product.ID,
			Quantity:  in.InitialStock,
			Origin:    entity.Origin{Reference: "inventario inicial"},
			Actor:     in.Actor,
			At:        now,
		})
		if err != nil {
			return err
		}
		posting = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("product_id", product.ID).Str("name", product.Name).Msg("producto registrado")
	if posting != nil {
		product.OnHand = posting.OnHand
		uc.notifier.Notify(ctx, posting.Event())
	}
	return product, nil
}
