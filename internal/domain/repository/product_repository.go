package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Flota-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product.
// OnHand solo se modifica con Decrement/Increment, siempre dentro de una transacción del libro.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	Create(ctx context.Context, product *entity.Product) error
	// Decrement resta qty solo si la existencia alcanza (actualización condicional atómica).
	// Devuelve ok=false sin modificar nada cuando no alcanza.
	Decrement(ctx context.Context, productID string, qty decimal.Decimal) (onHand decimal.Decimal, ok bool, err error)
	Increment(ctx context.Context, productID string, qty decimal.Decimal) (onHand decimal.Decimal, err error)
}
