package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Flota-api/internal/domain"
	"github.com/jhoicas/Flota-api/internal/domain/entity"
	"github.com/jhoicas/Flota-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un nuevo producto.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	query := `
		INSERT INTO products (id, name, category, unit_measure, on_hand, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		product.ID, product.Name, product.Category, product.UnitMeasure,
		product.OnHand, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ConflictError{Reason: "producto duplicado: " + product.ID}
		}
		return fail("insert product", err)
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	query := `
		SELECT id, name, category, unit_measure, on_hand, created_at, updated_at
		FROM products WHERE id = $1`
	var p entity.Product
	err := r.q.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Category, &p.UnitMeasure, &p.OnHand, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fail("get product", err)
	}
	return &p, nil
}

// Decrement resta qty en una sola sentencia condicional: dos salidas concurrentes nunca
// dejan la existencia negativa. Sin fila afectada devuelve ok=false.
func (r *ProductRepo) Decrement(ctx context.Context, productID string, qty decimal.Decimal) (decimal.Decimal, bool, error) {
	query := `
		UPDATE products SET on_hand = on_hand - $2, updated_at = now()
		WHERE id = $1 AND on_hand >= $2
		RETURNING on_hand`
	var onHand decimal.Decimal
	err := r.q.QueryRow(ctx, query, productID, qty).Scan(&onHand)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, fail("decrement product", err)
	}
	return onHand, true, nil
}

// Increment suma qty a la existencia.
func (r *ProductRepo) Increment(ctx context.Context, productID string, qty decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE products SET on_hand = on_hand + $2, updated_at = now()
		WHERE id = $1
		RETURNING on_hand`
	var onHand decimal.Decimal
	err := r.q.QueryRow(ctx, query, productID, qty).Scan(&onHand)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, domain.NewNotFoundError("producto", productID)
		}
		return decimal.Zero, fail("increment product", err)
	}
	return onHand, nil
}
