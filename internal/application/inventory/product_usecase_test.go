package inventory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Flota-api/internal/application/inventory"
	"github.com/jhoicas/Flota-api/internal/domain"
	"github.com/jhoicas/Flota-api/internal/domain/entity"
)

func TestCreateProduct_ConExistenciaInicial(t *testing.T) {
	uc, store, pub := newLedger(t, "0")
	ctx := context.Background()

	p, err := uc.CreateProduct(ctx, inventory.CreateProductInput{
		ID:           "FIL-AIRE",
		Name:         " Filtro de aire ",
		Category:     "Filtros",
		UnitMeasure:  "und",
		InitialStock: dec("6"),
		Actor:        "emp-bodega",
	})
	require.NoError(t, err)
	assert.Equal(t, "Filtro de aire", p.Name)
	assert.Equal(t, "UND", p.UnitMeasure)
	assert.True(t, dec("6").Equal(onHand(t, store, "FIL-AIRE")))

	movs, err := uc.ListMovements(ctx, "FIL-AIRE", 10, 0)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementEntry, movs[0].Kind)
	assert.Equal(t, "inventario inicial", movs[0].Origin.Reference)
	require.Len(t, pub.events, 1)
}

func TestCreateProduct_SinExistenciaNoCreaMovimiento(t *testing.T) {
	uc, _, pub := newLedger(t, "0")
	p, err := uc.CreateProduct(context.Background(), inventory.CreateProductInput{Name: "Grasa multipropósito"})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.True(t, p.OnHand.IsZero())
	assert.Empty(t, pub.events)
}

func TestCreateProduct_DuplicadoYValidacion(t *testing.T) {
	uc, _, _ := newLedger(t, "0")
	ctx := context.Background()

	_, err := uc.CreateProduct(ctx, inventory.CreateProductInput{ID: "p-aceite", Name: "Otro aceite"})
	assert.True(t, errors.Is(err, domain.ErrConflict))

	_, err = uc.CreateProduct(ctx, inventory.CreateProductInput{Name: "  "})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = uc.CreateProduct(ctx, inventory.CreateProductInput{Name: "Refrigerante", InitialStock: dec("-1")})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}
