package main

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Flota-api/internal/application/inventory"
	"github.com/jhoicas/Flota-api/internal/domain/entity"
	"github.com/jhoicas/Flota-api/internal/infrastructure/memory"
)

func TestSeedDemoStock_ExistenciaRespaldadaPorEntradas(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	seedDemo(mem)
	ledger := inventory.NewLedgerUseCase(mem, mem.Products(), mem.Movements(), nil, nil)

	require.NoError(t, seedDemoStock(ctx, ledger))

	for _, id := range []string{"prd-001", "prd-002", "prd-003"} {
		p, err := ledger.GetProduct(ctx, id)
		require.NoError(t, err)

		movs, err := ledger.ListMovements(ctx, id, 0, 0)
		require.NoError(t, err)
		require.Len(t, movs, 1, id)
		assert.Equal(t, entity.MovementEntry, movs[0].Kind)
		assert.True(t, p.OnHand.Equal(movs[0].Quantity), id)
		assert.True(t, p.OnHand.GreaterThan(decimal.Zero), id)
	}
}
