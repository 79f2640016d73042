package orders

import (
	"context"

	"github.com/jhoicas/Flota-api/internal/application/inventory"
	"github.com/jhoicas/Flota-api/internal/application/measurement"
	"github.com/jhoicas/Flota-api/internal/application/ports"
)

// Ledger operaciones del libro de inventario que las órdenes componen en su transacción.
// Lo implementa *inventory.LedgerUseCase.
type Ledger interface {
	RecordExitInTx(ctx context.Context, r ports.Repositories, in inventory.MovementInput) (inventory.Posting, error)
}

// MeasurementTracker actualización de lecturas ligada a la apertura/eliminación de órdenes.
// Lo implementa *measurement.Tracker.
type MeasurementTracker interface {
	ApplyInTx(ctx context.Context, r ports.Repositories, u measurement.Update) (measurement.Result, error)
	RevertSourceInTx(ctx context.Context, r ports.Repositories, sourceType, sourceID string, dropHistory bool) ([]ports.Event, error)
}
