package servicing

import (
	"context"

	"github.com/jhoicas/Flota-api/internal/application/inventory"
	"github.com/jhoicas/Flota-api/internal/application/measurement"
	"github.com/jhoicas/Flota-api/internal/application/ports"
)

// Ledger salidas y reversiones del libro de inventario dentro de la transacción del evento.
type Ledger interface {
	RecordExitInTx(ctx context.Context, r ports.Repositories, in inventory.MovementInput) (inventory.Posting, error)
	ReverseInTx(ctx context.Context, r ports.Repositories, movementID, actor string) (inventory.Posting, error)
}

// MeasurementTracker lectura del vehículo actualizada o revertida por el evento.
type MeasurementTracker interface {
	ApplyInTx(ctx context.Context, r ports.Repositories, u measurement.Update) (measurement.Result, error)
	RevertSourceInTx(ctx context.Context, r ports.Repositories, sourceType, sourceID string, dropHistory bool) ([]ports.Event, error)
}
