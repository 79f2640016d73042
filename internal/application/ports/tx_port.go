package ports

import (
	"context"

	"github.com/jhoicas/Flota-api/internal/domain/repository"
)

// Repositories repositorios atados a una misma transacción.
type Repositories struct {
	Products      repository.ProductRepository
	Movements     repository.StockMovementRepository
	Orders        repository.MaintenanceOrderRepository
	History       repository.StatusHistoryRepository
	ServiceEvents repository.ServiceEventRepository
	Measurements  repository.VehicleMeasurementRepository
}

// TxRunner ejecuta fn dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error (o el contexto se cancela) se hace Rollback; si no, Commit.
// Toda operación de varios pasos del núcleo (libro, órdenes, servicios) pasa por aquí.
type TxRunner interface {
	Run(ctx context.Context, fn func(r Repositories) error) error
}
