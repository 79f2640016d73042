package repository

import (
	"context"

	"github.com/jhoicas/Flota-api/internal/domain/entity"
)

// MaintenanceOrderRepository define el puerto de persistencia de órdenes y su historial.
type MaintenanceOrderRepository interface {
	Create(ctx context.Context, order *entity.MaintenanceOrder) error
	GetByID(ctx context.Context, id string) (*entity.MaintenanceOrder, error)
	// GetForUpdate bloquea la fila de la orden: serializa las transiciones por orden.
	GetForUpdate(ctx context.Context, id string) (*entity.MaintenanceOrder, error)
	UpdateStatus(ctx context.Context, order *entity.MaintenanceOrder) error
	List(ctx context.Context, status entity.OrderStatus, limit, offset int) ([]*entity.MaintenanceOrder, error)
	Delete(ctx context.Context, id string) error
}

// StatusHistoryRepository historial append-only de transiciones.
type StatusHistoryRepository interface {
	Append(ctx context.Context, entry *entity.StatusHistoryEntry) error
	ListByOrder(ctx context.Context, orderID string) ([]*entity.StatusHistoryEntry, error)
	DeleteByOrder(ctx context.Context, orderID string) error
}
