package repository

import (
	"context"

	"github.com/jhoicas/Flota-api/internal/domain/entity"
)

// ServiceEventRepository define el puerto de persistencia para cambios de aceite y mantenimientos.
type ServiceEventRepository interface {
	Create(ctx context.Context, event *entity.ServiceEvent) error
	// GetForUpdate bloquea el evento para que dos eliminaciones concurrentes no reviertan dos veces.
	GetForUpdate(ctx context.Context, id string) (*entity.ServiceEvent, error)
	ListByVehicle(ctx context.Context, vehicleID string, limit, offset int) ([]*entity.ServiceEvent, error)
	// LatestByVehicle último evento del tipo dado (por fecha de realización), nil si no hay.
	LatestByVehicle(ctx context.Context, vehicleID, kind string) (*entity.ServiceEvent, error)
	CountByOrder(ctx context.Context, orderID string) (int, error)
	Delete(ctx context.Context, id string) error
}
