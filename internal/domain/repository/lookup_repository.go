package repository

import (
	"context"

	"github.com/jhoicas/Flota-api/internal/domain/entity"
)

// VehicleRepository consulta de solo lectura al registro de vehículos.
type VehicleRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Vehicle, error)
}

// EmployeeRepository consulta de solo lectura al registro de empleados.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Employee, error)
}
