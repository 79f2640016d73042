package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Flota-api/internal/domain/entity"
	"github.com/jhoicas/Flota-api/internal/domain/repository"
)

var (
	_ repository.VehicleRepository  = (*VehicleRepo)(nil)
	_ repository.EmployeeRepository = (*EmployeeRepo)(nil)
)

// VehicleRepo consulta al registro de vehículos.
type VehicleRepo struct {
	q Querier
}

// NewVehicleRepository construye el adaptador.
func NewVehicleRepository(q Querier) *VehicleRepo {
	return &VehicleRepo{q: q}
}

func (r *VehicleRepo) GetByID(ctx context.Context, id string) (*entity.Vehicle, error) {
	var v entity.Vehicle
	err := r.q.QueryRow(ctx,
		`SELECT id, plate, measurement_kind, current_reading, service_interval FROM vehicles WHERE id = $1`, id,
	).Scan(&v.ID, &v.Plate, &v.MeasurementKind, &v.CurrentReading, &v.ServiceInterval)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fail("get vehicle", err)
	}
	return &v, nil
}

// EmployeeRepo consulta al registro de empleados.
type EmployeeRepo struct {
	q Querier
}

// NewEmployeeRepository construye el adaptador.
func NewEmployeeRepository(q Querier) *EmployeeRepo {
	return &EmployeeRepo{q: q}
}

func (r *EmployeeRepo) GetByID(ctx context.Context, id string) (*entity.Employee, error) {
	var e entity.Employee
	err := r.q.QueryRow(ctx, `SELECT id, name, role, active FROM employees WHERE id = $1`, id).
		Scan(&e.ID, &e.Name, &e.Role, &e.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fail("get employee", err)
	}
	return &e, nil
}
