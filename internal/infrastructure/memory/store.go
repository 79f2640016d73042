// Package memory implementa los puertos de persistencia en memoria con transacciones
// serializables: cada transacción trabaja sobre una copia del estado que solo reemplaza
// al original en el commit. Se usa con STORAGE_DRIVER=memory y como doble en tests.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/Flota-api/internal/application/ports"
	"github.com/jhoicas/Flota-api/internal/domain"
	"github.com/jhoicas/Flota-api/internal/domain/entity"
)

var _ ports.TxRunner = (*Store)(nil)

type state struct {
	products     []*entity.Product
	movements    []*entity.StockMovement
	orders       []*entity.MaintenanceOrder
	history      []*entity.StatusHistoryEntry
	events       []*entity.ServiceEvent
	measurements []*entity.VehicleMeasurement
	mhistory     []*entity.MeasurementHistoryEntry
	vehicles     []*entity.Vehicle
	employees    []*entity.Employee
}

func (s *state) clone() *state {
	return &state{
		products:     cloneAll(s.products),
		movements:    cloneAll(s.movements),
		orders:       cloneAll(s.orders),
		history:      cloneAll(s.history),
		events:       cloneEvents(s.events),
		measurements: cloneAll(s.measurements),
		mhistory:     cloneAll(s.mhistory),
		vehicles:     cloneAll(s.vehicles),
		employees:    cloneAll(s.employees),
	}
}

func cloneAll[T any](in []*T) []*T {
	out := make([]*T, len(in))
	for i, v := range in {
		c := *v
		out[i] = &c
	}
	return out
}

func cloneEvents(in []*entity.ServiceEvent) []*entity.ServiceEvent {
	out := cloneAll(in)
	for _, e := range out {
		e.Items = append([]entity.ServiceItem(nil), e.Items...)
	}
	return out
}

// Store almacenamiento en memoria. El cero no es utilizable: usar New.
type Store struct {
	mu     sync.RWMutex
	st     *state
	faults map[string]error
}

// New crea un almacenamiento vacío.
func New() *Store {
	return &Store{st: &state{}, faults: map[string]error{}}
}

// InjectFault hace que la operación op (p. ej. "service_events.create") falle con err
// dentro de transacciones. nil la desactiva.
func (s *Store) InjectFault(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = err
}

// Run ejecuta fn sobre una copia del estado. Las transacciones se serializan; la copia
// reemplaza al estado solo si fn termina sin error y el contexto sigue vigente.
func (s *Store) Run(ctx context.Context, fn func(r ports.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return domain.NewPersistenceError("begin transaction", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.st.clone()
	a := access{tx: tx, faults: s.faults}
	if err := fn(repositories(a)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return domain.NewPersistenceError("commit transaction", err)
	}
	s.st = tx
	return nil
}

func repositories(a access) ports.Repositories {
	return ports.Repositories{
		Products:      &ProductRepo{a},
		Movements:     &MovementRepo{a},
		Orders:        &OrderRepo{a},
		History:       &HistoryRepo{a},
		ServiceEvents: &ServiceEventRepo{a},
		Measurements:  &MeasurementRepo{a},
	}
}

// Repositorios fuera de transacción (lecturas y consultas de la capa HTTP).
func (s *Store) Products() *ProductRepo           { return &ProductRepo{access{store: s}} }
func (s *Store) Movements() *MovementRepo         { return &MovementRepo{access{store: s}} }
func (s *Store) Orders() *OrderRepo               { return &OrderRepo{access{store: s}} }
func (s *Store) History() *HistoryRepo            { return &HistoryRepo{access{store: s}} }
func (s *Store) ServiceEvents() *ServiceEventRepo { return &ServiceEventRepo{access{store: s}} }
func (s *Store) Measurements() *MeasurementRepo   { return &MeasurementRepo{access{store: s}} }
func (s *Store) Vehicles() *VehicleRepo           { return &VehicleRepo{access{store: s}} }
func (s *Store) Employees() *EmployeeRepo         { return &EmployeeRepo{access{store: s}} }

// SeedProduct carga un producto (datos de arranque o fixtures).
func (s *Store) SeedProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.products = append(s.st.products, &p)
}

// SeedVehicle carga un vehículo del registro externo.
func (s *Store) SeedVehicle(v entity.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.vehicles = append(s.st.vehicles, &v)
}

// SeedEmployee carga un empleado del registro externo.
func (s *Store) SeedEmployee(e entity.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.employees = append(s.st.employees, &e)
}

// access resuelve el estado a usar: el de la transacción, o el del store con su lock.
type access struct {
	store  *Store
	tx     *state
	faults map[string]error
}

func (a access) read(fn func(st *state) error) error {
	if a.tx != nil {
		return fn(a.tx)
	}
	a.store.mu.RLock()
	defer a.store.mu.RUnlock()
	return fn(a.store.st)
}

func (a access) write(op string, fn func(st *state) error) error {
	if a.tx != nil {
		if err := a.faults[op]; err != nil {
			return domain.NewPersistenceError(op, err)
		}
		return fn(a.tx)
	}
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	return fn(a.store.st)
}

func find[T any](list []*T, match func(*T) bool) (*T, int) {
	for i, v := range list {
		if match(v) {
			return v, i
		}
	}
	return nil, -1
}

func copyOf[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func remove[T any](list []*T, i int) []*T {
	return append(list[:i], list[i+1:]...)
}

func page[T any](list []*T, limit, offset int) []*T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
