package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Flota-api/internal/domain"
	"github.com/jhoicas/Flota-api/internal/domain/entity"
	"github.com/jhoicas/Flota-api/internal/domain/repository"
)

var (
	_ repository.ProductRepository            = (*ProductRepo)(nil)
	_ repository.StockMovementRepository      = (*MovementRepo)(nil)
	_ repository.MaintenanceOrderRepository   = (*OrderRepo)(nil)
	_ repository.StatusHistoryRepository      = (*HistoryRepo)(nil)
	_ repository.ServiceEventRepository       = (*ServiceEventRepo)(nil)
	_ repository.VehicleMeasurementRepository = (*MeasurementRepo)(nil)
	_ repository.VehicleRepository            = (*VehicleRepo)(nil)
	_ repository.EmployeeRepository           = (*EmployeeRepo)(nil)
)

// ProductRepo productos en memoria.
type ProductRepo struct{ a access }

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.a.read(func(st *state) error {
		p, _ := find(st.products, func(p *entity.Product) bool { return p.ID == id })
		out = copyOf(p)
		return nil
	})
	return out, err
}

func (r *ProductRepo) Create(_ context.Context, product *entity.Product) error {
	return r.a.write("products.create", func(st *state) error {
		if p, _ := find(st.products, func(p *entity.Product) bool { return p.ID == product.ID }); p != nil {
			return &domain.ConflictError{Reason: "producto duplicado: " + product.ID}
		}
		st.products = append(st.products, copyOf(product))
		return nil
	})
}

func (r *ProductRepo) Decrement(_ context.Context, productID string, qty decimal.Decimal) (decimal.Decimal, bool, error) {
	var (
		onHand decimal.Decimal
		ok     bool
	)
	err := r.a.write("products.decrement", func(st *state) error {
		p, _ := find(st.products, func(p *entity.Product) bool { return p.ID == productID })
		if p == nil || p.OnHand.LessThan(qty) {
			return nil
		}
		p.OnHand = p.OnHand.Sub(qty)
		onHand, ok = p.OnHand, true
		return nil
	})
	return onHand, ok, err
}

func (r *ProductRepo) Increment(_ context.Context, productID string, qty decimal.Decimal) (decimal.Decimal, error) {
	var onHand decimal.Decimal
	err := r.a.write("products.increment", func(st *state) error {
		p, _ := find(st.products, func(p *entity.Product) bool { return p.ID == productID })
		if p == nil {
			return domain.NewNotFoundError("producto", productID)
		}
		p.OnHand = p.OnHand.Add(qty)
		onHand = p.OnHand
		return nil
	})
	return onHand, err
}

// MovementRepo libro de movimientos en memoria (orden de inserción).
type MovementRepo struct{ a access }

func (r *MovementRepo) Create(_ context.Context, m *entity.StockMovement) error {
	return r.a.write("stock_movements.create", func(st *state) error {
		st.movements = append(st.movements, copyOf(m))
		return nil
	})
}

func (r *MovementRepo) GetForUpdate(_ context.Context, id string) (*entity.StockMovement, error) {
	var out *entity.StockMovement
	err := r.a.read(func(st *state) error {
		m, _ := find(st.movements, func(m *entity.StockMovement) bool { return m.ID == id })
		out = copyOf(m)
		return nil
	})
	return out, err
}

func (r *MovementRepo) MarkReversed(_ context.Context, id string) error {
	return r.a.write("stock_movements.mark_reversed", func(st *state) error {
		m, _ := find(st.movements, func(m *entity.StockMovement) bool { return m.ID == id })
		if m == nil {
			return domain.NewNotFoundError("movimiento", id)
		}
		m.Reversed = true
		return nil
	})
}

func (r *MovementRepo) ListByProduct(_ context.Context, productID string, limit, offset int) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	err := r.a.read(func(st *state) error {
		var list []*entity.StockMovement
		for i := len(st.movements) - 1; i >= 0; i-- {
			if st.movements[i].ProductID == productID {
				list = append(list, copyOf(st.movements[i]))
			}
		}
		sort.SliceStable(list, func(i, j int) bool { return list[i].OccurredAt.After(list[j].OccurredAt) })
		out = page(list, limit, offset)
		return nil
	})
	return out, err
}

func (r *MovementRepo) CountActiveExitsByOrder(_ context.Context, orderID string) (int, error) {
	n := 0
	err := r.a.read(func(st *state) error {
		for _, m := range st.movements {
			if m.Origin.OrderID == orderID && m.Kind == entity.MovementExit && !m.Reversed && m.ReversalOf == "" {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *MovementRepo) CountByOrder(_ context.Context, orderID string) (int, error) {
	n := 0
	err := r.a.read(func(st *state) error {
		for _, m := range st.movements {
			if m.Origin.OrderID == orderID {
				n++
			}
		}
		return nil
	})
	return n, err
}

// OrderRepo órdenes en memoria.
type OrderRepo struct{ a access }

func (r *OrderRepo) Create(_ context.Context, o *entity.MaintenanceOrder) error {
	return r.a.write("maintenance_orders.create", func(st *state) error {
		st.orders = append(st.orders, copyOf(o))
		return nil
	})
}

func (r *OrderRepo) GetByID(_ context.Context, id string) (*entity.MaintenanceOrder, error) {
	var out *entity.MaintenanceOrder
	err := r.a.read(func(st *state) error {
		o, _ := find(st.orders, func(o *entity.MaintenanceOrder) bool { return o.ID == id })
		out = copyOf(o)
		return nil
	})
	return out, err
}

// GetForUpdate en memoria la transacción completa ya es exclusiva.
func (r *OrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.MaintenanceOrder, error) {
	return r.GetByID(ctx, id)
}

func (r *OrderRepo) UpdateStatus(_ context.Context, o *entity.MaintenanceOrder) error {
	return r.a.write("maintenance_orders.update_status", func(st *state) error {
		cur, _ := find(st.orders, func(x *entity.MaintenanceOrder) bool { return x.ID == o.ID })
		if cur == nil {
			return domain.NewNotFoundError("orden", o.ID)
		}
		cur.Status, cur.SubStatus, cur.UpdatedAt = o.Status, o.SubStatus, o.UpdatedAt
		return nil
	})
}

func (r *OrderRepo) List(_ context.Context, status entity.OrderStatus, limit, offset int) ([]*entity.MaintenanceOrder, error) {
	var out []*entity.MaintenanceOrder
	err := r.a.read(func(st *state) error {
		var list []*entity.MaintenanceOrder
		for i := len(st.orders) - 1; i >= 0; i-- {
			if status == "" || st.orders[i].Status == status {
				list = append(list, copyOf(st.orders[i]))
			}
		}
		out = page(list, limit, offset)
		return nil
	})
	return out, err
}

func (r *OrderRepo) Delete(_ context.Context, id string) error {
	return r.a.write("maintenance_orders.delete", func(st *state) error {
		_, i := find(st.orders, func(o *entity.MaintenanceOrder) bool { return o.ID == id })
		if i >= 0 {
			st.orders = remove(st.orders, i)
		}
		return nil
	})
}

// HistoryRepo historial de estados en memoria.
type HistoryRepo struct{ a access }

func (r *HistoryRepo) Append(_ context.Context, e *entity.StatusHistoryEntry) error {
	return r.a.write("order_status_history.append", func(st *state) error {
		st.history = append(st.history, copyOf(e))
		return nil
	})
}

func (r *HistoryRepo) ListByOrder(_ context.Context, orderID string) ([]*entity.StatusHistoryEntry, error) {
	var out []*entity.StatusHistoryEntry
	err := r.a.read(func(st *state) error {
		for _, e := range st.history {
			if e.OrderID == orderID {
				out = append(out, copyOf(e))
			}
		}
		return nil
	})
	return out, err
}

func (r *HistoryRepo) DeleteByOrder(_ context.Context, orderID string) error {
	return r.a.write("order_status_history.delete", func(st *state) error {
		kept := st.history[:0]
		for _, e := range st.history {
			if e.OrderID != orderID {
				kept = append(kept, e)
			}
		}
		st.history = kept
		return nil
	})
}

// ServiceEventRepo eventos de servicio en memoria.
type ServiceEventRepo struct{ a access }

func copyEvent(e *entity.ServiceEvent) *entity.ServiceEvent {
	if e == nil {
		return nil
	}
	c := *e
	c.Items = append([]entity.ServiceItem(nil), e.Items...)
	return &c
}

func (r *ServiceEventRepo) Create(_ context.Context, e *entity.ServiceEvent) error {
	return r.a.write("service_events.create", func(st *state) error {
		st.events = append(st.events, copyEvent(e))
		return nil
	})
}

func (r *ServiceEventRepo) GetForUpdate(_ context.Context, id string) (*entity.ServiceEvent, error) {
	var out *entity.ServiceEvent
	err := r.a.read(func(st *state) error {
		e, _ := find(st.events, func(e *entity.ServiceEvent) bool { return e.ID == id })
		out = copyEvent(e)
		return nil
	})
	return out, err
}

func (r *ServiceEventRepo) byVehicle(st *state, vehicleID, kind string) []*entity.ServiceEvent {
	var list []*entity.ServiceEvent
	for i := len(st.events) - 1; i >= 0; i-- {
		e := st.events[i]
		if e.VehicleID == vehicleID && (kind == "" || e.Kind == kind) {
			list = append(list, copyEvent(e))
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].PerformedAt.After(list[j].PerformedAt) })
	return list
}

func (r *ServiceEventRepo) ListByVehicle(_ context.Context, vehicleID string, limit, offset int) ([]*entity.ServiceEvent, error) {
	var out []*entity.ServiceEvent
	err := r.a.read(func(st *state) error {
		out = page(r.byVehicle(st, vehicleID, ""), limit, offset)
		return nil
	})
	return out, err
}

func (r *ServiceEventRepo) LatestByVehicle(_ context.Context, vehicleID, kind string) (*entity.ServiceEvent, error) {
	var out *entity.ServiceEvent
	err := r.a.read(func(st *state) error {
		if list := r.byVehicle(st, vehicleID, kind); len(list) > 0 {
			out = list[0]
		}
		return nil
	})
	return out, err
}

func (r *ServiceEventRepo) CountByOrder(_ context.Context, orderID string) (int, error) {
	n := 0
	err := r.a.read(func(st *state) error {
		for _, e := range st.events {
			if e.OrderID == orderID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *ServiceEventRepo) Delete(_ context.Context, id string) error {
	return r.a.write("service_events.delete", func(st *state) error {
		_, i := find(st.events, func(e *entity.ServiceEvent) bool { return e.ID == id })
		if i < 0 {
			return domain.NewNotFoundError("evento de servicio", id)
		}
		st.events = remove(st.events, i)
		return nil
	})
}

// MeasurementRepo lecturas e historial en memoria.
type MeasurementRepo struct{ a access }

func (r *MeasurementRepo) Get(_ context.Context, vehicleID string) (*entity.VehicleMeasurement, error) {
	var out *entity.VehicleMeasurement
	err := r.a.read(func(st *state) error {
		m, _ := find(st.measurements, func(m *entity.VehicleMeasurement) bool { return m.VehicleID == vehicleID })
		out = copyOf(m)
		return nil
	})
	return out, err
}

func (r *MeasurementRepo) GetForUpdate(ctx context.Context, vehicleID string) (*entity.VehicleMeasurement, error) {
	return r.Get(ctx, vehicleID)
}

func (r *MeasurementRepo) Upsert(_ context.Context, m *entity.VehicleMeasurement) error {
	return r.a.write("vehicle_measurements.upsert", func(st *state) error {
		cur, i := find(st.measurements, func(x *entity.VehicleMeasurement) bool { return x.VehicleID == m.VehicleID })
		if cur == nil {
			st.measurements = append(st.measurements, copyOf(m))
			return nil
		}
		st.measurements[i] = copyOf(m)
		return nil
	})
}

func (r *MeasurementRepo) AppendHistory(_ context.Context, e *entity.MeasurementHistoryEntry) error {
	return r.a.write("vehicle_measurement_history.append", func(st *state) error {
		st.mhistory = append(st.mhistory, copyOf(e))
		return nil
	})
}

func (r *MeasurementRepo) ListHistory(_ context.Context, vehicleID string, limit int) ([]*entity.MeasurementHistoryEntry, error) {
	var out []*entity.MeasurementHistoryEntry
	err := r.a.read(func(st *state) error {
		var list []*entity.MeasurementHistoryEntry
		for i := len(st.mhistory) - 1; i >= 0; i-- {
			if st.mhistory[i].VehicleID == vehicleID {
				list = append(list, copyOf(st.mhistory[i]))
			}
		}
		out = page(list, limit, 0)
		return nil
	})
	return out, err
}

func (r *MeasurementRepo) LatestHistory(ctx context.Context, vehicleID string) (*entity.MeasurementHistoryEntry, error) {
	list, err := r.ListHistory(ctx, vehicleID, 1)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

func (r *MeasurementRepo) ListHistoryBySource(_ context.Context, sourceType, sourceID string) ([]*entity.MeasurementHistoryEntry, error) {
	var out []*entity.MeasurementHistoryEntry
	err := r.a.read(func(st *state) error {
		for _, e := range st.mhistory {
			if e.SourceType == sourceType && e.SourceID == sourceID {
				out = append(out, copyOf(e))
			}
		}
		return nil
	})
	return out, err
}

func (r *MeasurementRepo) DeleteHistory(_ context.Context, id string) error {
	return r.a.write("vehicle_measurement_history.delete", func(st *state) error {
		_, i := find(st.mhistory, func(e *entity.MeasurementHistoryEntry) bool { return e.ID == id })
		if i >= 0 {
			st.mhistory = remove(st.mhistory, i)
		}
		return nil
	})
}

// VehicleRepo registro de vehículos en memoria (solo lectura para el núcleo).
type VehicleRepo struct{ a access }

func (r *VehicleRepo) GetByID(_ context.Context, id string) (*entity.Vehicle, error) {
	var out *entity.Vehicle
	err := r.a.read(func(st *state) error {
		v, _ := find(st.vehicles, func(v *entity.Vehicle) bool { return v.ID == id })
		out = copyOf(v)
		return nil
	})
	return out, err
}

// EmployeeRepo registro de empleados en memoria.
type EmployeeRepo struct{ a access }

func (r *EmployeeRepo) GetByID(_ context.Context, id string) (*entity.Employee, error) {
	var out *entity.Employee
	err := r.a.read(func(st *state) error {
		e, _ := find(st.employees, func(e *entity.Employee) bool { return e.ID == id })
		out = copyOf(e)
		return nil
	})
	return out, err
}
