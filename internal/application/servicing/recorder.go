// Package servicing registra eventos de servicio (cambios de aceite y mantenimientos puntuales)
// que consumen inventario y actualizan la lectura del vehículo.
package servicing

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Flota-api/internal/application/inventory"
	"github.com/jhoicas/Flota-api/internal/application/measurement"
	"github.com/jhoicas/Flota-api/internal/application/ports"
	"github.com/jhoicas/Flota-api/internal/domain"
	"github.com/jhoicas/Flota-api/internal/domain/entity"
	"github.com/jhoicas/Flota-api/internal/domain/maintenance"
	"github.com/jhoicas/Flota-api/internal/domain/repository"
	"github.com/jhoicas/Flota-api/pkg/logger"
)

// Item repuesto consumido por el evento.
type Item struct {
	ProductID string
	Quantity  decimal.Decimal
}

// OilChangeInput datos de registro de un cambio de aceite.
type OilChangeInput struct {
	VehicleID        string
	OrderID          string
	Actor            string
	Reading          decimal.Decimal
	PerformedAt      time.Time // cero = ahora
	PrimaryProductID string
	PrimaryQuantity  decimal.Decimal
	Secondary        []Item
	Checklist        entity.OilChangeChecklist
	Notes            string
}

// MaintenanceInput datos de registro de un mantenimiento puntual.
type MaintenanceInput struct {
	VehicleID   string
	OrderID     string
	Actor       string
	Reading     decimal.Decimal
	PerformedAt time.Time
	Items       []Item
	Description string
}

// RecorderUseCase registra y elimina eventos de servicio de forma atómica.
type RecorderUseCase struct {
	txRunner  ports.TxRunner
	ledger    Ledger
	tracker   MeasurementTracker
	events    repository.ServiceEventRepository
	vehicles  repository.VehicleRepository
	readings  repository.VehicleMeasurementRepository
	intervals maintenance.Intervals
	notifier  *ports.Notifier
	log       *logger.Logger
}

// NewRecorderUseCase construye el caso de uso.
func NewRecorderUseCase(
	txRunner ports.TxRunner,
	ledger Ledger,
	tracker MeasurementTracker,
	events repository.ServiceEventRepository,
	vehicles repository.VehicleRepository,
	readings repository.VehicleMeasurementRepository,
	intervals maintenance.Intervals,
	notifier *ports.Notifier,
	log *logger.Logger,
) *RecorderUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &RecorderUseCase{
		txRunner:  txRunner,
		ledger:    ledger,
		tracker:   tracker,
		events:    events,
		vehicles:  vehicles,
		readings:  readings,
		intervals: intervals,
		notifier:  notifier,
		log:       log.Component("servicing"),
	}
}

// RegisterOilChange registra el cambio de aceite: valida, verifica existencias de todos los
// repuestos antes de mutar nada, calcula la próxima lectura de servicio y, en una sola
// transacción, descuenta cada repuesto, crea el evento y actualiza la lectura si es un nuevo máximo.
// Una lectura menor a la vigente del vehículo se rechaza con ValidationError.
func (uc *RecorderUseCase) RegisterOilChange(ctx context.Context, in OilChangeInput) (*entity.ServiceEvent, error) {
	if in.PrimaryProductID == "" {
		return nil, domain.NewValidationError("primary_product_id", "requerido")
	}
	if !in.PrimaryQuantity.IsPositive() {
		return nil, domain.NewValidationError("primary_quantity", "debe ser mayor que cero")
	}
	items := make([]entity.ServiceItem, 0, len(in.Secondary)+1)
	items = append(items, entity.ServiceItem{ProductID: in.PrimaryProductID, Quantity: in.PrimaryQuantity, Primary: true})
	for _, it := range in.Secondary {
		items = append(items, entity.ServiceItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	ev := &entity.ServiceEvent{
		Kind:        entity.ServiceOilChange,
		VehicleID:   in.VehicleID,
		OrderID:     in.OrderID,
		PerformedAt: in.PerformedAt,
		Actor:       in.Actor,
		Reading:     in.Reading,
		Items:       items,
		Checklist:   in.Checklist,
		Notes:       strings.TrimSpace(in.Notes),
	}
	return uc.register(ctx, ev)
}

// RegisterMaintenance registra un mantenimiento puntual que consume repuestos. No programa
// un próximo servicio.
func (uc *RecorderUseCase) RegisterMaintenance(ctx context.Context, in MaintenanceInput) (*entity.ServiceEvent, error) {
	if len(in.Items) == 0 {
		return nil, domain.NewValidationError("items", "agregue al menos un repuesto")
	}
	items := make([]entity.ServiceItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, entity.ServiceItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	ev := &entity.ServiceEvent{
		Kind:        entity.ServiceMaintenance,
		VehicleID:   in.VehicleID,
		OrderID:     in.OrderID,
		PerformedAt: in.PerformedAt,
		Actor:       in.Actor,
		Reading:     in.Reading,
		Items:       items,
		Notes:       strings.TrimSpace(in.Description),
	}
	return uc.register(ctx, ev)
}

func (uc *RecorderUseCase) register(ctx context.Context, ev *entity.ServiceEvent) (*entity.ServiceEvent, error) {
	if err := validateEvent(ev); err != nil {
		return nil, err
	}
	vehicle, err := uc.vehicles.GetByID(ctx, ev.VehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, domain.NewNotFoundError("vehículo", ev.VehicleID)
	}

	now := time.Now()
	ev.ID = uuid.New().String()
	ev.MeasurementKind = vehicle.MeasurementKind
	ev.CreatedAt = now
	if ev.PerformedAt.IsZero() {
		ev.PerformedAt = now
	}
	if ev.Kind == entity.ServiceOilChange {
		ev.NextDue = uc.intervals.NextDue(ev.Reading, vehicle.MeasurementKind, vehicle.ServiceInterval)
	}

	var events []ports.Event
	err = uc.txRunner.Run(ctx, func(r ports.Repositories) error {
		if ev.OrderID != "" {
			o, err := r.Orders.GetByID(ctx, ev.OrderID)
			if err != nil {
				return err
			}
			if o == nil || o.VehicleID != ev.VehicleID {
				return domain.NewNotFoundError("orden del vehículo", ev.OrderID)
			}
		}
		if err := checkStock(ctx, r, ev.Items); err != nil {
			return err
		}
		// Lectura menor a la vigente: ValidationError antes de tocar existencias.
		res, err := uc.tracker.ApplyInTx(ctx, r, measurement.Update{
			VehicleID:  vehicle.ID,
			Kind:       vehicle.MeasurementKind,
			Baseline:   vehicle.CurrentReading,
			Reading:    ev.Reading,
			Actor:      ev.Actor,
			Note:       kindLabel(ev.Kind),
			SourceType: entity.SourceServiceEvent,
			SourceID:   ev.ID,
		})
		if err != nil {
			return err
		}
		postings := make([]inventory.Posting, 0, len(ev.Items))
		for i := range ev.Items {
			it := &ev.Items[i]
			p, err := uc.ledger.RecordExitInTx(ctx, r, inventory.MovementInput{
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				Origin: entity.Origin{
					Reference:      kindLabel(ev.Kind) + " vehículo " + vehicle.Plate,
					OrderID:        ev.OrderID,
					ServiceEventID: ev.ID,
				},
				Actor: ev.Actor,
				At:    now,
			})
			if err != nil {
				return err
			}
			it.MovementID = p.Movement.ID
			postings = append(postings, p)
		}
		if err := r.ServiceEvents.Create(ctx, ev); err != nil {
			return err
		}
		events = append(inventory.Events(postings), res.Event()...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("service_event_id", ev.ID).
		Str("kind", ev.Kind).
		Str("vehicle_id", ev.VehicleID).
		Str("reading", ev.Reading.String()).
		Str("next_due", ev.NextDue.String()).
		Int("items", len(ev.Items)).
		Msg("evento de servicio registrado")
	events = append(events, ports.Event{Type: ports.EventServiceRegistered, Key: ev.VehicleID, OccurredAt: now, Payload: ev})
	uc.notifier.Notify(ctx, events...)
	return ev, nil
}

// DeleteServiceEvent elimina el evento devolviendo al inventario cada repuesto consumido (un
// movimiento compensatorio por salida original). Si la lectura del vehículo provino de este
// evento y no hay lecturas posteriores, vuelve al valor previo. Todo o nada.
func (uc *RecorderUseCase) DeleteServiceEvent(ctx context.Context, eventID, actor string) error {
	if eventID == "" {
		return domain.NewValidationError("event_id", "requerido")
	}
	if actor == "" {
		return domain.NewValidationError("actor", "requerido")
	}
	var (
		ev     *entity.ServiceEvent
		events []ports.Event
	)
	err := uc.txRunner.Run(ctx, func(r ports.Repositories) error {
		var err error
		ev, err = r.ServiceEvents.GetForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if ev == nil {
			return domain.NewNotFoundError("evento de servicio", eventID)
		}
		postings := make([]inventory.Posting, 0, len(ev.Items))
		for _, it := range ev.Items {
			p, err := uc.ledger.ReverseInTx(ctx, r, it.MovementID, actor)
			if err != nil {
				return err
			}
			postings = append(postings, p)
		}
		mEvents, err := uc.tracker.RevertSourceInTx(ctx, r, entity.SourceServiceEvent, ev.ID, false)
		if err != nil {
			return err
		}
		if err := r.ServiceEvents.Delete(ctx, ev.ID); err != nil {
			return err
		}
		events = append(inventory.Events(postings), mEvents...)
		return nil
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("service_event_id", ev.ID).Str("kind", ev.Kind).Str("actor", actor).Msg("evento de servicio eliminado")
	events = append(events, ports.Event{
		Type:       ports.EventServiceDeleted,
		Key:        ev.VehicleID,
		OccurredAt: time.Now(),
		Payload:    map[string]string{"service_event_id": ev.ID, "vehicle_id": ev.VehicleID, "actor": actor},
	})
	uc.notifier.Notify(ctx, events...)
	return nil
}

// DeleteOilChange alias de DeleteServiceEvent para cambios de aceite.
func (uc *RecorderUseCase) DeleteOilChange(ctx context.Context, eventID, actor string) error {
	return uc.DeleteServiceEvent(ctx, eventID, actor)
}

// History eventos de servicio del vehículo, más reciente primero.
func (uc *RecorderUseCase) History(ctx context.Context, vehicleID string, limit, offset int) ([]*entity.ServiceEvent, error) {
	if _, err := uc.vehicle(ctx, vehicleID); err != nil {
		return nil, err
	}
	return uc.events.ListByVehicle(ctx, vehicleID, limit, offset)
}

// DueStatus clasificación del próximo cambio de aceite frente a la lectura vigente.
// No se almacena: se calcula en cada consulta.
func (uc *RecorderUseCase) DueStatus(ctx context.Context, vehicleID string) (maintenance.DueStatus, error) {
	vehicle, err := uc.vehicle(ctx, vehicleID)
	if err != nil {
		return maintenance.DueStatus{}, err
	}
	current := vehicle.CurrentReading
	m, err := uc.readings.Get(ctx, vehicleID)
	if err != nil {
		return maintenance.DueStatus{}, err
	}
	if m != nil {
		current = m.Reading
	}
	last, err := uc.events.LatestByVehicle(ctx, vehicleID, entity.ServiceOilChange)
	if err != nil {
		return maintenance.DueStatus{}, err
	}
	if last == nil {
		return maintenance.NeverServiced(current), nil
	}
	return maintenance.Classify(current, last.Reading, last.NextDue), nil
}

func (uc *RecorderUseCase) vehicle(ctx context.Context, vehicleID string) (*entity.Vehicle, error) {
	if vehicleID == "" {
		return nil, domain.NewValidationError("vehicle_id", "requerido")
	}
	v, err := uc.vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, domain.NewNotFoundError("vehículo", vehicleID)
	}
	return v, nil
}

func validateEvent(ev *entity.ServiceEvent) error {
	if ev.VehicleID == "" {
		return domain.NewValidationError("vehicle_id", "requerido")
	}
	if err := measurement.ValidateReading(ev.Reading); err != nil {
		return err
	}
	if strings.TrimSpace(ev.Actor) == "" {
		return domain.NewValidationError("actor", "indique el responsable")
	}
	for _, it := range ev.Items {
		if it.ProductID == "" {
			return domain.NewValidationError("product_id", "requerido en cada ítem")
		}
		if !it.Quantity.IsPositive() {
			return domain.NewValidationError("quantity", "debe ser mayor que cero en cada ítem")
		}
		if !entity.FitsPlaces(it.Quantity, entity.QuantityPlaces) {
			return domain.NewValidationError("quantity", "admite como máximo 3 decimales")
		}
	}
	return nil
}

// checkStock verifica, antes de cualquier mutación, que la existencia cubra la suma pedida de
// cada producto. Devuelve el primer producto insuficiente en el orden de los ítems.
func checkStock(ctx context.Context, r ports.Repositories, items []entity.ServiceItem) error {
	totals := make(map[string]decimal.Decimal, len(items))
	order := make([]string, 0, len(items))
	for _, it := range items {
		if _, seen := totals[it.ProductID]; !seen {
			order = append(order, it.ProductID)
		}
		totals[it.ProductID] = totals[it.ProductID].Add(it.Quantity)
	}
	for _, id := range order {
		p, err := r.Products.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.NewNotFoundError("producto", id)
		}
		if !p.Covers(totals[id]) {
			return &domain.InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Requested:   totals[id],
				Available:   p.OnHand,
			}
		}
	}
	return nil
}

func kindLabel(kind string) string {
	if kind == entity.ServiceOilChange {
		return "cambio de aceite"
	}
	return "mantenimiento"
}
