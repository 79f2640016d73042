package orders

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
	"github.com/jhoicas/Flota-api/internal/domain/repository"
	"github.com/jhoicas/Flota-api/internal/domain/workflow"
	"github.com/jhoicas/Flota-api/pkg/logger"
)

// OrderUseCase máquina de estados de las órdenes de mantenimiento. Cada transición es una
// unidad atómica: fila de la orden bloqueada, campos de estado, una entrada de historial
// y, según la transición, salidas de inventario.
type OrderUseCase struct {
	txRunner  ports.TxRunner
	ledger    Ledger
	tracker   MeasurementTracker
	orderRepo repository.MaintenanceOrderRepository
	history   repository.StatusHistoryRepository
	vehicles  repository.VehicleRepository
	employees repository.EmployeeRepository
	notifier  *ports.Notifier
	log       *logger.Logger
}

// NewOrderUseCase construye el caso de uso.
func NewOrderUseCase(
	txRunner ports.TxRunner,
	ledger Ledger,
	tracker MeasurementTracker,
	orderRepo repository.MaintenanceOrderRepository,
	history repository.StatusHistoryRepository,
	vehicles repository.VehicleRepository,
	employees repository.EmployeeRepository,
	notifier *ports.Notifier,
	log *logger.Logger,
) *OrderUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &OrderUseCase{
		txRunner:  txRunner,
		ledger:    ledger,
		tracker:   tracker,
		orderRepo: orderRepo,
		history:   history,
		vehicles:  vehicles,
		employees: employees,
		notifier:  notifier,
		log:       log.Component("orders"),
	}
}

// OpenInput datos de apertura de una orden.
type OpenInput struct {
	VehicleID      string
	RequesterID    string
	MechanicID     string
	ReportedDefect string
	RequestedWork  string
	Reading        decimal.Decimal
	Actor          string
}

// ConsumptionItem repuesto entregado para atender la orden.
type ConsumptionItem struct {
	ProductID string
	Quantity  decimal.Decimal
}

// StatusChangedPayload cuerpo del evento order.status_changed.
type StatusChangedPayload struct {
	OrderID           string `json:"order_id"`
	VehicleID         string `json:"vehicle_id"`
	PreviousStatus    string `json:"previous_status"`
	NewStatus         string `json:"new_status"`
	PreviousSubStatus string `json:"previous_sub_status,omitempty"`
	NewSubStatus      string `json:"new_sub_status,omitempty"`
	Actor             string `json:"actor"`
	Note              string `json:"note,omitempty"`
}

// Open abre una orden en (Open, -) con su primera entrada de historial. Si la lectura
// reportada es un nuevo máximo, actualiza la lectura del vehículo atribuyéndola a la orden.
func (uc *OrderUseCase) Open(ctx context.Context, in OpenInput) (*entity.MaintenanceOrder, error) {
	if in.VehicleID == "" {
		return nil, domain.NewValidationError("vehicle_id", "requerido")
	}
	if strings.TrimSpace(in.ReportedDefect) == "" && strings.TrimSpace(in.RequestedWork) == "" {
		return nil, domain.NewValidationError("reported_defect", "describa la falla o el trabajo solicitado")
	}
	if err := measurement.ValidateReading(in.Reading); err != nil {
		return nil, err
	}
	if in.Actor == "" {
		in.Actor = in.RequesterID
	}
	vehicle, err := uc.vehicles.GetByID(ctx, in.VehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, domain.NewNotFoundError("vehículo", in.VehicleID)
	}
	if err := uc.activeEmployee(ctx, "requester_id", in.RequesterID); err != nil {
		return nil, err
	}
	if err := uc.activeEmployee(ctx, "mechanic_id", in.MechanicID); err != nil {
		return nil, err
	}

	now := time.Now()
	order := &entity.MaintenanceOrder{
		ID:              uuid.New().String(),
		VehicleID:       vehicle.ID,
		OpenedAt:        now,
		RequesterID:     in.RequesterID,
		MechanicID:      in.MechanicID,
		ReportedDefect:  strings.TrimSpace(in.ReportedDefect),
		RequestedWork:   strings.TrimSpace(in.RequestedWork),
		OpeningReading:  in.Reading,
		MeasurementKind: vehicle.MeasurementKind,
		Status:          entity.OrderOpen,
		SubStatus:       entity.SubNone,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	var events []ports.Event
	err = uc.txRunner.Run(ctx, func(r ports.Repositories) error {
		if err := r.Orders.Create(ctx, order); err != nil {
			return err
		}
		entry := &entity.StatusHistoryEntry{
			ID:        uuid.New().String(),
			OrderID:   order.ID,
			NewStatus: entity.OrderOpen,
			Note:      "orden abierta",
			Actor:     in.Actor,
			CreatedAt: now,
		}
		if err := r.History.Append(ctx, entry); err != nil {
			return err
		}
		res, err := uc.tracker.ApplyInTx(ctx, r, measurement.Update{
			VehicleID:     vehicle.ID,
			Kind:          vehicle.MeasurementKind,
			Baseline:      vehicle.CurrentReading,
			Reading:       in.Reading,
			Actor:         in.Actor,
			Note:          "lectura reportada en apertura de orden",
			SourceType:    entity.SourceOrder,
			SourceID:      order.ID,
			OnlyIfGreater: true,
		})
		if err != nil {
			return err
		}
		events = append(events, statusEvent(order, entry))
		events = append(events, res.Event()...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("order_id", order.ID).Str("vehicle_id", order.VehicleID).Msg("orden abierta")
	uc.notifier.Notify(ctx, events...)
	return order, nil
}

// SubmitToWarehouse envía la solicitud a bodega: (Open, -|Rejected) -> (Pending, PendingApproval).
func (uc *OrderUseCase) SubmitToWarehouse(ctx context.Context, orderID, note, actor string) (*entity.MaintenanceOrder, error) {
	return uc.transition(ctx, orderID, workflow.ActionSubmit, entity.SubNone, note, actor, nil)
}

// SetSubStatus cambio de etapa de compras mientras la orden sigue Pending
// (aprobar, esperar proveedor, cola de servicio, servicio externo, en servicio...).
func (uc *OrderUseCase) SetSubStatus(ctx context.Context, orderID string, sub entity.SubStatus, note, actor string) (*entity.MaintenanceOrder, error) {
	switch sub {
	case entity.SubRejected:
		return uc.Reject(ctx, orderID, note, actor)
	case entity.SubFinalized:
		return uc.Finalize(ctx, orderID, nil, note, actor)
	}
	return uc.transition(ctx, orderID, workflow.ActionSetSubStatus, sub, note, actor, nil)
}

// Reject rechaza la solicitud: la orden vuelve a Open con subestado Rejected. Requiere motivo.
func (uc *OrderUseCase) Reject(ctx context.Context, orderID, note, actor string) (*entity.MaintenanceOrder, error) {
	if strings.TrimSpace(note) == "" {
		return nil, domain.NewValidationError("note", "indique el motivo del rechazo")
	}
	return uc.transition(ctx, orderID, workflow.ActionReject, entity.SubNone, note, actor, nil)
}

// RecordConsumption atiende la solicitud entregando repuestos: una salida de inventario por
// ítem, ligada a la orden. Solo mientras la orden está Pending; todo o nada.
func (uc *OrderUseCase) RecordConsumption(ctx context.Context, orderID string, items []ConsumptionItem, actor string) ([]*entity.StockMovement, error) {
	if actor == "" {
		return nil, domain.NewValidationError("actor", "requerido")
	}
	if len(items) == 0 {
		return nil, domain.NewValidationError("items", "agregue al menos un repuesto")
	}
	var postings []inventory.Posting
	err := uc.txRunner.Run(ctx, func(r ports.Repositories) error {
		order, err := lockOrder(ctx, r, orderID)
		if err != nil {
			return err
		}
		if order.Status != entity.OrderPending {
			return domain.NewValidationError("order_id", "la orden no tiene una solicitud pendiente ("+order.StateLabel()+")")
		}
		postings, err = uc.consume(ctx, r, order, items, actor)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.notifier.Notify(ctx, inventory.Events(postings)...)
	out := make([]*entity.StockMovement, 0, len(postings))
	for _, p := range postings {
		out = append(out, p.Movement)
	}
	return out, nil
}

// Finalize atiende y cierra la solicitud: (Pending, *) -> (Completed, Finalized). Los ítems
// recibidos se descuentan en la misma transacción; la orden debe terminar con al menos un
// consumo vigente o se rechaza con ValidationError.
func (uc *OrderUseCase) Finalize(ctx context.Context, orderID string, items []ConsumptionItem, note, actor string) (*entity.MaintenanceOrder, error) {
	var postings []inventory.Posting
	order, err := uc.transition(ctx, orderID, workflow.ActionFinalize, entity.SubNone, note, actor,
		func(r ports.Repositories, order *entity.MaintenanceOrder) error {
			var err error
			postings, err = uc.consume(ctx, r, order, items, actor)
			if err != nil {
				return err
			}
			n, err := r.Movements.CountActiveExitsByOrder(ctx, order.ID)
			if err != nil {
				return err
			}
			if n == 0 {
				return domain.NewValidationError("items", "no se puede atender una solicitud sin repuestos entregados")
			}
			return nil
		})
	if err != nil {
		return nil, err
	}
	uc.notifier.Notify(ctx, inventory.Events(postings)...)
	return order, nil
}

// Delete elimina una orden sin movimientos ni eventos de servicio que la referencien. En la
// misma transacción borra su historial y deshace la actualización de lectura que ella originó.
func (uc *OrderUseCase) Delete(ctx context.Context, orderID, actor string) error {
	var events []ports.Event
	err := uc.txRunner.Run(ctx, func(r ports.Repositories) error {
		order, err := lockOrder(ctx, r, orderID)
		if err != nil {
			return err
		}
		movs, err := r.Movements.CountByOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		if movs > 0 {
			return &domain.ConflictError{Reason: "la orden tiene movimientos de inventario asociados"}
		}
		svcs, err := r.ServiceEvents.CountByOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		if svcs > 0 {
			return &domain.ConflictError{Reason: "la orden tiene eventos de servicio asociados"}
		}
		mEvents, err := uc.tracker.RevertSourceInTx(ctx, r, entity.SourceOrder, order.ID, true)
		if err != nil {
			return err
		}
		if err := r.History.DeleteByOrder(ctx, order.ID); err != nil {
			return err
		}
		if err := r.Orders.Delete(ctx, order.ID); err != nil {
			return err
		}
		events = append(mEvents, ports.Event{
			Type:       ports.EventOrderDeleted,
			Key:        order.ID,
			OccurredAt: time.Now(),
			Payload:    map[string]string{"order_id": order.ID, "vehicle_id": order.VehicleID, "actor": actor},
		})
		return nil
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("order_id", orderID).Str("actor", actor).Msg("orden eliminada")
	uc.notifier.Notify(ctx, events...)
	return nil
}

// Get obtiene una orden.
func (uc *OrderUseCase) Get(ctx context.Context, orderID string) (*entity.MaintenanceOrder, error) {
	o, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.NewNotFoundError("orden", orderID)
	}
	return o, nil
}

// List lista órdenes, opcionalmente filtradas por estado general.
func (uc *OrderUseCase) List(ctx context.Context, status entity.OrderStatus, limit, offset int) ([]*entity.MaintenanceOrder, error) {
	return uc.orderRepo.List(ctx, status, limit, offset)
}

// History historial de estados de la orden en orden cronológico.
func (uc *OrderUseCase) History(ctx context.Context, orderID string) ([]*entity.StatusHistoryEntry, error) {
	if _, err := uc.Get(ctx, orderID); err != nil {
		return nil, err
	}
	return uc.history.ListByOrder(ctx, orderID)
}

// transition bloquea la orden, planea la acción, ejecuta el efecto adicional (si lo hay),
// persiste el nuevo par de estados y agrega la entrada de historial; todo en una transacción.
func (uc *OrderUseCase) transition(
	ctx context.Context,
	orderID string,
	action workflow.Action,
	target entity.SubStatus,
	note, actor string,
	effect func(r ports.Repositories, order *entity.MaintenanceOrder) error,
) (*entity.MaintenanceOrder, error) {
	if orderID == "" {
		return nil, domain.NewValidationError("order_id", "requerido")
	}
	if actor == "" {
		return nil, domain.NewValidationError("actor", "requerido")
	}
	var (
		order *entity.MaintenanceOrder
		entry *entity.StatusHistoryEntry
	)
	err := uc.txRunner.Run(ctx, func(r ports.Repositories) error {
		var err error
		order, err = lockOrder(ctx, r, orderID)
		if err != nil {
			return err
		}
		tr, err := workflow.Plan(order, action, target)
		if err != nil {
			return err
		}
		if effect != nil {
			if err := effect(r, order); err != nil {
				return err
			}
		}
		now := time.Now()
		tr.Apply(order)
		order.UpdatedAt = now
		if err := r.Orders.UpdateStatus(ctx, order); err != nil {
			return err
		}
		entry = &entity.StatusHistoryEntry{
			ID:                uuid.New().String(),
			OrderID:           order.ID,
			PreviousStatus:    tr.FromStatus,
			NewStatus:         tr.ToStatus,
			PreviousSubStatus: tr.FromSub,
			NewSubStatus:      tr.ToSub,
			Note:              strings.TrimSpace(note),
			Actor:             actor,
			CreatedAt:         now,
		}
		return r.History.Append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("order_id", order.ID).
		Str("from", entity.StateLabel(entry.PreviousStatus, entry.PreviousSubStatus)).
		Str("to", order.StateLabel()).
		Str("actor", actor).
		Msg("transición de orden")
	uc.notifier.Notify(ctx, statusEvent(order, entry))
	return order, nil
}

func (uc *OrderUseCase) consume(ctx context.Context, r ports.Repositories, order *entity.MaintenanceOrder, items []ConsumptionItem, actor string) ([]inventory.Posting, error) {
	postings := make([]inventory.Posting, 0, len(items))
	for _, it := range items {
		p, err := uc.ledger.RecordExitInTx(ctx, r, inventory.MovementInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Origin: entity.Origin{
				Reference: "orden " + order.ID + " vehículo " + order.VehicleID,
				OrderID:   order.ID,
			},
			Actor: actor,
		})
		if err != nil {
			return nil, err
		}
		postings = append(postings, p)
	}
	return postings, nil
}

func (uc *OrderUseCase) activeEmployee(ctx context.Context, field, id string) error {
	if id == "" {
		return domain.NewValidationError(field, "requerido")
	}
	e, err := uc.employees.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if e == nil {
		return domain.NewNotFoundError("empleado", id)
	}
	if !e.Active {
		return domain.NewValidationError(field, "el empleado "+e.Name+" no está activo")
	}
	return nil
}

func lockOrder(ctx context.Context, r ports.Repositories, orderID string) (*entity.MaintenanceOrder, error) {
	order, err := r.Orders.GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.NewNotFoundError("orden", orderID)
	}
	return order, nil
}

func statusEvent(order *entity.MaintenanceOrder, entry *entity.StatusHistoryEntry) ports.Event {
	return ports.Event{
		Type:       ports.EventOrderStatusChanged,
		Key:        order.ID,
		OccurredAt: entry.CreatedAt,
		Payload: StatusChangedPayload{
			OrderID:           order.ID,
			VehicleID:         order.VehicleID,
			PreviousStatus:    string(entry.PreviousStatus),
			NewStatus:         string(entry.NewStatus),
			PreviousSubStatus: string(entry.PreviousSubStatus),
			NewSubStatus:      string(entry.NewSubStatus),
			Actor:             entry.Actor,
			Note:              entry.Note,
		},
	}
}
