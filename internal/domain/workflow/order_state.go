// Package workflow define la máquina de estados de las órdenes de mantenimiento:
// qué pares (estado, subestado) existen y qué transiciones son legales.
package workflow

import (
	"github.com/jhoicas/Flota-api/internal/domain"
	"github.com/jhoicas/Flota-api/internal/domain/entity"
)

// Action operación solicitada sobre la orden.
type Action string

const (
	ActionSubmit       Action = "submit"
	ActionSetSubStatus Action = "set_sub_status"
	ActionReject       Action = "reject"
	ActionFinalize     Action = "finalize"
)

// pendingSubStatuses subestados posibles mientras la orden está en Pending.
var pendingSubStatuses = map[entity.SubStatus]bool{
	entity.SubPendingApproval:   true,
	entity.SubApproved:          true,
	entity.SubAwaitingSupplier:  true,
	entity.SubAwaitingWorkOrder: true,
	entity.SubServiceQueue:      true,
	entity.SubExternalService:   true,
	entity.SubInService:         true,
}

// ValidPair indica si la combinación existe en la máquina de estados.
//
//	(Open, -) (Open, Rejected) (Pending, <pendiente>) (Completed, Finalized)
func ValidPair(s entity.OrderStatus, sub entity.SubStatus) bool {
	switch s {
	case entity.OrderOpen:
		return sub == entity.SubNone || sub == entity.SubRejected
	case entity.OrderPending:
		return pendingSubStatuses[sub]
	case entity.OrderCompleted:
		return sub == entity.SubFinalized
	}
	return false
}

// ParseSubStatus valida un subestado recibido en el borde (HTTP) contra la lista cerrada.
func ParseSubStatus(s string) (entity.SubStatus, error) {
	sub := entity.SubStatus(s)
	if pendingSubStatuses[sub] || sub == entity.SubRejected || sub == entity.SubFinalized {
		return sub, nil
	}
	return "", domain.NewValidationError("sub_status", "subestado desconocido: "+s)
}

// ParseStatus valida un estado general recibido en el borde.
func ParseStatus(s string) (entity.OrderStatus, error) {
	switch st := entity.OrderStatus(s); st {
	case entity.OrderOpen, entity.OrderPending, entity.OrderCompleted:
		return st, nil
	}
	return "", domain.NewValidationError("status", "estado desconocido: "+s)
}

// Transition resultado de planear una acción: par de origen y par de destino.
type Transition struct {
	FromStatus entity.OrderStatus
	FromSub    entity.SubStatus
	ToStatus   entity.OrderStatus
	ToSub      entity.SubStatus
}

// Apply copia el destino sobre la orden.
func (t Transition) Apply(o *entity.MaintenanceOrder) {
	o.Status = t.ToStatus
	o.SubStatus = t.ToSub
}

// Plan calcula la transición de la orden para la acción. target solo se usa con ActionSetSubStatus.
// No modifica la orden; un destino ilegal devuelve *domain.InvalidTransitionError.
func Plan(o *entity.MaintenanceOrder, action Action, target entity.SubStatus) (Transition, error) {
	t := Transition{FromStatus: o.Status, FromSub: o.SubStatus}
	if !ValidPair(o.Status, o.SubStatus) {
		return t, invalid(o, "estado persistido inválido")
	}

	switch action {
	case ActionSubmit:
		if o.Status != entity.OrderOpen {
			return t, invalid(o, entity.StateLabel(entity.OrderPending, entity.SubPendingApproval))
		}
		t.ToStatus, t.ToSub = entity.OrderPending, entity.SubPendingApproval

	case ActionSetSubStatus:
		to := entity.StateLabel(entity.OrderPending, target)
		if !pendingSubStatuses[target] {
			return t, invalid(o, to)
		}
		if o.Status != entity.OrderPending || o.SubStatus == target {
			return t, invalid(o, to)
		}
		t.ToStatus, t.ToSub = entity.OrderPending, target

	case ActionReject:
		if o.Status != entity.OrderPending {
			return t, invalid(o, entity.StateLabel(entity.OrderOpen, entity.SubRejected))
		}
		t.ToStatus, t.ToSub = entity.OrderOpen, entity.SubRejected

	case ActionFinalize:
		if o.Status != entity.OrderPending {
			return t, invalid(o, entity.StateLabel(entity.OrderCompleted, entity.SubFinalized))
		}
		t.ToStatus, t.ToSub = entity.OrderCompleted, entity.SubFinalized

	default:
		return t, invalid(o, string(action))
	}
	return t, nil
}

func invalid(o *entity.MaintenanceOrder, to string) error {
	return &domain.InvalidTransitionError{OrderID: o.ID, From: o.StateLabel(), To: to}
}
