package workflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Flota-api/internal/domain"
	"github.com/jhoicas/Flota-api/internal/domain/entity"
	"github.com/jhoicas/Flota-api/internal/domain/workflow"
)

var allStatuses = []entity.OrderStatus{entity.OrderOpen, entity.OrderPending, entity.OrderCompleted}

var allSubStatuses = []entity.SubStatus{
	entity.SubNone, entity.SubPendingApproval, entity.SubApproved, entity.SubAwaitingSupplier,
	entity.SubAwaitingWorkOrder, entity.SubServiceQueue, entity.SubExternalService,
	entity.SubInService, entity.SubRejected, entity.SubFinalized,
}

var allActions = []workflow.Action{
	workflow.ActionSubmit, workflow.ActionSetSubStatus, workflow.ActionReject, workflow.ActionFinalize,
}

func order(s entity.OrderStatus, sub entity.SubStatus) *entity.MaintenanceOrder {
	return &entity.MaintenanceOrder{ID: "ord-1", Status: s, SubStatus: sub}
}

func TestValidPair_ListaCerrada(t *testing.T) {
	valid := 0
	for _, s := range allStatuses {
		for _, sub := range allSubStatuses {
			if workflow.ValidPair(s, sub) {
				valid++
			}
		}
	}
	// (Open,-) (Open,Rejected) 7 pendientes (Completed,Finalized)
	assert.Equal(t, 10, valid)
	assert.False(t, workflow.ValidPair(entity.OrderOpen, entity.SubApproved))
	assert.False(t, workflow.ValidPair(entity.OrderCompleted, entity.SubNone))
	assert.False(t, workflow.ValidPair(entity.OrderPending, entity.SubRejected))
	assert.False(t, workflow.ValidPair("Cancelled", entity.SubNone))
}

// Toda transición planeada desde un par válido cae en un par válido.
func TestPlan_SiempreProduceParValido(t *testing.T) {
	for _, s := range allStatuses {
		for _, sub := range allSubStatuses {
			if !workflow.ValidPair(s, sub) {
				continue
			}
			for _, a := range allActions {
				for _, target := range allSubStatuses {
					tr, err := workflow.Plan(order(s, sub), a, target)
					if err != nil {
						assert.ErrorIs(t, err, domain.ErrInvalidTransition)
						continue
					}
					assert.True(t, workflow.ValidPair(tr.ToStatus, tr.ToSub),
						"%s/%s --%s(%s)--> %s/%s", s, sub, a, target, tr.ToStatus, tr.ToSub)
				}
			}
		}
	}
}

func TestPlan_FlujoEnviarYRechazar(t *testing.T) {
	o := order(entity.OrderOpen, entity.SubNone)

	tr, err := workflow.Plan(o, workflow.ActionSubmit, "")
	require.NoError(t, err)
	tr.Apply(o)
	assert.Equal(t, entity.OrderPending, o.Status)
	assert.Equal(t, entity.SubPendingApproval, o.SubStatus)

	tr, err = workflow.Plan(o, workflow.ActionReject, "")
	require.NoError(t, err)
	tr.Apply(o)
	assert.Equal(t, entity.OrderOpen, o.Status)
	assert.Equal(t, entity.SubRejected, o.SubStatus)

	// una solicitud rechazada puede volver a enviarse
	_, err = workflow.Plan(o, workflow.ActionSubmit, "")
	assert.NoError(t, err)
}

func TestPlan_FinalizarDesdeOpenEsInvalido(t *testing.T) {
	_, err := workflow.Plan(order(entity.OrderOpen, entity.SubNone), workflow.ActionFinalize, "")
	var ite *domain.InvalidTransitionError
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, "Open", ite.From)
	assert.Equal(t, "Completed/Finalized", ite.To)
}

func TestPlan_SetSubStatus(t *testing.T) {
	o := order(entity.OrderPending, entity.SubPendingApproval)

	tr, err := workflow.Plan(o, workflow.ActionSetSubStatus, entity.SubAwaitingSupplier)
	require.NoError(t, err)
	assert.Equal(t, entity.SubAwaitingSupplier, tr.ToSub)
	assert.Equal(t, entity.OrderPending, tr.ToStatus)

	_, err = workflow.Plan(o, workflow.ActionSetSubStatus, entity.SubPendingApproval)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "mismo subestado no es una transición")

	_, err = workflow.Plan(o, workflow.ActionSetSubStatus, entity.SubFinalized)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "finalizar solo vía ActionFinalize")

	_, err = workflow.Plan(order(entity.OrderCompleted, entity.SubFinalized), workflow.ActionSetSubStatus, entity.SubApproved)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestPlan_EstadoPersistidoCorrupto(t *testing.T) {
	_, err := workflow.Plan(order(entity.OrderOpen, entity.SubInService), workflow.ActionReject, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestParseSubStatus(t *testing.T) {
	sub, err := workflow.ParseSubStatus("ExternalService")
	require.NoError(t, err)
	assert.Equal(t, entity.SubExternalService, sub)

	_, err = workflow.ParseSubStatus("en espera")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = workflow.ParseStatus("Pending")
	assert.NoError(t, err)
	_, err = workflow.ParseStatus("Closed")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
