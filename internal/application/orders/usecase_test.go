package orders_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Flota-api/internal/application/inventory"
	"github.com/jhoicas/Flota-api/internal/application/measurement"
	"github.com/jhoicas/Flota-api/internal/application/orders"
	"github.com/jhoicas/Flota-api/internal/application/servicing"
	"github.com/jhoicas/Flota-api/internal/domain"
	"github.com/jhoicas/Flota-api/internal/domain/entity"
	"github.com/jhoicas/Flota-api/internal/domain/maintenance"
	"github.com/jhoicas/Flota-api/internal/infrastructure/memory"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	store   *memory.Store
	ledger  *inventory.LedgerUseCase
	tracker *measurement.Tracker
	orders  *orders.OrderUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	store.SeedVehicle(entity.Vehicle{ID: "v-1", Plate: "ABC123", MeasurementKind: entity.MeasureDistance, CurrentReading: dec("1000")})
	store.SeedEmployee(entity.Employee{ID: "e-req", Name: "Ana", Role: "conductor", Active: true})
	store.SeedEmployee(entity.Employee{ID: "e-mec", Name: "Luis", Role: "mecanico", Active: true})
	store.SeedEmployee(entity.Employee{ID: "e-old", Name: "Pedro", Role: "mecanico", Active: false})
	store.SeedProduct(entity.Product{ID: "p-filtro", Name: "Filtro de aceite", OnHand: dec("5")})
	store.SeedProduct(entity.Product{ID: "p-pastilla", Name: "Pastillas de freno", OnHand: dec("1")})

	ledger := inventory.NewLedgerUseCase(store, store.Products(), store.Movements(), nil, nil)
	tracker := measurement.NewTracker(store, store.Measurements(), store.Vehicles(), false, nil, nil)
	uc := orders.NewOrderUseCase(store, ledger, tracker, store.Orders(), store.History(), store.Vehicles(), store.Employees(), nil, nil)
	return &fixture{store: store, ledger: ledger, tracker: tracker, orders: uc}
}

func (f *fixture) open(t *testing.T, reading string) *entity.MaintenanceOrder {
	t.Helper()
	o, err := f.orders.Open(context.Background(), orders.OpenInput{
		VehicleID:      "v-1",
		RequesterID:    "e-req",
		MechanicID:     "e-mec",
		ReportedDefect: "ruido en frenos",
		Reading:        dec(reading),
	})
	require.NoError(t, err)
	return o
}

func (f *fixture) onHand(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	p, err := f.ledger.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.OnHand
}

func TestOpen_CreaOrdenConHistorialYLectura(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o := f.open(t, "1200")
	assert.Equal(t, entity.OrderOpen, o.Status)
	assert.Equal(t, entity.SubNone, o.SubStatus)
	assert.Equal(t, entity.MeasureDistance, o.MeasurementKind)

	h, err := f.orders.History(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, h, 1)
	assert.Equal(t, entity.OrderOpen, h[0].NewStatus)
	assert.Equal(t, "e-req", h[0].Actor)

	m, err := f.tracker.Current(ctx, "v-1")
	require.NoError(t, err)
	assert.True(t, dec("1200").Equal(m.Reading))
}

func TestOpen_LecturaMenorNoActualiza(t *testing.T) {
	f := newFixture(t)
	f.open(t, "900")

	m, err := f.tracker.Current(context.Background(), "v-1")
	require.NoError(t, err)
	assert.True(t, dec("1000").Equal(m.Reading))
	hist, err := f.tracker.History(context.Background(), "v-1", 0)
	require.NoError(t, err)
	assert.Empty(t, hist)
}

func TestOpen_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := orders.OpenInput{VehicleID: "v-1", RequesterID: "e-req", MechanicID: "e-mec", ReportedDefect: "fuga", Reading: dec("10")}

	in := base
	in.ReportedDefect = "  "
	_, err := f.orders.Open(ctx, in)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	in = base
	in.MechanicID = "e-old"
	_, err = f.orders.Open(ctx, in)
	assert.True(t, errors.Is(err, domain.ErrValidation), "mecánico inactivo")

	in = base
	in.VehicleID = "v-x"
	_, err = f.orders.Open(ctx, in)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	in = base
	in.Reading = decimal.Zero
	_, err = f.orders.Open(ctx, in)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestSubmitYRechazo_HistorialCompleto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.open(t, "1100")

	o, err := f.orders.SubmitToWarehouse(ctx, o.ID, "", "e-mec")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderPending, o.Status)
	assert.Equal(t, entity.SubPendingApproval, o.SubStatus)

	_, err = f.orders.Reject(ctx, o.ID, "", "e-bodega")
	assert.True(t, errors.Is(err, domain.ErrValidation), "el rechazo exige motivo")

	o, err = f.orders.Reject(ctx, o.ID, "sin presupuesto", "e-bodega")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderOpen, o.Status)
	assert.Equal(t, entity.SubRejected, o.SubStatus)

	h, err := f.orders.History(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, h, 3)
	assert.Equal(t, entity.SubPendingApproval, h[1].NewSubStatus)
	assert.Equal(t, entity.OrderPending, h[2].PreviousStatus)
	assert.Equal(t, entity.SubRejected, h[2].NewSubStatus)
	assert.Equal(t, "sin presupuesto", h[2].Note)
	assert.Equal(t, "e-bodega", h[2].Actor)

	// una orden rechazada puede reenviarse
	o, err = f.orders.SubmitToWarehouse(ctx, o.ID, "corregida", "e-mec")
	require.NoError(t, err)
	assert.Equal(t, entity.SubPendingApproval, o.SubStatus)
}

func TestSetSubStatus_TransicionesDeCompras(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.open(t, "1100")

	_, err := f.orders.SetSubStatus(ctx, o.ID, entity.SubApproved, "", "e-compras")
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition), "la orden aún no está pendiente")

	_, err = f.orders.SubmitToWarehouse(ctx, o.ID, "", "e-mec")
	require.NoError(t, err)

	for _, sub := range []entity.SubStatus{entity.SubApproved, entity.SubAwaitingSupplier, entity.SubInService} {
		o, err = f.orders.SetSubStatus(ctx, o.ID, sub, "", "e-compras")
		require.NoError(t, err)
		assert.Equal(t, entity.OrderPending, o.Status)
		assert.Equal(t, sub, o.SubStatus)
	}

	_, err = f.orders.SetSubStatus(ctx, o.ID, entity.SubInService, "", "e-compras")
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition), "mismo subestado")

	h, err := f.orders.History(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, h, 5)
}

func TestTransicionInvalida_NoDejaRastro(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.open(t, "1100")

	_, err := f.orders.Finalize(ctx, o.ID, nil, "", "e-bodega")
	var trErr *domain.InvalidTransitionError
	require.True(t, errors.As(err, &trErr))
	assert.Equal(t, "Open", trErr.From)

	got, err := f.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderOpen, got.Status)
	h, err := f.orders.History(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, h, 1)
}

func TestFinalize_SinRepuestosEsInvalido(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.open(t, "1100")
	_, err := f.orders.SubmitToWarehouse(ctx, o.ID, "", "e-mec")
	require.NoError(t, err)

	_, err = f.orders.Finalize(ctx, o.ID, nil, "", "e-bodega")
	assert.True(t, errors.Is(err, domain.ErrValidation))

	got, err := f.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderPending, got.Status)
}

func TestFinalize_ConItemsDescuentaYCierra(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.open(t, "1100")
	_, err := f.orders.SubmitToWarehouse(ctx, o.ID, "", "e-mec")
	require.NoError(t, err)

	o, err = f.orders.Finalize(ctx, o.ID, []orders.ConsumptionItem{
		{ProductID: "p-filtro", Quantity: dec("2")},
		{ProductID: "p-pastilla", Quantity: dec("1")},
	}, "entregado", "e-bodega")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderCompleted, o.Status)
	assert.Equal(t, entity.SubFinalized, o.SubStatus)
	assert.True(t, dec("3").Equal(f.onHand(t, "p-filtro")))
	assert.True(t, dec("0").Equal(f.onHand(t, "p-pastilla")))

	_, err = f.orders.SubmitToWarehouse(ctx, o.ID, "", "e-mec")
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition), "Completed es terminal")
}

func TestFinalize_StockInsuficienteRevierteTodo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.open(t, "1100")
	_, err := f.orders.SubmitToWarehouse(ctx, o.ID, "", "e-mec")
	require.NoError(t, err)

	_, err = f.orders.Finalize(ctx, o.ID, []orders.ConsumptionItem{
		{ProductID: "p-filtro", Quantity: dec("2")},
		{ProductID: "p-pastilla", Quantity: dec("4")},
	}, "", "e-bodega")
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	assert.True(t, dec("5").Equal(f.onHand(t, "p-filtro")), "la primera salida se deshace")
	got, err := f.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SubPendingApproval, got.SubStatus)
}

func TestRecordConsumption_LuegoFinalizaSinItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.open(t, "1100")

	_, err := f.orders.RecordConsumption(ctx, o.ID, []orders.ConsumptionItem{{ProductID: "p-filtro", Quantity: dec("1")}}, "e-bodega")
	assert.True(t, errors.Is(err, domain.ErrValidation), "solo con solicitud pendiente")

	_, err = f.orders.SubmitToWarehouse(ctx, o.ID, "", "e-mec")
	require.NoError(t, err)
	movs, err := f.orders.RecordConsumption(ctx, o.ID, []orders.ConsumptionItem{{ProductID: "p-filtro", Quantity: dec("1")}}, "e-bodega")
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, o.ID, movs[0].Origin.OrderID)

	o, err = f.orders.Finalize(ctx, o.ID, nil, "", "e-bodega")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderCompleted, o.Status)
}

func TestFinalize_ConsumoRevertidoNoCuenta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.open(t, "1100")
	_, err := f.orders.SubmitToWarehouse(ctx, o.ID, "", "e-mec")
	require.NoError(t, err)
	movs, err := f.orders.RecordConsumption(ctx, o.ID, []orders.ConsumptionItem{{ProductID: "p-filtro", Quantity: dec("1")}}, "e-bodega")
	require.NoError(t, err)
	_, err = f.ledger.Reverse(ctx, movs[0].ID, "e-admin")
	require.NoError(t, err)

	_, err = f.orders.Finalize(ctx, o.ID, nil, "", "e-bodega")
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestDelete_BorraHistorialYRevierteLectura(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.open(t, "1300")
	_, err := f.orders.SubmitToWarehouse(ctx, o.ID, "", "e-mec")
	require.NoError(t, err)

	require.NoError(t, f.orders.Delete(ctx, o.ID, "e-admin"))

	_, err = f.orders.Get(ctx, o.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	h, err := f.store.History().ListByOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Empty(t, h)

	m, err := f.tracker.Current(ctx, "v-1")
	require.NoError(t, err)
	assert.True(t, dec("1000").Equal(m.Reading), "la lectura vuelve al valor previo")
	hist, err := f.tracker.History(ctx, "v-1", 0)
	require.NoError(t, err)
	assert.Empty(t, hist)
}

func TestDelete_LecturaPosteriorSeConserva(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.open(t, "1300")
	_, err := f.tracker.Record(ctx, "v-1", dec("1500"), "e-mec", "ruta", false)
	require.NoError(t, err)

	require.NoError(t, f.orders.Delete(ctx, o.ID, "e-admin"))

	m, err := f.tracker.Current(ctx, "v-1")
	require.NoError(t, err)
	assert.True(t, dec("1500").Equal(m.Reading))
	hist, err := f.tracker.History(ctx, "v-1", 0)
	require.NoError(t, err)
	require.Len(t, hist, 1, "la entrada atribuida a la orden se elimina con ella")
	assert.Equal(t, entity.SourceManual, hist[0].SourceType)
}

func TestDelete_ConMovimientosEsConflicto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.open(t, "1100")
	_, err := f.orders.SubmitToWarehouse(ctx, o.ID, "", "e-mec")
	require.NoError(t, err)
	_, err = f.orders.RecordConsumption(ctx, o.ID, []orders.ConsumptionItem{{ProductID: "p-filtro", Quantity: dec("1")}}, "e-bodega")
	require.NoError(t, err)

	err = f.orders.Delete(ctx, o.ID, "e-admin")
	assert.True(t, errors.Is(err, domain.ErrConflict))

	_, err = f.orders.Get(ctx, o.ID)
	assert.NoError(t, err)
}

func TestDelete_Inexistente(t *testing.T) {
	f := newFixture(t)
	err := f.orders.Delete(context.Background(), "o-x", "e-admin")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestList_FiltraPorEstado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.open(t, "1100")
	f.open(t, "1100")
	_, err := f.orders.SubmitToWarehouse(ctx, a.ID, "", "e-mec")
	require.NoError(t, err)

	pending, err := f.orders.List(ctx, entity.OrderPending, 10, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, a.ID, pending[0].ID)

	all, err := f.orders.List(ctx, "", 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDelete_NoBajaDeUnEventoDeServicioPosterior(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.open(t, "1300")

	rec := servicing.NewRecorderUseCase(f.store, f.ledger, f.tracker, f.store.ServiceEvents(), f.store.Vehicles(),
		f.store.Measurements(), maintenance.DefaultIntervals(), nil, nil)
	_, err := rec.RegisterOilChange(ctx, servicing.OilChangeInput{
		VehicleID:        "v-1",
		Actor:            "e-mec",
		Reading:          dec("1300"),
		PrimaryProductID: "p-filtro",
		PrimaryQuantity:  dec("1"),
	})
	require.NoError(t, err)

	require.NoError(t, f.orders.Delete(ctx, o.ID, "e-admin"))

	m, err := f.tracker.Current(ctx, "v-1")
	require.NoError(t, err)
	assert.True(t, dec("1300").Equal(m.Reading), "el cambio de aceite sostiene la lectura")
	hist, err := f.tracker.History(ctx, "v-1", 0)
	require.NoError(t, err)
	assert.Empty(t, hist)
}

// cancelAtCommit deja pasar la primera consulta de Err (inicio de la transacción)
// y reporta cancelación en las siguientes.
type cancelAtCommit struct {
	context.Context
	calls atomic.Int32
}

func (c *cancelAtCommit) Err() error {
	if c.calls.Add(1) > 1 {
		return context.Canceled
	}
	return nil
}

func TestFinalize_CancelacionNoDejaRastro(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.open(t, "1100")
	_, err := f.orders.SubmitToWarehouse(ctx, o.ID, "", "e-mec")
	require.NoError(t, err)

	_, err = f.orders.Finalize(&cancelAtCommit{Context: ctx}, o.ID, []orders.ConsumptionItem{
		{ProductID: "p-filtro", Quantity: dec("2")},
	}, "", "e-bodega")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, errors.Is(err, domain.ErrPersistence))

	assert.True(t, dec("5").Equal(f.onHand(t, "p-filtro")))
	got, err := f.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderPending, got.Status)
	assert.Equal(t, entity.SubPendingApproval, got.SubStatus)
	h, err := f.orders.History(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, h, 2)
	movs, err := f.ledger.ListMovements(ctx, "p-filtro", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, movs)
}

func TestTransicionesConcurrentes_SoloUnaGana(t *testing.T) {
	cases := []struct {
		name   string
		second func(f *fixture, orderID string) error
		// estado final y existencia de p-filtro si gana la segunda operación
		secondSub   entity.SubStatus
		secondStock string
	}{
		{
			name: "rechazo y subestado rechazado",
			second: func(f *fixture, orderID string) error {
				_, err := f.orders.SetSubStatus(context.Background(), orderID, entity.SubRejected, "proveedor sin stock", "e-compras")
				return err
			},
			secondSub:   entity.SubRejected,
			secondStock: "5",
		},
		{
			name: "rechazo y finalización",
			second: func(f *fixture, orderID string) error {
				_, err := f.orders.Finalize(context.Background(), orderID, []orders.ConsumptionItem{{ProductID: "p-filtro", Quantity: dec("2")}}, "", "e-bodega")
				return err
			},
			secondSub:   entity.SubFinalized,
			secondStock: "3",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			o := f.open(t, "1100")
			_, err := f.orders.SubmitToWarehouse(ctx, o.ID, "", "e-mec")
			require.NoError(t, err)

			var (
				wg   sync.WaitGroup
				errs = make([]error, 2)
			)
			wg.Add(2)
			go func() {
				defer wg.Done()
				_, errs[0] = f.orders.Reject(ctx, o.ID, "sin presupuesto", "e-compras")
			}()
			go func() {
				defer wg.Done()
				errs[1] = tc.second(f, o.ID)
			}()
			wg.Wait()

			var ok, invalid int
			for _, err := range errs {
				switch {
				case err == nil:
					ok++
				case errors.Is(err, domain.ErrInvalidTransition):
					invalid++
				}
			}
			assert.Equal(t, 1, ok)
			assert.Equal(t, 1, invalid)

			h, err := f.orders.History(ctx, o.ID)
			require.NoError(t, err)
			assert.Len(t, h, 3, "una sola entrada nueva")

			got, err := f.orders.Get(ctx, o.ID)
			require.NoError(t, err)
			if errs[0] == nil {
				assert.Equal(t, entity.SubRejected, got.SubStatus)
				assert.True(t, dec("5").Equal(f.onHand(t, "p-filtro")), "el rechazo no consume")
			} else {
				assert.Equal(t, tc.secondSub, got.SubStatus)
				assert.True(t, dec(tc.secondStock).Equal(f.onHand(t, "p-filtro")))
			}
		})
	}
}
