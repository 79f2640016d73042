package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Flota-api/internal/application/dto"
	"github.com/jhoicas/Flota-api/internal/application/inventory"
	"github.com/jhoicas/Flota-api/internal/application/measurement"
	"github.com/jhoicas/Flota-api/internal/application/orders"
	"github.com/jhoicas/Flota-api/internal/application/servicing"
	"github.com/jhoicas/Flota-api/internal/domain/entity"
	"github.com/jhoicas/Flota-api/internal/domain/maintenance"
	"github.com/jhoicas/Flota-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/Flota-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/Flota-api/pkg/jwt"
)

// buildAPI arma la API completa sobre el almacenamiento en memoria.
func buildAPI(t *testing.T) *fiber.App {
	t.Helper()
	store := memory.New()
	store.SeedVehicle(entity.Vehicle{ID: "v-1", Plate: "ABC123", MeasurementKind: entity.MeasureDistance, CurrentReading: decimal.NewFromInt(40000)})
	store.SeedEmployee(entity.Employee{ID: "e-req", Name: "Ana", Active: true})
	store.SeedEmployee(entity.Employee{ID: "e-mec", Name: "Luis", Active: true})
	store.SeedProduct(entity.Product{ID: "p-aceite", Name: "Aceite 15W40", OnHand: decimal.NewFromInt(20)})
	store.SeedProduct(entity.Product{ID: "p-filtro", Name: "Filtro de aceite", OnHand: decimal.NewFromInt(1)})

	ledger := inventory.NewLedgerUseCase(store, store.Products(), store.Movements(), nil, nil)
	tracker := measurement.NewTracker(store, store.Measurements(), store.Vehicles(), false, nil, nil)
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Ledger:    ledger,
		Orders:    orders.NewOrderUseCase(store, ledger, tracker, store.Orders(), store.History(), store.Vehicles(), store.Employees(), nil, nil),
		Recorder:  servicing.NewRecorderUseCase(store, ledger, tracker, store.ServiceEvents(), store.Vehicles(), store.Measurements(), maintenance.DefaultIntervals(), nil, nil),
		Tracker:   tracker,
		JWTSecret: testJWTSecret,
	})
	return app
}

func call(t *testing.T, app *fiber.App, method, path, role string, body any, out any) int {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenForRole(t, role))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func openOrder(t *testing.T, app *fiber.App) dto.OrderResponse {
	t.Helper()
	var order dto.OrderResponse
	status := call(t, app, http.MethodPost, "/api/orders", pkgjwt.RoleMechanic, dto.OpenOrderRequest{
		VehicleID:      "v-1",
		RequesterID:    "e-req",
		MechanicID:     "e-mec",
		ReportedDefect: "cambio de aceite vencido",
		Reading:        decimal.NewFromInt(41000),
	}, &order)
	require.Equal(t, http.StatusCreated, status)
	return order
}

func TestAPI_FlujoDeOrden(t *testing.T) {
	app := buildAPI(t)
	order := openOrder(t, app)
	assert.Equal(t, "Open", order.State)

	var got dto.OrderResponse
	status := call(t, app, http.MethodPost, "/api/orders/"+order.ID+"/submit", pkgjwt.RoleMechanic, nil, &got)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Pending/PendingApproval", got.State)

	status = call(t, app, http.MethodPost, "/api/orders/"+order.ID+"/sub-status", pkgjwt.RolePurchases,
		dto.SubStatusRequest{SubStatus: "Approved"}, &got)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Pending/Approved", got.State)

	status = call(t, app, http.MethodPost, "/api/orders/"+order.ID+"/finalize", pkgjwt.RoleWarehouse, dto.FinalizeRequest{
		Items: []dto.ItemRequest{{ProductID: "p-aceite", Quantity: decimal.NewFromInt(4)}},
	}, &got)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Completed/Finalized", got.State)

	var history []dto.StatusHistoryResponse
	status = call(t, app, http.MethodGet, "/api/orders/"+order.ID+"/history", pkgjwt.RoleMechanic, nil, &history)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, history, 4)

	var product dto.ProductResponse
	status = call(t, app, http.MethodGet, "/api/inventory/products/p-aceite", pkgjwt.RoleMechanic, nil, &product)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decimal.NewFromInt(16).Equal(product.OnHand))
}

func TestAPI_StockInsuficienteResponde409(t *testing.T) {
	app := buildAPI(t)

	var errBody dto.ErrorResponse
	status := call(t, app, http.MethodPost, "/api/inventory/exits", pkgjwt.RoleWarehouse, dto.MovementRequest{
		ProductID: "p-filtro",
		Quantity:  decimal.NewFromInt(3),
		Reference: "taller",
	}, &errBody)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", errBody.Code)
	assert.Contains(t, errBody.Message, "Filtro de aceite")
}

func TestAPI_RolSinPermisoResponde403(t *testing.T) {
	app := buildAPI(t)
	order := openOrder(t, app)

	status := call(t, app, http.MethodPost, "/api/orders/"+order.ID+"/finalize", pkgjwt.RoleMechanic, nil, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status = call(t, app, http.MethodDelete, "/api/orders/"+order.ID, pkgjwt.RoleWarehouse, nil, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestAPI_ValidacionResponde400(t *testing.T) {
	app := buildAPI(t)

	var errBody dto.ErrorResponse
	status := call(t, app, http.MethodPost, "/api/orders", pkgjwt.RoleMechanic, dto.OpenOrderRequest{
		VehicleID:   "v-1",
		RequesterID: "e-req",
		MechanicID:  "e-mec",
		Reading:     decimal.NewFromInt(41000),
	}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", errBody.Code)

	order := openOrder(t, app)
	status = call(t, app, http.MethodPost, "/api/orders/"+order.ID+"/sub-status", pkgjwt.RolePurchases,
		dto.SubStatusRequest{SubStatus: "Perdida"}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPI_TransicionInvalidaResponde409(t *testing.T) {
	app := buildAPI(t)
	order := openOrder(t, app)

	var errBody dto.ErrorResponse
	status := call(t, app, http.MethodPost, "/api/orders/"+order.ID+"/reject", pkgjwt.RolePurchases,
		dto.TransitionRequest{Note: "sin cupo"}, &errBody)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INVALID_TRANSITION", errBody.Code)
}

func TestAPI_CambioDeAceiteYEliminacion(t *testing.T) {
	app := buildAPI(t)

	var ev dto.ServiceEventResponse
	status := call(t, app, http.MethodPost, "/api/service-events/oil-changes", pkgjwt.RoleMechanic, dto.OilChangeRequest{
		VehicleID:        "v-1",
		Reading:          decimal.NewFromInt(42000),
		PrimaryProductID: "p-aceite",
		PrimaryQuantity:  decimal.NewFromInt(4),
	}, &ev)
	require.Equal(t, http.StatusCreated, status)

	var due dto.DueStatusResponse
	status = call(t, app, http.MethodGet, "/api/vehicles/v-1/due-status", pkgjwt.RoleMechanic, nil, &due)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "normal", due.Level)

	status = call(t, app, http.MethodDelete, "/api/service-events/"+ev.ID, pkgjwt.RoleWarehouse, nil, nil)
	require.Equal(t, http.StatusNoContent, status)

	var product dto.ProductResponse
	call(t, app, http.MethodGet, "/api/inventory/products/p-aceite", pkgjwt.RoleMechanic, nil, &product)
	assert.True(t, decimal.NewFromInt(20).Equal(product.OnHand))
}

func TestAPI_SinTokenResponde401(t *testing.T) {
	app := buildAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
