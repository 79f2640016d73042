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
	pkgjwt "github.com/jhoicas/Flota-api/pkg/jwt"
)

const (
	testJWTSecret  = "test-secret-key-for-unit-tests"
	testEmployeeID = "e-token"
	testIssuer     = "flota-api-test"
	testExpMin     = 60
)

// tokenForRole genera un JWT del empleado de prueba con el rol indicado.
func tokenForRole(t *testing.T, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testEmployeeID, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

// send lanza la petición con el header Authorization tal cual y decodifica el error si lo hay.
func send(t *testing.T, app *fiber.App, method, path, authHeader string, body any) (int, dto.ErrorResponse) {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var errBody dto.ErrorResponse
	if resp.StatusCode >= http.StatusBadRequest {
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
	}
	return resp.StatusCode, errBody
}

// Las rutas con rol responden 403 antes de llegar al caso de uso; los roles
// admitidos llegan al handler y reciben el error propio de la operación.
func TestRouter_PermisosPorRol(t *testing.T) {
	rejectBody := dto.TransitionRequest{Note: "repuesto descontinuado"}
	exitBody := dto.MovementRequest{ProductID: "p-aceite", Quantity: decimal.Zero}

	cases := []struct {
		name     string
		method   string
		path     string
		role     string
		body     any
		wantCode int
	}{
		{"rechazo compras", http.MethodPost, "/api/orders/o-x/reject", pkgjwt.RolePurchases, rejectBody, http.StatusNotFound},
		{"rechazo bodeguero", http.MethodPost, "/api/orders/o-x/reject", pkgjwt.RoleWarehouse, rejectBody, http.StatusNotFound},
		{"rechazo admin", http.MethodPost, "/api/orders/o-x/reject", pkgjwt.RoleAdmin, rejectBody, http.StatusNotFound},
		{"rechazo mecanico", http.MethodPost, "/api/orders/o-x/reject", pkgjwt.RoleMechanic, rejectBody, http.StatusForbidden},
		{"sub-estado mecanico", http.MethodPost, "/api/orders/o-x/sub-status", pkgjwt.RoleMechanic, dto.SubStatusRequest{SubStatus: "Approved"}, http.StatusForbidden},
		{"finalizar mecanico", http.MethodPost, "/api/orders/o-x/finalize", pkgjwt.RoleMechanic, dto.FinalizeRequest{}, http.StatusForbidden},
		{"consumo compras", http.MethodPost, "/api/orders/o-x/consumptions", pkgjwt.RolePurchases, dto.ConsumptionRequest{}, http.StatusForbidden},
		{"salida bodeguero", http.MethodPost, "/api/inventory/exits", pkgjwt.RoleWarehouse, exitBody, http.StatusBadRequest},
		{"salida admin", http.MethodPost, "/api/inventory/exits", pkgjwt.RoleAdmin, exitBody, http.StatusBadRequest},
		{"salida compras", http.MethodPost, "/api/inventory/exits", pkgjwt.RolePurchases, exitBody, http.StatusForbidden},
		{"salida mecanico", http.MethodPost, "/api/inventory/exits", pkgjwt.RoleMechanic, exitBody, http.StatusForbidden},
		{"entrada mecanico", http.MethodPost, "/api/inventory/entries", pkgjwt.RoleMechanic, exitBody, http.StatusForbidden},
		{"reverso compras", http.MethodPost, "/api/inventory/movements/m-x/reverse", pkgjwt.RolePurchases, nil, http.StatusForbidden},
		{"reverso bodeguero", http.MethodPost, "/api/inventory/movements/m-x/reverse", pkgjwt.RoleWarehouse, nil, http.StatusNotFound},
		{"borrar orden admin", http.MethodDelete, "/api/orders/o-x", pkgjwt.RoleAdmin, nil, http.StatusNotFound},
		{"borrar orden bodeguero", http.MethodDelete, "/api/orders/o-x", pkgjwt.RoleWarehouse, nil, http.StatusForbidden},
		{"borrar evento bodeguero", http.MethodDelete, "/api/service-events/ev-x", pkgjwt.RoleWarehouse, nil, http.StatusNotFound},
		{"borrar evento mecanico", http.MethodDelete, "/api/service-events/ev-x", pkgjwt.RoleMechanic, nil, http.StatusForbidden},
		{"listar ordenes mecanico", http.MethodGet, "/api/orders", pkgjwt.RoleMechanic, nil, http.StatusOK},
	}

	app := buildAPI(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, errBody := send(t, app, tc.method, tc.path, tokenForRole(t, tc.role), tc.body)
			assert.Equal(t, tc.wantCode, status)
			if tc.wantCode == http.StatusForbidden {
				assert.Equal(t, "FORBIDDEN", errBody.Code)
			}
		})
	}
}

func TestRouter_RolDenegadoNoTocaExistencias(t *testing.T) {
	app := buildAPI(t)

	status, _ := send(t, app, http.MethodPost, "/api/inventory/exits", tokenForRole(t, pkgjwt.RoleMechanic),
		dto.MovementRequest{ProductID: "p-aceite", Quantity: decimal.NewFromInt(5)})
	require.Equal(t, http.StatusForbidden, status)

	var product dto.ProductResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/inventory/products/p-aceite", pkgjwt.RoleMechanic, nil, &product))
	assert.True(t, decimal.NewFromInt(20).Equal(product.OnHand))
}

func TestAuthMiddleware_TokenRechazado(t *testing.T) {
	expired, err := pkgjwt.Generate(testJWTSecret, testEmployeeID, pkgjwt.RoleAdmin, testIssuer, -1)
	require.NoError(t, err)
	foreign, err := pkgjwt.Generate("otro-secret-completamente-distinto", testEmployeeID, pkgjwt.RoleAdmin, testIssuer, testExpMin)
	require.NoError(t, err)

	cases := []struct {
		name     string
		header   string
		wantCode string
	}{
		{"sin header", "", "MISSING_TOKEN"},
		{"esquema distinto", "Token abc", "INVALID_TOKEN"},
		{"token malformado", "Bearer token.invalido.aqui", "INVALID_TOKEN"},
		{"token expirado", "Bearer " + expired, "INVALID_TOKEN"},
		{"firma ajena", "Bearer " + foreign, "INVALID_TOKEN"},
	}

	app := buildAPI(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, errBody := send(t, app, http.MethodGet, "/api/orders", tc.header, nil)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, tc.wantCode, errBody.Code)
		})
	}
}

func TestAuthMiddleware_TokenSinRol(t *testing.T) {
	tok, err := pkgjwt.Generate(testJWTSecret, testEmployeeID, "", testIssuer, testExpMin)
	require.NoError(t, err)
	app := buildAPI(t)

	status, errBody := send(t, app, http.MethodPost, "/api/orders/o-x/reject", "Bearer "+tok, dto.TransitionRequest{Note: "x"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "MISSING_ROLE", errBody.Code)

	// Las rutas sin restricción de rol solo exigen un token válido.
	status, _ = send(t, app, http.MethodGet, "/api/orders", "Bearer "+tok, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestAuthMiddleware_ActorSaleDelToken(t *testing.T) {
	app := buildAPI(t)
	order := openOrder(t, app)

	var got dto.OrderResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodPost, "/api/orders/"+order.ID+"/submit", pkgjwt.RoleMechanic, nil, &got))
	require.Equal(t, http.StatusOK, call(t, app, http.MethodPost, "/api/orders/"+order.ID+"/reject", pkgjwt.RolePurchases,
		dto.TransitionRequest{Note: "sin presupuesto"}, &got))

	var history []dto.StatusHistoryResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/orders/"+order.ID+"/history", pkgjwt.RoleMechanic, nil, &history))
	require.Len(t, history, 3)
	for _, h := range history {
		assert.Equal(t, testEmployeeID, h.Actor)
	}
	assert.Equal(t, "sin presupuesto", history[2].Note)
}
