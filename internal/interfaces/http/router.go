package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Flota-api/internal/application/inventory"
	"github.com/jhoicas/Flota-api/internal/application/measurement"
	"github.com/jhoicas/Flota-api/internal/application/orders"
	"github.com/jhoicas/Flota-api/internal/application/servicing"
	"github.com/jhoicas/Flota-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger    *inventory.LedgerUseCase
	Orders    *orders.OrderUseCase
	Recorder  *servicing.RecorderUseCase
	Tracker   *measurement.Tracker
	JWTSecret string
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Mesa de compras: bodega, compras y administración mueven la solicitud.
	purchasing := RequireRole(jwt.RoleAdmin, jwt.RoleWarehouse, jwt.RolePurchases)
	warehouse := RequireRole(jwt.RoleAdmin, jwt.RoleWarehouse)

	orderHandler := NewOrderHandler(deps.Orders)
	ordersGroup := api.Group("/orders")
	ordersGroup.Post("/", orderHandler.Open)
	ordersGroup.Get("/", orderHandler.List)
	ordersGroup.Get("/:id", orderHandler.Get)
	ordersGroup.Delete("/:id", RequireRole(jwt.RoleAdmin), orderHandler.Delete)
	ordersGroup.Post("/:id/submit", orderHandler.Submit)
	ordersGroup.Post("/:id/sub-status", purchasing, orderHandler.SetSubStatus)
	ordersGroup.Post("/:id/reject", purchasing, orderHandler.Reject)
	ordersGroup.Post("/:id/consumptions", warehouse, orderHandler.RecordConsumption)
	ordersGroup.Post("/:id/finalize", purchasing, orderHandler.Finalize)
	ordersGroup.Get("/:id/history", orderHandler.History)

	serviceHandler := NewServiceHandler(deps.Recorder)
	events := api.Group("/service-events")
	events.Post("/oil-changes", serviceHandler.RegisterOilChange)
	events.Post("/maintenance", serviceHandler.RegisterMaintenance)
	events.Delete("/:id", RequireRole(jwt.RoleAdmin, jwt.RoleWarehouse), serviceHandler.Delete)

	vehicleHandler := NewVehicleHandler(deps.Recorder, deps.Tracker)
	vehicles := api.Group("/vehicles")
	vehicles.Get("/:id/service-history", vehicleHandler.ServiceHistory)
	vehicles.Get("/:id/due-status", vehicleHandler.DueStatus)
	vehicles.Get("/:id/measurement", vehicleHandler.Measurement)
	vehicles.Post("/:id/measurement", vehicleHandler.RecordMeasurement)
	vehicles.Get("/:id/measurement/history", vehicleHandler.MeasurementHistory)

	inventoryHandler := NewInventoryHandler(deps.Ledger)
	inv := api.Group("/inventory")
	inv.Post("/entries", warehouse, inventoryHandler.RecordEntry)
	inv.Post("/exits", warehouse, inventoryHandler.RecordExit)
	inv.Post("/movements/:id/reverse", warehouse, inventoryHandler.Reverse)
	inv.Post("/products", warehouse, inventoryHandler.CreateProduct)
	inv.Get("/products/:id", inventoryHandler.GetProduct)
	inv.Get("/products/:id/movements", inventoryHandler.ListMovements)
}
