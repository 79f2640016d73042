package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"

	_ "github.com/jhoicas/Flota-api/docs"
	"github.com/jhoicas/Flota-api/internal/application/inventory"
	"github.com/jhoicas/Flota-api/internal/application/measurement"
	"github.com/jhoicas/Flota-api/internal/application/orders"
	"github.com/jhoicas/Flota-api/internal/application/ports"
	"github.com/jhoicas/Flota-api/internal/application/servicing"
	"github.com/jhoicas/Flota-api/internal/domain/entity"
	"github.com/jhoicas/Flota-api/internal/domain/maintenance"
	"github.com/jhoicas/Flota-api/internal/domain/repository"
	"github.com/jhoicas/Flota-api/internal/infrastructure/kafka"
	"github.com/jhoicas/Flota-api/internal/infrastructure/memory"
	"github.com/jhoicas/Flota-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Flota-api/internal/interfaces/http"
	"github.com/jhoicas/Flota-api/pkg/config"
	"github.com/jhoicas/Flota-api/pkg/logger"
)

// @title        Flota API
// @version      1.0
// @description  Órdenes de mantenimiento, libro de inventario, eventos de servicio y lecturas de la flota.
// @BasePath     /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
// @description                 Token JWT con el prefijo "Bearer ".

// storage repositorios de lectura más el runner de transacciones del driver elegido.
type storage struct {
	tx        ports.TxRunner
	repos     ports.Repositories
	vehicles  repository.VehicleRepository
	employees repository.EmployeeRepository
	demo      bool
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.StorageDriver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer store.close()

	// Eventos de dominio: Kafka si hay brokers, si no solo log.
	var publisher ports.EventPublisher = kafka.NewLogPublisher(log)
	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.WriteTimeout())
		defer func() {
			if err := producer.Close(); err != nil {
				log.Error().Err(err).Msg("cerrar productor Kafka")
			}
		}()
		publisher = producer
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publicando eventos en Kafka")
	}
	notifier := ports.NewNotifier(publisher, log).WithTimeout(cfg.Kafka.WriteTimeout())

	intervals := maintenance.Intervals{
		Distance: decimal.NewFromInt(int64(cfg.Maintenance.IntervalDistance)),
		Hours:    decimal.NewFromInt(int64(cfg.Maintenance.IntervalHours)),
		Months:   decimal.NewFromInt(int64(cfg.Maintenance.IntervalMonths)),
	}

	ledger := inventory.NewLedgerUseCase(store.tx, store.repos.Products, store.repos.Movements, notifier, log)
	tracker := measurement.NewTracker(store.tx, store.repos.Measurements, store.vehicles,
		cfg.Maintenance.AllowReadingDecrease, notifier, log)
	orderUC := orders.NewOrderUseCase(store.tx, ledger, tracker,
		store.repos.Orders, store.repos.History, store.vehicles, store.employees, notifier, log)
	recorder := servicing.NewRecorderUseCase(store.tx, ledger, tracker,
		store.repos.ServiceEvents, store.vehicles, store.repos.Measurements, intervals, notifier, log)

	if store.demo {
		if err := seedDemoStock(ctx, ledger); err != nil {
			log.Fatal().Err(err).Msg("cargar inventario de demostración")
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Flota API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.App.StorageDriver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:    ledger,
		Orders:    orderUC,
		Recorder:  recorder,
		Tracker:   tracker,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.App.StorageDriver == "memory" {
		mem := memory.New()
		seedDemo(mem)
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		return &storage{
			tx: mem,
			repos: ports.Repositories{
				Products:      mem.Products(),
				Movements:     mem.Movements(),
				Orders:        mem.Orders(),
				History:       mem.History(),
				ServiceEvents: mem.ServiceEvents(),
				Measurements:  mem.Measurements(),
			},
			vehicles:  mem.Vehicles(),
			employees: mem.Employees(),
			demo:      true,
			close:     func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("migraciones aplicadas")
	}
	return &storage{
		tx:        postgres.NewTxRunner(pool),
		repos:     postgres.Repositories(pool),
		vehicles:  postgres.NewVehicleRepository(pool),
		employees: postgres.NewEmployeeRepository(pool),
		close:     pool.Close,
	}, nil
}

// seedDemo datos mínimos para probar la API sin base de datos.
func seedDemo(mem *memory.Store) {
	mem.SeedVehicle(entity.Vehicle{ID: "veh-001", Plate: "TRK-101", MeasurementKind: entity.MeasureDistance, CurrentReading: decimal.NewFromInt(48200)})
	mem.SeedVehicle(entity.Vehicle{ID: "veh-002", Plate: "EXC-07", MeasurementKind: entity.MeasureHours, CurrentReading: decimal.NewFromInt(3150)})
	mem.SeedEmployee(entity.Employee{ID: "emp-001", Name: "Jefe de taller", Role: "admin", Active: true})
	mem.SeedEmployee(entity.Employee{ID: "emp-002", Name: "Mecánico de turno", Role: "mecanico", Active: true})
}

// seedDemoStock crea los productos de demostración con su entrada de inventario inicial,
// de modo que la existencia quede respaldada por el kardex.
func seedDemoStock(ctx context.Context, ledger *inventory.LedgerUseCase) error {
	products := []inventory.CreateProductInput{
		{ID: "prd-001", Name: "Aceite 15W40", Category: "Lubricantes", UnitMeasure: "GAL", InitialStock: decimal.NewFromInt(20)},
		{ID: "prd-002", Name: "Filtro de aceite", Category: "Filtros", UnitMeasure: "UND", InitialStock: decimal.NewFromInt(12)},
		{ID: "prd-003", Name: "Filtro de aire", Category: "Filtros", UnitMeasure: "UND", InitialStock: decimal.NewFromInt(6)},
	}
	for _, in := range products {
		in.Actor = "emp-001"
		if _, err := ledger.CreateProduct(ctx, in); err != nil {
			return fmt.Errorf("producto %s: %w", in.ID, err)
		}
	}
	return nil
}
