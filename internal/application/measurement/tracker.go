// Package measurement mantiene la lectura vigente de cada vehículo (odómetro, horómetro o
// contador de meses) y su historial de actualizaciones.
package measurement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Flota-api/internal/application/ports"
	"github.com/jhoicas/Flota-api/internal/domain"
	"github.com/jhoicas/Flota-api/internal/domain/entity"
	"github.com/jhoicas/Flota-api/internal/domain/repository"
	"github.com/jhoicas/Flota-api/pkg/logger"
)

// Update solicitud de actualización de lectura.
type Update struct {
	VehicleID  string
	Kind       entity.MeasurementKind
	Baseline   decimal.Decimal // lectura del registro de vehículos, usada si aún no hay lectura propia
	Reading    decimal.Decimal
	Actor      string
	Note       string
	SourceType string
	SourceID   string
	// OnlyIfGreater aplica la lectura solo si es un nuevo máximo; una menor se registra en el log
	// como advertencia y no falla.
	OnlyIfGreater bool
	// AllowDecrease acepta una lectura menor (anomalía) si la política del servicio lo permite.
	AllowDecrease bool
}

// Result resultado de aplicar una actualización.
type Result struct {
	Applied     bool
	Measurement *entity.VehicleMeasurement
	Entry       *entity.MeasurementHistoryEntry
}

// Event evento measurement.updated (vacío si no se aplicó).
func (r Result) Event() []ports.Event {
	if !r.Applied || r.Entry == nil {
		return nil
	}
	return []ports.Event{{
		Type:       ports.EventMeasurementUpdated,
		Key:        r.Entry.VehicleID,
		OccurredAt: r.Entry.CreatedAt,
		Payload:    r.Entry,
	}}
}

// ValidateReading lectura positiva con a lo sumo dos decimales.
func ValidateReading(reading decimal.Decimal) error {
	if !reading.IsPositive() {
		return domain.NewValidationError("reading", "debe ser mayor que cero")
	}
	if !entity.FitsPlaces(reading, entity.ReadingPlaces) {
		return domain.NewValidationError("reading", "admite como máximo 2 decimales")
	}
	return nil
}

// Tracker caso de uso de lecturas de vehículos.
type Tracker struct {
	txRunner      ports.TxRunner
	repo          repository.VehicleMeasurementRepository
	vehicles      repository.VehicleRepository
	allowDecrease bool
	notifier      *ports.Notifier
	log           *logger.Logger
}

// NewTracker construye el tracker. allowDecrease es la política global para lecturas menores.
func NewTracker(
	txRunner ports.TxRunner,
	repo repository.VehicleMeasurementRepository,
	vehicles repository.VehicleRepository,
	allowDecrease bool,
	notifier *ports.Notifier,
	log *logger.Logger,
) *Tracker {
	if log == nil {
		log = logger.Nop()
	}
	return &Tracker{
		txRunner:      txRunner,
		repo:          repo,
		vehicles:      vehicles,
		allowDecrease: allowDecrease,
		notifier:      notifier,
		log:           log.Component("measurement"),
	}
}

// ApplyInTx aplica la lectura en la transacción del caller. Una lectura igual a la vigente
// no genera historial. Una lectura menor se ignora con OnlyIfGreater; si no, se rechaza con
// ValidationError salvo que el caller y la política permitan la disminución, en cuyo caso
// queda marcada como anomalía.
func (t *Tracker) ApplyInTx(ctx context.Context, r ports.Repositories, u Update) (Result, error) {
	if u.VehicleID == "" {
		return Result{}, domain.NewValidationError("vehicle_id", "requerido")
	}
	if err := ValidateReading(u.Reading); err != nil {
		return Result{}, err
	}
	m, err := r.Measurements.GetForUpdate(ctx, u.VehicleID)
	if err != nil {
		return Result{}, err
	}
	if m == nil {
		m = &entity.VehicleMeasurement{VehicleID: u.VehicleID, Reading: u.Baseline, Kind: u.Kind}
	}

	anomaly := false
	switch u.Reading.Cmp(m.Reading) {
	case 0:
		return Result{Measurement: m}, nil
	case -1:
		if u.OnlyIfGreater {
			t.log.Warn().
				Str("vehicle_id", u.VehicleID).
				Str("current", m.Reading.String()).
				Str("reading", u.Reading.String()).
				Str("source_type", u.SourceType).
				Str("source_id", u.SourceID).
				Msg("lectura menor a la vigente ignorada")
			return Result{Measurement: m}, nil
		}
		if !u.AllowDecrease || !t.allowDecrease {
			return Result{}, domain.NewValidationError("reading",
				"la lectura "+u.Reading.String()+" es menor a la vigente "+m.Reading.String())
		}
		anomaly = true
	}

	now := time.Now()
	entry := &entity.MeasurementHistoryEntry{
		ID:         uuid.New().String(),
		VehicleID:  u.VehicleID,
		Previous:   m.Reading,
		New:        u.Reading,
		Actor:      u.Actor,
		Note:       u.Note,
		SourceType: u.SourceType,
		SourceID:   u.SourceID,
		Anomaly:    anomaly,
		CreatedAt:  now,
	}
	m.Reading = u.Reading
	m.UpdatedAt = now
	if m.Kind == "" {
		m.Kind = u.Kind
	}
	if err := r.Measurements.Upsert(ctx, m); err != nil {
		return Result{}, err
	}
	if err := r.Measurements.AppendHistory(ctx, entry); err != nil {
		return Result{}, err
	}
	if anomaly {
		t.log.Warn().
			Str("vehicle_id", u.VehicleID).
			Str("previous", entry.Previous.String()).
			Str("reading", entry.New.String()).
			Str("actor", u.Actor).
			Msg("lectura menor a la vigente aceptada como anomalía")
	}
	return Result{Applied: true, Measurement: m, Entry: entry}, nil
}

// RevertSourceInTx deshace las actualizaciones atribuidas a un registro que se elimina.
// Si la actualización sigue siendo la última del vehículo, la lectura vuelve al valor previo
// (o a la mayor lectura de un evento de servicio posterior) y la entrada se elimina. Si el vehículo ya registró lecturas posteriores, la lectura queda
// intacta y la entrada se conserva, salvo que dropHistory sea true.
func (t *Tracker) RevertSourceInTx(ctx context.Context, r ports.Repositories, sourceType, sourceID string, dropHistory bool) ([]ports.Event, error) {
	entries, err := r.Measurements.ListHistoryBySource(ctx, sourceType, sourceID)
	if err != nil {
		return nil, err
	}
	var events []ports.Event
	for _, e := range entries {
		m, err := r.Measurements.GetForUpdate(ctx, e.VehicleID)
		if err != nil {
			return nil, err
		}
		latest, err := r.Measurements.LatestHistory(ctx, e.VehicleID)
		if err != nil {
			return nil, err
		}
		isLatest := m != nil && latest != nil && latest.ID == e.ID && m.Reading.Equal(e.New)
		if isLatest {
			floor, err := revertFloor(ctx, r, e, sourceType, sourceID)
			if err != nil {
				return nil, err
			}
			if floor.Equal(m.Reading) {
				if err := r.Measurements.DeleteHistory(ctx, e.ID); err != nil {
					return nil, err
				}
				continue
			}
			m.Reading = floor
			m.UpdatedAt = time.Now()
			if err := r.Measurements.Upsert(ctx, m); err != nil {
				return nil, err
			}
			events = append(events, ports.Event{
				Type:       ports.EventMeasurementUpdated,
				Key:        e.VehicleID,
				OccurredAt: m.UpdatedAt,
				Payload: map[string]any{
					"vehicle_id":  e.VehicleID,
					"reading":     m.Reading,
					"reverted":    e.ID,
					"source_type": sourceType,
					"source_id":   sourceID,
				},
			})
		}
		if isLatest || dropHistory {
			if err := r.Measurements.DeleteHistory(ctx, e.ID); err != nil {
				return nil, err
			}
		}
	}
	return events, nil
}

// revertFloor lectura a la que vuelve el vehículo al deshacer e: el valor previo, salvo que un
// evento de servicio registrado después de e haya dejado constancia de una lectura mayor.
func revertFloor(ctx context.Context, r ports.Repositories, e *entity.MeasurementHistoryEntry, sourceType, sourceID string) (decimal.Decimal, error) {
	floor := e.Previous
	evs, err := r.ServiceEvents.ListByVehicle(ctx, e.VehicleID, 0, 0)
	if err != nil {
		return decimal.Decimal{}, err
	}
	for _, ev := range evs {
		if sourceType == entity.SourceServiceEvent && ev.ID == sourceID {
			continue
		}
		if ev.CreatedAt.Before(e.CreatedAt) {
			continue
		}
		if ev.Reading.GreaterThan(floor) {
			floor = ev.Reading
		}
	}
	return floor, nil
}

// Record registro manual de lectura (fuera de órdenes y servicios).
func (t *Tracker) Record(ctx context.Context, vehicleID string, reading decimal.Decimal, actor, note string, allowDecrease bool) (*entity.VehicleMeasurement, error) {
	if actor == "" {
		return nil, domain.NewValidationError("actor", "requerido")
	}
	vehicle, err := t.vehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	var res Result
	err = t.txRunner.Run(ctx, func(r ports.Repositories) error {
		var err error
		res, err = t.ApplyInTx(ctx, r, Update{
			VehicleID:     vehicle.ID,
			Kind:          vehicle.MeasurementKind,
			Baseline:      vehicle.CurrentReading,
			Reading:       reading,
			Actor:         actor,
			Note:          note,
			SourceType:    entity.SourceManual,
			AllowDecrease: allowDecrease,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	t.notifier.Notify(ctx, res.Event()...)
	return res.Measurement, nil
}

// Current lectura vigente; si el vehículo aún no tiene lectura propia se usa la del registro.
func (t *Tracker) Current(ctx context.Context, vehicleID string) (*entity.VehicleMeasurement, error) {
	vehicle, err := t.vehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	m, err := t.repo.Get(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return &entity.VehicleMeasurement{
			VehicleID: vehicle.ID,
			Reading:   vehicle.CurrentReading,
			Kind:      vehicle.MeasurementKind,
		}, nil
	}
	return m, nil
}

// History historial de lecturas, más reciente primero.
func (t *Tracker) History(ctx context.Context, vehicleID string, limit int) ([]*entity.MeasurementHistoryEntry, error) {
	if _, err := t.vehicle(ctx, vehicleID); err != nil {
		return nil, err
	}
	return t.repo.ListHistory(ctx, vehicleID, limit)
}

func (t *Tracker) vehicle(ctx context.Context, vehicleID string) (*entity.Vehicle, error) {
	if vehicleID == "" {
		return nil, domain.NewValidationError("vehicle_id", "requerido")
	}
	v, err := t.vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, domain.NewNotFoundError("vehículo", vehicleID)
	}
	return v, nil
}
