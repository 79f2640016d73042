package ports

import (
	"context"
	"time"

	"github.com/jhoicas/Flota-api/pkg/logger"
)

// Tipos de evento de dominio emitidos tras confirmar una transacción.
const (
	EventOrderStatusChanged = "order.status_changed"
	EventOrderDeleted       = "order.deleted"
	EventStockChanged       = "stock.changed"
	EventServiceRegistered  = "service_event.registered"
	EventServiceDeleted     = "service_event.deleted"
	EventMeasurementUpdated = "measurement.updated"
)

// Event evento de dominio. Key agrupa los eventos de una misma entidad (partición en Kafka).
type Event struct {
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// EventPublisher puerto de salida para eventos de dominio (Kafka, log, mock).
type EventPublisher interface {
	Publish(ctx context.Context, events ...Event) error
}

// Notifier publica eventos de operaciones ya confirmadas. La operación ya es definitiva,
// así que un fallo de publicación se registra y no se devuelve al caller.
type Notifier struct {
	pub     EventPublisher
	log     *logger.Logger
	timeout time.Duration
}

// defaultPublishTimeout tope de espera de una publicación sobre el request que la originó.
const defaultPublishTimeout = 5 * time.Second

// NewNotifier construye el notificador. pub puede ser nil (sin publicación).
func NewNotifier(pub EventPublisher, log *logger.Logger) *Notifier {
	if log == nil {
		log = logger.Nop()
	}
	return &Notifier{pub: pub, log: log, timeout: defaultPublishTimeout}
}

// WithTimeout fija el tope de cada publicación; d <= 0 conserva el valor actual.
func (n *Notifier) WithTimeout(d time.Duration) *Notifier {
	if d > 0 {
		n.timeout = d
	}
	return n
}

// Notify publica los eventos; vacío o sin publicador es un no-op.
func (n *Notifier) Notify(ctx context.Context, events ...Event) {
	if n == nil || n.pub == nil || len(events) == 0 {
		return
	}
	// la operación ya se confirmó: la cancelación del request no debe impedir publicar
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()
	if err := n.pub.Publish(pubCtx, events...); err != nil {
		n.log.Warn().Err(err).Int("events", len(events)).Str("type", events[0].Type).
			Msg("no se pudieron publicar eventos de dominio")
	}
}
