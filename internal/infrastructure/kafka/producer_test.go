package kafka

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Flota-api/internal/application/ports"
	"github.com/jhoicas/Flota-api/pkg/logger"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestProducer_PublicaConClaveYTipo(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w}
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	err := p.Publish(context.Background(),
		ports.Event{Type: ports.EventStockChanged, Key: "p-aceite", OccurredAt: at, Payload: map[string]string{"on_hand": "16"}},
		ports.Event{Type: ports.EventOrderStatusChanged, Key: "o-1", OccurredAt: at},
	)
	require.NoError(t, err)
	require.Len(t, w.msgs, 2)

	assert.Equal(t, "p-aceite", string(w.msgs[0].Key))
	assert.Equal(t, at, w.msgs[0].Time)
	assert.Equal(t, "event_type", w.msgs[0].Headers[0].Key)
	assert.Equal(t, ports.EventStockChanged, string(w.msgs[0].Headers[0].Value))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, ports.EventStockChanged, decoded["type"])
	assert.Equal(t, "16", decoded["payload"].(map[string]any)["on_hand"])
}

func TestProducer_SinEventosNoEscribe(t *testing.T) {
	w := &fakeWriter{err: errors.New("no debería llamarse")}
	p := &Producer{writer: w}
	assert.NoError(t, p.Publish(context.Background()))
}

func TestProducer_PropagaErrorDelBroker(t *testing.T) {
	p := &Producer{writer: &fakeWriter{err: errors.New("broker caído")}}
	err := p.Publish(context.Background(), ports.Event{Type: ports.EventOrderDeleted, Key: "o-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker caído")
}

func TestNewProducer_AcotaEscritura(t *testing.T) {
	p := NewProducer([]string{"kafka-1:9092"}, "flota.maintenance", 750*time.Millisecond)
	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)

	assert.Equal(t, 750*time.Millisecond, w.WriteTimeout)
	assert.Equal(t, 750*time.Millisecond, w.ReadTimeout)
	assert.Equal(t, "flota.maintenance", w.Topic)
	assert.Equal(t, kafka.RequireOne, w.RequiredAcks)
}

func TestLogPublisher_RegistraEvento(t *testing.T) {
	var buf bytes.Buffer
	pub := NewLogPublisher(logger.New(logConfig(&buf)))

	require.NoError(t, pub.Publish(context.Background(), ports.Event{Type: ports.EventMeasurementUpdated, Key: "v-1"}))
	assert.Contains(t, buf.String(), ports.EventMeasurementUpdated)
	assert.Contains(t, buf.String(), `"key":"v-1"`)
}

func logConfig(buf *bytes.Buffer) logger.Config {
	return logger.Config{Env: "test", Level: "info", Output: buf}
}
