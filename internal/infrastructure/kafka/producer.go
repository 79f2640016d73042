// Package kafka publica los eventos de dominio en un tópico de Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/Flota-api/internal/application/ports"
	"github.com/jhoicas/Flota-api/pkg/logger"
)

var (
	_ ports.EventPublisher = (*Producer)(nil)
	_ ports.EventPublisher = (*LogPublisher)(nil)
)

// messageWriter lo que el productor necesita de *kafka.Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publica cada evento como un mensaje JSON con Key = entidad afectada,
// de modo que los eventos de una misma orden o producto conservan su orden en la partición.
type Producer struct {
	writer messageWriter
}

// NewProducer crea el writer contra los brokers y el tópico dados. writeTimeout acota
// la escritura y la lectura de acks de cada lote.
func NewProducer(brokers []string, topic string, writeTimeout time.Duration) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: writeTimeout,
		ReadTimeout:  writeTimeout,
		RequiredAcks: kafka.RequireOne,
	}
	return &Producer{writer: writer}
}

// Publish envía los eventos en un solo lote.
func (p *Producer) Publish(ctx context.Context, events ...ports.Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("serializar evento %s: %w", ev.Type, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(ev.Key),
			Value: data,
			Time:  ev.OccurredAt,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(ev.Type)},
			},
		})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publicar en kafka: %w", err)
	}
	return nil
}

// Close vacía y cierra el writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

// LogPublisher publicador usado cuando no hay brokers: deja cada evento en el log.
type LogPublisher struct {
	log *logger.Logger
}

// NewLogPublisher construye el publicador de respaldo.
func NewLogPublisher(log *logger.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, events ...ports.Event) error {
	for _, ev := range events {
		p.log.Info().Str("event_type", ev.Type).Str("key", ev.Key).Interface("payload", ev.Payload).Msg("evento de dominio")
	}
	return nil
}
