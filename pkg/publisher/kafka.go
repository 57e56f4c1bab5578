package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka appends every event to one topic keyed by event name.
type Kafka struct {
	w       messageWriter
	brokers []string
}

func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{brokers: brokers, w: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}}
}

func (k *Kafka) Emit(ctx context.Context, event string, payload any) error {
	b, err := json.Marshal(Event{Name: event, Data: payload})
	if err != nil {
		return err
	}
	return k.w.WriteMessages(ctx, kafka.Message{Key: []byte(event), Value: b, Time: time.Now()})
}

// Ping dials the first reachable broker.
func (k *Kafka) Ping(ctx context.Context) error {
	var err error
	for _, b := range k.brokers {
		var conn *kafka.Conn
		if conn, err = kafka.DialContext(ctx, "tcp", b); err == nil {
			return conn.Close()
		}
	}
	if err == nil {
		err = errors.New("no kafka brokers configured")
	}
	return err
}

func (k *Kafka) Close() error { return k.w.Close() }
