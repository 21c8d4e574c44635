package kafkanotify

import (
	"context"
	"encoding/json"
	"time"

	"pet-wellness/internal/ports/notify"

	"github.com/segmentio/kafka-go"
)

// Notifier publica recordatorios a un topic de Kafka; un worker de email
// aguas abajo los entrega. La clave es el destinatario para mantener orden
// por dueño.
type Notifier struct {
	writer *kafka.Writer
}

func New(brokers []string, topic string) *Notifier {
	return &Notifier{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: 10 * time.Second,
		},
	}
}

type reminderEvent struct {
	To       string    `json:"to"`
	Subject  string    `json:"subject"`
	Body     string    `json:"body"`
	QueuedAt time.Time `json:"queued_at"`
}

func (n *Notifier) Send(ctx context.Context, m notify.Message) error {
	payload, err := json.Marshal(reminderEvent{
		To:       m.To,
		Subject:  m.Subject,
		Body:     m.Body,
		QueuedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	return n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(m.To),
		Value: payload,
	})
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}
