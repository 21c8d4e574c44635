package notify

import "context"

// Message es un recordatorio listo para entregar al dueño.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier entrega mensajes best-effort. Un error aquí se loguea y
// nunca se propaga a las operaciones de dominio.
type Notifier interface {
	Send(ctx context.Context, m Message) error
}
