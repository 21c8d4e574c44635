package lognotify

import (
	"context"

	"pet-wellness/internal/platform/logger"
	"pet-wellness/internal/ports/notify"
)

// Notifier escribe el recordatorio al log en vez de entregarlo.
// Default en dev y en tests de integración sin broker.
type Notifier struct {
	log logger.Logger
}

func New(log logger.Logger) *Notifier {
	return &Notifier{log: log.With(map[string]any{"component": "notifier"})}
}

func (n *Notifier) Send(ctx context.Context, m notify.Message) error {
	n.log.Info("reminder delivered (log-only)", map[string]any{
		"to":      m.To,
		"subject": m.Subject,
	})
	return nil
}
